package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMintServiceClientMint(t *testing.T) {
	var got MintServiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mint", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(MintServiceResponse{Success: true, TxHash: "0xfeed"})
	}))
	defer srv.Close()

	client := NewMintServiceClient(zap.NewNop(), srv.URL+"/")
	txHash, err := client.Mint(context.Background(), MintServiceRequest{
		MessageID: "2/00/1",
		Asset:     "collection123",
		Metadata:  "tokenA",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txHash)
	assert.Equal(t, "collection123", got.Asset)
	assert.Equal(t, "tokenA", got.Metadata)
}

func TestMintServiceClientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(MintServiceResponse{Error: "program error"})
	}))
	defer srv.Close()

	_, err := NewMintServiceClient(zap.NewNop(), srv.URL).Mint(context.Background(), MintServiceRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program error")
}

func TestMintServiceClientGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewMintServiceClient(zap.NewNop(), srv.URL).Mint(context.Background(), MintServiceRequest{})
	assert.Error(t, err)
}

func TestMintServiceClientCheckHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewMintServiceClient(zap.NewNop(), srv.URL)
	assert.NoError(t, client.CheckHealth(context.Background()))

	healthy = false
	assert.Error(t, client.CheckHealth(context.Background()))
}
