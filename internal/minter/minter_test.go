package minter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal/clients"
	"github.com/wormhole-demo/nft-receiver/internal/payload"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

const solanaDestination = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func testRequest(destination string) Request {
	return Request{
		Intent: payload.TransferIntent{
			Kind:            payload.KindNFT,
			AssetDescriptor: "collection123",
			Metadata:        "tokenA",
			Destination:     destination,
		},
		MessageID: replay.MessageID{
			EmitterChain:   vaaLib.ChainIDEthereum,
			EmitterAddress: vaaLib.Address{31: 0x01},
			Sequence:       7,
		},
		Digest: common.HexToHash("0xabcdef"),
	}
}

func TestMinterInterfaces(t *testing.T) {
	// Every backend must be usable where a Minter is expected
	var _ Minter = (*LogMinter)(nil)
	var _ Minter = (*EVMMinter)(nil)
	var _ Minter = (*SolanaMinter)(nil)
	var _ Minter = (*ServiceMinter)(nil)

	var _ DestinationValidator = (*EVMMinter)(nil)
	var _ DestinationValidator = (*SolanaMinter)(nil)

	var _ WrappedAssetContract = (*clients.EVMClient)(nil)
	var _ MintWrappedSender = (*clients.SolanaClient)(nil)
	var _ MintService = (*clients.MintServiceClient)(nil)
}

func TestLogMinter(t *testing.T) {
	req := testRequest("")
	ref, err := NewLogMinter(zap.NewNop()).Mint(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "log:"+req.Digest.Hex(), ref)
}

type fakeWrappedAssetContract struct {
	calls  int
	target common.Address
	asset  string
	to     common.Address
	hash   common.Hash
	err    error
}

func (f *fakeWrappedAssetContract) MintWrapped(_ context.Context, target common.Address, asset, _ string, to common.Address, hash common.Hash) (string, error) {
	f.calls++
	f.target, f.asset, f.to, f.hash = target, asset, to, hash
	if f.err != nil {
		return "", f.err
	}
	return "0xtx", nil
}

func TestEVMMinter(t *testing.T) {
	fake := &fakeWrappedAssetContract{}
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	dest := "0x00000000000000000000000000000000000000bb"

	ref, err := NewEVMMinter(zap.NewNop(), target, fake).Mint(context.Background(), testRequest(dest))
	require.NoError(t, err)
	assert.Equal(t, "0xtx", ref)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, target, fake.target)
	assert.Equal(t, "collection123", fake.asset)
	assert.Equal(t, common.HexToAddress(dest), fake.to)
	assert.Equal(t, common.HexToHash("0xabcdef"), fake.hash)
}

func TestEVMMinterRejectsNonEVMDestination(t *testing.T) {
	fake := &fakeWrappedAssetContract{}
	_, err := NewEVMMinter(zap.NewNop(), common.Address{}, fake).Mint(context.Background(), testRequest(solanaDestination))
	assert.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestEVMMinterPropagatesFailure(t *testing.T) {
	fake := &fakeWrappedAssetContract{err: errors.New("reverted")}
	_, err := NewEVMMinter(zap.NewNop(), common.Address{}, fake).Mint(context.Background(),
		testRequest("0x00000000000000000000000000000000000000bb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.err)
}

type fakeMintWrappedSender struct {
	params []clients.MintWrappedParams
}

func (f *fakeMintWrappedSender) SendMintWrappedTransaction(_ context.Context, p clients.MintWrappedParams) (string, error) {
	f.params = append(f.params, p)
	return "5ig", nil
}

func TestSolanaMinter(t *testing.T) {
	fake := &fakeMintWrappedSender{}
	req := testRequest(solanaDestination)

	ref, err := NewSolanaMinter(zap.NewNop(), fake).Mint(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "5ig", ref)
	require.Len(t, fake.params, 1)

	p := fake.params[0]
	assert.Equal(t, [32]byte(req.Digest), p.MessageHash)
	assert.Equal(t, uint16(vaaLib.ChainIDEthereum), p.EmitterChain)
	assert.Equal(t, uint64(7), p.Sequence)
	assert.Equal(t, "collection123", p.Asset)
	assert.Equal(t, "tokenA", p.Metadata)
	assert.Equal(t, solana.MustPublicKeyFromBase58(solanaDestination), p.Destination)
}

func TestSolanaMinterRejectsBadDestination(t *testing.T) {
	fake := &fakeMintWrappedSender{}
	_, err := NewSolanaMinter(zap.NewNop(), fake).Mint(context.Background(), testRequest("0xnot-solana"))
	assert.Error(t, err)
	assert.Empty(t, fake.params)
}

func TestValidateDestination(t *testing.T) {
	evm := NewEVMMinter(zap.NewNop(), common.Address{}, &fakeWrappedAssetContract{})
	assert.NoError(t, evm.ValidateDestination("0x00000000000000000000000000000000000000bb"))
	assert.Error(t, evm.ValidateDestination(solanaDestination))
	assert.Error(t, evm.ValidateDestination("0x0000000000000000000000000000000000000000"))
	assert.Error(t, evm.ValidateDestination(""))

	sol := NewSolanaMinter(zap.NewNop(), &fakeMintWrappedSender{})
	assert.NoError(t, sol.ValidateDestination(solanaDestination))
	assert.Error(t, sol.ValidateDestination("0x00000000000000000000000000000000000000bb"))
	assert.Error(t, sol.ValidateDestination(solana.PublicKey{}.String()))
	assert.Error(t, sol.ValidateDestination(""))
}

func TestServiceMinter(t *testing.T) {
	var got clients.MintServiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(clients.MintServiceResponse{Success: true, TxHash: "svc-1"})
	}))
	defer srv.Close()

	req := testRequest(solanaDestination)
	m := NewServiceMinter(zap.NewNop(), clients.NewMintServiceClient(zap.NewNop(), srv.URL))
	ref, err := m.Mint(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", ref)
	assert.Equal(t, req.MessageID.String(), got.MessageID)
	assert.Equal(t, req.Digest.Hex(), got.Digest)
	assert.Equal(t, solanaDestination, got.Destination)
}
