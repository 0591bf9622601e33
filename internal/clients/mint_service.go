package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MintServiceRequest is the body of POST /mint.
type MintServiceRequest struct {
	MessageID   string `json:"messageId"`
	Digest      string `json:"digest"`
	Asset       string `json:"asset"`
	Metadata    string `json:"metadata"`
	Destination string `json:"destination"`
}

type MintServiceResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MintServiceClient talks to an HTTP service that performs the actual mint.
type MintServiceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMintServiceClient creates a new mint service client
func NewMintServiceClient(logger *zap.Logger, baseURL string) *MintServiceClient {
	return &MintServiceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With(zap.String("component", "MintServiceClient")),
	}
}

// Mint asks the service to mint and returns the resulting transaction hash
func (c *MintServiceClient) Mint(ctx context.Context, request MintServiceRequest) (string, error) {
	c.logger.Debug("Sending mint request to service",
		zap.String("messageId", request.MessageID),
		zap.String("asset", request.Asset))

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal mint request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mint", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send mint request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read mint response: %v", err)
	}

	c.logger.Debug("Received response from mint service",
		zap.Int("statusCode", resp.StatusCode))

	var response MintServiceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal mint response (status %d): %v", resp.StatusCode, err)
	}

	if !response.Success {
		return "", fmt.Errorf("mint failed: %s", response.Error)
	}

	return response.TxHash, nil
}

// CheckHealth checks if the mint service is healthy
func (c *MintServiceClient) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mint service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}
