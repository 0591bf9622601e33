package minter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal/clients"
)

// MintService is satisfied by *clients.MintServiceClient.
type MintService interface {
	Mint(ctx context.Context, request clients.MintServiceRequest) (string, error)
}

// ServiceMinter delegates minting to an external HTTP service.
type ServiceMinter struct {
	service MintService
	logger  *zap.Logger
}

func NewServiceMinter(logger *zap.Logger, service MintService) *ServiceMinter {
	return &ServiceMinter{
		service: service,
		logger:  logger.With(zap.String("component", "ServiceMinter")),
	}
}

func (m *ServiceMinter) Mint(ctx context.Context, req Request) (string, error) {
	ref, err := m.service.Mint(ctx, clients.MintServiceRequest{
		MessageID:   req.MessageID.String(),
		Digest:      req.Digest.Hex(),
		Asset:       req.Intent.AssetDescriptor,
		Metadata:    req.Intent.Metadata,
		Destination: req.Intent.Destination,
	})
	if err != nil {
		return "", fmt.Errorf("mint service: %w", err)
	}

	m.logger.Debug("Mint service accepted request",
		zap.String("messageId", req.MessageID.String()),
		zap.String("ref", ref))
	return ref, nil
}
