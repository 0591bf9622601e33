package minter

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal/clients"
)

// MintWrappedSender is satisfied by *clients.SolanaClient.
type MintWrappedSender interface {
	SendMintWrappedTransaction(ctx context.Context, p clients.MintWrappedParams) (string, error)
}

// SolanaMinter mints wrapped assets through the wrapped asset program on Solana
type SolanaMinter struct {
	solanaClient MintWrappedSender
	logger       *zap.Logger
}

// NewSolanaMinter creates a new Solana minter instance
func NewSolanaMinter(logger *zap.Logger, solanaClient MintWrappedSender) *SolanaMinter {
	return &SolanaMinter{
		solanaClient: solanaClient,
		logger:       logger.With(zap.String("component", "SolanaMinter")),
	}
}

// ValidateDestination reports whether dest is a non-zero Solana address.
func (m *SolanaMinter) ValidateDestination(dest string) error {
	key, err := solana.PublicKeyFromBase58(dest)
	if err != nil {
		return fmt.Errorf("destination %q is not a Solana address: %w", dest, err)
	}
	if key.IsZero() {
		return fmt.Errorf("destination is the zero address")
	}
	return nil
}

// Mint sends a mint_wrapped transaction and returns its signature
func (m *SolanaMinter) Mint(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if err := m.ValidateDestination(req.Intent.Destination); err != nil {
		return "", err
	}
	destination := solana.MustPublicKeyFromBase58(req.Intent.Destination)

	m.logger.Info("Minting wrapped asset on Solana",
		zap.String("messageId", req.MessageID.String()),
		zap.String("asset", req.Intent.AssetDescriptor),
		zap.String("destination", destination.String()))

	signature, err := m.solanaClient.SendMintWrappedTransaction(ctx, clients.MintWrappedParams{
		MessageHash:  req.Digest,
		EmitterChain: uint16(req.MessageID.EmitterChain),
		Sequence:     req.MessageID.Sequence,
		Asset:        req.Intent.AssetDescriptor,
		Metadata:     req.Intent.Metadata,
		Destination:  destination,
	})
	if err != nil {
		return "", fmt.Errorf("failed to mint on Solana: %w", err)
	}

	m.logger.Info("Wrapped asset minted on Solana", zap.String("signature", signature))

	return signature, nil
}
