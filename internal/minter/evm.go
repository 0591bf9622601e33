package minter

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// WrappedAssetContract is the EVM call the EVMMinter relies on.
type WrappedAssetContract interface {
	MintWrapped(ctx context.Context, targetContract common.Address, asset, metadata string, to common.Address, messageHash common.Hash) (string, error)
}

// EVMMinter mints wrapped assets through a contract on an EVM chain
type EVMMinter struct {
	targetContract common.Address
	evmClient      WrappedAssetContract
	logger         *zap.Logger
}

// NewEVMMinter creates a new EVM minter instance
func NewEVMMinter(logger *zap.Logger, targetContract common.Address, evmClient WrappedAssetContract) *EVMMinter {
	return &EVMMinter{
		targetContract: targetContract,
		evmClient:      evmClient,
		logger:         logger.With(zap.String("component", "EVMMinter")),
	}
}

// ValidateDestination reports whether dest is a non-zero EVM address.
func (m *EVMMinter) ValidateDestination(dest string) error {
	if !common.IsHexAddress(dest) {
		return fmt.Errorf("destination %q is not an EVM address", dest)
	}
	if common.HexToAddress(dest) == (common.Address{}) {
		return fmt.Errorf("destination is the zero address")
	}
	return nil
}

// Mint sends a mintWrapped transaction and returns its hash
func (m *EVMMinter) Mint(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if err := m.ValidateDestination(req.Intent.Destination); err != nil {
		return "", err
	}
	to := common.HexToAddress(req.Intent.Destination)

	m.logger.Info("Minting wrapped asset on EVM",
		zap.String("messageId", req.MessageID.String()),
		zap.String("targetContract", m.targetContract.Hex()),
		zap.String("asset", req.Intent.AssetDescriptor),
		zap.String("to", to.Hex()))

	txHash, err := m.evmClient.MintWrapped(ctx, m.targetContract, req.Intent.AssetDescriptor, req.Intent.Metadata, to, req.Digest)
	if err != nil {
		return "", fmt.Errorf("failed to mint on EVM: %w", err)
	}

	m.logger.Info("Wrapped asset minted on EVM",
		zap.String("txHash", txHash),
		zap.String("targetContract", m.targetContract.Hex()))

	return txHash, nil
}
