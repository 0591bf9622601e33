package minter

import (
	"context"

	"go.uber.org/zap"
)

// LogMinter records the intent without minting anything. It is the default
// for local runs and for deployments where minting happens out of band.
type LogMinter struct {
	logger *zap.Logger
}

func NewLogMinter(logger *zap.Logger) *LogMinter {
	return &LogMinter{logger: logger.With(zap.String("component", "LogMinter"))}
}

func (m *LogMinter) Mint(_ context.Context, req Request) (string, error) {
	m.logger.Info("Received NFT metadata",
		zap.String("messageId", req.MessageID.String()),
		zap.String("asset", req.Intent.AssetDescriptor),
		zap.String("metadata", req.Intent.Metadata),
		zap.String("destination", req.Intent.Destination))
	return "log:" + req.Digest.Hex(), nil
}
