package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal/minter"
)

// Dispatcher hands verified, committed intents to a Minter.
type Dispatcher struct {
	minter minter.Minter
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger, m minter.Minter) *Dispatcher {
	return &Dispatcher{
		minter: m,
		logger: logger.With(zap.String("component", "Dispatcher")),
	}
}

// ValidateDestination checks dest against the minter's chain before any
// mint is attempted. Minters that accept any destination pass everything.
func (d *Dispatcher) ValidateDestination(dest string) error {
	if dest == "" {
		return errors.Wrap(ErrInvalidPayload, "no destination")
	}
	v, ok := d.minter.(minter.DestinationValidator)
	if !ok {
		return nil
	}
	if err := v.ValidateDestination(dest); err != nil {
		return errors.Wrapf(ErrInvalidPayload, "%v", err)
	}
	return nil
}

// Dispatch calls the minter exactly once. Failures are never retried here:
// the message is already consumed, so a failed mint needs an operator.
func (d *Dispatcher) Dispatch(ctx context.Context, req minter.Request) (string, error) {
	ref, err := d.minter.Mint(ctx, req)
	if err != nil {
		return "", errors.Wrapf(ErrMintFailure, "message %s: %v", req.MessageID, err)
	}
	d.logger.Debug("Mint dispatched",
		zap.String("messageId", req.MessageID.String()),
		zap.String("mintRef", ref))
	return ref, nil
}
