// Package minter contains the collaborators that mint wrapped assets for
// verified transfer intents.
package minter

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wormhole-demo/nft-receiver/internal/payload"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

// Request is everything a Minter needs for one mint.
type Request struct {
	Intent    payload.TransferIntent
	MessageID replay.MessageID
	// Digest is the VAA signing digest. Minters forward it so the target
	// program can reference the message that authorized the mint.
	Digest common.Hash
}

type Minter interface {
	// Mint mints the wrapped asset described by req and returns a reference
	// to the resulting transaction. It must either fully succeed or leave no
	// mint behind.
	Mint(ctx context.Context, req Request) (string, error)
}

// DestinationValidator is implemented by minters that can only mint to
// addresses of one chain.
type DestinationValidator interface {
	ValidateDestination(dest string) error
}
