package internal

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/wormhole-demo/nft-receiver/internal/payload"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

// Submission is one request to receive a VAA.
type Submission struct {
	// VAA is the raw, untrusted signed VAA.
	VAA []byte
	// FeePayer pays for the receive and is the default mint destination.
	FeePayer solana.PublicKey
	// SystemProgram must be the Solana system program.
	SystemProgram solana.PublicKey
	// TxID optionally names the source transaction, for logs only.
	TxID string
}

// State is a stage of the receive pipeline.
type State string

const (
	StateReceived       State = "received"
	StateDecoded        State = "decoded"
	StateDigestComputed State = "digest_computed"
	StateQuorumVerified State = "quorum_verified"
	StateReplayChecked  State = "replay_checked"
	StatePayloadDecoded State = "payload_decoded"
	StateMinted         State = "minted"
	StateRejected       State = "rejected"
)

// Result is the terminal outcome of Receive.
type Result struct {
	// State is StateMinted or StateRejected.
	State State
	// Stage is the last state reached before a rejection.
	Stage  State
	Reason Reason
	Err    error

	MessageID replay.MessageID
	Digest    common.Hash
	Intent    payload.TransferIntent
	MintRef   string
	// Committed reports whether the message was recorded as consumed by
	// this call. A committed rejection cannot be retried.
	Committed bool
}

// OK reports whether the VAA was minted.
func (r Result) OK() bool {
	return r.State == StateMinted
}
