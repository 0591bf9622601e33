package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wormhole-demo/nft-receiver/internal"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

// SubmitRequest is the body of POST /v1/vaas.
type SubmitRequest struct {
	// VAA is hex or base64 encoded.
	VAA  string `json:"vaa"`
	TxID string `json:"txId,omitempty"`
}

type ResultResponse struct {
	State       string `json:"state"`
	Stage       string `json:"stage"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
	Digest      string `json:"digest,omitempty"`
	Asset       string `json:"asset,omitempty"`
	Metadata    string `json:"metadata,omitempty"`
	Destination string `json:"destination,omitempty"`
	MintRef     string `json:"mintRef,omitempty"`
	Committed   bool   `json:"committed"`
}

// FromResult converts a receive result to its response body.
func FromResult(res internal.Result) ResultResponse {
	resp := ResultResponse{
		State:       string(res.State),
		Stage:       string(res.Stage),
		Reason:      string(res.Reason),
		Asset:       res.Intent.AssetDescriptor,
		Metadata:    res.Intent.Metadata,
		Destination: res.Intent.Destination,
		MintRef:     res.MintRef,
		Committed:   res.Committed,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	if res.Stage != internal.StateReceived {
		resp.MessageID = res.MessageID.String()
	}
	if res.Digest != (common.Hash{}) {
		resp.Digest = res.Digest.Hex()
	}
	return resp
}

type MessageResponse struct {
	MessageID  string `json:"messageId"`
	Consumed   bool   `json:"consumed"`
	Digest     string `json:"digest,omitempty"`
	ConsumedAt string `json:"consumedAt,omitempty"`
}

// FromRecord converts a replay record to its response body. A nil record
// means the message has not been consumed.
func FromRecord(id replay.MessageID, record *replay.Record) MessageResponse {
	resp := MessageResponse{MessageID: id.String()}
	if record != nil {
		resp.Consumed = true
		resp.Digest = record.Digest.Hex()
		resp.ConsumedAt = record.ConsumedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

type ErrorResponse struct {
	Error string `json:"error"`
}
