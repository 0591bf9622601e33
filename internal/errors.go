package internal

import (
	"github.com/pkg/errors"

	"github.com/wormhole-demo/nft-receiver/internal/payload"
)

// Reason is the code attached to every terminal rejection.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonPrecondition      Reason = "precondition_failed"
	ReasonDecode            Reason = "decode_error"
	ReasonVerification      Reason = "verification_error"
	ReasonReplayUnavailable Reason = "replay_unavailable"
	ReasonAlreadyConsumed   Reason = "already_consumed"
	ReasonInvalidPayload    Reason = "invalid_payload"
	ReasonMintFailure       Reason = "mint_failure"
	ReasonInternal          Reason = "internal_error"
)

// Error classes. Every error returned by the pipeline wraps exactly one of them.
var (
	ErrPrecondition      = errors.New("precondition failed")
	ErrDecode            = errors.New("malformed VAA")
	ErrVerification      = errors.New("VAA verification failed")
	ErrReplayUnavailable = errors.New("replay registry unavailable")
	ErrAlreadyConsumed   = errors.New("message already consumed")
	ErrInvalidPayload    = payload.ErrInvalidPayload
	ErrMintFailure       = errors.New("mint failed")
)

// Decoder errors.
var (
	ErrTruncated          = errors.Wrap(ErrDecode, "buffer truncated")
	ErrUnsupportedVersion = errors.Wrap(ErrDecode, "unsupported VAA version")
)

// Verifier errors.
var (
	ErrUnknownGuardianSet       = errors.Wrap(ErrVerification, "unknown guardian set")
	ErrGuardianSetExpired       = errors.Wrap(ErrVerification, "guardian set expired")
	ErrGuardianSetMismatch      = errors.Wrap(ErrVerification, "guardian set index mismatch")
	ErrNoQuorum                 = errors.Wrap(ErrVerification, "no quorum")
	ErrGuardianIndexOrder       = errors.Wrap(ErrVerification, "guardian indices not strictly increasing")
	ErrGuardianIndexOutOfBounds = errors.Wrap(ErrVerification, "guardian index out of bounds")
	ErrInvalidSignature         = errors.Wrap(ErrVerification, "invalid guardian signature")
	ErrUnknownEmitter           = errors.Wrap(ErrVerification, "emitter not registered")
)

// ReasonFor maps an error produced by the pipeline to its reason code.
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrPrecondition):
		return ReasonPrecondition
	case errors.Is(err, ErrDecode):
		return ReasonDecode
	case errors.Is(err, ErrVerification):
		return ReasonVerification
	case errors.Is(err, ErrReplayUnavailable):
		return ReasonReplayUnavailable
	case errors.Is(err, ErrAlreadyConsumed):
		return ReasonAlreadyConsumed
	case errors.Is(err, ErrInvalidPayload):
		return ReasonInvalidPayload
	case errors.Is(err, ErrMintFailure):
		return ReasonMintFailure
	default:
		return ReasonInternal
	}
}
