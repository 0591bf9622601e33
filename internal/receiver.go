package internal

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal/guardians"
	"github.com/wormhole-demo/nft-receiver/internal/minter"
	"github.com/wormhole-demo/nft-receiver/internal/payload"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

type ReceiverConfig struct {
	// Emitters maps each accepted source chain to its registered emitter.
	// An empty map accepts every emitter.
	Emitters map[vaaLib.ChainID]vaaLib.Address
	// DefaultDestination receives mints whose payload names no destination.
	// When empty the submission's fee payer is used.
	DefaultDestination string
}

// Receiver authenticates VAAs and mints each attested transfer at most once.
type Receiver struct {
	config     ReceiverConfig
	guardians  guardians.Source
	registry   replay.Registry
	dispatcher *Dispatcher
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewReceiver creates a receiver. metrics may be nil.
func NewReceiver(
	logger *zap.Logger,
	config ReceiverConfig,
	source guardians.Source,
	registry replay.Registry,
	dispatcher *Dispatcher,
	metrics *Metrics,
) *Receiver {
	return &Receiver{
		config:     config,
		guardians:  source,
		registry:   registry,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.With(zap.String("component", "Receiver")),
		now:        time.Now,
	}
}

// Receive runs one submission through the pipeline and always returns a
// terminal Result. Once the signatures are verified the caller's
// cancellation is ignored so the message cannot be left committed but
// unprocessed.
func (r *Receiver) Receive(ctx context.Context, sub Submission) Result {
	start := r.now()
	res := r.receive(ctx, sub)
	r.metrics.ObserveResult(res, r.now().Sub(start))
	r.logResult(sub, res)
	return res
}

func (r *Receiver) receive(ctx context.Context, sub Submission) Result {
	res := Result{Stage: StateReceived}
	reject := func(err error) Result {
		res.State = StateRejected
		res.Reason = ReasonFor(err)
		res.Err = err
		return res
	}

	if sub.FeePayer.IsZero() {
		return reject(errors.Wrap(ErrPrecondition, "fee payer is not set"))
	}
	if !sub.SystemProgram.Equals(solana.SystemProgramID) {
		return reject(errors.Wrapf(ErrPrecondition, "system program %s is not %s", sub.SystemProgram, solana.SystemProgramID))
	}

	v, err := ParseVAA(sub.VAA)
	if err != nil {
		return reject(err)
	}
	res.Stage = StateDecoded
	res.MessageID = replay.MessageIDOf(v)
	LogVAAFull(r.logger, v, sub.VAA)

	res.Digest = SigningDigest(v)
	res.Stage = StateDigestComputed

	if err := r.checkEmitter(v); err != nil {
		return reject(err)
	}

	gs, err := r.guardians.GuardianSet(ctx, v.GuardianSetIndex)
	if err != nil {
		if errors.Is(err, guardians.ErrUnknownGuardianSet) {
			return reject(errors.Wrapf(ErrUnknownGuardianSet, "index %d", v.GuardianSetIndex))
		}
		return reject(errors.Wrapf(ErrVerification, "guardian set %d: %v", v.GuardianSetIndex, err))
	}
	if err := VerifySignatures(v, res.Digest, gs, r.now()); err != nil {
		return reject(err)
	}
	res.Stage = StateQuorumVerified

	ctx = context.WithoutCancel(ctx)

	accepted, err := r.registry.Consume(ctx, res.MessageID, res.Digest)
	if err != nil {
		return reject(errors.Wrapf(ErrReplayUnavailable, "%v", err))
	}
	if !accepted {
		return reject(errors.Wrapf(ErrAlreadyConsumed, "message %s", res.MessageID))
	}
	res.Committed = true
	res.Stage = StateReplayChecked

	intent, err := payload.Decode(v.Payload)
	if err != nil {
		return reject(err)
	}
	if intent.Destination == "" {
		intent.Destination = r.config.DefaultDestination
	}
	if intent.Destination == "" {
		intent.Destination = sub.FeePayer.String()
	}
	res.Intent = intent
	if err := r.dispatcher.ValidateDestination(intent.Destination); err != nil {
		return reject(err)
	}
	res.Stage = StatePayloadDecoded

	ref, err := r.dispatcher.Dispatch(ctx, minter.Request{
		Intent:    intent,
		MessageID: res.MessageID,
		Digest:    res.Digest,
	})
	if err != nil {
		return reject(err)
	}

	res.State = StateMinted
	res.Stage = StateMinted
	res.MintRef = ref
	return res
}

func (r *Receiver) checkEmitter(v *vaaLib.VAA) error {
	if len(r.config.Emitters) == 0 {
		return nil
	}
	registered, ok := r.config.Emitters[v.EmitterChain]
	if !ok {
		return errors.Wrapf(ErrUnknownEmitter, "chain %d has no registered emitter", v.EmitterChain)
	}
	if registered != v.EmitterAddress {
		return errors.Wrapf(ErrUnknownEmitter, "chain %d emitter %s", v.EmitterChain, hex.EncodeToString(v.EmitterAddress[:]))
	}
	return nil
}

func (r *Receiver) logResult(sub Submission, res Result) {
	fields := []zap.Field{
		zap.String("messageId", res.MessageID.String()),
		zap.String("state", string(res.State)),
		zap.String("stage", string(res.Stage)),
		zap.Bool("committed", res.Committed),
	}
	if sub.TxID != "" {
		fields = append(fields, zap.String("sourceTxID", sub.TxID))
	}
	if res.Digest != (common.Hash{}) {
		fields = append(fields, zap.String("digest", res.Digest.Hex()))
	}

	switch res.Reason {
	case ReasonNone:
		r.logger.Info("VAA received and minted",
			append(fields,
				zap.String("asset", res.Intent.AssetDescriptor),
				zap.String("destination", res.Intent.Destination),
				zap.String("mintRef", res.MintRef))...)
	case ReasonMintFailure:
		r.logger.Error("Message consumed but mint failed, operator intervention required",
			append(fields, zap.String("reason", string(res.Reason)), zap.Error(res.Err))...)
	case ReasonInternal:
		r.logger.Error("Unexpected receive error",
			append(fields, zap.String("reason", string(res.Reason)), zap.Error(res.Err))...)
	default:
		r.logger.Warn("VAA rejected",
			append(fields, zap.String("reason", string(res.Reason)), zap.Error(res.Err))...)
	}
}
