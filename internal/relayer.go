package internal

import (
	"context"
	"fmt"
	"slices"
	"time"

	spyv1 "github.com/certusone/wormhole/node/pkg/proto/spy/v1"
	"github.com/gagliardetto/solana-go"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// VAAReceiver is satisfied by *Receiver.
type VAAReceiver interface {
	Receive(ctx context.Context, sub Submission) Result
}

// VAASubscriber is satisfied by *clients.SpyClient.
type VAASubscriber interface {
	SubscribeSignedVAA(ctx context.Context) (spyv1.SpyRPCService_SubscribeSignedVAAClient, error)
	Close()
}

type RelayerConfig struct {
	// ChainIDs restricts the relayer to VAAs from these chains. Empty means all chains.
	ChainIDs []vaaLib.ChainID
	// EmitterAddress is the hex emitter to relay (empty = no filter)
	EmitterAddress string
	// FeePayer is the account submissions are made on behalf of
	FeePayer solana.PublicKey
	// MaxInFlight bounds concurrent Receive calls
	MaxInFlight int64
	RetryDelay  time.Duration
}

// Relayer feeds VAAs from the spy stream into the receiver
type Relayer struct {
	spyClient VAASubscriber
	receiver  VAAReceiver
	config    RelayerConfig
	emitter   *vaaLib.Address
	inFlight  *semaphore.Weighted
	logger    *zap.Logger
}

// NewRelayer creates a new relayer instance
func NewRelayer(logger *zap.Logger, config RelayerConfig, spyClient VAASubscriber, receiver VAAReceiver) (*Relayer, error) {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 16
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}

	r := &Relayer{
		spyClient: spyClient,
		receiver:  receiver,
		config:    config,
		inFlight:  semaphore.NewWeighted(config.MaxInFlight),
		logger:    logger.With(zap.String("component", "Relayer")),
	}

	if config.EmitterAddress != "" {
		addr, err := ParseEmitterAddress(config.EmitterAddress)
		if err != nil {
			return nil, err
		}
		r.emitter = &addr
	}

	return r, nil
}

// Close cleans up resources used by the relayer
func (r *Relayer) Close() {
	if r.spyClient != nil {
		r.spyClient.Close()
	}
}

// Start begins listening for VAAs and processing them
func (r *Relayer) Start(ctx context.Context) error {
	r.logger.Info("Starting relayer",
		zap.Any("chainIds", r.config.ChainIDs),
		zap.String("emitter", r.config.EmitterAddress),
		zap.Int64("maxInFlight", r.config.MaxInFlight))

	stream, err := r.spyClient.SubscribeSignedVAA(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to VAA stream: %v", err)
	}

	r.logger.Info("Listening for VAAs")

	// In-flight receives outlive ctx; they detach from cancellation once verified
	processingCtx, cancelProcessing := context.WithCancel(context.Background())
	defer cancelProcessing()

	shutdown := func() {
		r.logger.Info("Shutting down relayer")
		cancelProcessing()
		r.logger.Info("Waiting for all VAA processing to complete")
		// Acquiring the full weight waits for every in-flight receive
		_ = r.inFlight.Acquire(context.Background(), r.config.MaxInFlight)
		r.inFlight.Release(r.config.MaxInFlight)
		r.logger.Info("Shutdown complete")
	}

	for {
		if ctx.Err() != nil {
			shutdown()
			return nil
		}

		resp, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				shutdown()
				return nil
			}
			r.logger.Warn("Stream error, retrying", zap.Error(err), zap.Duration("retryIn", r.config.RetryDelay))
			select {
			case <-time.After(r.config.RetryDelay):
			case <-ctx.Done():
				shutdown()
				return nil
			}
			stream, err = r.spyClient.SubscribeSignedVAA(ctx)
			if err != nil {
				shutdown()
				return fmt.Errorf("subscribe to VAA stream after retry: %v", err)
			}
			continue
		}

		if !r.shouldRelay(resp.VaaBytes) {
			continue
		}

		if err := r.inFlight.Acquire(ctx, 1); err != nil {
			shutdown()
			return nil
		}
		go func(vaaBytes []byte) {
			defer r.inFlight.Release(1)
			r.receiver.Receive(processingCtx, Submission{
				VAA:           vaaBytes,
				FeePayer:      r.config.FeePayer,
				SystemProgram: solana.SystemProgramID,
			})
		}(resp.VaaBytes)
	}
}

// shouldRelay applies the chain and emitter filter. Only routing fields are
// read here; the receiver does the authenticated decode.
func (r *Relayer) shouldRelay(vaaBytes []byte) bool {
	v, err := ParseVAA(vaaBytes)
	if err != nil {
		r.logger.Debug("Skipping unparseable VAA", zap.Error(err))
		return false
	}

	if len(r.config.ChainIDs) > 0 && !slices.Contains(r.config.ChainIDs, v.EmitterChain) {
		r.logger.Debug("Skipping VAA (not from configured chain)",
			zap.Uint64("sequence", v.Sequence),
			zap.Uint16("chain", uint16(v.EmitterChain)))
		return false
	}

	if r.emitter != nil && v.EmitterAddress != *r.emitter {
		r.logger.Debug("Skipping VAA (not from configured emitter)",
			zap.Uint64("sequence", v.Sequence),
			zap.String("emitter", v.EmitterAddress.String()),
			zap.String("expectedEmitter", r.emitter.String()))
		return false
	}

	r.logger.Debug("Relaying VAA",
		zap.Uint16("chain", uint16(v.EmitterChain)),
		zap.Uint64("sequence", v.Sequence))
	return true
}
