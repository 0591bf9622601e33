package clients

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	publicrpcv1 "github.com/certusone/wormhole/node/pkg/proto/publicrpc/v1"
	spyv1 "github.com/certusone/wormhole/node/pkg/proto/spy/v1"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	spySubscribeRetries    = 5
	spySubscribeRetryDelay = 2 * time.Second
)

// SpyClient handles connections to the Wormhole spy service
type SpyClient struct {
	conn       *grpc.ClientConn
	client     spyv1.SpyRPCServiceClient
	filters    []*spyv1.FilterEntry
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewSpyClient creates a client for the Wormhole spy service. filters are
// sent with every subscription so the spy drops unrelated VAAs itself.
func NewSpyClient(logger *zap.Logger, endpoint string, filters []*spyv1.FilterEntry) (*SpyClient, error) {
	logger = logger.With(zap.String("component", "SpyClient"))
	logger.Info("Connecting to spy service",
		zap.String("endpoint", endpoint),
		zap.Int("filters", len(filters)))

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to spy: %w", err)
	}

	c := newSpyClient(logger, spyv1.NewSpyRPCServiceClient(conn), filters)
	c.conn = conn
	return c, nil
}

func newSpyClient(logger *zap.Logger, client spyv1.SpyRPCServiceClient, filters []*spyv1.FilterEntry) *SpyClient {
	return &SpyClient{
		client:     client,
		filters:    filters,
		retries:    spySubscribeRetries,
		retryDelay: spySubscribeRetryDelay,
		logger:     logger,
	}
}

// EmitterFilters builds one spy filter per chain for emitter. The spy only
// filters on chain and emitter together, so no filters are returned when
// either is missing.
func EmitterFilters(chains []vaaLib.ChainID, emitter *vaaLib.Address) []*spyv1.FilterEntry {
	if emitter == nil || len(chains) == 0 {
		return nil
	}
	filters := make([]*spyv1.FilterEntry, 0, len(chains))
	for _, chain := range chains {
		filters = append(filters, &spyv1.FilterEntry{
			Filter: &spyv1.FilterEntry_EmitterFilter{
				EmitterFilter: &spyv1.EmitterFilter{
					ChainId:        publicrpcv1.ChainID(chain),
					EmitterAddress: hex.EncodeToString(emitter[:]),
				},
			},
		})
	}
	return filters
}

// Close closes the connection to the spy service
func (c *SpyClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// SubscribeSignedVAA subscribes to signed VAAs, retrying on the existing
// connection until the attempts run out or ctx is done.
func (c *SpyClient) SubscribeSignedVAA(ctx context.Context) (spyv1.SpyRPCService_SubscribeSignedVAAClient, error) {
	c.logger.Debug("Subscribing to signed VAAs", zap.Int("filters", len(c.filters)))

	req := &spyv1.SubscribeSignedVAARequest{Filters: c.filters}

	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		var stream spyv1.SpyRPCService_SubscribeSignedVAAClient
		stream, err = c.client.SubscribeSignedVAA(ctx, req)
		if err == nil {
			return stream, nil
		}
		if attempt == c.retries {
			break
		}

		c.logger.Warn("Subscribe attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
			zap.Duration("retryIn", c.retryDelay))

		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("failed to subscribe after %d attempts: %w", c.retries, err)
}
