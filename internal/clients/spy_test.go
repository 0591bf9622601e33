package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	publicrpcv1 "github.com/certusone/wormhole/node/pkg/proto/publicrpc/v1"
	spyv1 "github.com/certusone/wormhole/node/pkg/proto/spy/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type fakeSpyStream struct {
	spyv1.SpyRPCService_SubscribeSignedVAAClient
}

type fakeSpyService struct {
	failures int
	requests []*spyv1.SubscribeSignedVAARequest
}

func (f *fakeSpyService) SubscribeSignedVAA(_ context.Context, in *spyv1.SubscribeSignedVAARequest, _ ...grpc.CallOption) (spyv1.SpyRPCService_SubscribeSignedVAAClient, error) {
	f.requests = append(f.requests, in)
	if len(f.requests) <= f.failures {
		return nil, errors.New("unavailable")
	}
	return &fakeSpyStream{}, nil
}

func newTestSpyClient(service *fakeSpyService, filters []*spyv1.FilterEntry) *SpyClient {
	c := newSpyClient(zap.NewNop(), service, filters)
	c.retryDelay = time.Millisecond
	return c
}

func TestEmitterFilters(t *testing.T) {
	emitter := vaaLib.Address{31: 0xef}

	filters := EmitterFilters([]vaaLib.ChainID{vaaLib.ChainIDEthereum, vaaLib.ChainIDSolana}, &emitter)
	require.Len(t, filters, 2)
	assert.Equal(t, publicrpcv1.ChainID_CHAIN_ID_ETHEREUM, filters[0].GetEmitterFilter().GetChainId())
	assert.Equal(t, publicrpcv1.ChainID_CHAIN_ID_SOLANA, filters[1].GetEmitterFilter().GetChainId())
	assert.Equal(t, "00000000000000000000000000000000000000000000000000000000000000ef", filters[0].GetEmitterFilter().GetEmitterAddress())

	assert.Empty(t, EmitterFilters(nil, &emitter))
	assert.Empty(t, EmitterFilters([]vaaLib.ChainID{vaaLib.ChainIDEthereum}, nil))
}

func TestSpyClientSubscribeSendsFilters(t *testing.T) {
	emitter := vaaLib.Address{31: 0xef}
	filters := EmitterFilters([]vaaLib.ChainID{vaaLib.ChainIDEthereum}, &emitter)
	service := &fakeSpyService{}

	stream, err := newTestSpyClient(service, filters).SubscribeSignedVAA(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stream)
	require.Len(t, service.requests, 1)
	assert.Equal(t, filters, service.requests[0].Filters)
}

func TestSpyClientSubscribeRetries(t *testing.T) {
	service := &fakeSpyService{failures: 2}

	_, err := newTestSpyClient(service, nil).SubscribeSignedVAA(context.Background())
	require.NoError(t, err)
	assert.Len(t, service.requests, 3)
}

func TestSpyClientSubscribeGivesUp(t *testing.T) {
	service := &fakeSpyService{failures: 100}

	_, err := newTestSpyClient(service, nil).SubscribeSignedVAA(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Len(t, service.requests, spySubscribeRetries)
}

func TestSpyClientSubscribeStopsOnCancel(t *testing.T) {
	service := &fakeSpyService{failures: 100}
	c := newTestSpyClient(service, nil)
	c.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SubscribeSignedVAA(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, service.requests, 1)
}
