package replay

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// RegistrySuite exercises the Registry contract against one backend.
type RegistrySuite struct {
	suite.Suite
	open     func(t *testing.T) Registry
	registry Registry
	ctx      context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = s.open(s.T())
}

func (s *RegistrySuite) TearDownTest() {
	s.Require().NoError(s.registry.Close())
}

func testID(seq uint64) MessageID {
	id := MessageID{EmitterChain: vaaLib.ChainIDEthereum, Sequence: seq}
	id.EmitterAddress[31] = 0x42
	return id
}

func (s *RegistrySuite) TestConsumeOnce() {
	id := testID(1)
	digest := common.HexToHash("0x01")

	accepted, err := s.registry.Consume(s.ctx, id, digest)
	s.Require().NoError(err)
	s.True(accepted)

	accepted, err = s.registry.Consume(s.ctx, id, digest)
	s.Require().NoError(err)
	s.False(accepted)
}

func (s *RegistrySuite) TestDistinctIDs() {
	for _, id := range []MessageID{
		testID(1),
		testID(2),
		{EmitterChain: vaaLib.ChainIDSolana, Sequence: 1},
	} {
		accepted, err := s.registry.Consume(s.ctx, id, common.Hash{})
		s.Require().NoError(err)
		s.True(accepted, id.String())
	}
}

func (s *RegistrySuite) TestLookup() {
	id := testID(7)
	digest := common.HexToHash("0xbeef")

	rec, err := s.registry.Lookup(s.ctx, id)
	s.Require().NoError(err)
	s.Nil(rec)

	_, err = s.registry.Consume(s.ctx, id, digest)
	s.Require().NoError(err)

	rec, err = s.registry.Lookup(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Equal(digest, rec.Digest)
	s.False(rec.ConsumedAt.IsZero())
}

func (s *RegistrySuite) TestConcurrentConsume() {
	const callers = 32
	id := testID(99)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		start    = make(chan struct{})
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.registry.Consume(s.ctx, id, common.Hash{})
			s.NoError(err)
			if ok {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), accepted.Load())
}

func TestMemoryRegistry(t *testing.T) {
	suite.Run(t, &RegistrySuite{open: func(*testing.T) Registry {
		return NewMemoryRegistry()
	}})
}

func TestPebbleRegistry(t *testing.T) {
	suite.Run(t, &RegistrySuite{open: func(t *testing.T) Registry {
		r, err := OpenPebbleRegistry("replay", WithPebbleFS(vfs.NewMem()))
		require.NoError(t, err)
		return r
	}})
}

func TestPebbleRegistryPersistsAcrossReopen(t *testing.T) {
	fs := vfs.NewMem()
	ctx := context.Background()
	id := testID(5)

	r, err := OpenPebbleRegistry("replay", WithPebbleFS(fs))
	require.NoError(t, err)
	accepted, err := r.Consume(ctx, id, common.HexToHash("0x05"))
	require.NoError(t, err)
	require.True(t, accepted)
	require.NoError(t, r.Close())

	r, err = OpenPebbleRegistry("replay", WithPebbleFS(fs))
	require.NoError(t, err)
	defer r.Close()

	accepted, err = r.Consume(ctx, id, common.HexToHash("0x05"))
	require.NoError(t, err)
	require.False(t, accepted)
}
