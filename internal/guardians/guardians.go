// Package guardians provides read-only access to Wormhole guardian sets.
package guardians

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrUnknownGuardianSet = errors.New("unknown guardian set")

// GuardianSet is one generation of guardian keys.
type GuardianSet struct {
	Index uint32
	Keys  []common.Address
	// ExpirationTime is a unix timestamp in seconds. Zero means the set never expires.
	ExpirationTime uint32
}

// ExpiredAt reports whether the set is expired at t.
func (gs *GuardianSet) ExpiredAt(t time.Time) bool {
	if gs.ExpirationTime == 0 {
		return false
	}
	return t.Unix() >= int64(gs.ExpirationTime)
}

// KeyIndex returns the position of addr in the set, or -1.
func (gs *GuardianSet) KeyIndex(addr common.Address) int {
	for i, k := range gs.Keys {
		if k == addr {
			return i
		}
	}
	return -1
}

// Source resolves guardian sets by index. Implementations must return an
// error wrapping ErrUnknownGuardianSet for indices they do not know.
type Source interface {
	GuardianSet(ctx context.Context, index uint32) (*GuardianSet, error)
}

// StaticSource serves guardian sets provisioned at startup.
type StaticSource struct {
	sets map[uint32]*GuardianSet
}

func NewStaticSource(sets ...*GuardianSet) *StaticSource {
	s := &StaticSource{sets: make(map[uint32]*GuardianSet, len(sets))}
	for _, gs := range sets {
		s.sets[gs.Index] = gs
	}
	return s
}

func (s *StaticSource) GuardianSet(_ context.Context, index uint32) (*GuardianSet, error) {
	gs, ok := s.sets[index]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownGuardianSet, "index %d", index)
	}
	return gs, nil
}

// ParseKeys parses a list of hex encoded guardian addresses.
func ParseKeys(keys []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if !common.IsHexAddress(k) {
			return nil, errors.Errorf("invalid guardian key %q", k)
		}
		out = append(out, common.HexToAddress(k))
	}
	if len(out) == 0 {
		return nil, errors.New("guardian set has no keys")
	}
	return out, nil
}

// CachedSource memoizes guardian sets from another source. Guardian sets are
// immutable once published except for their expiration time, so entries are
// refreshed after ttl.
type CachedSource struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[uint32]cachedSet
}

type cachedSet struct {
	set     *GuardianSet
	fetched time.Time
}

func NewCachedSource(logger *zap.Logger, source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(zap.String("component", "CachedGuardianSource")),
		cache:  make(map[uint32]cachedSet),
	}
}

func (c *CachedSource) GuardianSet(ctx context.Context, index uint32) (*GuardianSet, error) {
	c.mu.RLock()
	entry, ok := c.cache[index]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetched) < c.ttl {
		return entry.set, nil
	}

	gs, err := c.source.GuardianSet(ctx, index)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[index] = cachedSet{set: gs, fetched: c.now()}
	c.mu.Unlock()

	c.logger.Debug("Guardian set loaded",
		zap.Uint32("index", gs.Index),
		zap.Int("keys", len(gs.Keys)),
		zap.Uint32("expirationTime", gs.ExpirationTime))
	return gs, nil
}
