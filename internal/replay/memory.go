package replay

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryRegistry is a process-local Registry.
type MemoryRegistry struct {
	mu       sync.Mutex
	consumed map[MessageID]Record
	now      func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		consumed: make(map[MessageID]Record),
		now:      time.Now,
	}
}

func (r *MemoryRegistry) Consume(_ context.Context, id MessageID, digest common.Hash) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.consumed[id]; ok {
		return false, nil
	}
	r.consumed[id] = Record{Digest: digest, ConsumedAt: r.now().UTC()}
	return true, nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, id MessageID) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.consumed[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Len returns the number of consumed ids.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consumed)
}

func (r *MemoryRegistry) Close() error {
	return nil
}
