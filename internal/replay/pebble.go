package replay

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	pebbleKeyPrefix = "consumed/"
	lockStripes     = 256
)

// PebbleRegistry persists consumed ids in an embedded pebble database.
//
// Pebble has no conditional write, so Get and Set on the same id are
// serialized by one of a fixed set of striped mutexes. The guarantee holds
// for all callers in this process; the database directory must not be
// shared between processes.
type PebbleRegistry struct {
	db    *pebble.DB
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

// PebbleOption configures a PebbleRegistry.
type PebbleOption func(*pebble.Options)

// WithPebbleFS replaces the filesystem pebble writes to.
func WithPebbleFS(fs vfs.FS) PebbleOption {
	return func(o *pebble.Options) {
		o.FS = fs
	}
}

// OpenPebbleRegistry opens or creates the registry at path.
func OpenPebbleRegistry(path string, opts ...PebbleOption) (*PebbleRegistry, error) {
	options := &pebble.Options{}
	for _, opt := range opts {
		opt(options)
	}

	db, err := pebble.Open(path, options)
	if err != nil {
		return nil, errors.Wrap(err, "open pebble registry")
	}
	return &PebbleRegistry{db: db, now: time.Now}, nil
}

func pebbleKey(id MessageID) []byte {
	return append([]byte(pebbleKeyPrefix), id.Bytes()...)
}

func (r *PebbleRegistry) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return &r.locks[h.Sum32()%lockStripes]
}

func (r *PebbleRegistry) Consume(_ context.Context, id MessageID, digest common.Hash) (bool, error) {
	key := pebbleKey(id)
	mu := r.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	_, closer, err := r.db.Get(key)
	switch {
	case err == nil:
		closer.Close()
		return false, nil
	case !errors.Is(err, pebble.ErrNotFound):
		return false, errors.Wrap(err, "consume")
	}

	value := encodeRecord(Record{Digest: digest, ConsumedAt: r.now()})
	if err := r.db.Set(key, value, &pebble.WriteOptions{Sync: true}); err != nil {
		return false, errors.Wrap(err, "consume")
	}
	return true, nil
}

func (r *PebbleRegistry) Lookup(_ context.Context, id MessageID) (*Record, error) {
	value, closer, err := r.db.Get(pebbleKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup")
	}
	defer closer.Close()

	return decodeRecord(value)
}

func (r *PebbleRegistry) Close() error {
	return r.db.Close()
}
