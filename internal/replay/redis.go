package replay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "replay:consumed:"

// RedisRegistry persists consumed ids in Redis using SETNX. Keys never
// expire, so the instance must be configured without an eviction policy
// that drops persistent keys.
type RedisRegistry struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client, now: time.Now}
}

// OpenRedisRegistry connects to url and pings the server.
func OpenRedisRegistry(ctx context.Context, url string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return NewRedisRegistry(client), nil
}

func redisKey(id MessageID) string {
	return redisKeyPrefix + id.String()
}

func (r *RedisRegistry) Consume(ctx context.Context, id MessageID, digest common.Hash) (bool, error) {
	value := encodeRecord(Record{Digest: digest, ConsumedAt: r.now()})
	ok, err := r.client.SetNX(ctx, redisKey(id), value, 0).Result()
	if err != nil {
		return false, errors.Wrap(err, "consume")
	}
	return ok, nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, id MessageID) (*Record, error) {
	value, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup")
	}
	return decodeRecord(value)
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
