package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix        = "erp:"
	redisSessionPrefix = "erp:session:"
	maxTxRetries       = 200
	txBackoffBase      = time.Millisecond
	txBackoffMax       = 50 * time.Millisecond
)

// RedisStore keeps each collection under erp:<key> and sessions under
// erp:session:<id> with a TTL.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(k Key) string {
	return redisPrefix + string(k)
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) Put(ctx context.Context, key Key, data []byte) error {
	return s.client.Set(ctx, redisKey(key), data, 0).Err()
}

// Update watches the declared keys and commits with MULTI/EXEC. When another
// writer touched one of them first it backs off with jitter and retries until
// ctx is done or maxTxRetries is reached.
func (s *RedisStore) Update(ctx context.Context, keys []Key, fn func(tx Tx) error) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, redisKey(k))
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{ctx: ctx, rtx: rtx, keys: declared(keys), staged: map[Key][]byte{}}
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.staged) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				for k, data := range tx.staged {
					p.Set(ctx, redisKey(k), data, 0)
				}
				return nil
			})
			return err
		}, names...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrConflict, ctx.Err())
		case <-time.After(txBackoff(attempt)):
		}
	}
	return ErrConflict
}

// txBackoff doubles from txBackoffBase up to txBackoffMax and picks a random
// wait in the upper half of that window.
func txBackoff(attempt int) time.Duration {
	d := txBackoffBase << min(attempt, 6)
	if d > txBackoffMax {
		d = txBackoffMax
	}
	half := d / 2
	return half + rand.N(half+1)
}

func (s *RedisStore) GetSession(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) SetSession(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, redisSessionPrefix+id, data, ttl).Err()
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisSessionPrefix+id).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisTx struct {
	ctx    context.Context
	rtx    *redis.Tx
	keys   map[Key]bool
	staged map[Key][]byte
}

func (t *redisTx) Get(key Key) ([]byte, error) {
	if !t.keys[key] {
		return nil, ErrUndeclaredKey
	}
	if data, ok := t.staged[key]; ok {
		return clone(data), nil
	}
	data, err := t.rtx.Get(t.ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (t *redisTx) Put(key Key, data []byte) error {
	if !t.keys[key] {
		return ErrUndeclaredKey
	}
	t.staged[key] = clone(data)
	return nil
}
