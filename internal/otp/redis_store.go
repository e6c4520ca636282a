package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps redis transport failures.
var ErrStoreUnavailable = errors.New("otp store unavailable")

var errCorrupt = errors.New("decode challenge")

// getter is the part of a client or a transaction that reads a challenge.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Timestamps keep nanosecond precision; the default CBOR time mode would
// truncate them to whole seconds.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// RedisStore keeps challenges in redis so that every server process sees
// the same challenge for a recipient. Values are CBOR-encoded.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(recipient string) string {
	return s.prefix + ":" + recipient
}

func (s *RedisStore) Put(ctx context.Context, recipient string, ch Challenge, ttl time.Duration) error {
	data, err := encMode.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(recipient), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, recipient string) (Challenge, bool, error) {
	return s.get(ctx, s.redis, s.key(recipient))
}

func (s *RedisStore) get(ctx context.Context, c getter, key string) (Challenge, bool, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, false, nil
		}
		return Challenge{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var ch Challenge
	if err := cbor.Unmarshal(data, &ch); err != nil {
		return Challenge{}, false, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return ch, true, nil
}

// Consume checks and deletes the challenge inside a WATCH transaction. If
// the key changes between the read and the delete, the transaction is
// discarded and Consume reports false.
func (s *RedisStore) Consume(ctx context.Context, recipient, code string) (bool, error) {
	key := s.key(recipient)
	consumed := false

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		ch, ok, err := s.get(ctx, tx, key)
		if err != nil || !ok || ch.Code != code {
			return err
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		}); err != nil {
			return err
		}
		consumed = true
		return nil
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return false, nil
	case err == nil:
		return consumed, nil
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, errCorrupt):
		return false, err
	}
	return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (s *RedisStore) Delete(ctx context.Context, recipient string) error {
	if err := s.redis.Del(ctx, s.key(recipient)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
