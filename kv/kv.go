// Package kv wraps a TTL-capable Redis backend behind the small surface the
// onboarding flow needs: plain get/set, expiry control, key enumeration, and
// an atomic set-value-and-reset-ttl primitive.
//
// # Design
//
// All state lives in Redis; the adapter holds only a client handle. SetWithTTL
// runs a WATCH/MULTI/EXEC optimistic transaction so the value write and the
// TTL update become visible as a single unit. A concurrent writer aborts the
// transaction and the caller sees [ErrTxAborted] with the record unchanged;
// retrying is the caller's decision.
//
// # What this package must NOT do
//
//   - Interpret record contents. Encoding belongs to callers.
//   - Retry aborted transactions.
//   - Hold any in-process state beyond the client handle.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the requested key does not exist, either
// because it was never written or because its TTL elapsed.
var ErrNotFound = errors.New("kv: key not found")

// ErrTxAborted is returned by SetWithTTL when a concurrent modification of
// the watched key aborted the transaction. The stored record is unchanged.
var ErrTxAborted = errors.New("kv: transaction aborted by concurrent write")

const scanBatch = 100

// Store is a thin adapter over a Redis-compatible backend. It is safe for
// concurrent use; all state lives server-side.
type Store struct {
	client redis.UniversalClient
}

// NewStore wraps an already-constructed Redis client. The caller owns the
// client's lifecycle.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Set writes value under key without touching any existing expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %q: %w", key, err)
	}
	return data, nil
}

// Expire resets the key's TTL. Returns ErrNotFound when the key is absent.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := s.client.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return fmt.Errorf("kv expire %q: %w", key, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// TTL reports the key's remaining time to live. A key that exists without an
// expiry reports zero; an absent key reports ErrNotFound.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("kv ttl %q: %w", key, err)
	}
	switch {
	case d == -2:
		return 0, ErrNotFound
	case d < 0:
		// Key exists but carries no expiry.
		return 0, nil
	default:
		return d, nil
	}
}

// Keys returns a SCAN-based iterator over keys matching pattern. Enumeration
// is unordered and reflects a live snapshot: keys written or expired during a
// long scan may be observed or missed. Each call starts a fresh scan.
func (s *Store) Keys(ctx context.Context, pattern string) *redis.ScanIterator {
	return s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
}

// SetWithTTL applies the value write and the TTL reset as a single visible
// unit. No observer can see the new value with the old TTL or vice versa.
// When a concurrent writer touches the key between WATCH and EXEC the
// transaction aborts with ErrTxAborted and nothing is applied.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	txn := func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			pipe.PExpire(ctx, key, ttl)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrTxAborted
	}
	if err != nil {
		return fmt.Errorf("kv set+ttl %q: %w", key, err)
	}
	return nil
}
