package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cloudfive/onboard/kv"
)

// ErrNotFound is returned when no live session exists under the given token,
// either because the token was never issued or because its TTL elapsed.
var ErrNotFound = errors.New("session: not found")

// DefaultPrefix namespaces session keys in the shared Redis keyspace.
const DefaultPrefix = "onboard:sess:"

// Store keeps onboarding sessions in an expiring key-value backend. Sessions
// are independent; the store performs no cross-key coordination. Create and
// Refresh inherit the backend's atomic set-and-reset-ttl contract, so a
// session is never observable with a fresh record and a stale expiry.
//
// Concurrent refreshes of the same token resolve last-writer-wins: the losing
// writer's transaction aborts and surfaces kv.ErrTxAborted. This is the
// documented policy, not incidental behavior.
type Store struct {
	kv     *kv.Store
	prefix string
}

// NewStore wraps the expiring KV adapter. An empty prefix selects
// DefaultPrefix.
func NewStore(kvs *kv.Store, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{kv: kvs, prefix: prefix}
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

// Create stores rec under token with the given TTL. The write and the expiry
// apply atomically.
func (s *Store) Create(ctx context.Context, token string, rec *Record, ttl time.Duration) error {
	return s.put(ctx, token, rec, ttl)
}

// Refresh replaces the session record and re-arms its TTL in one atomic step.
// A concurrent writer aborts the transaction (kv.ErrTxAborted); the stored
// session is then unchanged and the caller may retry.
func (s *Store) Refresh(ctx context.Context, token string, rec *Record, ttl time.Duration) error {
	return s.put(ctx, token, rec, ttl)
}

func (s *Store) put(ctx context.Context, token string, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.SetWithTTL(ctx, s.key(token), data, ttl)
}

// Get fetches the session under token without touching its TTL.
func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	data, err := s.kv.Get(ctx, s.key(token))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", token, err)
	}
	return &rec, nil
}

// RemainingTTL reports how long the session has left to live. A session
// stored without an expiry reports zero; an absent session reports
// ErrNotFound.
func (s *Store) RemainingTTL(ctx context.Context, token string) (time.Duration, error) {
	d, err := s.kv.TTL(ctx, s.key(token))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, ErrNotFound
	}
	return d, err
}

// ActiveTokens enumerates the tokens of all live sessions. Order is
// unspecified and the scan reflects a live snapshot: sessions created or
// expired mid-scan may be observed or missed.
func (s *Store) ActiveTokens(ctx context.Context) *TokenIterator {
	return &TokenIterator{
		it:     s.kv.Keys(ctx, s.prefix+"*"),
		prefix: s.prefix,
	}
}

// TokenIterator walks session tokens produced by a backend key scan.
type TokenIterator struct {
	it     *redis.ScanIterator
	prefix string
	token  string
}

// Next advances the iterator. It returns false once the scan is exhausted or
// fails; check Err afterwards.
func (it *TokenIterator) Next(ctx context.Context) bool {
	if !it.it.Next(ctx) {
		return false
	}
	it.token = strings.TrimPrefix(it.it.Val(), it.prefix)
	return true
}

// Token returns the token at the current iterator position.
func (it *TokenIterator) Token() string {
	return it.token
}

// Err reports a scan failure, if any.
func (it *TokenIterator) Err() error {
	return it.it.Err()
}
