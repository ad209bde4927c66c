package goOIDC

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// flowStore holds per-flow ephemeral secrets and a small set of durable
// client hints. Session-scoped values (state, nonce, PKCE verifier, device
// session) live only in process memory, namespaced by flow ID; they are
// never written to Redis. Durable hints go to Redis when a client is
// configured, with an in-memory fallback otherwise.
type flowStore struct {
	redis      *redis.Client
	prefix     string
	sessionTTL time.Duration

	mu      sync.Mutex
	session map[string]*sessionScope
	durable map[string]string
}

type sessionScope struct {
	values    map[string]string
	expiresAt time.Time
}

func newFlowStore(redisClient *redis.Client, cfg StoreConfig) *flowStore {
	return &flowStore{
		redis:      redisClient,
		prefix:     cfg.RedisPrefix,
		sessionTTL: cfg.SessionTTL,
		session:    map[string]*sessionScope{},
		durable:    map[string]string{},
	}
}

func (s *flowStore) durableKey(key string) string {
	return s.prefix + ":hint:" + key
}

// PutSession stores one secret under the flow's namespace. The first write
// for a flow arms the abandonment TTL.
func (s *flowStore) PutSession(_ context.Context, flowID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.session[flowID]
	if scope == nil {
		scope = &sessionScope{
			values:    map[string]string{},
			expiresAt: time.Now().Add(s.sessionTTL),
		}
		s.session[flowID] = scope
	}
	scope.values[key] = value
	return nil
}

// GetSession reads one secret scoped to flowID. Secrets written under a
// different flow ID are never visible here.
func (s *flowStore) GetSession(_ context.Context, flowID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.session[flowID]
	if scope == nil {
		return "", false, nil
	}
	if time.Now().After(scope.expiresAt) {
		delete(s.session, flowID)
		return "", false, nil
	}
	v, ok := scope.values[key]
	return v, ok, nil
}

func (s *flowStore) DeleteSession(_ context.Context, flowID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope := s.session[flowID]; scope != nil {
		delete(scope.values, key)
	}
	return nil
}

// PurgeFlow discards every session-scoped secret of one flow. Called on
// every terminal transition.
func (s *flowStore) PurgeFlow(_ context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.session, flowID)
	return nil
}

// PutDurable stores a non-secret hint that survives engine restarts when
// Redis is configured.
func (s *flowStore) PutDurable(ctx context.Context, key, value string) error {
	if s.redis == nil {
		s.mu.Lock()
		s.durable[key] = value
		s.mu.Unlock()
		return nil
	}
	if err := s.redis.Set(ctx, s.durableKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreBackend, err)
	}
	return nil
}

func (s *flowStore) GetDurable(ctx context.Context, key string) (string, bool, error) {
	if s.redis == nil {
		s.mu.Lock()
		v, ok := s.durable[key]
		s.mu.Unlock()
		return v, ok, nil
	}
	v, err := s.redis.Get(ctx, s.durableKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreBackend, err)
	}
	return v, true, nil
}
