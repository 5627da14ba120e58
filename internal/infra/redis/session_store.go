package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/storage"
)

const defaultKeyPrefix = "storefront"

// SessionStore implements storage.SessionStore on a single Redis key.
type SessionStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewSessionStore creates a Redis-backed session store. A zero ttl keeps
// the session until it is cleared.
func NewSessionStore(client *Client, keyPrefix string, ttl time.Duration) *SessionStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &SessionStore{
		rdb: client.rdb,
		key: sessionKey(keyPrefix),
		ttl: ttl,
	}
}

func sessionKey(prefix string) string {
	return fmt.Sprintf("%s:session:current", prefix)
}

// Save stores the session, replacing any previous one.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Read returns the stored session or storage.ErrSessionNotFound.
func (s *SessionStore) Read(ctx context.Context) (domain.Session, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, storage.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Clear removes the stored session.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
