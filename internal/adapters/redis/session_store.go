package redis

// Package redis provides the Redis-backed session snapshot store.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/shopfront/ui-auth/internal/domain/auth"
)

// SessionStore persists reconciled viewer snapshots keyed by gateway
// session ID. TTL semantics follow the record's ExpiresAt, so entries
// vanish on their own when the snapshot trust window closes.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis-backed session snapshot store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "uisession:",
	}
}

// NewSessionStoreWithPrefix creates a store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) Save(ctx context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session record ID cannot be empty")
	}

	ttl := time.Until(time.Unix(rec.ExpiresAt, 0))
	if ttl <= 0 {
		return errors.New("session record is already expired")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	return s.client.Set(ctx, s.prefix+rec.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if id == "" {
		return domainauth.SessionRecord{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.SessionRecord{}, ErrNotFound
		}
		return domainauth.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainauth.SessionRecord
	if uerr := json.Unmarshal([]byte(data), &rec); uerr != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("unmarshal session record: %w", uerr)
	}

	// Redis TTL should have evicted expired records; double-check anyway.
	if rec.ExpiresAt <= time.Now().Unix() {
		if derr := s.Delete(ctx, id); derr != nil {
			return domainauth.SessionRecord{}, fmt.Errorf("cleanup expired session record: %w", derr)
		}
		return domainauth.SessionRecord{}, ErrNotFound
	}

	return rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// ErrNotFound is returned when a session record is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "session record not found" }

var ErrNotFound error = notFoundError{}
