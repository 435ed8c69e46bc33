// Package redis provides a Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/docraggo/memory"
	"github.com/smallnest/docraggo/rag"
)

// SessionStore persists sessions as JSON blobs in Redis, with a set holding
// the session index.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ memory.SessionStore = (*SessionStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "docrag:"
	TTL      time.Duration // session expiration, default 0 (no expiration)
}

// NewSessionStore creates a Redis session store.
func NewSessionStore(opts Options) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "docrag:"
	}

	return &SessionStore{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *SessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", s.prefix, id)
}

func (s *SessionStore) indexKey() string {
	return s.prefix + "sessions"
}

// Save stores the session and registers it in the index.
func (s *SessionStore) Save(ctx context.Context, session rag.Session) error {
	if session.ID == "" {
		return errors.New("session ID is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(session.ID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), session.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.indexKey(), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (rag.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return rag.Session{}, memory.ErrSessionNotFound
		}
		return rag.Session{}, fmt.Errorf("load session from redis: %w", err)
	}

	var session rag.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return rag.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

// List returns the IDs of all stored sessions. Sessions whose keys expired
// are pruned from the index on the way.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("check session %s: %w", id, err)
		}
		if exists == 0 {
			s.client.SRem(ctx, s.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Delete removes a session and its index entry.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	deleted, err := s.client.Del(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		return memory.ErrSessionNotFound
	}

	if err := s.client.SRem(ctx, s.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("remove session from index: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
