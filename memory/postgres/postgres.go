// Package postgres provides a PostgreSQL-backed session store for shared
// multi-instance deployments.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/docraggo/memory"
	"github.com/smallnest/docraggo/rag"
)

// DBPool is the subset of pgxpool.Pool the store needs, extracted so tests
// can substitute a mock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// SessionStore persists sessions as JSONB rows in a Postgres table.
type SessionStore struct {
	pool      DBPool
	tableName string
}

var _ memory.SessionStore = (*SessionStore)(nil)

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // default "sessions"
}

// NewSessionStore creates a pooled store and does not touch the schema;
// call InitSchema once at startup.
func NewSessionStore(ctx context.Context, opts Options) (*SessionStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "sessions"
	}
	return &SessionStore{pool: pool, tableName: tableName}, nil
}

// NewSessionStoreWithPool creates a store over an existing pool.
func NewSessionStoreWithPool(pool DBPool, tableName string) *SessionStore {
	if tableName == "" {
		tableName = "sessions"
	}
	return &SessionStore{pool: pool, tableName: tableName}
}

// InitSchema creates the sessions table if it doesn't exist.
func (s *SessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			turns JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SessionStore) Close() {
	s.pool.Close()
}

// Save upserts the session row.
func (s *SessionStore) Save(ctx context.Context, session rag.Session) error {
	if session.ID == "" {
		return errors.New("session ID is required")
	}

	turnsJSON, err := json.Marshal(session.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, turns, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			turns = EXCLUDED.turns,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query, session.ID, turnsJSON, time.Now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (rag.Session, error) {
	query := fmt.Sprintf("SELECT turns FROM %s WHERE id = $1", s.tableName)

	var turnsJSON []byte
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&turnsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rag.Session{}, memory.ErrSessionNotFound
		}
		return rag.Session{}, fmt.Errorf("load session: %w", err)
	}

	session := rag.Session{ID: sessionID}
	if err := json.Unmarshal(turnsJSON, &session.Turns); err != nil {
		return rag.Session{}, fmt.Errorf("unmarshal turns: %w", err)
	}
	return session, nil
}

// List returns all session IDs, most recently updated first.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY updated_at DESC", s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return ids, nil
}

// Delete removes a session row.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)

	tag, err := s.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return memory.ErrSessionNotFound
	}
	return nil
}
