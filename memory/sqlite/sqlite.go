// Package sqlite provides a SQLite-backed session store for single-node
// deployments that need sessions to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/docraggo/memory"
	"github.com/smallnest/docraggo/rag"
)

// SessionStore persists sessions as JSON rows in a SQLite table.
type SessionStore struct {
	db        *sql.DB
	tableName string
}

var _ memory.SessionStore = (*SessionStore)(nil)

// Options configures the SQLite connection.
type Options struct {
	Path      string
	TableName string // default "sessions"
}

// NewSessionStore opens the database and ensures the schema exists.
func NewSessionStore(opts Options) (*SessionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "sessions"
	}

	store := &SessionStore{db: db, tableName: tableName}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SessionStore) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			turns TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SessionStore) Close() error {
	return s.db.Close()
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
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			turns = excluded.turns,
			updated_at = excluded.updated_at
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, session.ID, string(turnsJSON), time.Now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (rag.Session, error) {
	query := fmt.Sprintf("SELECT turns FROM %s WHERE id = ?", s.tableName)

	var turnsJSON string
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&turnsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rag.Session{}, memory.ErrSessionNotFound
		}
		return rag.Session{}, fmt.Errorf("load session: %w", err)
	}

	session := rag.Session{ID: sessionID}
	if err := json.Unmarshal([]byte(turnsJSON), &session.Turns); err != nil {
		return rag.Session{}, fmt.Errorf("unmarshal turns: %w", err)
	}
	return session, nil
}

// List returns all session IDs, most recently updated first.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY updated_at DESC", s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
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
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)

	res, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return memory.ErrSessionNotFound
	}
	return nil
}
