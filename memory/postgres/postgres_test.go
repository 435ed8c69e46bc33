package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/docraggo/memory"
	"github.com/smallnest/docraggo/rag"
)

func TestPostgresSessionStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStoreWithPool(mock, "sessions")

	session := rag.Session{ID: "s-1"}.Append(rag.Turn{ID: 1, OriginalQuery: "q", Answer: "a"})
	turnsJSON, _ := json.Marshal(session.Turns)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(session.ID, turnsJSON, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStoreWithPool(mock, "sessions")

	turns := []rag.Turn{{ID: 1, OriginalQuery: "q", Answer: "a", Status: rag.StatusAnswered}}
	turnsJSON, _ := json.Marshal(turns)

	rows := pgxmock.NewRows([]string{"turns"}).AddRow(turnsJSON)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT turns FROM sessions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnRows(rows)

	loaded, err := store.Load(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", loaded.ID)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "a", loaded.Turns[0].Answer)
	assert.Equal(t, rag.StatusAnswered, loaded.Turns[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_LoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStoreWithPool(mock, "sessions")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT turns FROM sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"turns"}))

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, memory.ErrSessionNotFound)
}

func TestPostgresSessionStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStoreWithPool(mock, "sessions")

	rows := pgxmock.NewRows([]string{"id"}).AddRow("s-2").AddRow("s-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM sessions ORDER BY updated_at DESC")).
		WillReturnRows(rows)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s-2", "s-1"}, ids)
}

func TestPostgresSessionStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStoreWithPool(mock, "sessions")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "s-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("absent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, store.Delete(context.Background(), "absent"), memory.ErrSessionNotFound)
}
