package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/pkg/adapters/postgres"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newStore(t *testing.T) (pgxmock.PgxPoolIface, *postgres.Store) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	ids := []string{"p-1", "p-2", "p-3"}
	next := 0
	store := postgres.New(mockPool,
		postgres.WithClock(func() time.Time { return fixedNow }),
		postgres.WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}),
	)
	return mockPool, store
}

func docJSON(t *testing.T, p *domain.LearningPath) []byte {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func samplePath() *domain.LearningPath {
	p := dsl.New("p-1").
		Title("Go Basics").
		Description("Intro course").
		Start("s").
		Theory("t", "Variables").
		End("e").
		Chain("s", "t", "e").
		Build()
	p.CreatedAt = fixedNow
	p.UpdatedAt = fixedNow
	return p
}

func TestStore_Migrate(t *testing.T) {
	mockPool, store := newStore(t)

	mockPool.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS learning_paths")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Create(t *testing.T) {
	mockPool, store := newStore(t)
	title := "Fresh"

	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO learning_paths")).
		WithArgs("p-1", "Fresh", "draft", pgxmock.AnyArg(), fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := store.Create(context.Background(), domain.PathPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "Fresh", p.Title)
	assert.Equal(t, domain.StatusDraft, p.Status)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Get(t *testing.T) {
	t.Run("should decode the stored document", func(t *testing.T) {
		mockPool, store := newStore(t)
		want := samplePath()

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths WHERE id = $1")).
			WithArgs("p-1").
			WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(docJSON(t, want)))

		got, err := store.Get(context.Background(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Nodes, got.Nodes)
		assert.Equal(t, want.Connections, got.Connections)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should map no rows to not found", func(t *testing.T) {
		mockPool, store := newStore(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths")).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should wrap driver errors", func(t *testing.T) {
		mockPool, store := newStore(t)
		dbErr := errors.New("connection reset")

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths")).
			WithArgs("p-1").
			WillReturnError(dbErr)

		_, err := store.Get(context.Background(), "p-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domain.ErrPathNotFound)
	})
}

func TestStore_Update(t *testing.T) {
	t.Run("should apply only present fields", func(t *testing.T) {
		mockPool, store := newStore(t)
		stored := samplePath()
		title := "Renamed"

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths")).
			WithArgs("p-1").
			WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(docJSON(t, stored)))
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE learning_paths")).
			WithArgs("p-1", "Renamed", "draft", pgxmock.AnyArg(), fixedNow).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		got, err := store.Update(context.Background(), "p-1", domain.PathPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "Intro course", got.Description)
		assert.Len(t, got.Nodes, 3)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should report a row deleted concurrently as not found", func(t *testing.T) {
		mockPool, store := newStore(t)
		title := "Renamed"

		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths")).
			WithArgs("p-1").
			WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(docJSON(t, samplePath())))
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE learning_paths")).
			WithArgs("p-1", "Renamed", "draft", pgxmock.AnyArg(), fixedNow).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err := store.Update(context.Background(), "p-1", domain.PathPatch{Title: &title})
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestStore_Delete(t *testing.T) {
	mockPool, store := newStore(t)

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM learning_paths WHERE id = $1")).
		WithArgs("p-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM learning_paths WHERE id = $1")).
		WithArgs("p-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.Delete(context.Background(), "p-1"))
	assert.ErrorIs(t, store.Delete(context.Background(), "p-1"), domain.ErrPathNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Duplicate(t *testing.T) {
	mockPool, store := newStore(t)
	stored := samplePath()
	stored.ID = "orig"

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM learning_paths")).
		WithArgs("orig").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(docJSON(t, stored)))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO learning_paths")).
		WithArgs("p-1", "Go Basics (Copy)", "draft", pgxmock.AnyArg(), fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dup, err := store.Duplicate(context.Background(), "orig")
	require.NoError(t, err)
	assert.Equal(t, "p-1", dup.ID)
	assert.Equal(t, "Go Basics (Copy)", dup.Title)
	assert.Equal(t, stored.Nodes, dup.Nodes)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_List(t *testing.T) {
	mockPool, store := newStore(t)
	older := fixedNow.Add(-time.Hour)

	rows := pgxmock.NewRows([]string{"id", "title", "description", "status", "node_count", "created_at", "updated_at"}).
		AddRow("b", "Newer", "", "published", 3, older, fixedNow).
		AddRow("a", "Older", "first", "draft", 0, older, older)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM learning_paths")).WillReturnRows(rows)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, domain.StatusPublished, list[0].Status)
	assert.Equal(t, 3, list[0].NodeCount)
	assert.Equal(t, "first", list[1].Description)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
