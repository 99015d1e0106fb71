package jobs

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresSave(t *testing.T) {
	repo, mock := newMockRepo(t)
	card := NewRateCard("ocean.csv", "openai", sampleResult())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rate_cards")).
		WithArgs(card.ID, "ocean.csv", "openai", 1, 1, sqlmock.AnyArg(), card.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), card))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	result, err := json.Marshal(sampleResult())
	require.NoError(t, err)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rate_cards")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "provider_used", "row_count", "rejected_rows", "result", "created_at"}).
			AddRow("card-1", "ocean.csv", "openai", 1, 1, result, created))

	card, err := repo.Get(context.Background(), "card-1")
	require.NoError(t, err)
	assert.Equal(t, "ocean.csv", card.Filename)
	assert.Equal(t, created, card.CreatedAt)
	require.Len(t, card.Result.Rows, 1)
	assert.Equal(t, "Shanghai", card.Result.Rows[0].LaneOrigin)
}

func TestPostgresGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rate_cards")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRateCardNotFound)
}

func TestPostgresList(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id")).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "provider_used", "row_count", "rejected_rows", "created_at"}).
			AddRow("b", "b.csv", "", 3, 0, created).
			AddRow("a", "a.csv", "openai", 1, 2, created.Add(-time.Hour)))

	cards, err := repo.List(context.Background(), 0, -1)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "b", cards[0].ID)
	assert.Equal(t, 2, cards[1].RejectedRows)
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rate_cards")).
		WithArgs("card-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rate_cards")).
		WithArgs("card-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "card-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "card-2"), ErrRateCardNotFound)
}

func TestPostgresEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS rate_cards")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
}
