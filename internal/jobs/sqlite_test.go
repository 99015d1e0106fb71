package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ratecard-converter/internal/convert"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	defer repo.Close()

	origin := "Shanghai"
	older := NewRateCard("q1.csv", "", &convert.ConversionResult{
		Rows:         []convert.CanonicalRow{{LaneOrigin: origin, LaneDestination: "Rotterdam", RateValue: 2500, Currency: "USD"}},
		RejectedRows: 1,
		Warnings:     []string{"Row rejected: rate_value must be non-negative"},
	})
	older.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := NewRateCard("q2.csv", "stub-llm", &convert.ConversionResult{})
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "q1.csv", got.Filename)
	assert.Equal(t, older.CreatedAt, got.CreatedAt)
	require.Len(t, got.Result.Rows, 1)
	assert.Equal(t, "Rotterdam", got.Result.Rows[0].LaneDestination)
	assert.Equal(t, 1, got.Result.RejectedRows)

	list, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Nil(t, list[0].Result)

	list, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, older.ID))
	_, err = repo.Get(ctx, older.ID)
	assert.True(t, errors.Is(err, ErrRateCardNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, older.ID), ErrRateCardNotFound))
}
