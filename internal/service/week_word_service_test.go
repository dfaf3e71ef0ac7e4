package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galactischevrienden/internal/repository"
	"galactischevrienden/internal/wordbank"
)

func TestWeekWordService(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWeekWordService(repository.NewWeekWordRepository(db))
	now := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	w, err := svc.Add(ctx, "kid-1", " schooltas ", []string{"school", "tas"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "schooltas", w.Word)
	assert.Equal(t, now.AddDate(0, 0, DefaultWeekWordDays), w.ActiveUntil)

	_, err = svc.Add(ctx, "kid-1", "fiets", nil, 2)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "kid-1", "lopen", []string{"lo", "ppen"}, 7)
	assert.ErrorIs(t, err, wordbank.ErrInvalidWordEntry)

	_, err = svc.Add(ctx, "kid-1", "  ", nil, 7)
	assert.Error(t, err)

	active, err := svc.Active(ctx, "kid-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, active, 2)

	active, err = svc.Active(ctx, "kid-1", now.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, active, 1, "fiets expired after two days")
	assert.Equal(t, []string{"school", "tas"}, active[0].Syllables)

	require.NoError(t, svc.Remove(ctx, "kid-1", "schooltas"))
	active, err = svc.Active(ctx, "kid-1", now)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
