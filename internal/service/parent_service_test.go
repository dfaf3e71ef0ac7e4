package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
	"galactischevrienden/internal/repository"
	"galactischevrienden/internal/security"
)

func newParentService(db *database.DB) *ParentService {
	return NewParentService(
		repository.NewParentRepository(db),
		repository.NewProfileRepository(db),
		repository.NewProgressRepository(db),
		repository.NewAttemptRepository(db),
		NewStreakService(repository.NewStreakRepository(db)),
		security.NewTokenManager("test-secret", time.Hour),
	)
}

func TestParentLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newParentService(db)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "kid-1", "ouder@example.nl", "4821", true))
	assert.Error(t, svc.Register(ctx, "kid-1", "ouder@example.nl", "12", true))
	assert.Error(t, svc.Register(ctx, "kid-1", "geen-email", "4821", true))

	token, expires, err := svc.Login(ctx, "kid-1", "4821")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := security.NewTokenManager("test-secret", time.Hour).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "kid-1", claims.UserID())
	assert.Equal(t, security.RoleParent, claims.Role)

	_, _, err = svc.Login(ctx, "kid-1", "0000")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "kid-2", "4821")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParentOverview(t *testing.T) {
	db := setupTestDB(t)
	svc := newParentService(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repository.NewProfileRepository(db).SaveProfile(ctx, models.UserProfile{UserID: "kid-1", DisplayName: "Noor", AVILevel: models.AVIE3}))
	require.NoError(t, repository.NewProfileRepository(db).SetStars(ctx, "kid-1", 42))
	progress := repository.NewProgressRepository(db)
	require.NoError(t, progress.UpsertCompletedLevel(ctx, repository.CompletedLevel{UserID: "kid-1", GameID: models.GameTroll, LevelID: "1"}))
	require.NoError(t, progress.UpsertCompletedLevel(ctx, repository.CompletedLevel{UserID: "kid-1", GameID: models.GameTroll, LevelID: "2"}))

	attempts := repository.NewAttemptRepository(db)
	for i, a := range []struct {
		word    string
		correct bool
	}{{"raket", false}, {"raket", false}, {"maan", true}, {"maan", true}, {"ster", false}} {
		require.NoError(t, attempts.InsertAttempt(ctx, models.WordAttempt{
			ID: "a" + string(rune('0'+i)), UserID: "kid-1", Word: a.word, Correct: a.correct, GameType: "troll", Timestamp: now.Add(-time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, attempts.InsertAttempt(ctx, models.WordAttempt{ID: "old", UserID: "kid-1", Word: "komeet", GameType: "troll", Timestamp: now.AddDate(0, 0, -30)}))

	_, err := svc.streaks.RecordActivity(ctx, "kid-1", now)
	require.NoError(t, err)

	overview, err := svc.Overview(ctx, "kid-1")
	require.NoError(t, err)

	assert.Equal(t, "Noor", overview.DisplayName)
	assert.Equal(t, models.AVIE3, overview.AVILevel)
	assert.Equal(t, 42, overview.Stars)
	assert.Equal(t, 2, overview.CompletedLevels[models.GameTroll])
	assert.Equal(t, 0, overview.CompletedLevels[models.GameJumper])
	assert.Equal(t, 1, overview.Streak.CurrentStreak)
	assert.Equal(t, 5, overview.AttemptsThisWeek)
	assert.Equal(t, 1, overview.Mastery[models.MasteryMastered])
	assert.Equal(t, 2, overview.Mastery[models.MasteryDifficult])
	require.Len(t, overview.DifficultWords, 1, "ster has a single attempt")
	assert.Equal(t, "raket", overview.DifficultWords[0].Word)
}

func TestParentOverviewUnknownChild(t *testing.T) {
	overview, err := newParentService(setupTestDB(t)).Overview(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.AVIStart, overview.AVILevel)
	assert.Empty(t, overview.DifficultWords)
}
