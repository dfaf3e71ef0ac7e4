package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(""))
	return db
}

func TestProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	p, err := repo.GetProfile(ctx, "kid-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, ok, err := repo.GetStars(ctx, "kid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetStars(ctx, "kid-1", 12))
	require.NoError(t, repo.SaveProfile(ctx, models.UserProfile{
		UserID:      "kid-1",
		DisplayName: "Noor",
		AVILevel:    models.AVIE3,
		Interests:   []string{"ruimte", "dieren"},
	}))

	p, err = repo.GetProfile(ctx, "kid-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Noor", p.DisplayName)
	assert.Equal(t, models.AVIE3, p.AVILevel)
	assert.Equal(t, []string{"ruimte", "dieren"}, p.Interests)
	assert.Equal(t, 12, p.Stars, "saving settings keeps the star balance")

	require.NoError(t, repo.SetStars(ctx, "kid-1", 30))
	stars, ok, err := repo.GetStars(ctx, "kid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30, stars)
}

func TestProgressRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	levels := []CompletedLevel{
		{UserID: "kid-1", GameID: models.GameCodeKraken, LevelID: models.IntLevel(1), StarsEarned: 3},
		{UserID: "kid-1", GameID: models.GameCodeKraken, LevelID: models.IntLevel(2), StarsEarned: 2},
		{UserID: "kid-1", GameID: models.GameStories, LevelID: "story-7f3a", StarsEarned: 1},
		// replay of an already recorded completion
		{UserID: "kid-1", GameID: models.GameCodeKraken, LevelID: models.IntLevel(1), StarsEarned: 3},
		{UserID: "kid-2", GameID: models.GameTroll, LevelID: models.IntLevel(1), StarsEarned: 1},
	}
	for _, l := range levels {
		require.NoError(t, repo.UpsertCompletedLevel(ctx, l))
	}

	got, err := repo.GetCompletedLevels(ctx, "kid-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.LevelID{"1", "2"}, got[models.GameCodeKraken])
	assert.Equal(t, []models.LevelID{"story-7f3a"}, got[models.GameStories])
	assert.Empty(t, got[models.GameTroll])

	counts, err := repo.CountCompletedLevels(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.GameCodeKraken])
	assert.Equal(t, 1, counts[models.GameStories])

	require.NoError(t, repo.AddItem(ctx, "kid-1", "telescope"))
	require.NoError(t, repo.AddItem(ctx, "kid-1", "plant-alien"))
	require.NoError(t, repo.AddItem(ctx, "kid-1", "telescope"), "duplicate items are ignored")

	items, err := repo.GetItems(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"plant-alien", "telescope"}, items)
}

func TestStreakRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()

	s, err := repo.GetStreak(ctx, "kid-1")
	require.NoError(t, err)
	assert.Nil(t, s)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveStreak(ctx, models.ReadingStreak{UserID: "kid-1", CurrentStreak: 2, LongestStreak: 5, LastReadDate: day}))
	require.NoError(t, repo.SaveStreak(ctx, models.ReadingStreak{UserID: "kid-1", CurrentStreak: 3, LongestStreak: 5, LastReadDate: day.AddDate(0, 0, 1)}))

	s, err = repo.GetStreak(ctx, "kid-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, "2026-03-15", s.LastReadDate.Format(DateLayout))
}

func newAttempt(userID, word string, correct bool, at time.Time) models.WordAttempt {
	return models.WordAttempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Word:      word,
		Correct:   correct,
		GameType:  string(models.GameTroll),
		Timestamp: at,
	}
}

func TestAttemptRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	ms := 1800
	first := newAttempt("kid-1", "maan", false, base)
	first.TimeTakenMs = &ms
	require.NoError(t, repo.InsertAttempt(ctx, first))

	batch := []models.WordAttempt{
		newAttempt("kid-1", "raket", true, base.Add(time.Minute)),
		newAttempt("kid-1", "komeet", false, base.Add(2*time.Minute)),
		newAttempt("kid-1", "maan", false, base.Add(3*time.Minute)),
		newAttempt("kid-2", "ster", false, base.Add(4*time.Minute)),
	}
	require.NoError(t, repo.InsertAttempts(ctx, batch))

	wrong, err := repo.RecentWrongWords(ctx, "kid-1", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"maan", "komeet", "maan"}, wrong)

	wrong, err = repo.RecentWrongWords(ctx, "kid-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"maan"}, wrong)

	attempts, err := repo.AttemptsSince(ctx, "kid-1", base.Add(30*time.Second))
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, "raket", attempts[0].Word)
	assert.True(t, attempts[0].Correct)

	all, err := repo.AttemptsSince(ctx, "kid-1", base)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.NotNil(t, all[0].TimeTakenMs)
	assert.Equal(t, 1800, *all[0].TimeTakenMs)
	assert.Nil(t, all[1].TimeTakenMs)
}

func TestInsertAttemptsReplayIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()
	now := time.Now()

	batch := []models.WordAttempt{
		newAttempt("kid-1", "raket", false, now),
		newAttempt("kid-1", "maan", false, now.Add(time.Second)),
	}
	require.NoError(t, repo.InsertAttempts(ctx, batch))
	require.NoError(t, repo.InsertAttempts(ctx, batch))
	require.NoError(t, repo.InsertAttempt(ctx, batch[0]))

	wrong, err := repo.RecentWrongWords(ctx, "kid-1", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"maan", "raket"}, wrong)
}

func TestInsertAttemptsCanceled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.InsertAttempts(ctx, []models.WordAttempt{newAttempt("kid-1", "raket", false, time.Now())})
	require.Error(t, err)

	wrong, err := repo.RecentWrongWords(context.Background(), "kid-1", 20)
	require.NoError(t, err)
	assert.Empty(t, wrong)
}

func TestWeekWordRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWeekWordRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertWeekWord(ctx, models.WeekWord{UserID: "kid-1", Word: "fiets", Syllables: []string{"fiets"}, ActiveUntil: now.Add(48 * time.Hour)}))
	require.NoError(t, repo.UpsertWeekWord(ctx, models.WeekWord{UserID: "kid-1", Word: "schooltas", Syllables: []string{"school", "tas"}, ActiveUntil: now.Add(-time.Hour)}))
	require.NoError(t, repo.UpsertWeekWord(ctx, models.WeekWord{UserID: "kid-1", Word: "boek", ActiveUntil: now.Add(time.Hour)}))

	active, err := repo.ActiveWeekWords(ctx, "kid-1", now)
	require.NoError(t, err)
	require.Len(t, active, 2)

	byWord := map[string]models.WeekWord{}
	for _, w := range active {
		byWord[w.Word] = w
	}
	assert.Equal(t, []string{"fiets"}, byWord["fiets"].Syllables)
	assert.Empty(t, byWord["boek"].Syllables)

	// extending an expired word brings it back
	require.NoError(t, repo.UpsertWeekWord(ctx, models.WeekWord{UserID: "kid-1", Word: "schooltas", Syllables: []string{"school", "tas"}, ActiveUntil: now.Add(time.Hour)}))
	active, err = repo.ActiveWeekWords(ctx, "kid-1", now)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	require.NoError(t, repo.DeleteWeekWord(ctx, "kid-1", "boek"))
	active, err = repo.ActiveWeekWords(ctx, "kid-1", now)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestParentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParentRepository(db)
	ctx := context.Background()

	p, err := repo.GetParent(ctx, "kid-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, repo.SaveParent(ctx, models.ParentAccount{ChildID: "kid-1", Email: "ouder@example.nl", PINHash: "hash", WeeklyReport: true}))
	require.NoError(t, repo.SaveParent(ctx, models.ParentAccount{ChildID: "kid-2", Email: "other@example.nl", PINHash: "hash", WeeklyReport: false}))

	p, err = repo.GetParent(ctx, "kid-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "ouder@example.nl", p.Email)
	assert.True(t, p.WeeklyReport)

	recipients, err := repo.WeeklyReportRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "kid-1", recipients[0].ChildID)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{}, splitList("", ","))
	assert.Equal(t, []string{"a", "b"}, splitList("a, ,b", ","))
}
