package service

import (
	"context"
	"time"

	"galactischevrienden/internal/models"
)

// StreakStore persists reading streaks
type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (*models.ReadingStreak, error)
	SaveStreak(ctx context.Context, s models.ReadingStreak) error
}

// StreakService counts consecutive reading days
type StreakService struct {
	store StreakStore
}

// NewStreakService creates a streak service
func NewStreakService(store StreakStore) *StreakService {
	return &StreakService{store: store}
}

// Get returns the player's streak; a player who never read has an empty one
func (s *StreakService) Get(ctx context.Context, userID string) (models.ReadingStreak, error) {
	streak, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		return models.ReadingStreak{}, err
	}
	if streak == nil {
		return models.ReadingStreak{UserID: userID}, nil
	}
	return *streak, nil
}

// RecordActivity registers reading on day. Reading again on the same day
// changes nothing, reading the day after extends the streak and any longer
// gap starts a new one.
func (s *StreakService) RecordActivity(ctx context.Context, userID string, day time.Time) (models.ReadingStreak, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return models.ReadingStreak{}, err
	}

	next := AdvanceStreak(current, day)
	if next == current {
		return current, nil
	}
	if err := s.store.SaveStreak(ctx, next); err != nil {
		return models.ReadingStreak{}, err
	}
	return next, nil
}

// AdvanceStreak applies one reading day to a streak
func AdvanceStreak(streak models.ReadingStreak, day time.Time) models.ReadingStreak {
	today := calendarDay(day)

	if !streak.LastReadDate.IsZero() {
		last := calendarDay(streak.LastReadDate)
		switch {
		case !today.After(last):
			return streak
		case last.AddDate(0, 0, 1).Equal(today):
			streak.CurrentStreak++
		default:
			streak.CurrentStreak = 1
		}
	} else {
		streak.CurrentStreak = 1
	}

	streak.LastReadDate = today
	streak.LongestStreak = max(streak.LongestStreak, streak.CurrentStreak)
	return streak
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
