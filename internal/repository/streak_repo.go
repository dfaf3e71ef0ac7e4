package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

// DateLayout is the calendar-day format stored in reading_streaks.last_read_date
const DateLayout = "2006-01-02"

// StreakRepository handles reading streak rows
type StreakRepository struct {
	db database.DBTX
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db database.DBTX) *StreakRepository {
	return &StreakRepository{db: db}
}

// GetStreak returns the streak, or nil when the player never read
func (r *StreakRepository) GetStreak(ctx context.Context, userID string) (*models.ReadingStreak, error) {
	query := "SELECT user_id, current_streak, longest_streak, last_read_date FROM reading_streaks WHERE user_id = ?"

	var (
		s        models.ReadingStreak
		lastRead string
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.CurrentStreak, &s.LongestStreak, &lastRead)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	if lastRead != "" {
		day, err := time.Parse(DateLayout, lastRead)
		if err != nil {
			return nil, fmt.Errorf("invalid last_read_date %q: %w", lastRead, err)
		}
		s.LastReadDate = day
	}
	return &s, nil
}

// SaveStreak inserts or updates the streak row
func (r *StreakRepository) SaveStreak(ctx context.Context, s models.ReadingStreak) error {
	query := `
		INSERT INTO reading_streaks (user_id, current_streak, longest_streak, last_read_date)
		VALUES (?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"user_id"},
		[]string{"current_streak", "longest_streak", "last_read_date"},
	)

	_, err := r.db.ExecContext(ctx, query, s.UserID, s.CurrentStreak, s.LongestStreak, s.LastReadDate.Format(DateLayout))
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}
