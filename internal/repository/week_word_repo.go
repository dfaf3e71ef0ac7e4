package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

// WeekWordRepository handles the school week words
type WeekWordRepository struct {
	db database.DBTX
}

// NewWeekWordRepository creates a new week word repository
func NewWeekWordRepository(db database.DBTX) *WeekWordRepository {
	return &WeekWordRepository{db: db}
}

// UpsertWeekWord adds a week word or extends an existing one
func (r *WeekWordRepository) UpsertWeekWord(ctx context.Context, w models.WeekWord) error {
	query := `
		INSERT INTO week_words (user_id, word, syllables, active_until, created_at)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause([]string{"user_id", "word"}, []string{"syllables", "active_until"})

	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, w.UserID, w.Word, strings.Join(w.Syllables, "-"), w.ActiveUntil.UTC(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert week word: %w", err)
	}
	return nil
}

// ActiveWeekWords returns the week words still active at now, newest first
func (r *WeekWordRepository) ActiveWeekWords(ctx context.Context, userID string, now time.Time) ([]models.WeekWord, error) {
	query := `
		SELECT user_id, word, syllables, active_until, created_at
		FROM week_words
		WHERE user_id = ? AND active_until > ?
		ORDER BY created_at DESC, word ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query week words: %w", err)
	}
	defer rows.Close()

	words := []models.WeekWord{}
	for rows.Next() {
		var (
			w         models.WeekWord
			syllables string
		)
		if err := rows.Scan(&w.UserID, &w.Word, &syllables, &w.ActiveUntil, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan week word: %w", err)
		}
		w.Syllables = splitList(syllables, "-")
		words = append(words, w)
	}
	return words, rows.Err()
}

// DeleteWeekWord removes a week word
func (r *WeekWordRepository) DeleteWeekWord(ctx context.Context, userID, word string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM week_words WHERE user_id = ? AND word = ?", userID, word); err != nil {
		return fmt.Errorf("failed to delete week word: %w", err)
	}
	return nil
}
