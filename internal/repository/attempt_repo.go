package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

// AttemptRepository handles word attempt rows
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// insertAttempt ignores an id that is already stored, so replaying a batch
// never counts an answer twice
func insertAttempt(ctx context.Context, db database.DBTX, a models.WordAttempt) error {
	query := `
		INSERT INTO word_attempts (id, user_id, word, correct, game_type, attempted_at, time_taken_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	` + db.GetDialect().IgnoreConflictClause([]string{"id"})

	var timeTaken sql.NullInt64
	if a.TimeTakenMs != nil {
		timeTaken = sql.NullInt64{Int64: int64(*a.TimeTakenMs), Valid: true}
	}
	_, err := db.ExecContext(ctx, query, a.ID, a.UserID, a.Word, a.Correct, a.GameType, a.Timestamp.UTC(), timeTaken)
	return err
}

// InsertAttempt stores one attempt
func (r *AttemptRepository) InsertAttempt(ctx context.Context, a models.WordAttempt) error {
	if err := insertAttempt(ctx, r.db, a); err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// InsertAttempts stores a batch in a single transaction; either all rows land or none
func (r *AttemptRepository) InsertAttempts(ctx context.Context, attempts []models.WordAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	err := r.db.WithinTx(ctx, func(tx *database.Tx) error {
		for _, a := range attempts {
			if err := insertAttempt(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert %d attempts: %w", len(attempts), err)
	}
	return nil
}

// RecentWrongWords returns the words of the most recent incorrect attempts, newest first
func (r *AttemptRepository) RecentWrongWords(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `
		SELECT word FROM word_attempts
		WHERE user_id = ? AND correct = ?
		ORDER BY attempted_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, false, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query wrong attempts: %w", err)
	}
	defer rows.Close()

	words := []string{}
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, word)
	}
	return words, rows.Err()
}

// AttemptsSince returns every attempt of the player at or after since, oldest first
func (r *AttemptRepository) AttemptsSince(ctx context.Context, userID string, since time.Time) ([]models.WordAttempt, error) {
	query := `
		SELECT id, user_id, word, correct, game_type, attempted_at, time_taken_ms
		FROM word_attempts
		WHERE user_id = ? AND attempted_at >= ?
		ORDER BY attempted_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.WordAttempt{}
	for rows.Next() {
		var (
			a         models.WordAttempt
			timeTaken sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Word, &a.Correct, &a.GameType, &a.Timestamp, &timeTaken); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if timeTaken.Valid {
			ms := int(timeTaken.Int64)
			a.TimeTakenMs = &ms
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
