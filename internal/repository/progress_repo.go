package repository

import (
	"context"
	"fmt"
	"time"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

// CompletedLevel is one row of completed_levels
type CompletedLevel struct {
	UserID      string
	GameID      models.GameID
	LevelID     models.LevelID
	StarsEarned int
	CompletedAt time.Time
}

// ProgressRepository handles completed levels and unlocked items
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// UpsertCompletedLevel records a level completion. Replaying it only refreshes
// the stars and timestamp.
func (r *ProgressRepository) UpsertCompletedLevel(ctx context.Context, level CompletedLevel) error {
	query := `
		INSERT INTO completed_levels (user_id, game_type, level_id, stars_earned, completed_at)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"user_id", "game_type", "level_id"},
		[]string{"stars_earned", "completed_at"},
	)

	completedAt := level.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, level.UserID, string(level.GameID), string(level.LevelID), level.StarsEarned, completedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert completed level: %w", err)
	}
	return nil
}

// GetCompletedLevels returns the completed level ids grouped by game
func (r *ProgressRepository) GetCompletedLevels(ctx context.Context, userID string) (map[models.GameID][]models.LevelID, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT game_type, level_id FROM completed_levels WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed levels: %w", err)
	}
	defer rows.Close()

	levels := make(map[models.GameID][]models.LevelID)
	for rows.Next() {
		var game, level string
		if err := rows.Scan(&game, &level); err != nil {
			return nil, fmt.Errorf("failed to scan completed level: %w", err)
		}
		levels[models.GameID(game)] = append(levels[models.GameID(game)], models.LevelID(level))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed levels: %w", err)
	}
	return levels, nil
}

// CountCompletedLevels returns the number of completed levels per game
func (r *ProgressRepository) CountCompletedLevels(ctx context.Context, userID string) (map[models.GameID]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT game_type, COUNT(*) FROM completed_levels WHERE user_id = ? GROUP BY game_type", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed levels: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.GameID]int)
	for rows.Next() {
		var (
			game  string
			count int
		)
		if err := rows.Scan(&game, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level count: %w", err)
		}
		counts[models.GameID(game)] = count
	}
	return counts, rows.Err()
}

// AddItem records an unlocked item; owning it already is not an error
func (r *ProgressRepository) AddItem(ctx context.Context, userID, itemID string) error {
	query := `
		INSERT INTO user_items (user_id, item_id, unlocked_at)
		VALUES (?, ?, ?)
	` + r.db.GetDialect().IgnoreConflictClause([]string{"user_id", "item_id"})

	if _, err := r.db.ExecContext(ctx, query, userID, itemID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	return nil
}

// GetItems returns the ids of all unlocked items
func (r *ProgressRepository) GetItems(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT item_id FROM user_items WHERE user_id = ? ORDER BY item_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
