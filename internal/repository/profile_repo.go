package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

// ProfileRepository handles database operations for player profiles
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a profile, or nil when the player has none yet
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := "SELECT user_id, display_name, avi_level, interests, stars, updated_at FROM profiles WHERE user_id = ?"

	var (
		p         models.UserProfile
		interests string
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.AVILevel,
		&interests,
		&p.Stars,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.Interests = splitList(interests, ",")
	return &p, nil
}

// SaveProfile creates or updates the profile settings. The star balance is
// left alone; it is owned by the progress sync.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p models.UserProfile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, avi_level, interests, updated_at)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"user_id"},
		[]string{"display_name", "avi_level", "interests", "updated_at"},
	)

	_, err := r.db.ExecContext(ctx, query, p.UserID, p.DisplayName, string(p.AVILevel), strings.Join(p.Interests, ","), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetStars returns the stored star balance; ok is false when no profile exists
func (r *ProfileRepository) GetStars(ctx context.Context, userID string) (stars int, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, "SELECT stars FROM profiles WHERE user_id = ?", userID).Scan(&stars)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get stars: %w", err)
	}
	return stars, true, nil
}

// SetStars upserts the star balance, creating a bare profile when needed
func (r *ProfileRepository) SetStars(ctx context.Context, userID string, stars int) error {
	query := `
		INSERT INTO profiles (user_id, stars, updated_at)
		VALUES (?, ?, ?)
	` + r.db.GetDialect().UpsertClause([]string{"user_id"}, []string{"stars", "updated_at"})

	if _, err := r.db.ExecContext(ctx, query, userID, stars, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set stars: %w", err)
	}
	return nil
}

func splitList(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
