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

// ParentRepository handles parent accounts
type ParentRepository struct {
	db database.DBTX
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db database.DBTX) *ParentRepository {
	return &ParentRepository{db: db}
}

// SaveParent creates or replaces the parent account of a child
func (r *ParentRepository) SaveParent(ctx context.Context, p models.ParentAccount) error {
	query := `
		INSERT INTO parent_accounts (child_id, email, pin_hash, weekly_report, created_at)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause([]string{"child_id"}, []string{"email", "pin_hash", "weekly_report"})

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, p.ChildID, p.Email, p.PINHash, p.WeeklyReport, createdAt); err != nil {
		return fmt.Errorf("failed to save parent account: %w", err)
	}
	return nil
}

// GetParent returns the parent account of a child, or nil when none exists
func (r *ParentRepository) GetParent(ctx context.Context, childID string) (*models.ParentAccount, error) {
	query := "SELECT child_id, email, pin_hash, weekly_report, created_at FROM parent_accounts WHERE child_id = ?"

	var p models.ParentAccount
	err := r.db.QueryRowContext(ctx, query, childID).Scan(&p.ChildID, &p.Email, &p.PINHash, &p.WeeklyReport, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent account: %w", err)
	}
	return &p, nil
}

// WeeklyReportRecipients returns every parent who opted in to the weekly report
func (r *ParentRepository) WeeklyReportRecipients(ctx context.Context) ([]models.ParentAccount, error) {
	query := `
		SELECT child_id, email, pin_hash, weekly_report, created_at
		FROM parent_accounts
		WHERE weekly_report = ?
		ORDER BY child_id
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query report recipients: %w", err)
	}
	defer rows.Close()

	parents := []models.ParentAccount{}
	for rows.Next() {
		var p models.ParentAccount
		if err := rows.Scan(&p.ChildID, &p.Email, &p.PINHash, &p.WeeklyReport, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parent account: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}
