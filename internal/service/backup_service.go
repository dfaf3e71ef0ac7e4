package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
	"galactischevrienden/internal/repository"
)

const backupVersion = "1"

// BackupData is the export of one player's hosted data
type BackupData struct {
	Version    string                  `json:"version"`
	ExportedAt time.Time               `json:"exported_at"`
	UserID     string                  `json:"user_id"`
	Profile    *models.UserProfile     `json:"profile,omitempty"`
	Progress   models.ProgressSnapshot `json:"progress"`
	Streak     *models.ReadingStreak   `json:"streak,omitempty"`
	WeekWords  []models.WeekWord       `json:"week_words"`
	Attempts   []models.WordAttempt    `json:"attempts"`
}

// BackupService exports and imports a player's hosted data. Imports merge:
// progress is reconciled with what is stored and rows are upserted.
type BackupService struct {
	db     *database.DB
	remote *RemoteStore
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, remote: NewRemoteStore(db, logger), logger: logger}
}

// Export writes the player's data as indented JSON
func (s *BackupService) Export(ctx context.Context, userID string, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		UserID:     userID,
	}

	var err error
	if backup.Profile, err = repository.NewProfileRepository(s.db).GetProfile(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export profile: %w", err)
	}
	if backup.Progress, err = s.remote.load(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	if backup.Streak, err = repository.NewStreakRepository(s.db).GetStreak(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export streak: %w", err)
	}
	if backup.WeekWords, err = repository.NewWeekWordRepository(s.db).ActiveWeekWords(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("failed to export week words: %w", err)
	}
	if backup.Attempts, err = repository.NewAttemptRepository(s.db).AttemptsSince(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}
	backup.Progress.LastUpdated = backup.ExportedAt

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("player exported",
		zap.String("user_id", userID),
		zap.Int("completed_levels", backup.Progress.CompletedCount()),
		zap.Int("week_words", len(backup.WeekWords)),
		zap.Int("attempts", len(backup.Attempts)),
	)
	return backup, nil
}

// Import merges a backup into the hosted database. Importing the same backup
// twice leaves the data unchanged.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	if backup.UserID == "" {
		return nil, fmt.Errorf("backup has no user id")
	}
	userID := backup.UserID

	current, err := s.remote.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current progress: %w", err)
	}
	merged := Reconcile(current, backup.Progress, time.Now().UTC())

	err = s.db.WithinTx(ctx, func(tx *database.Tx) error {
		if backup.Profile != nil {
			profile := *backup.Profile
			profile.UserID = userID
			if err := repository.NewProfileRepository(tx).SaveProfile(ctx, profile); err != nil {
				return err
			}
		}

		if backup.Streak != nil {
			streaks := repository.NewStreakRepository(tx)
			existing, err := streaks.GetStreak(ctx, userID)
			if err != nil {
				return err
			}
			if existing == nil || backup.Streak.LastReadDate.After(existing.LastReadDate) {
				streak := *backup.Streak
				streak.UserID = userID
				if existing != nil {
					streak.LongestStreak = max(streak.LongestStreak, existing.LongestStreak)
				}
				if err := streaks.SaveStreak(ctx, streak); err != nil {
					return err
				}
			}
		}

		weekWords := repository.NewWeekWordRepository(tx)
		for _, w := range backup.WeekWords {
			w.UserID = userID
			if err := weekWords.UpsertWeekWord(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import player data: %w", err)
	}

	if err := s.remote.Save(ctx, userID, merged); err != nil {
		return nil, fmt.Errorf("failed to import progress: %w", err)
	}

	for i := range backup.Attempts {
		backup.Attempts[i].UserID = userID
	}
	if err := repository.NewAttemptRepository(s.db).InsertAttempts(ctx, backup.Attempts); err != nil {
		return nil, fmt.Errorf("failed to import attempts: %w", err)
	}

	s.logger.Info("player imported",
		zap.String("user_id", userID),
		zap.Int("stars", merged.Stars),
		zap.Int("attempts", len(backup.Attempts)),
	)
	return &backup, nil
}
