package service

import (
	"context"
	"time"

	"galactischevrienden/internal/models"
)

// LocalProgressStore is the device-local copy of a player's progress.
// A missing or unreadable snapshot is reported as absent, never as an error.
type LocalProgressStore interface {
	Load(userID string) (models.ProgressSnapshot, bool)
	Save(userID string, snapshot models.ProgressSnapshot) error
}

// RemoteProgressStore is the hosted copy of a player's progress.
// Load reports absent when the database cannot be reached.
type RemoteProgressStore interface {
	Load(ctx context.Context, userID string) (models.ProgressSnapshot, bool)
	Save(ctx context.Context, userID string, snapshot models.ProgressSnapshot) error
	Apply(ctx context.Context, op models.RetryOperation) error
}

// WordBank serves leveled word entries
type WordBank interface {
	Level(level models.AVILevel) ([]models.WordEntry, error)
	Find(word string, level models.AVILevel) (models.WordEntry, bool)
}

// WeekWordSource returns the school words a parent entered for this week
type WeekWordSource interface {
	ActiveWeekWords(ctx context.Context, userID string, now time.Time) ([]models.WeekWord, error)
}

// WrongAttemptSource returns the words of the latest wrong answers, newest first
type WrongAttemptSource interface {
	RecentWrongWords(ctx context.Context, userID string, limit int) ([]string, error)
}

// AttemptStore is the hosted word attempt log
type AttemptStore interface {
	InsertAttempt(ctx context.Context, attempt models.WordAttempt) error
	InsertAttempts(ctx context.Context, attempts []models.WordAttempt) error
	AttemptsSince(ctx context.Context, userID string, since time.Time) ([]models.WordAttempt, error)
}
