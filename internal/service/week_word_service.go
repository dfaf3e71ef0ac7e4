package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/wordbank"
)

// DefaultWeekWordDays is how long a week word stays active when no duration is given
const DefaultWeekWordDays = 7

// ErrEmptyWord is returned when a week word is blank
var ErrEmptyWord = errors.New("word is required")

// WeekWordStore persists week words
type WeekWordStore interface {
	WeekWordSource
	UpsertWeekWord(ctx context.Context, w models.WeekWord) error
	DeleteWeekWord(ctx context.Context, userID, word string) error
}

// WeekWordService manages the school words a parent enters for the current week
type WeekWordService struct {
	store WeekWordStore
	now   func() time.Time
}

// NewWeekWordService creates a week word service
func NewWeekWordService(store WeekWordStore) *WeekWordService {
	return &WeekWordService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Add stores a week word active for the given number of days. Syllables are
// optional; when present they must spell the word like a word bank entry.
func (s *WeekWordService) Add(ctx context.Context, userID, word string, syllables []string, days int) (models.WeekWord, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return models.WeekWord{}, ErrEmptyWord
	}
	if days <= 0 {
		days = DefaultWeekWordDays
	}

	if len(syllables) > 0 {
		entry := wordbank.Normalize(models.WordEntry{Word: word, Syllables: syllables}, "")
		if err := wordbank.ValidateEntry(entry); err != nil {
			return models.WeekWord{}, err
		}
		word, syllables = entry.Word, entry.Syllables
	} else {
		word = wordbank.Normalize(models.WordEntry{Word: word}, "").Word
	}

	now := s.now()
	w := models.WeekWord{
		UserID:      userID,
		Word:        word,
		Syllables:   syllables,
		ActiveUntil: now.AddDate(0, 0, days),
		CreatedAt:   now,
	}
	if err := s.store.UpsertWeekWord(ctx, w); err != nil {
		return models.WeekWord{}, fmt.Errorf("failed to add week word: %w", err)
	}
	return w, nil
}

// Active returns the week words still active at now
func (s *WeekWordService) Active(ctx context.Context, userID string, now time.Time) ([]models.WeekWord, error) {
	return s.store.ActiveWeekWords(ctx, userID, now)
}

// Remove deletes a week word
func (s *WeekWordService) Remove(ctx context.Context, userID, word string) error {
	return s.store.DeleteWeekWord(ctx, userID, word)
}
