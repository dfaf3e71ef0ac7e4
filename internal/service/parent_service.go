package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"galactischevrienden/internal/credentials"
	"galactischevrienden/internal/models"
	"galactischevrienden/internal/security"
	"galactischevrienden/internal/validation"
)

const (
	overviewWindow       = 7 * 24 * time.Hour
	overviewDifficultTop = 5
)

// ErrInvalidCredentials is returned for an unknown child or a wrong PIN
var ErrInvalidCredentials = errors.New("invalid child id or pin")

// ParentStore persists parent accounts
type ParentStore interface {
	GetParent(ctx context.Context, childID string) (*models.ParentAccount, error)
	SaveParent(ctx context.Context, p models.ParentAccount) error
	WeeklyReportRecipients(ctx context.Context) ([]models.ParentAccount, error)
}

// ProfileStore reads player profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// LevelCounter counts completed levels per game
type LevelCounter interface {
	CountCompletedLevels(ctx context.Context, userID string) (map[models.GameID]int, error)
}

// ParentOverview is what a parent sees on the dashboard and in the weekly report
type ParentOverview struct {
	ChildID          string                      `json:"childId"`
	DisplayName      string                      `json:"displayName"`
	AVILevel         models.AVILevel             `json:"aviLevel"`
	Stars            int                         `json:"stars"`
	CompletedLevels  map[models.GameID]int       `json:"completedLevels"`
	Streak           models.ReadingStreak        `json:"streak"`
	AttemptsThisWeek int                         `json:"attemptsThisWeek"`
	Mastery          map[models.MasteryLevel]int `json:"mastery"`
	DifficultWords   []models.WordStats          `json:"difficultWords"`
	GeneratedAt      time.Time                   `json:"generatedAt"`
}

// ParentService handles parent accounts and the progress overview
type ParentService struct {
	parents  ParentStore
	profiles ProfileStore
	levels   LevelCounter
	attempts AttemptStore
	streaks  *StreakService
	tokens   *security.TokenManager
	now      func() time.Time
}

// NewParentService creates a parent service
func NewParentService(
	parents ParentStore,
	profiles ProfileStore,
	levels LevelCounter,
	attempts AttemptStore,
	streaks *StreakService,
	tokens *security.TokenManager,
) *ParentService {
	return &ParentService{
		parents:  parents,
		profiles: profiles,
		levels:   levels,
		attempts: attempts,
		streaks:  streaks,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register links a parent to a child, replacing any earlier account
func (s *ParentService) Register(ctx context.Context, childID, email, pin string, weeklyReport bool) error {
	if err := validation.ValidateUserID(childID); err != nil {
		return err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidatePIN(pin); err != nil {
		return err
	}

	hash, err := credentials.HashPIN(pin)
	if err != nil {
		return err
	}
	return s.parents.SaveParent(ctx, models.ParentAccount{
		ChildID:      childID,
		Email:        email,
		PINHash:      hash,
		WeeklyReport: weeklyReport,
		CreatedAt:    s.now(),
	})
}

// Login checks the PIN and issues a parent token for the child
func (s *ParentService) Login(ctx context.Context, childID, pin string) (string, time.Time, error) {
	parent, err := s.parents.GetParent(ctx, childID)
	if err != nil {
		return "", time.Time{}, err
	}
	if parent == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := credentials.CheckPIN(parent.PINHash, pin); err != nil {
		if errors.Is(err, credentials.ErrPINMismatch) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	return s.tokens.Issue(childID, security.RoleParent)
}

// Overview summarizes the child's progress and the last week of practice
func (s *ParentService) Overview(ctx context.Context, childID string) (ParentOverview, error) {
	now := s.now()
	overview := ParentOverview{
		ChildID:     childID,
		AVILevel:    models.AVIStart,
		GeneratedAt: now,
	}

	profile, err := s.profiles.GetProfile(ctx, childID)
	if err != nil {
		return ParentOverview{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile != nil {
		overview.DisplayName = profile.DisplayName
		overview.AVILevel = profile.AVILevel
		overview.Stars = profile.Stars
	}

	counts, err := s.levels.CountCompletedLevels(ctx, childID)
	if err != nil {
		return ParentOverview{}, fmt.Errorf("failed to count levels: %w", err)
	}
	overview.CompletedLevels = make(map[models.GameID]int, len(models.KnownGames))
	for _, game := range models.KnownGames {
		overview.CompletedLevels[game] = counts[game]
	}

	if overview.Streak, err = s.streaks.Get(ctx, childID); err != nil {
		return ParentOverview{}, fmt.Errorf("failed to load streak: %w", err)
	}

	attempts, err := s.attempts.AttemptsSince(ctx, childID, now.Add(-overviewWindow))
	if err != nil {
		return ParentOverview{}, fmt.Errorf("failed to load attempts: %w", err)
	}
	stats := WordStats(attempts)
	overview.AttemptsThisWeek = len(attempts)
	overview.Mastery = MasteryDistribution(stats)

	difficult := DifficultWords(attempts)
	if len(difficult) > overviewDifficultTop {
		difficult = difficult[:overviewDifficultTop]
	}
	overview.DifficultWords = difficult
	if overview.DifficultWords == nil {
		overview.DifficultWords = []models.WordStats{}
	}

	return overview, nil
}
