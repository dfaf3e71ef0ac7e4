package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"galactischevrienden/internal/models"
)

// DefaultRemoteTimeout bounds the remote load at startup
const DefaultRemoteTimeout = 5 * time.Second

var (
	ErrInsufficientStars = errors.New("not enough stars")
	ErrAlreadyOwned      = errors.New("item already unlocked")
	ErrUnknownGame       = errors.New("unknown game")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// ProgressService owns the in-memory progress of each player. Mutations are
// applied and saved locally before they return; the hosted copy is updated
// through the outbox.
type ProgressService struct {
	local   LocalProgressStore
	remote  RemoteProgressStore
	retries *RetryQueue
	outbox  *Outbox
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[string]*progressState
}

type progressState struct {
	snapshot models.ProgressSnapshot
	status   models.SyncStatus
}

// NewProgressService creates a progress service
func NewProgressService(
	local LocalProgressStore,
	remote RemoteProgressStore,
	retries *RetryQueue,
	outbox *Outbox,
	timeout time.Duration,
	logger *zap.Logger,
) *ProgressService {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &ProgressService{
		local:   local,
		remote:  remote,
		retries: retries,
		outbox:  outbox,
		timeout: timeout,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		states:  make(map[string]*progressState),
	}
}

// Load brings the player's progress up to date: the hosted copy is fetched
// within the timeout and merged with the local copy, which is saved. The retry
// queue is drained before the merge is written to the hosted copy. When the
// hosted copy is unreachable the local copy is used alone and the status is
// offline.
func (s *ProgressService) Load(ctx context.Context, userID string) (models.ProgressSnapshot, models.SyncStatus) {
	s.setStatus(userID, models.SyncSyncing)

	remote, reachable := s.loadRemote(ctx, userID)

	s.mu.Lock()
	local, ok := s.local.Load(userID)
	if !ok {
		local = models.NewProgressSnapshot(s.now())
	}
	merged := local
	if reachable {
		merged = Reconcile(local, remote, s.now())
	} else {
		merged.Normalize()
	}
	if err := s.local.Save(userID, merged); err != nil {
		s.logger.Error("failed to save reconciled progress locally", zap.String("user_id", userID), zap.Error(err))
	}
	status := models.SyncOffline
	if reachable {
		status = models.SyncOnline
	}
	s.states[userID] = &progressState{snapshot: merged, status: status}
	s.mu.Unlock()

	if !reachable {
		return merged.Clone(), status
	}

	// Drain first so no queued star total lands on top of the merged save.
	result := s.retries.Drain(ctx, s.remote.Apply)
	if result.Replayed+result.Failed+result.Dropped > 0 {
		s.logger.Info("retry queue drained",
			zap.Int("replayed", result.Replayed),
			zap.Int("failed", result.Failed),
			zap.Int("dropped", result.Dropped),
		)
	}

	if err := s.remote.Save(ctx, userID, merged); err != nil {
		s.logger.Warn("failed to save reconciled progress remotely", zap.String("user_id", userID), zap.Error(err))
		status = models.SyncOffline
		s.setStatus(userID, status)
	}

	return merged.Clone(), status
}

// loadRemote races the hosted load against the timeout. A result arriving
// after the timeout lands in the buffered channel and is discarded.
func (s *ProgressService) loadRemote(ctx context.Context, userID string) (models.ProgressSnapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		snapshot models.ProgressSnapshot
		ok       bool
	}
	done := make(chan result, 1)
	go func() {
		snapshot, ok := s.remote.Load(ctx, userID)
		done <- result{snapshot: snapshot, ok: ok}
	}()

	select {
	case r := <-done:
		return r.snapshot, r.ok
	case <-ctx.Done():
		s.logger.Warn("remote progress load timed out", zap.String("user_id", userID), zap.Duration("timeout", s.timeout))
		return models.ProgressSnapshot{}, false
	}
}

// Snapshot returns the current progress without contacting the hosted database
func (s *ProgressService) Snapshot(userID string) models.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(userID).snapshot.Clone()
}

// Status returns the last known sync status of the player
func (s *ProgressService) Status(userID string) models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(userID).status
}

// AddStars credits stars to the player
func (s *ProgressService) AddStars(userID string, amount int) (models.ProgressSnapshot, error) {
	if amount < 0 {
		return models.ProgressSnapshot{}, ErrInvalidAmount
	}
	return s.mutate(userID, func(p *models.ProgressSnapshot) ([]models.RetryOperation, error) {
		p.Stars += amount
		return []models.RetryOperation{starTotalOp(p.Stars)}, nil
	})
}

// SpendStars debits stars, failing when the balance is too low
func (s *ProgressService) SpendStars(userID string, amount int) (models.ProgressSnapshot, error) {
	if amount < 0 {
		return models.ProgressSnapshot{}, ErrInvalidAmount
	}
	return s.mutate(userID, func(p *models.ProgressSnapshot) ([]models.RetryOperation, error) {
		if p.Stars < amount {
			return nil, ErrInsufficientStars
		}
		p.Stars -= amount
		return []models.RetryOperation{starTotalOp(p.Stars)}, nil
	})
}

// CompleteLevel marks a level completed and credits the stars earned with it.
// Completing a level again only credits the stars.
func (s *ProgressService) CompleteLevel(userID string, game models.GameID, level models.LevelID, starsEarned int) (models.ProgressSnapshot, error) {
	if !game.Valid() {
		return models.ProgressSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownGame, game)
	}
	if level == "" {
		return models.ProgressSnapshot{}, errors.New("level id is required")
	}
	if starsEarned < 0 {
		return models.ProgressSnapshot{}, ErrInvalidAmount
	}
	return s.mutate(userID, func(p *models.ProgressSnapshot) ([]models.RetryOperation, error) {
		if !p.HasCompleted(game, level) {
			p.CompletedLevels[game] = append(p.CompletedLevels[game], level)
		}
		ops := []models.RetryOperation{{
			Kind:        models.OpRecordLevelCompletion,
			GameID:      game,
			LevelID:     level,
			StarsEarned: starsEarned,
		}}
		if starsEarned > 0 {
			p.Stars += starsEarned
			ops = append(ops, starTotalOp(p.Stars))
		}
		return ops, nil
	})
}

// PurchaseItem unlocks a shop item for its price in stars
func (s *ProgressService) PurchaseItem(userID, itemID string, price int) (models.ProgressSnapshot, error) {
	if itemID == "" {
		return models.ProgressSnapshot{}, errors.New("item id is required")
	}
	if price < 0 {
		return models.ProgressSnapshot{}, ErrInvalidAmount
	}
	return s.mutate(userID, func(p *models.ProgressSnapshot) ([]models.RetryOperation, error) {
		if p.Owns(itemID) {
			return nil, ErrAlreadyOwned
		}
		if p.Stars < price {
			return nil, ErrInsufficientStars
		}
		p.Stars -= price
		p.UnlockedItems = append(p.UnlockedItems, itemID)
		ops := []models.RetryOperation{{Kind: models.OpRecordPurchase, ItemID: itemID}}
		if price > 0 {
			ops = append(ops, starTotalOp(p.Stars))
		}
		return ops, nil
	})
}

func starTotalOp(total int) models.RetryOperation {
	return models.RetryOperation{Kind: models.OpApplyStarDelta, StarTotal: total}
}

// mutate applies fn to a copy of the player's progress, saves the result
// locally and only then publishes it and its sync intents
func (s *ProgressService) mutate(userID string, fn func(*models.ProgressSnapshot) ([]models.RetryOperation, error)) (models.ProgressSnapshot, error) {
	s.mu.Lock()
	state := s.state(userID)
	next := state.snapshot.Clone()
	next.Normalize()

	ops, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return models.ProgressSnapshot{}, err
	}

	now := s.now()
	next.LastUpdated = now
	next.Normalize()

	if err := s.local.Save(userID, next); err != nil {
		s.mu.Unlock()
		return models.ProgressSnapshot{}, err
	}
	state.snapshot = next
	s.mu.Unlock()

	for _, op := range ops {
		op.ID = uuid.NewString()
		op.UserID = userID
		op.CreatedAt = now
		s.outbox.Submit(op)
	}
	return next.Clone(), nil
}

// state returns the in-memory state, seeding it from the local store.
// Callers must hold s.mu.
func (s *ProgressService) state(userID string) *progressState {
	if st, ok := s.states[userID]; ok {
		return st
	}
	snapshot, ok := s.local.Load(userID)
	if !ok {
		snapshot = models.NewProgressSnapshot(s.now())
	}
	st := &progressState{snapshot: snapshot, status: models.SyncOffline}
	s.states[userID] = st
	return st
}

func (s *ProgressService) setStatus(userID string, status models.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(userID).status = status
}
