package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"galactischevrienden/internal/kv"
	"galactischevrienden/internal/models"
)

const pendingAttemptsKey = "pending_attempts"

// AttemptRecorder logs every answer to the hosted attempt log. Answers that
// cannot be sent are kept in the local pending list until SyncPending.
type AttemptRecorder struct {
	store  AttemptStore
	local  kv.Store
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewAttemptRecorder creates an attempt recorder
func NewAttemptRecorder(store AttemptStore, local kv.Store, logger *zap.Logger) *AttemptRecorder {
	return &AttemptRecorder{
		store:  store,
		local:  local,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record sends the attempt to the hosted log. On failure the attempt is kept
// locally instead and the failure is returned; it is never stored twice.
func (r *AttemptRecorder) Record(ctx context.Context, attempt models.WordAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = r.now()
	}

	err := r.store.InsertAttempt(ctx, attempt)
	if err == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending := r.loadPending()
	pending = append(pending, attempt)
	if perr := r.savePending(pending); perr != nil {
		r.logger.Error("failed to keep attempt locally", zap.String("word", attempt.Word), zap.Error(perr))
	}
	return fmt.Errorf("attempt kept locally: %w", err)
}

// SyncPending sends the pending list as one batch and clears it only when the
// whole batch succeeded. It returns the number of attempts sent.
func (r *AttemptRecorder) SyncPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := r.loadPending()
	if len(pending) == 0 {
		return 0, nil
	}

	if err := r.store.InsertAttempts(ctx, pending); err != nil {
		return 0, err
	}
	if err := r.local.Delete(pendingAttemptsKey); err != nil {
		return len(pending), fmt.Errorf("failed to clear pending attempts: %w", err)
	}
	return len(pending), nil
}

// Pending returns the attempts waiting to be sent
func (r *AttemptRecorder) Pending() []models.WordAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadPending()
}

// Stats summarizes the player's attempts since the given time
func (r *AttemptRecorder) Stats(ctx context.Context, userID string, since time.Time) ([]models.WordStats, error) {
	attempts, err := r.store.AttemptsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return WordStats(attempts), nil
}

func (r *AttemptRecorder) loadPending() []models.WordAttempt {
	raw, ok, err := r.local.Get(pendingAttemptsKey)
	if err != nil {
		r.logger.Warn("failed to read pending attempts", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var pending []models.WordAttempt
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		r.logger.Error("corrupt pending attempts, discarding them", zap.Error(err))
		return nil
	}
	return pending
}

func (r *AttemptRecorder) savePending(pending []models.WordAttempt) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return r.local.Set(pendingAttemptsKey, string(data))
}
