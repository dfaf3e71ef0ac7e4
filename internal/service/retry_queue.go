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

const (
	retryQueueKey = "retry_queue"

	// DefaultMaxRetries is how many failed replays an operation survives
	DefaultMaxRetries = 3
)

// ReplayFunc sends one queued operation to the hosted database
type ReplayFunc func(ctx context.Context, op models.RetryOperation) error

// DrainResult counts what happened to the operations seen by one Drain
type DrainResult struct {
	Replayed int
	Failed   int
	Dropped  int
}

// RetryQueue is the durable list of progress writes that failed to reach the
// hosted database. The whole queue is persisted after every change.
type RetryQueue struct {
	store      kv.Store
	maxRetries int
	logger     *zap.Logger

	mu  sync.Mutex
	ops []models.RetryOperation
}

// NewRetryQueue restores the persisted queue. Unreadable data is logged and
// replaced by an empty queue.
func NewRetryQueue(store kv.Store, maxRetries int, logger *zap.Logger) *RetryQueue {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	q := &RetryQueue{store: store, maxRetries: maxRetries, logger: logger}

	raw, ok, err := store.Get(retryQueueKey)
	switch {
	case err != nil:
		logger.Warn("failed to read retry queue", zap.Error(err))
	case ok:
		if err := json.Unmarshal([]byte(raw), &q.ops); err != nil {
			logger.Error("corrupt retry queue, starting empty", zap.Error(err))
			q.ops = nil
		}
	}
	return q
}

// Enqueue appends an operation with a fresh retry count
func (q *RetryQueue) Enqueue(op models.RetryOperation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	op.RetryCount = 0

	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
	return q.persist()
}

// Drain replays every operation queued when the call starts, oldest first.
// Successes are removed; failures count a retry and are dropped once they
// reach the maximum. Operations enqueued during the drain wait for the next one.
func (q *RetryQueue) Drain(ctx context.Context, replay ReplayFunc) DrainResult {
	var result DrainResult

	for _, op := range q.Operations() {
		if ctx.Err() != nil {
			break
		}

		err := replay(ctx, op)

		q.mu.Lock()
		if err == nil {
			q.remove(op.ID)
			result.Replayed++
		} else if q.fail(op.ID) {
			result.Dropped++
			q.logger.Error("dropping progress operation after repeated failures",
				zap.String("id", op.ID),
				zap.String("kind", string(op.Kind)),
				zap.String("user_id", op.UserID),
				zap.Int("max_retries", q.maxRetries),
				zap.Error(err),
			)
		} else {
			result.Failed++
			q.logger.Warn("progress operation replay failed",
				zap.String("id", op.ID),
				zap.String("kind", string(op.Kind)),
				zap.Error(err),
			)
		}
		if perr := q.persist(); perr != nil {
			q.logger.Warn("failed to persist retry queue", zap.Error(perr))
		}
		q.mu.Unlock()
	}

	return result
}

// Len returns the number of queued operations
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Operations returns a copy of the queue
func (q *RetryQueue) Operations() []models.RetryOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.RetryOperation(nil), q.ops...)
}

func (q *RetryQueue) remove(id string) {
	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return
		}
	}
}

// fail increments the retry count and reports whether the operation was dropped
func (q *RetryQueue) fail(id string) bool {
	for i := range q.ops {
		if q.ops[i].ID != id {
			continue
		}
		q.ops[i].RetryCount++
		if q.ops[i].RetryCount >= q.maxRetries {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return true
		}
		return false
	}
	return false
}

func (q *RetryQueue) persist() error {
	data, err := json.Marshal(q.ops)
	if err != nil {
		return fmt.Errorf("failed to encode retry queue: %w", err)
	}
	if err := q.store.Set(retryQueueKey, string(data)); err != nil {
		return fmt.Errorf("failed to save retry queue: %w", err)
	}
	return nil
}
