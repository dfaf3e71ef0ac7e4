package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"galactischevrienden/internal/models"
)

// Outbox holds sync intents produced by progress mutations until a worker
// writes them to the hosted database. A write that fails is handed to the
// retry queue; remote writes are idempotent upserts so replays are safe.
type Outbox struct {
	remote  RemoteProgressStore
	retries *RetryQueue
	logger  *zap.Logger

	mu      sync.Mutex
	pending []models.RetryOperation
	signal  chan struct{}

	flushMu sync.Mutex
}

// NewOutbox creates an outbox that writes through remote
func NewOutbox(remote RemoteProgressStore, retries *RetryQueue, logger *zap.Logger) *Outbox {
	return &Outbox{
		remote:  remote,
		retries: retries,
		logger:  logger,
		signal:  make(chan struct{}, 1),
	}
}

// Submit queues an intent and wakes the worker without blocking
func (o *Outbox) Submit(op models.RetryOperation) {
	o.mu.Lock()
	o.pending = append(o.pending, op)
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Len returns the number of intents waiting to be written
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Flush writes every pending intent in submission order and returns how many
// reached the hosted database
func (o *Outbox) Flush(ctx context.Context) int {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	written := 0
	for _, op := range batch {
		if err := o.remote.Apply(ctx, op); err != nil {
			o.logger.Warn("remote progress write failed, queued for retry",
				zap.String("kind", string(op.Kind)),
				zap.String("user_id", op.UserID),
				zap.Error(err),
			)
			if qerr := o.retries.Enqueue(op); qerr != nil {
				o.logger.Error("failed to queue progress operation", zap.Error(qerr))
			}
			continue
		}
		written++
	}
	return written
}

// Run processes intents whenever Submit signals and on every interval tick
// until ctx is cancelled, then flushes what is left.
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc("@every "+interval.String(), func() {
		o.Flush(ctx)
	})
	if err != nil {
		o.logger.Error("failed to schedule outbox flush", zap.Error(err))
	} else {
		c.Start()
	}

	o.logger.Info("outbox worker started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			o.Flush(shutdownCtx)
			cancel()

			o.logger.Info("outbox worker stopped", zap.Int("unsent", o.Len()))
			return
		case <-o.signal:
			o.Flush(ctx)
		}
	}
}
