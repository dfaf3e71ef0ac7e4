package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/models"
)

var errRemoteDown = errors.New("remote unreachable")

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(""))
	return db
}

// fakeRemote is an in-memory RemoteProgressStore with switchable failures
type fakeRemote struct {
	mu        sync.Mutex
	snapshots map[string]models.ProgressSnapshot
	applied   []models.RetryOperation
	saves     int
	down      bool
	loadDelay time.Duration
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{snapshots: make(map[string]models.ProgressSnapshot)}
}

func (f *fakeRemote) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeRemote) Load(ctx context.Context, userID string) (models.ProgressSnapshot, bool) {
	f.mu.Lock()
	delay, down := f.loadDelay, f.down
	snapshot, ok := f.snapshots[userID]
	f.mu.Unlock()

	if delay > 0 {
		// ignores ctx on purpose: a slow remote must not be trusted to honour cancellation
		time.Sleep(delay)
	}
	if down {
		return models.ProgressSnapshot{}, false
	}
	if !ok {
		snapshot = models.NewProgressSnapshot(time.Now())
	}
	return snapshot.Clone(), true
}

func (f *fakeRemote) Save(ctx context.Context, userID string, snapshot models.ProgressSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errRemoteDown
	}
	f.saves++
	f.snapshots[userID] = snapshot.Clone()
	return nil
}

func (f *fakeRemote) Apply(ctx context.Context, op models.RetryOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errRemoteDown
	}
	f.applied = append(f.applied, op)

	s, ok := f.snapshots[op.UserID]
	if !ok {
		s = models.NewProgressSnapshot(time.Now())
	}
	s = s.Clone()
	switch op.Kind {
	case models.OpApplyStarDelta:
		s.Stars = op.StarTotal
	case models.OpRecordLevelCompletion:
		s.CompletedLevels[op.GameID] = append(s.CompletedLevels[op.GameID], op.LevelID)
	case models.OpRecordPurchase:
		s.UnlockedItems = append(s.UnlockedItems, op.ItemID)
	}
	s.Normalize()
	f.snapshots[op.UserID] = s
	return nil
}

func (f *fakeRemote) appliedOps() []models.RetryOperation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RetryOperation(nil), f.applied...)
}

func (f *fakeRemote) snapshot(userID string) models.ProgressSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[userID].Clone()
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
