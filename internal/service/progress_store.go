package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/kv"
	"galactischevrienden/internal/models"
	"galactischevrienden/internal/repository"
)

func progressKey(userID string) string {
	return "progress:" + userID
}

// LocalStore keeps progress snapshots in the device key/value store
type LocalStore struct {
	store  kv.Store
	logger *zap.Logger
}

// NewLocalStore creates a local progress store
func NewLocalStore(store kv.Store, logger *zap.Logger) *LocalStore {
	return &LocalStore{store: store, logger: logger}
}

// Load returns the saved snapshot. Unreadable data is logged and treated as absent.
func (s *LocalStore) Load(userID string) (models.ProgressSnapshot, bool) {
	raw, ok, err := s.store.Get(progressKey(userID))
	if err != nil {
		s.logger.Warn("failed to read local progress", zap.String("user_id", userID), zap.Error(err))
		return models.ProgressSnapshot{}, false
	}
	if !ok {
		return models.ProgressSnapshot{}, false
	}

	var snapshot models.ProgressSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.Error("corrupt local progress, ignoring it", zap.String("user_id", userID), zap.Error(err))
		return models.ProgressSnapshot{}, false
	}
	snapshot.Normalize()
	return snapshot, true
}

// Save overwrites the local snapshot
func (s *LocalStore) Save(userID string, snapshot models.ProgressSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := s.store.Set(progressKey(userID), string(data)); err != nil {
		return fmt.Errorf("failed to save local progress: %w", err)
	}
	return nil
}

// RemoteStore maps progress snapshots onto the profiles, completed_levels and
// user_items tables of the hosted database
type RemoteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRemoteStore creates a remote progress store
func NewRemoteStore(db *database.DB, logger *zap.Logger) *RemoteStore {
	return &RemoteStore{db: db, logger: logger}
}

// Load reads the player's hosted progress. A player without rows gets an
// empty snapshot; any query failure reports absent.
func (s *RemoteStore) Load(ctx context.Context, userID string) (models.ProgressSnapshot, bool) {
	snapshot, err := s.load(ctx, userID)
	if err != nil {
		s.logger.Warn("remote progress unavailable", zap.String("user_id", userID), zap.Error(err))
		return models.ProgressSnapshot{}, false
	}
	return snapshot, true
}

func (s *RemoteStore) load(ctx context.Context, userID string) (models.ProgressSnapshot, error) {
	var snapshot models.ProgressSnapshot

	stars, _, err := repository.NewProfileRepository(s.db).GetStars(ctx, userID)
	if err != nil {
		return snapshot, err
	}

	progress := repository.NewProgressRepository(s.db)
	levels, err := progress.GetCompletedLevels(ctx, userID)
	if err != nil {
		return snapshot, err
	}
	items, err := progress.GetItems(ctx, userID)
	if err != nil {
		return snapshot, err
	}

	snapshot.Stars = stars
	snapshot.CompletedLevels = levels
	snapshot.UnlockedItems = items
	snapshot.Normalize()
	return snapshot, nil
}

// Save writes the whole snapshot in one transaction. Levels and items are
// upserted, so saving a merged snapshot never removes hosted progress.
func (s *RemoteStore) Save(ctx context.Context, userID string, snapshot models.ProgressSnapshot) error {
	return s.db.WithinTx(ctx, func(tx *database.Tx) error {
		if err := repository.NewProfileRepository(tx).SetStars(ctx, userID, snapshot.Stars); err != nil {
			return err
		}

		progress := repository.NewProgressRepository(tx)
		for game, levels := range snapshot.CompletedLevels {
			for _, level := range levels {
				err := progress.UpsertCompletedLevel(ctx, repository.CompletedLevel{
					UserID:      userID,
					GameID:      game,
					LevelID:     level,
					CompletedAt: snapshot.LastUpdated,
				})
				if err != nil {
					return err
				}
			}
		}
		for _, item := range snapshot.UnlockedItems {
			if err := progress.AddItem(ctx, userID, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Apply performs a single progress mutation against the hosted database
func (s *RemoteStore) Apply(ctx context.Context, op models.RetryOperation) error {
	switch op.Kind {
	case models.OpRecordLevelCompletion:
		return repository.NewProgressRepository(s.db).UpsertCompletedLevel(ctx, repository.CompletedLevel{
			UserID:      op.UserID,
			GameID:      op.GameID,
			LevelID:     op.LevelID,
			StarsEarned: op.StarsEarned,
			CompletedAt: op.CreatedAt,
		})
	case models.OpApplyStarDelta:
		return repository.NewProfileRepository(s.db).SetStars(ctx, op.UserID, op.StarTotal)
	case models.OpRecordPurchase:
		return repository.NewProgressRepository(s.db).AddItem(ctx, op.UserID, op.ItemID)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
