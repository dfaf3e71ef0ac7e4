package service

import (
	"time"

	"galactischevrienden/internal/models"
)

// Reconcile merges two progress snapshots so that nothing recorded in either
// is lost: the higher star balance wins, completed levels and unlocked items
// are unioned and the starter item is always present. The merge is
// commutative, associative and idempotent; only LastUpdated (set to now)
// depends on the call.
func Reconcile(local, remote models.ProgressSnapshot, now time.Time) models.ProgressSnapshot {
	merged := models.ProgressSnapshot{
		Stars:           max(local.Stars, remote.Stars),
		CompletedLevels: make(map[models.GameID][]models.LevelID),
		UnlockedItems:   make([]string, 0, len(local.UnlockedItems)+len(remote.UnlockedItems)),
		LastUpdated:     now,
	}

	for _, side := range []models.ProgressSnapshot{local, remote} {
		for game, levels := range side.CompletedLevels {
			merged.CompletedLevels[game] = append(merged.CompletedLevels[game], levels...)
		}
		merged.UnlockedItems = append(merged.UnlockedItems, side.UnlockedItems...)
	}

	merged.Normalize()
	return merged
}
