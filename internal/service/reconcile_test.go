package service

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"galactischevrienden/internal/models"
)

func randomSnapshot(rng *rand.Rand) models.ProgressSnapshot {
	s := models.ProgressSnapshot{
		Stars:           rng.Intn(100),
		CompletedLevels: map[models.GameID][]models.LevelID{},
	}
	for _, game := range models.KnownGames {
		for i := 0; i < rng.Intn(5); i++ {
			if rng.Intn(4) == 0 {
				s.CompletedLevels[game] = append(s.CompletedLevels[game], models.LevelID(fmt.Sprintf("gen-%d", rng.Intn(6))))
			} else {
				s.CompletedLevels[game] = append(s.CompletedLevels[game], models.IntLevel(rng.Intn(12)))
			}
		}
	}
	items := []string{"telescope", "rocket", "moon-boots", "plant-alien", "robot-dog"}
	for i := 0; i < rng.Intn(4); i++ {
		s.UnlockedItems = append(s.UnlockedItems, items[rng.Intn(len(items))])
	}
	return s
}

func TestReconcileScenario(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	local := models.ProgressSnapshot{
		Stars:           20,
		CompletedLevels: map[models.GameID][]models.LevelID{models.GameCodeKraken: {models.IntLevel(0), models.IntLevel(1)}},
		UnlockedItems:   []string{"plant-alien"},
	}
	remote := models.ProgressSnapshot{
		Stars:           15,
		CompletedLevels: map[models.GameID][]models.LevelID{models.GameCodeKraken: {models.IntLevel(2)}},
		UnlockedItems:   []string{"telescope"},
	}

	merged := Reconcile(local, remote, now)

	assert.Equal(t, 20, merged.Stars)
	assert.Equal(t, []models.LevelID{"0", "1", "2"}, merged.CompletedLevels[models.GameCodeKraken])
	assert.Equal(t, []string{"plant-alien", "telescope"}, merged.UnlockedItems)
	assert.Equal(t, now, merged.LastUpdated)
	for _, game := range models.KnownGames {
		assert.Contains(t, merged.CompletedLevels, game)
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	merged := Reconcile(models.ProgressSnapshot{}, models.ProgressSnapshot{}, time.Now())
	assert.Equal(t, 0, merged.Stars)
	assert.Equal(t, []string{models.StarterItem}, merged.UnlockedItems)
	assert.Empty(t, merged.CompletedLevels[models.GameTroll])
}

func TestReconcileKeepsUnknownGames(t *testing.T) {
	local := models.ProgressSnapshot{CompletedLevels: map[models.GameID][]models.LevelID{"space_race": {models.IntLevel(1)}}}
	merged := Reconcile(local, models.ProgressSnapshot{}, time.Now())
	assert.Equal(t, []models.LevelID{"1"}, merged.CompletedLevels["space_race"])
}

func TestReconcileDoesNotAliasInputs(t *testing.T) {
	local := models.NewProgressSnapshot(time.Now())
	local.CompletedLevels[models.GameJumper] = []models.LevelID{models.IntLevel(1)}

	merged := Reconcile(local, models.ProgressSnapshot{}, time.Now())
	merged.CompletedLevels[models.GameJumper][0] = models.IntLevel(7)

	assert.Equal(t, models.LevelID("1"), local.CompletedLevels[models.GameJumper][0])
}

func TestReconcileProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		a, b, c := randomSnapshot(rng), randomSnapshot(rng), randomSnapshot(rng)

		normA := a.Clone()
		normA.Normalize()
		normA.LastUpdated = now
		assert.Equal(t, normA, Reconcile(a, a, now), "idempotence")

		assert.Equal(t, Reconcile(a, b, now), Reconcile(b, a, now), "commutativity")

		assert.Equal(t,
			Reconcile(Reconcile(a, b, now), c, now),
			Reconcile(a, Reconcile(b, c, now), now),
			"associativity")

		merged := Reconcile(a, b, now)
		assert.GreaterOrEqual(t, merged.Stars, max(a.Stars, b.Stars), "stars never decrease")
		for _, side := range []models.ProgressSnapshot{a, b} {
			for game, levels := range side.CompletedLevels {
				for _, level := range levels {
					assert.True(t, merged.HasCompleted(game, level), "level %s/%s lost", game, level)
				}
			}
			for _, item := range side.UnlockedItems {
				assert.True(t, merged.Owns(item), "item %s lost", item)
			}
		}
		assert.True(t, merged.Owns(models.StarterItem))
	}
}
