package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galactischevrienden/internal/models"
)

func TestMasteryFor(t *testing.T) {
	tests := []struct {
		rate float64
		want models.MasteryLevel
	}{
		{0, models.MasteryDifficult},
		{0.49, models.MasteryDifficult},
		{0.5, models.MasteryPracticing},
		{0.69, models.MasteryPracticing},
		{0.7, models.MasteryLearning},
		{0.89, models.MasteryLearning},
		{0.9, models.MasteryMastered},
		{1, models.MasteryMastered},
	}

	for _, tt := range tests {
		if got := MasteryFor(tt.rate); got != tt.want {
			t.Errorf("MasteryFor(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func attempts(word string, results ...bool) []models.WordAttempt {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	out := make([]models.WordAttempt, len(results))
	for i, correct := range results {
		out[i] = models.WordAttempt{UserID: "kid-1", Word: word, Correct: correct, Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestIsDifficult(t *testing.T) {
	log := append(attempts("maan", false), attempts("raket", false, false, true)...)
	log = append(log, attempts("ster", true, false)...)

	assert.False(t, IsDifficult(log, "maan"), "one attempt is not enough")
	assert.True(t, IsDifficult(log, "raket"))
	assert.False(t, IsDifficult(log, "ster"), "0.5 is not below the threshold")
	assert.False(t, IsDifficult(log, "komeet"))

	rate, total := SuccessRate(log, "raket")
	assert.InDelta(t, 1.0/3, rate, 1e-9)
	assert.Equal(t, 3, total)
}

func TestWordStats(t *testing.T) {
	log := append(attempts("raket", false, false, true), attempts("maan", true, true)...)

	stats := WordStats(log)
	require.Len(t, stats, 2)
	assert.Equal(t, "maan", stats[0].Word)
	assert.Equal(t, models.MasteryMastered, stats[0].Mastery)
	assert.Equal(t, 3, stats[1].Attempts)
	assert.Equal(t, 1, stats[1].Correct)
	assert.Equal(t, models.MasteryDifficult, stats[1].Mastery)
	assert.Equal(t, log[2].Timestamp, stats[1].LastAttempt)

	dist := MasteryDistribution(stats)
	assert.Equal(t, 1, dist[models.MasteryMastered])
	assert.Equal(t, 1, dist[models.MasteryDifficult])
	assert.Equal(t, 0, dist[models.MasteryLearning])

	difficult := DifficultWords(append(log, attempts("ster", false, false)...))
	require.Len(t, difficult, 2)
	assert.Equal(t, "ster", difficult[0].Word, "lowest success rate first")
}
