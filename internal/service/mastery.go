package service

import (
	"sort"

	"galactischevrienden/internal/models"
)

const (
	difficultRate        = 0.5
	practicingRate       = 0.7
	learningRate         = 0.9
	minDifficultAttempts = 2
)

// MasteryFor buckets a success rate. Thresholds are checked from the lowest up.
func MasteryFor(rate float64) models.MasteryLevel {
	switch {
	case rate < difficultRate:
		return models.MasteryDifficult
	case rate < practicingRate:
		return models.MasteryPracticing
	case rate < learningRate:
		return models.MasteryLearning
	default:
		return models.MasteryMastered
	}
}

// SuccessRate returns the share of correct attempts at word and the number of attempts
func SuccessRate(attempts []models.WordAttempt, word string) (float64, int) {
	total, correct := 0, 0
	for _, a := range attempts {
		if a.Word != word {
			continue
		}
		total++
		if a.Correct {
			correct++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(correct) / float64(total), total
}

// IsDifficult reports whether the word was answered wrong more often than not
// over at least two attempts
func IsDifficult(attempts []models.WordAttempt, word string) bool {
	rate, total := SuccessRate(attempts, word)
	return total >= minDifficultAttempts && rate < difficultRate
}

// WordStats summarizes the attempts per word, sorted by word
func WordStats(attempts []models.WordAttempt) []models.WordStats {
	byWord := make(map[string]*models.WordStats)
	for _, a := range attempts {
		st, ok := byWord[a.Word]
		if !ok {
			st = &models.WordStats{Word: a.Word}
			byWord[a.Word] = st
		}
		st.Attempts++
		if a.Correct {
			st.Correct++
		}
		if a.Timestamp.After(st.LastAttempt) {
			st.LastAttempt = a.Timestamp
		}
	}

	stats := make([]models.WordStats, 0, len(byWord))
	for _, st := range byWord {
		st.SuccessRate = float64(st.Correct) / float64(st.Attempts)
		st.Mastery = MasteryFor(st.SuccessRate)
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Word < stats[j].Word })
	return stats
}

// DifficultWords returns the difficult words, lowest success rate first
func DifficultWords(attempts []models.WordAttempt) []models.WordStats {
	var difficult []models.WordStats
	for _, st := range WordStats(attempts) {
		if st.Attempts >= minDifficultAttempts && st.SuccessRate < difficultRate {
			difficult = append(difficult, st)
		}
	}
	sort.SliceStable(difficult, func(i, j int) bool {
		return difficult[i].SuccessRate < difficult[j].SuccessRate
	})
	return difficult
}

// MasteryDistribution counts the words per mastery level
func MasteryDistribution(stats []models.WordStats) map[models.MasteryLevel]int {
	dist := map[models.MasteryLevel]int{
		models.MasteryDifficult:  0,
		models.MasteryPracticing: 0,
		models.MasteryLearning:   0,
		models.MasteryMastered:   0,
	}
	for _, st := range stats {
		dist[st.Mastery]++
	}
	return dist
}
