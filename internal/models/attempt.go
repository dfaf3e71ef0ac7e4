package models

import "time"

// WordAttempt records a single answer given during a game
type WordAttempt struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Word        string    `json:"word"`
	Correct     bool      `json:"correct"`
	GameType    string    `json:"gameType"`
	Timestamp   time.Time `json:"timestamp"`
	TimeTakenMs *int      `json:"timeTakenMs,omitempty"`
}

// MasteryLevel buckets a word by its success rate
type MasteryLevel string

const (
	MasteryDifficult  MasteryLevel = "difficult"
	MasteryPracticing MasteryLevel = "practicing"
	MasteryLearning   MasteryLevel = "learning"
	MasteryMastered   MasteryLevel = "mastered"
)

// WordStats summarizes all attempts at one word
type WordStats struct {
	Word        string       `json:"word"`
	Attempts    int          `json:"attempts"`
	Correct     int          `json:"correct"`
	SuccessRate float64      `json:"successRate"`
	Mastery     MasteryLevel `json:"mastery"`
	LastAttempt time.Time    `json:"lastAttempt"`
}
