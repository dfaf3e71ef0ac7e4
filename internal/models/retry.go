package models

import "time"

// OperationKind names a remote progress mutation
type OperationKind string

const (
	OpRecordLevelCompletion OperationKind = "record_level_completion"
	OpApplyStarDelta        OperationKind = "apply_star_delta"
	OpRecordPurchase        OperationKind = "record_purchase"
)

// RetryOperation is a remote progress write that still has to reach the
// hosted database. The same value is used as the outbox sync intent.
type RetryOperation struct {
	ID     string        `json:"id"`
	Kind   OperationKind `json:"kind"`
	UserID string        `json:"userId"`

	// record_level_completion
	GameID      GameID  `json:"gameType,omitempty"`
	LevelID     LevelID `json:"levelId,omitempty"`
	StarsEarned int     `json:"starsEarned,omitempty"`

	// apply_star_delta carries the new total, not the delta itself
	StarTotal int `json:"stars,omitempty"`

	// record_purchase
	ItemID string `json:"itemId,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	RetryCount int       `json:"retryCount"`
}
