package models

import "time"

// UserProfile holds the player settings used for word selection
type UserProfile struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	AVILevel    AVILevel  `json:"aviLevel"`
	Interests   []string  `json:"interests"`
	Stars       int       `json:"stars"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasInterest reports whether the category is one of the player's interests
func (p UserProfile) HasInterest(category string) bool {
	for _, interest := range p.Interests {
		if interest == category {
			return true
		}
	}
	return false
}

// ReadingStreak counts consecutive days with reading practice
type ReadingStreak struct {
	UserID        string    `json:"userId"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastReadDate  time.Time `json:"lastReadDate"`
}

// ParentAccount links a parent to a child profile
type ParentAccount struct {
	ChildID      string
	Email        string
	PINHash      string
	WeeklyReport bool
	CreatedAt    time.Time
}

// SyncStatus describes whether the hosted database is currently reachable
type SyncStatus string

const (
	SyncOnline  SyncStatus = "online"
	SyncOffline SyncStatus = "offline"
	SyncSyncing SyncStatus = "syncing"
)
