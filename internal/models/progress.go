package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// GameID identifies one of the games that track completed levels
type GameID string

const (
	GameCodeKraken GameID = "code_kraken"
	GameTroll      GameID = "troll"
	GameJumper     GameID = "jumper"
	GameStories    GameID = "stories"
)

// KnownGames lists every game that owns a completed-levels set
var KnownGames = []GameID{GameCodeKraken, GameTroll, GameJumper, GameStories}

// Valid reports whether g is one of the known games
func (g GameID) Valid() bool {
	for _, known := range KnownGames {
		if g == known {
			return true
		}
	}
	return false
}

// StarterItem is unlocked for every player and can never be removed
const StarterItem = "plant-alien"

// LevelID identifies a level within a game. Built-in levels are numbered,
// generated levels (stories) carry an opaque string id.
type LevelID string

// IntLevel returns the LevelID for a numbered level
func IntLevel(n int) LevelID {
	return LevelID(strconv.Itoa(n))
}

// maxExactLevel bounds float-encoded level numbers that still convert exactly
const maxExactLevel = 1 << 53

// Int returns the numeric value of a numbered level
func (l LevelID) Int() (int, bool) {
	n, err := strconv.Atoi(string(l))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Canonical rewrites numbered levels to their plain decimal form, so "01",
// "+1", "1.0" and "1e0" all become "1". Other ids are returned unchanged.
func (l LevelID) Canonical() LevelID {
	if n, ok := l.Int(); ok {
		return IntLevel(n)
	}
	f, err := strconv.ParseFloat(string(l), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= maxExactLevel {
		return l
	}
	return IntLevel(int(f))
}

// MarshalJSON writes numbered levels as JSON numbers and the rest as strings
func (l LevelID) MarshalJSON() ([]byte, error) {
	c := l.Canonical()
	if _, ok := c.Int(); ok {
		return []byte(c), nil
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON accepts both number and string level ids and canonicalizes
// numbered ones
func (l *LevelID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LevelID(s).Canonical()
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid level id %s: %w", string(data), err)
	}
	*l = LevelID(n.String()).Canonical()
	return nil
}

// SortLevels orders numbered levels ascending, followed by opaque ids in lexical order
func SortLevels(levels []LevelID) {
	sort.Slice(levels, func(i, j int) bool {
		a, aNum := levels[i].Int()
		b, bNum := levels[j].Int()
		switch {
		case aNum && bNum:
			return a < b
		case aNum != bNum:
			return aNum
		default:
			return levels[i] < levels[j]
		}
	})
}

// ProgressSnapshot is the full progress state of one player
type ProgressSnapshot struct {
	Stars           int                  `json:"stars"`
	CompletedLevels map[GameID][]LevelID `json:"completedLevels"`
	UnlockedItems   []string             `json:"unlockedItems"`
	LastUpdated     time.Time            `json:"lastUpdated"`
}

// NewProgressSnapshot returns the state of a brand new player
func NewProgressSnapshot(now time.Time) ProgressSnapshot {
	s := ProgressSnapshot{LastUpdated: now}
	s.Normalize()
	return s
}

// Normalize fills absent fields and puts levels and items in canonical order.
// Every known game gets an entry, duplicates are removed and the starter item is present.
func (s *ProgressSnapshot) Normalize() {
	if s.Stars < 0 {
		s.Stars = 0
	}

	levels := make(map[GameID][]LevelID, len(KnownGames))
	for _, game := range KnownGames {
		levels[game] = []LevelID{}
	}
	for game, ids := range s.CompletedLevels {
		levels[game] = uniqueLevels(append(levels[game], ids...))
	}
	s.CompletedLevels = levels

	s.UnlockedItems = uniqueStrings(append(s.UnlockedItems, StarterItem))
}

// Clone returns a deep copy of the snapshot
func (s ProgressSnapshot) Clone() ProgressSnapshot {
	clone := ProgressSnapshot{
		Stars:           s.Stars,
		CompletedLevels: make(map[GameID][]LevelID, len(s.CompletedLevels)),
		UnlockedItems:   append([]string(nil), s.UnlockedItems...),
		LastUpdated:     s.LastUpdated,
	}
	for game, ids := range s.CompletedLevels {
		clone.CompletedLevels[game] = append([]LevelID(nil), ids...)
	}
	return clone
}

// HasCompleted reports whether the level is in the game's completed set
func (s ProgressSnapshot) HasCompleted(game GameID, level LevelID) bool {
	for _, id := range s.CompletedLevels[game] {
		if id == level {
			return true
		}
	}
	return false
}

// Owns reports whether the item has been unlocked
func (s ProgressSnapshot) Owns(itemID string) bool {
	for _, item := range s.UnlockedItems {
		if item == itemID {
			return true
		}
	}
	return false
}

// CompletedCount returns the number of completed levels across all games
func (s ProgressSnapshot) CompletedCount() int {
	total := 0
	for _, ids := range s.CompletedLevels {
		total += len(ids)
	}
	return total
}

func uniqueLevels(ids []LevelID) []LevelID {
	seen := make(map[LevelID]bool, len(ids))
	out := make([]LevelID, 0, len(ids))
	for _, id := range ids {
		id = id.Canonical()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	SortLevels(out)
	return out
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
