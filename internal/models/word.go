package models

import "time"

// AVILevel is a Dutch primary-school reading level
type AVILevel string

const (
	AVIStart AVILevel = "start"
	AVIM3    AVILevel = "m3"
	AVIE3    AVILevel = "e3"
	AVIM4    AVILevel = "m4"
	AVIE4    AVILevel = "e4"
	AVIM5E5  AVILevel = "m5-e5"
)

// AVILevels is ordered from easiest to hardest
var AVILevels = []AVILevel{AVIStart, AVIM3, AVIE3, AVIM4, AVIE4, AVIM5E5}

// Index returns the position of the level in AVILevels, or -1 if unknown
func (l AVILevel) Index() int {
	for i, level := range AVILevels {
		if level == l {
			return i
		}
	}
	return -1
}

// Valid reports whether the level is known
func (l AVILevel) Valid() bool {
	return l.Index() >= 0
}

// Lower returns the level one step easier than l
func (l AVILevel) Lower() (AVILevel, bool) {
	idx := l.Index()
	if idx <= 0 {
		return "", false
	}
	return AVILevels[idx-1], true
}

// Higher returns the level one step harder than l
func (l AVILevel) Higher() (AVILevel, bool) {
	idx := l.Index()
	if idx < 0 || idx >= len(AVILevels)-1 {
		return "", false
	}
	return AVILevels[idx+1], true
}

// WordEntry is a practice word from a leveled word bank
type WordEntry struct {
	Word          string   `json:"word" yaml:"word"`
	Syllables     []string `json:"syllables" yaml:"syllables"`
	SyllableCount int      `json:"syllableCount" yaml:"syllable_count"`
	StressIndex   *int     `json:"stressIndex,omitempty" yaml:"stress_index,omitempty"`
	Category      string   `json:"category" yaml:"category"`
	AVILevel      AVILevel `json:"aviLevel" yaml:"-"`
}

// HasStress reports whether the entry carries a stressed syllable index
func (w WordEntry) HasStress() bool {
	return w.StressIndex != nil
}

// WordSource records why a word was picked for a session
type WordSource string

const (
	SourceSchool    WordSource = "school"
	SourceDifficult WordSource = "difficult"
	SourceEasy      WordSource = "easy"
	SourceNew       WordSource = "new"
)

// SessionWord is a word chosen for a practice session, tagged with its source
type SessionWord struct {
	WordEntry
	Source WordSource `json:"source"`
}

// WeekWord is a word entered by a parent or teacher for the current school week
type WeekWord struct {
	UserID      string    `json:"userId"`
	Word        string    `json:"word"`
	Syllables   []string  `json:"syllables"`
	ActiveUntil time.Time `json:"activeUntil"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsActive checks if the week word is still boosted at the given time
func (w WeekWord) IsActive(now time.Time) bool {
	return w.ActiveUntil.After(now)
}
