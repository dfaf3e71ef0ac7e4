package wordbank

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"galactischevrienden/internal/models"
)

// ErrInvalidWordEntry is wrapped by every validation failure
var ErrInvalidWordEntry = errors.New("invalid word entry")

// Issue describes a bank entry that failed validation and was left out of the pools
type Issue struct {
	Level models.AVILevel
	Word  string
	Err   error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s: %v", i.Level, i.Word, i.Err)
}

// ValidateEntry checks the structural invariants of a word bank entry:
// the syllables spell the word, the count matches and the stress index is in range.
func ValidateEntry(entry models.WordEntry) error {
	word := norm.NFC.String(entry.Word)
	if strings.TrimSpace(word) == "" {
		return fmt.Errorf("%w: word is empty", ErrInvalidWordEntry)
	}
	if strings.Contains(word, "-") {
		return fmt.Errorf("%w: word %q contains a hyphen", ErrInvalidWordEntry, entry.Word)
	}
	if len(entry.Syllables) == 0 {
		return fmt.Errorf("%w: word %q has no syllables", ErrInvalidWordEntry, entry.Word)
	}

	if err := ValidateSyllables(entry.Word, entry.Syllables); err != nil {
		return err
	}

	if entry.SyllableCount != len(entry.Syllables) {
		return fmt.Errorf("%w: word %q has syllableCount %d but %d syllables",
			ErrInvalidWordEntry, entry.Word, entry.SyllableCount, len(entry.Syllables))
	}

	if entry.StressIndex != nil {
		idx := *entry.StressIndex
		if idx < 0 || idx >= entry.SyllableCount {
			return fmt.Errorf("%w: word %q has stressIndex %d outside [0, %d)",
				ErrInvalidWordEntry, entry.Word, idx, entry.SyllableCount)
		}
	}

	return nil
}

// ValidateSyllables checks that the syllables concatenate to exactly the word.
// Both sides are NFC-normalized so "pinguïn" typed with a combining diaeresis
// still matches; the comparison is otherwise case-sensitive.
func ValidateSyllables(word string, syllables []string) error {
	for _, s := range syllables {
		if s == "" {
			return fmt.Errorf("%w: word %q has an empty syllable", ErrInvalidWordEntry, word)
		}
		if strings.Contains(s, "-") {
			return fmt.Errorf("%w: syllable %q of %q contains a hyphen", ErrInvalidWordEntry, s, word)
		}
	}

	joined := norm.NFC.String(strings.Join(syllables, ""))
	if joined != norm.NFC.String(word) {
		return fmt.Errorf("%w: syllables %q spell %q, not %q",
			ErrInvalidWordEntry, strings.Join(syllables, "+"), joined, word)
	}
	return nil
}

// Normalize returns the entry with NFC-normalized text and a derived syllable count
// when the source file left it out.
func Normalize(entry models.WordEntry, level models.AVILevel) models.WordEntry {
	entry.Word = norm.NFC.String(entry.Word)
	syllables := make([]string, len(entry.Syllables))
	for i, s := range entry.Syllables {
		syllables[i] = norm.NFC.String(s)
	}
	entry.Syllables = syllables
	if entry.SyllableCount == 0 {
		entry.SyllableCount = len(entry.Syllables)
	}
	entry.AVILevel = level
	return entry
}
