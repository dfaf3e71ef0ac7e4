package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/models"
)

const (
	// DefaultSessionSize is the number of words in a practice session
	DefaultSessionSize = 10

	schoolWordTarget    = 2
	difficultWordTarget = 3
	easyWordTarget      = 1
	wrongAttemptWindow  = 20
	interestBonus       = 0.5

	schoolCategory = "school"
)

// WordSelector builds practice sessions from four sources: the week words,
// recently missed words, one easier word and new words from the player's level.
// A source that fails is logged and skipped; the session may come out short.
type WordSelector struct {
	bank      WordBank
	weekWords WeekWordSource
	attempts  WrongAttemptSource
	size      int
	logger    *zap.Logger
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWordSelector creates a selector. rng drives every random choice.
func NewWordSelector(bank WordBank, weekWords WeekWordSource, attempts WrongAttemptSource, size int, rng *rand.Rand, logger *zap.Logger) *WordSelector {
	if size <= 0 {
		size = DefaultSessionSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WordSelector{
		bank:      bank,
		weekWords: weekWords,
		attempts:  attempts,
		size:      size,
		logger:    logger,
		now:       time.Now,
		rng:       rng,
	}
}

// session collects words while enforcing the size limit and uniqueness
type session struct {
	size  int
	words []models.SessionWord
	seen  map[string]bool
}

func (s *session) add(entry models.WordEntry, source models.WordSource) bool {
	if len(s.words) >= s.size || entry.Word == "" || s.seen[entry.Word] {
		return false
	}
	s.seen[entry.Word] = true
	s.words = append(s.words, models.SessionWord{WordEntry: entry, Source: source})
	return true
}

func (s *session) remaining() int {
	return s.size - len(s.words)
}

// GenerateTaggedSession assembles a shuffled session with every word tagged
// by its source. The week words and attempt history are fetched before the
// random source is locked.
func (ws *WordSelector) GenerateTaggedSession(ctx context.Context, profile models.UserProfile) []models.SessionWord {
	level := profile.AVILevel
	if !level.Valid() {
		level = models.AVIStart
	}

	weekWords := ws.activeWeekWords(ctx, profile.UserID)
	wrong := ws.recentWrongWords(ctx, profile.UserID)

	s := &session{size: ws.size, seen: make(map[string]bool)}
	ws.addSchoolWords(s, weekWords, level)
	ws.addDifficultWords(s, wrong, level)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.addEasyWords(s, level)
	ws.addNewWords(s, profile, level)

	ws.rng.Shuffle(len(s.words), func(i, j int) {
		s.words[i], s.words[j] = s.words[j], s.words[i]
	})
	return s.words
}

// GenerateSession returns the session for a game with the source tags removed.
// Words the game cannot use are filtered out, so the result may be empty.
func (ws *WordSelector) GenerateSession(ctx context.Context, profile models.UserProfile, game models.GameID) []models.WordEntry {
	return untag(FilterTaggedForGame(ws.GenerateTaggedSession(ctx, profile), game))
}

// TaggedSessionForGame filters the tagged session for a game. When nothing
// usable is left it falls back to a random sample of the level bank, tagged new.
func (ws *WordSelector) TaggedSessionForGame(ctx context.Context, profile models.UserProfile, game models.GameID) []models.SessionWord {
	words := FilterTaggedForGame(ws.GenerateTaggedSession(ctx, profile), game)
	if len(words) > 0 {
		return words
	}
	ws.logger.Info("session empty, using offline sample",
		zap.String("user_id", profile.UserID),
		zap.String("game", string(game)),
	)

	sample := ws.OfflineSample(profile.AVILevel, game)
	tagged := make([]models.SessionWord, 0, len(sample))
	for _, entry := range sample {
		tagged = append(tagged, models.SessionWord{WordEntry: entry, Source: models.SourceNew})
	}
	return tagged
}

// SessionForGame is TaggedSessionForGame without the source tags
func (ws *WordSelector) SessionForGame(ctx context.Context, profile models.UserProfile, game models.GameID) []models.WordEntry {
	return untag(ws.TaggedSessionForGame(ctx, profile, game))
}

// OfflineSample picks up to a session's worth of words uniformly from the level
// bank, keeping only words the game can use
func (ws *WordSelector) OfflineSample(level models.AVILevel, game models.GameID) []models.WordEntry {
	if !level.Valid() {
		level = models.AVIStart
	}
	pool, err := ws.bank.Level(level)
	if err != nil {
		ws.logger.Warn("word bank unavailable", zap.String("level", string(level)), zap.Error(err))
		return []models.WordEntry{}
	}
	pool = FilterForGame(pool, game)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	n := min(ws.size, len(pool))
	out := make([]models.WordEntry, 0, n)
	for _, i := range ws.rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

func (ws *WordSelector) activeWeekWords(ctx context.Context, userID string) []models.WeekWord {
	words, err := ws.weekWords.ActiveWeekWords(ctx, userID, ws.now())
	if err != nil {
		ws.logger.Warn("week words unavailable", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return words
}

func (ws *WordSelector) recentWrongWords(ctx context.Context, userID string) []string {
	words, err := ws.attempts.RecentWrongWords(ctx, userID, wrongAttemptWindow)
	if err != nil {
		ws.logger.Warn("attempt history unavailable", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return words
}

func (ws *WordSelector) addSchoolWords(s *session, weekWords []models.WeekWord, level models.AVILevel) {
	added := 0
	for _, w := range weekWords {
		if added == schoolWordTarget {
			break
		}
		if s.add(weekWordEntry(w, level), models.SourceSchool) {
			added++
		}
	}
}

func (ws *WordSelector) addDifficultWords(s *session, wrong []string, level models.AVILevel) {
	added := 0
	checked := make(map[string]bool, len(wrong))
	for _, word := range wrong {
		if added == difficultWordTarget {
			break
		}
		if checked[word] {
			continue
		}
		checked[word] = true

		entry, ok := ws.bank.Find(word, level)
		if !ok {
			continue
		}
		if s.add(entry, models.SourceDifficult) {
			added++
		}
	}
}

func (ws *WordSelector) addEasyWords(s *session, level models.AVILevel) {
	lower, ok := level.Lower()
	if !ok {
		return
	}
	pool, err := ws.bank.Level(lower)
	if err != nil {
		ws.logger.Warn("word bank unavailable", zap.String("level", string(lower)), zap.Error(err))
		return
	}

	added := 0
	for _, i := range ws.rng.Perm(len(pool)) {
		if added == easyWordTarget {
			break
		}
		if s.add(pool[i], models.SourceEasy) {
			added++
		}
	}
}

func (ws *WordSelector) addNewWords(s *session, profile models.UserProfile, level models.AVILevel) {
	pool, err := ws.bank.Level(level)
	if err != nil {
		ws.logger.Warn("word bank unavailable", zap.String("level", string(level)), zap.Error(err))
		return
	}

	type scoredWord struct {
		entry models.WordEntry
		score float64
	}

	candidates := make([]scoredWord, 0, len(pool))
	for _, entry := range pool {
		if s.seen[entry.Word] {
			continue
		}
		score := ws.rng.Float64()
		if profile.HasInterest(entry.Category) {
			score += interestBonus
		}
		candidates = append(candidates, scoredWord{entry: entry, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		if s.remaining() == 0 {
			return
		}
		s.add(c.entry, models.SourceNew)
	}
}

func weekWordEntry(w models.WeekWord, level models.AVILevel) models.WordEntry {
	return models.WordEntry{
		Word:          w.Word,
		Syllables:     w.Syllables,
		SyllableCount: len(w.Syllables),
		Category:      schoolCategory,
		AVILevel:      level,
	}
}

// FilterForGame drops words a game cannot present: the troll game needs a
// stressed syllable and the jumper game needs syllables
func FilterForGame(words []models.WordEntry, game models.GameID) []models.WordEntry {
	out := make([]models.WordEntry, 0, len(words))
	for _, w := range words {
		if usableIn(w, game) {
			out = append(out, w)
		}
	}
	return out
}

// FilterTaggedForGame is FilterForGame for tagged words; tags are kept
func FilterTaggedForGame(words []models.SessionWord, game models.GameID) []models.SessionWord {
	out := make([]models.SessionWord, 0, len(words))
	for _, w := range words {
		if usableIn(w.WordEntry, game) {
			out = append(out, w)
		}
	}
	return out
}

func usableIn(w models.WordEntry, game models.GameID) bool {
	switch game {
	case models.GameTroll:
		return w.HasStress()
	case models.GameJumper:
		return len(w.Syllables) > 0
	}
	return true
}

func untag(words []models.SessionWord) []models.WordEntry {
	out := make([]models.WordEntry, 0, len(words))
	for _, w := range words {
		out = append(out, w.WordEntry)
	}
	return out
}
