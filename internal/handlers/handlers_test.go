package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"galactischevrienden/internal/database"
	"galactischevrienden/internal/kv"
	"galactischevrienden/internal/models"
	"galactischevrienden/internal/repository"
	"galactischevrienden/internal/security"
	"galactischevrienden/internal/service"
	"galactischevrienden/internal/wordbank"
)

type testAPI struct {
	handler http.Handler
	tokens  *security.TokenManager
	outbox  *service.Outbox
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(""))

	local := kv.NewMemoryStore()
	tokens := security.NewTokenManager("test-secret", time.Hour)
	limiter := security.NewRateLimiter(3, time.Minute)
	t.Cleanup(limiter.Stop)

	profiles := repository.NewProfileRepository(db)
	attempts := repository.NewAttemptRepository(db)
	weekWordRepo := repository.NewWeekWordRepository(db)
	streaks := service.NewStreakService(repository.NewStreakRepository(db))

	remote := service.NewRemoteStore(db, logger)
	retries := service.NewRetryQueue(local, service.DefaultMaxRetries, logger)
	outbox := service.NewOutbox(remote, retries, logger)
	progress := service.NewProgressService(service.NewLocalStore(local, logger), remote, retries, outbox, time.Second, logger)

	bank := wordbank.NewRepository()
	selector := service.NewWordSelector(bank, weekWordRepo, attempts, service.DefaultSessionSize, rand.New(rand.NewSource(7)), logger)
	parents := service.NewParentService(repository.NewParentRepository(db), profiles, repository.NewProgressRepository(db), attempts, streaks, tokens)

	handler := NewRouter(Handlers{
		Middleware: NewMiddleware(tokens, logger),
		Player:     NewPlayerHandler(profiles, tokens, logger),
		Progress:   NewProgressHandler(progress, logger),
		Session:    NewSessionHandler(selector, profiles, logger),
		Attempts:   NewAttemptHandler(service.NewAttemptRecorder(attempts, local, logger), streaks, logger),
		Parent:     NewParentHandler(parents, service.NewWeekWordService(weekWordRepo), limiter, logger),
		DB:         db,
	})
	return &testAPI{handler: handler, tokens: tokens, outbox: outbox}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, userID string) string {
	t.Helper()
	rec := a.do(t, "POST", "/api/login", "", map[string]string{"userId": userID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok", "remote": "online"}, decode[map[string]string](t, rec))
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, "GET", "/api/progress", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, "GET", "/api/progress", "not-a-token", nil).Code)

	other := security.NewTokenManager("other-secret", time.Hour)
	forged, _, err := other.Issue("kid-1", security.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, "GET", "/api/parent/overview", forged, nil).Code)

	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/login", "", map[string]string{"userId": "no spaces"}).Code)
}

func TestProgressFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "kid-1")

	rec := api.do(t, "GET", "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[progressResponse](t, rec)
	assert.Equal(t, models.SyncOnline, resp.Status)
	assert.Equal(t, 0, resp.Snapshot.Stars)
	assert.Equal(t, []string{models.StarterItem}, resp.Snapshot.UnlockedItems)

	rec = api.do(t, "POST", "/api/progress/stars", token, map[string]int{"delta": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10, decode[progressResponse](t, rec).Snapshot.Stars)

	assert.Equal(t, http.StatusConflict, api.do(t, "POST", "/api/progress/spend", token, map[string]int{"amount": 20}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/progress/spend", token, map[string]int{"amount": -1}).Code)

	rec = api.do(t, "POST", "/api/progress/purchases", token, map[string]any{"item": "raket-hoed", "price": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 5, decode[progressResponse](t, rec).Snapshot.Stars)
	assert.Equal(t, http.StatusConflict, api.do(t, "POST", "/api/progress/purchases", token, map[string]any{"item": "raket-hoed", "price": 0}).Code)

	rec = api.do(t, "POST", "/api/progress/levels", token, map[string]any{"game": "troll", "level": 1, "stars": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snapshot := decode[progressResponse](t, rec).Snapshot
	assert.Equal(t, 8, snapshot.Stars)
	assert.Equal(t, []models.LevelID{"1"}, snapshot.CompletedLevels[models.GameTroll])

	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/progress/levels", token, map[string]any{"game": "pong", "level": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/progress/levels", token, map[string]any{"game": "troll", "level": 1, "bonus": true}).Code)

	// every write reaches the hosted database once the outbox is flushed
	api.outbox.Flush(context.Background())
	other := api.login(t, "kid-1")
	rec = api.do(t, "GET", "/api/progress", other, nil)
	resp = decode[progressResponse](t, rec)
	assert.Equal(t, 8, resp.Snapshot.Stars)
	assert.ElementsMatch(t, []string{models.StarterItem, "raket-hoed"}, resp.Snapshot.UnlockedItems)
}

func TestProfileAndSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "kid-1")

	rec := api.do(t, "GET", "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AVIStart, decode[models.UserProfile](t, rec).AVILevel)

	assert.Equal(t, http.StatusBadRequest, api.do(t, "PUT", "/api/profile", token, map[string]any{"aviLevel": "z9"}).Code)
	rec = api.do(t, "PUT", "/api/profile", token, map[string]any{"displayName": "Noor", "aviLevel": "e3", "interests": []string{"ruimte", " "}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[models.UserProfile](t, rec)
	assert.Equal(t, models.AVIE3, profile.AVILevel)
	assert.Equal(t, []string{"ruimte"}, profile.Interests)

	rec = api.do(t, "GET", "/api/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[sessionResponse](t, rec)
	assert.Equal(t, models.AVIE3, session.Level)
	assert.Len(t, session.Words, service.DefaultSessionSize)

	rec = api.do(t, "GET", "/api/session?game=troll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, w := range decode[sessionResponse](t, rec).Words {
		assert.True(t, w.HasStress(), w.Word)
	}

	assert.Equal(t, http.StatusBadRequest, api.do(t, "GET", "/api/session?game=pong", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "GET", "/api/session?level=z9", token, nil).Code)
}

func TestGameSessionKeepsWordSources(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "kid-1")

	rec := api.do(t, "PUT", "/api/profile", token, map[string]any{"displayName": "Noor", "aviLevel": "m3", "interests": []string{"school"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// no week words exist, so nothing may be labeled school, not even vlag (category school)
	for _, game := range []string{"stories", "jumper"} {
		rec = api.do(t, "GET", "/api/session?game="+game, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		words := decode[sessionResponse](t, rec).Words
		require.NotEmpty(t, words)
		for _, w := range words {
			assert.NotEqual(t, models.SourceSchool, w.Source, "%s in %s", w.Word, game)
			assert.Contains(t, []models.WordSource{models.SourceNew, models.SourceEasy}, w.Source, w.Word)
		}
	}
}

func TestAttemptsAndStreak(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "kid-1")

	for _, correct := range []bool{false, false, true} {
		rec := api.do(t, "POST", "/api/attempts", token, map[string]any{"word": "raket", "correct": correct, "game": "troll"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/attempts", token, map[string]any{"word": " ", "game": "troll"}).Code)

	rec := api.do(t, "GET", "/api/attempts/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[[]models.WordStats](t, rec)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Attempts)
	assert.Equal(t, models.MasteryDifficult, stats[0].Mastery)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "GET", "/api/attempts/stats?days=0", token, nil).Code)

	rec = api.do(t, "POST", "/api/attempts/sync", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"synced": 0, "pending": 0}, decode[map[string]int](t, rec))

	rec = api.do(t, "POST", "/api/streak", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.ReadingStreak](t, rec).CurrentStreak)
	rec = api.do(t, "GET", "/api/streak", token, nil)
	assert.Equal(t, 1, decode[models.ReadingStreak](t, rec).CurrentStreak)
}

func TestParentFlow(t *testing.T) {
	api := newTestAPI(t)
	child := api.login(t, "kid-1")

	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/parent/register", child, map[string]any{"email": "ouder@example.nl", "pin": "12"}).Code)
	rec := api.do(t, "POST", "/api/parent/register", child, map[string]any{"email": "ouder@example.nl", "pin": "4821", "weeklyReport": true})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, api.do(t, "GET", "/api/parent/overview", child, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, "POST", "/api/parent/login", "", map[string]string{"childId": "kid-1", "pin": "0000"}).Code)

	rec = api.do(t, "POST", "/api/parent/login", "", map[string]string{"childId": "kid-1", "pin": "4821"})
	require.Equal(t, http.StatusOK, rec.Code)
	parent := decode[tokenResponse](t, rec).Token

	rec = api.do(t, "GET", "/api/parent/overview", parent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kid-1", decode[service.ParentOverview](t, rec).ChildID)

	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/parent/week-words", parent, map[string]any{"word": "lopen", "syllables": []string{"lo", "ppen"}}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/parent/week-words", parent, map[string]any{"word": ""}).Code)
	rec = api.do(t, "POST", "/api/parent/week-words", parent, map[string]any{"word": "schooltas", "syllables": []string{"school", "tas"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, "GET", "/api/parent/week-words", parent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.WeekWord](t, rec), 1)

	// week words lead the child's next session
	rec = api.do(t, "GET", "/api/session", child, nil)
	words := decode[sessionResponse](t, rec).Words
	require.NotEmpty(t, words)
	assert.Contains(t, wordsOf(words), "schooltas")

	assert.Equal(t, http.StatusNoContent, api.do(t, "DELETE", "/api/parent/week-words/schooltas", parent, nil).Code)
	rec = api.do(t, "GET", "/api/parent/week-words", parent, nil)
	assert.Empty(t, decode[[]models.WeekWord](t, rec))
}

func TestParentLoginRateLimited(t *testing.T) {
	api := newTestAPI(t)
	child := api.login(t, "kid-1")
	require.Equal(t, http.StatusNoContent, api.do(t, "POST", "/api/parent/register", child, map[string]any{"email": "ouder@example.nl", "pin": "4821"}).Code)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, api.do(t, "POST", "/api/parent/login", "", map[string]string{"childId": "kid-1", "pin": "0000"}).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, api.do(t, "POST", "/api/parent/login", "", map[string]string{"childId": "kid-1", "pin": "4821"}).Code)

	// another child on the same device has its own budget
	assert.Equal(t, http.StatusUnauthorized, api.do(t, "POST", "/api/parent/login", "", map[string]string{"childId": "kid-2", "pin": "4821"}).Code)
}

func wordsOf(words []models.SessionWord) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Word
	}
	return out
}
