package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/service"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 365
)

// AttemptHandler records answers and the daily reading streak
type AttemptHandler struct {
	recorder *service.AttemptRecorder
	streaks  *service.StreakService
	logger   *zap.Logger
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(recorder *service.AttemptRecorder, streaks *service.StreakService, logger *zap.Logger) *AttemptHandler {
	return &AttemptHandler{recorder: recorder, streaks: streaks, logger: logger}
}

type attemptRequest struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Correct     bool   `json:"correct"`
	Game        string `json:"game"`
	TimeTakenMs *int   `json:"timeTakenMs"`
}

// Record stores an answer. 201 means it reached the hosted log, 202 that it
// was kept on the device for a later sync.
func (h *AttemptHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	req.Word = strings.TrimSpace(req.Word)
	if req.Word == "" || req.Game == "" {
		respondWithError(h.logger, w, http.StatusBadRequest, "Word and game are required", "", nil)
		return
	}

	attempt := models.WordAttempt{
		ID:          req.ID,
		UserID:      GetClaimsFromContext(r.Context()).UserID(),
		Word:        req.Word,
		Correct:     req.Correct,
		GameType:    req.Game,
		TimeTakenMs: req.TimeTakenMs,
	}
	if err := h.recorder.Record(r.Context(), attempt); err != nil {
		h.logger.Warn("attempt kept on device", zap.String("word", attempt.Word), zap.Error(err))
		respondJSON(w, http.StatusAccepted, map[string]string{"stored": "local"})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"stored": "remote"})
}

// Sync sends the attempts kept on the device
func (h *AttemptHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sent, err := h.recorder.SyncPending(r.Context())
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error syncing attempts", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"synced": sent, "pending": len(h.recorder.Pending())})
}

// Stats returns per-word statistics over the last ?days= days
func (h *AttemptHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxStatsDays {
			respondWithError(h.logger, w, http.StatusBadRequest, "Invalid days", "", nil)
			return
		}
		days = n
	}

	userID := GetClaimsFromContext(r.Context()).UserID()
	stats, err := h.recorder.Stats(r.Context(), userID, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error loading stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetStreak returns the reading streak
func (h *AttemptHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.streaks.Get(r.Context(), GetClaimsFromContext(r.Context()).UserID())
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error loading streak", err)
		return
	}
	respondJSON(w, http.StatusOK, streak)
}

// RecordStreak registers reading today
func (h *AttemptHandler) RecordStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.streaks.RecordActivity(r.Context(), GetClaimsFromContext(r.Context()).UserID(), time.Now().UTC())
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error recording streak", err)
		return
	}
	respondJSON(w, http.StatusOK, streak)
}
