package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/security"
	"galactischevrienden/internal/service"
	"galactischevrienden/internal/wordbank"
)

// ParentHandler handles the parent dashboard
type ParentHandler struct {
	parents   *service.ParentService
	weekWords *service.WeekWordService
	limiter   *security.RateLimiter
	logger    *zap.Logger
}

// NewParentHandler creates a new parent handler. limiter bounds PIN attempts
// per child and client address.
func NewParentHandler(parents *service.ParentService, weekWords *service.WeekWordService, limiter *security.RateLimiter, logger *zap.Logger) *ParentHandler {
	return &ParentHandler{parents: parents, weekWords: weekWords, limiter: limiter, logger: logger}
}

type registerParentRequest struct {
	Email        string `json:"email"`
	PIN          string `json:"pin"`
	WeeklyReport bool   `json:"weeklyReport"`
}

// Register links a parent email and PIN to the signed-in child
func (h *ParentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerParentRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	childID := GetClaimsFromContext(r.Context()).UserID()
	if err := h.parents.Register(r.Context(), childID, req.Email, req.PIN, req.WeeklyReport); err != nil {
		if isValidationError(err) {
			respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error registering parent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type parentLoginRequest struct {
	ChildID string `json:"childId"`
	PIN     string `json:"pin"`
}

// Login exchanges a child id and PIN for a parent token
func (h *ParentHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req parentLoginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	key := req.ChildID + "|" + security.GetClientIP(r)
	if !h.limiter.Allow(key) {
		respondWithError(h.logger, w, http.StatusTooManyRequests, "Too many attempts, try again later", "", nil)
		return
	}

	token, expires, err := h.parents.Login(r.Context(), req.ChildID, req.PIN)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Warn("parent login failed", zap.String("child_id", req.ChildID))
		respondWithError(h.logger, w, http.StatusUnauthorized, "Invalid child id or PIN", "", nil)
		return
	}
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error during parent login", err)
		return
	}

	h.limiter.Reset(key)
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

// Overview returns the child's progress summary
func (h *ParentHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.parents.Overview(r.Context(), GetClaimsFromContext(r.Context()).UserID())
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error building overview", err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// ListWeekWords returns the week words that are still active
func (h *ParentHandler) ListWeekWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.weekWords.Active(r.Context(), GetClaimsFromContext(r.Context()).UserID(), time.Now().UTC())
	if err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "Hosted database unavailable", "Error loading week words", err)
		return
	}
	respondJSON(w, http.StatusOK, words)
}

type weekWordRequest struct {
	Word      string   `json:"word"`
	Syllables []string `json:"syllables"`
	Days      int      `json:"days"`
}

// AddWeekWord adds a school word for the coming days
func (h *ParentHandler) AddWeekWord(w http.ResponseWriter, r *http.Request) {
	var req weekWordRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	word, err := h.weekWords.Add(r.Context(), GetClaimsFromContext(r.Context()).UserID(), req.Word, req.Syllables, req.Days)
	if errors.Is(err, wordbank.ErrInvalidWordEntry) || errors.Is(err, service.ErrEmptyWord) {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error adding week word", err)
		return
	}
	respondJSON(w, http.StatusCreated, word)
}

// DeleteWeekWord removes a week word
func (h *ParentHandler) DeleteWeekWord(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	if err := h.weekWords.Remove(r.Context(), GetClaimsFromContext(r.Context()).UserID(), word); err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error deleting week word", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
