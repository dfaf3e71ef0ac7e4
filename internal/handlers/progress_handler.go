package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/service"
)

// ProgressHandler exposes the player's stars, levels and items
type ProgressHandler struct {
	progress *service.ProgressService
	logger   *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *service.ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

type progressResponse struct {
	Snapshot models.ProgressSnapshot `json:"snapshot"`
	Status   models.SyncStatus       `json:"status"`
}

// Get reconciles the local and hosted progress and returns the result
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetClaimsFromContext(r.Context()).UserID()

	snapshot, status := h.progress.Load(r.Context(), userID)
	respondJSON(w, http.StatusOK, progressResponse{Snapshot: snapshot, Status: status})
}

// AddStars credits stars
func (h *ProgressHandler) AddStars(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	userID := GetClaimsFromContext(r.Context()).UserID()
	snapshot, err := h.progress.AddStars(userID, req.Delta)
	h.respond(w, userID, snapshot, err)
}

// SpendStars debits stars
func (h *ProgressHandler) SpendStars(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	userID := GetClaimsFromContext(r.Context()).UserID()
	snapshot, err := h.progress.SpendStars(userID, req.Amount)
	h.respond(w, userID, snapshot, err)
}

// CompleteLevel marks a level as done and credits the stars earned
func (h *ProgressHandler) CompleteLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Game  models.GameID  `json:"game"`
		Level models.LevelID `json:"level"`
		Stars int            `json:"stars"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.Level == "" {
		respondWithError(h.logger, w, http.StatusBadRequest, "Level is required", "", nil)
		return
	}

	userID := GetClaimsFromContext(r.Context()).UserID()
	snapshot, err := h.progress.CompleteLevel(userID, req.Game, req.Level, req.Stars)
	h.respond(w, userID, snapshot, err)
}

// Purchase unlocks a shop item
func (h *ProgressHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item  string `json:"item"`
		Price int    `json:"price"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.Item == "" {
		respondWithError(h.logger, w, http.StatusBadRequest, "Item is required", "", nil)
		return
	}

	userID := GetClaimsFromContext(r.Context()).UserID()
	snapshot, err := h.progress.PurchaseItem(userID, req.Item, req.Price)
	h.respond(w, userID, snapshot, err)
}

func (h *ProgressHandler) respond(w http.ResponseWriter, userID string, snapshot models.ProgressSnapshot, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, progressResponse{Snapshot: snapshot, Status: h.progress.Status(userID)})
	case errors.Is(err, service.ErrInsufficientStars), errors.Is(err, service.ErrAlreadyOwned):
		respondWithError(h.logger, w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrUnknownGame), errors.Is(err, service.ErrInvalidAmount):
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error updating progress", err)
	}
}
