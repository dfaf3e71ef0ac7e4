package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/security"
	"galactischevrienden/internal/validation"
)

// ProfileStore reads and writes player profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, p models.UserProfile) error
}

// PlayerHandler handles device login and the player profile
type PlayerHandler struct {
	profiles ProfileStore
	tokens   *security.TokenManager
	logger   *zap.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(profiles ProfileStore, tokens *security.TokenManager, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{profiles: profiles, tokens: tokens, logger: logger}
}

type loginRequest struct {
	UserID string `json:"userId"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login issues a child token for a player picked on this device
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err := validation.ValidateUserID(req.UserID); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	token, expires, err := h.tokens.Issue(req.UserID, security.RoleChild)
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error issuing token", err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

// GetProfile returns the player's profile, or a fresh one at the start level
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := GetClaimsFromContext(r.Context()).UserID()

	profile, err := loadProfile(r.Context(), h.profiles, userID)
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error loading profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	DisplayName string          `json:"displayName"`
	AVILevel    models.AVILevel `json:"aviLevel"`
	Interests   []string        `json:"interests"`
}

// SaveProfile updates name, reading level and interests
func (h *PlayerHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID := GetClaimsFromContext(r.Context()).UserID()

	var req profileRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if !req.AVILevel.Valid() {
		respondWithError(h.logger, w, http.StatusBadRequest, "Unknown AVI level", "", nil)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName != "" {
		if err := validation.ValidateName(req.DisplayName); err != nil {
			respondWithError(h.logger, w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
	}

	interests := make([]string, 0, len(req.Interests))
	for _, interest := range req.Interests {
		if interest = strings.TrimSpace(interest); interest != "" && !strings.Contains(interest, ",") {
			interests = append(interests, interest)
		}
	}

	profile := models.UserProfile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		AVILevel:    req.AVILevel,
		Interests:   interests,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.profiles.SaveProfile(r.Context(), profile); err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error saving profile", err)
		return
	}

	saved, err := loadProfile(r.Context(), h.profiles, userID)
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Internal server error", "Error loading profile", err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func loadProfile(ctx context.Context, profiles ProfileStore, userID string) (models.UserProfile, error) {
	profile, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if profile == nil {
		return models.UserProfile{UserID: userID, AVILevel: models.AVIStart, Interests: []string{}}, nil
	}
	return *profile, nil
}

// isValidationError reports whether err came from input validation
func isValidationError(err error) bool {
	var ve validation.ValidationError
	return errors.As(err, &ve)
}
