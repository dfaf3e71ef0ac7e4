package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/service"
)

// SessionHandler serves practice sessions
type SessionHandler struct {
	selector *service.WordSelector
	profiles ProfileStore
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(selector *service.WordSelector, profiles ProfileStore, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{selector: selector, profiles: profiles, logger: logger}
}

type sessionResponse struct {
	Level models.AVILevel      `json:"aviLevel"`
	Game  models.GameID        `json:"game,omitempty"`
	Words []models.SessionWord `json:"words"`
}

// Get builds a session for the player's level. With ?game= the words are
// filtered for that game; ?level= overrides the profile level.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetClaimsFromContext(r.Context()).UserID()
	game := models.GameID(r.URL.Query().Get("game"))
	if game != "" && !game.Valid() {
		respondWithError(h.logger, w, http.StatusBadRequest, "Unknown game", "", nil)
		return
	}

	profile, err := loadProfile(r.Context(), h.profiles, userID)
	if err != nil {
		// the selector still works from the word bank alone
		h.logger.Warn("profile unavailable, using start level", zap.String("user_id", userID), zap.Error(err))
		profile = models.UserProfile{UserID: userID, AVILevel: models.AVIStart}
	}
	if level := models.AVILevel(r.URL.Query().Get("level")); level != "" {
		if !level.Valid() {
			respondWithError(h.logger, w, http.StatusBadRequest, "Unknown AVI level", "", nil)
			return
		}
		profile.AVILevel = level
	}

	var words []models.SessionWord
	if game == "" {
		words = h.selector.GenerateTaggedSession(r.Context(), profile)
	} else {
		words = h.selector.TaggedSessionForGame(r.Context(), profile, game)
	}
	if words == nil {
		words = []models.SessionWord{}
	}

	respondJSON(w, http.StatusOK, sessionResponse{Level: profile.AVILevel, Game: game, Words: words})
}
