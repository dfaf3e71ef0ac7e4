package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the hosted database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers groups everything the router serves
type Handlers struct {
	Middleware *Middleware
	Player     *PlayerHandler
	Progress   *ProgressHandler
	Session    *SessionHandler
	Attempts   *AttemptHandler
	Parent     *ParentHandler
	DB         Pinger
}

// NewRouter registers every API route and wraps the mux with request logging
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := h.Middleware.RequireAuth
	parent := h.Middleware.RequireParent

	mux.HandleFunc("GET /healthz", h.health)

	// Player routes
	mux.HandleFunc("POST /api/login", h.Player.Login)
	mux.HandleFunc("GET /api/profile", auth(h.Player.GetProfile))
	mux.HandleFunc("PUT /api/profile", auth(h.Player.SaveProfile))

	// Progress routes
	mux.HandleFunc("GET /api/progress", auth(h.Progress.Get))
	mux.HandleFunc("POST /api/progress/stars", auth(h.Progress.AddStars))
	mux.HandleFunc("POST /api/progress/spend", auth(h.Progress.SpendStars))
	mux.HandleFunc("POST /api/progress/levels", auth(h.Progress.CompleteLevel))
	mux.HandleFunc("POST /api/progress/purchases", auth(h.Progress.Purchase))

	// Practice routes
	mux.HandleFunc("GET /api/session", auth(h.Session.Get))
	mux.HandleFunc("POST /api/attempts", auth(h.Attempts.Record))
	mux.HandleFunc("POST /api/attempts/sync", auth(h.Attempts.Sync))
	mux.HandleFunc("GET /api/attempts/stats", auth(h.Attempts.Stats))
	mux.HandleFunc("GET /api/streak", auth(h.Attempts.GetStreak))
	mux.HandleFunc("POST /api/streak", auth(h.Attempts.RecordStreak))

	// Parent routes
	mux.HandleFunc("POST /api/parent/register", auth(h.Parent.Register))
	mux.HandleFunc("POST /api/parent/login", h.Parent.Login)
	mux.HandleFunc("GET /api/parent/overview", parent(h.Parent.Overview))
	mux.HandleFunc("GET /api/parent/week-words", parent(h.Parent.ListWeekWords))
	mux.HandleFunc("POST /api/parent/week-words", parent(h.Parent.AddWeekWord))
	mux.HandleFunc("DELETE /api/parent/week-words/{word}", parent(h.Parent.DeleteWeekWord))

	return h.Middleware.Logging(mux)
}

func (h Handlers) health(w http.ResponseWriter, r *http.Request) {
	remote := "online"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			remote = "offline"
		}
	}
	// the device keeps working offline, so an unreachable database is not a failure
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "remote": remote})
}
