package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"costy-calendar/internal/booking"
	"costy-calendar/internal/middleware"
)

type Router struct {
	repo   *booking.Repository
	secret string
	logger *log.Logger
}

func NewRouter(repo *booking.Repository, secret string, logger *log.Logger, rl *middleware.RateLimiter) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	r := &Router{repo: repo, secret: secret, logger: logger}
	mux := chi.NewRouter()

	mux.Get("/health", r.handleHealth)
	mux.With(middleware.RateLimit(rl)).Post("/api/v1/auth/login", r.handleLogin)

	mux.Group(func(pr chi.Router) {
		pr.Use(middleware.Auth(r.secret))
		pr.Get("/api/v1/appointments", r.handleList)
		pr.Post("/api/v1/appointments", r.handleCreate)
		pr.Put("/api/v1/appointments/{id}", r.handleEdit)
		pr.Delete("/api/v1/appointments/{id}", r.handleDelete)
		pr.Post("/api/v1/appointments/{id}/join", r.handleJoin)
		pr.Post("/api/v1/appointments/{id}/leave", r.handleLeave)
		pr.Get("/api/v1/calendar", r.handleCalendar)
	})

	return mux
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr translates the booking error taxonomy into HTTP statuses.
// Anything unrecognized is a backend write failure.
func (r *Router) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errBody(err))
	case errors.Is(err, booking.ErrNotCreator):
		writeJSON(w, http.StatusForbidden, errBody(err))
	case errors.Is(err, booking.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err))
	case errors.Is(err, booking.ErrFull), errors.Is(err, booking.ErrAlreadyJoined):
		writeJSON(w, http.StatusConflict, errBody(err))
	default:
		r.logger.Printf("handler: backend error: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
