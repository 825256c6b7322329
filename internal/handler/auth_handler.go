package handler

import (
	"encoding/json"
	"net/http"

	"costy-calendar/internal/auth"
	"costy-calendar/internal/session"
)

// handleLogin upserts the user by email and issues a session token.
// There is no password: knowing a name and email is enough to act as
// that user.
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	u, err := r.repo.Login(req.Context(), body.Name, body.Email)
	if err != nil {
		r.writeErr(w, err)
		return
	}

	tok, err := auth.MakeToken(u.Email, u.Name, r.secret)
	if err != nil {
		r.logger.Printf("handler: token issue failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(session.TTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": u})
}
