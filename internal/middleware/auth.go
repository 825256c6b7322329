package middleware

import (
	"context"
	"net/http"
	"strings"

	"costy-calendar/internal/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the acting user extracted from the session token.
type Identity struct {
	Email string
	Name  string
}

// Auth requires a valid session token, from Authorization: Bearer or
// the session cookie, and stashes the acting user in the context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); h != "" {
				raw = strings.TrimPrefix(h, "Bearer ")
			} else if c, err := r.Cookie("session"); err == nil {
				raw = c.Value
			}
			if raw == "" {
				http.Error(w, "no token", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{
				Email: claims.Email,
				Name:  claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the Identity placed by Auth. Zero value when the
// middleware did not run.
func UserFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
