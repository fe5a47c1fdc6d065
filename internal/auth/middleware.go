package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hoanghai1803/faves/faves"
)

// Accounts confirms that the user named by a valid token still exists.
type Accounts interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Middleware resolves the session from an "Authorization: Bearer" header or
// the named cookie and stores the user on the request context with
// faves.WithUser. Requests with a missing or invalid token, or a token whose
// account no longer exists in accounts, pass through anonymously. A nil
// accounts trusts every valid token.
func Middleware(tokens *TokenManager, cookieName string, accounts Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := tokens.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if accounts != nil {
				exists, err := accounts.UserExists(r.Context(), user.ID)
				if err != nil {
					slog.Error("failed to check session user", "user_id", user.ID, "error", err)
				}
				if !exists {
					next.ServeHTTP(w, r)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(faves.WithUser(r.Context(), user)))
		})
	}
}

// CurrentUser returns the user stored on r by Middleware.
func CurrentUser(r *http.Request) (faves.User, bool) {
	return faves.UserFromContext(r.Context())
}

// SetSessionCookie stores token in an HTTP-only cookie.
func SetSessionCookie(w http.ResponseWriter, name, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookieName == "" {
		return ""
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
