package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/models"
	"github.com/hoanghai1803/faves/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// readCredentials accepts a JSON body or a form submission.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, errors.New("invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, errors.New("invalid form body")
		}
		c.Username = r.PostForm.Get("username")
		c.Password = r.PostForm.Get("password")
	}
	if c.Username == "" || c.Password == "" {
		return c, errors.New("username and password are required")
	}
	return c, nil
}

// startSession issues a token for u, sets the session cookie, and either
// redirects to a local next location or answers with the session as JSON.
func startSession(w http.ResponseWriter, r *http.Request, tokens *auth.TokenManager, cookieName string, u models.User, status int) {
	token, exp, err := tokens.Issue(faves.User{ID: u.ID, Username: u.Username})
	if err != nil {
		slog.Error("failed to issue session token", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	auth.SetSessionCookie(w, cookieName, token, exp)

	if next := localNext(r); next != "" {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	writeJSON(w, status, sessionResponse{Token: token, ExpiresAt: exp, User: u})
}

// Register handles POST /api/register. It creates an account and starts a
// session for it.
func Register(store *storage.Store, tokens *auth.TokenManager, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := readCredentials(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		u, err := store.CreateUser(r.Context(), c.Username, c.Password)
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username already taken")
			return
		case errors.Is(err, storage.ErrInvalidUsername), errors.Is(err, storage.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			slog.Error("failed to create user", "username", c.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		slog.Info("user registered", "user_id", u.ID, "username", u.Username)
		startSession(w, r, tokens, cookieName, u, http.StatusCreated)
	}
}

// Login handles POST /api/login. It accepts JSON or form credentials, sets
// the session cookie, and honours a local "next" parameter.
func Login(store *storage.Store, tokens *auth.TokenManager, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := readCredentials(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		u, err := store.Authenticate(r.Context(), c.Username, c.Password)
		if errors.Is(err, storage.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		if err != nil {
			slog.Error("failed to authenticate", "username", c.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to log in")
			return
		}

		startSession(w, r, tokens, cookieName, u, http.StatusOK)
	}
}

// Logout handles POST /api/logout by clearing the session cookie.
func Logout(cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearSessionCookie(w, cookieName)

		if next := localNext(r); next != "" {
			http.Redirect(w, r, next, http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

// LoginPage handles GET /login. It renders a login form that posts back to
// /api/login with the requested next location.
func LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := localNext(r)
		if next == "" {
			next = "/"
		}
		render(w, "login.html", map[string]any{"next": next})
	}
}

// render executes a page template into the response.
func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render page", "template", name, "error", err)
	}
}
