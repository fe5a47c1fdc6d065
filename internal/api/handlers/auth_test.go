package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens()
	handler := Register(store, tokens, "sid")

	t.Run("creates account and session", func(t *testing.T) {
		body := `{"username": "bob", "password": "password123"}`
		r := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var resp sessionResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.User.Username != "bob" || resp.User.ID == 0 {
			t.Errorf("got user %+v, want bob with an id", resp.User)
		}

		user, err := tokens.Parse(resp.Token)
		if err != nil {
			t.Fatalf("parsing issued token: %v", err)
		}
		if user.ID != resp.User.ID {
			t.Errorf("token user id = %d, want %d", user.ID, resp.User.ID)
		}

		if len(w.Result().Cookies()) != 1 || w.Result().Cookies()[0].Name != "sid" {
			t.Errorf("session cookie not set: %v", w.Result().Cookies())
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		body := `{"username": "BOB", "password": "password123"}`
		r := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusConflict {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"malformed json", `{"username":`},
			{"missing password", `{"username": "carol"}`},
			{"short password", `{"username": "carol", "password": "short"}`},
			{"bad username", `{"username": "c d", "password": "password123"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(tt.body))
				r.Header.Set("Content-Type", "application/json")
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, r)

				if w.Code != http.StatusBadRequest {
					t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
				}
			})
		}
	})
}

func TestLogin(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens()
	createUser(t, store, "alice")
	handler := Login(store, tokens, "sid")

	t.Run("json credentials", func(t *testing.T) {
		body := `{"username": "alice", "password": "password123"}`
		r := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		var resp sessionResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Token == "" {
			t.Error("empty token in login response")
		}
	})

	t.Run("form with local next redirects", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"/favorites/create/1/"}}
		r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusFound)
		}
		if loc := w.Header().Get("Location"); loc != "/favorites/create/1/" {
			t.Errorf("Location = %q, want %q", loc, "/favorites/create/1/")
		}
	})

	t.Run("form with remote next answers json", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"https://evil.test/"}}
		r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		body := `{"username": "alice", "password": "wrong-password"}`
		r := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Error("session cookie set on failed login")
		}
	})
}

func TestLogout(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	w := httptest.NewRecorder()

	Logout("sid").ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].MaxAge >= 0 {
		t.Errorf("session cookie not cleared: %v", cookies)
	}
}

func TestLoginPage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/login?next=%2Ffavorites%2Flist", nil)
	w := httptest.NewRecorder()

	LoginPage().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `name="next" value="/favorites/list"`) {
		t.Errorf("login form does not carry next; body: %s", body)
	}
	if !strings.Contains(body, `action="/api/login"`) {
		t.Errorf("login form does not post to /api/login; body: %s", body)
	}
}
