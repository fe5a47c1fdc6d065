package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/models"
	"github.com/hoanghai1803/faves/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied and
// default articles seeded. It registers a cleanup function to close the
// database when the test completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store, err := storage.NewStore(db)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := store.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seeding defaults: %v", err)
	}

	return store
}

// newTestTokens returns a token manager with a fixed secret.
func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("handlers-test-secret", time.Hour)
}

// createUser registers an account and fails the test on error.
func createUser(t *testing.T, store *storage.Store, username string) models.User {
	t.Helper()

	u, err := store.CreateUser(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("creating user %q: %v", username, err)
	}
	return u
}

// asUser attaches u to the request context the way auth.Middleware does.
func asUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(faves.WithUser(r.Context(), faves.User{ID: u.ID, Username: u.Username}))
}

// withURLParam sets a chi URL parameter on the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// firstArticle returns the first enabled article of the seeded store.
func firstArticle(t *testing.T, store *storage.Store) models.Article {
	t.Helper()

	articles, err := store.ListArticles(context.Background(), true)
	if err != nil || len(articles) == 0 {
		t.Fatalf("listing seeded articles: %v (got %d)", err, len(articles))
	}
	return articles[0]
}
