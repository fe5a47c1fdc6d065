package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ulule/limiter/v3"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/api/handlers"
	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/config"
	"github.com/hoanghai1803/faves/internal/models"
	"github.com/hoanghai1803/faves/internal/storage"
)

// enabledOnly drops favorites of disabled articles from public listings.
func enabledOnly(in []models.ArticleFavorite) []models.ArticleFavorite {
	out := make([]models.ArticleFavorite, 0, len(in))
	for _, f := range in {
		if f.Target.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// NewRouter creates and configures the HTTP router with the JSON API, the
// favorites endpoints and the HTML pages. Mutating routes sit behind lim.
func NewRouter(store *storage.Store, tokens *auth.TokenManager, lim *limiter.Limiter, cfg *config.Config) (*chi.Mux, error) {
	fcfg := faves.Config[models.Article]{
		Options: faves.Options{
			Store:       store.ArticleFavorites(),
			CurrentUser: auth.CurrentUser,
			LoginURL:    cfg.Auth.LoginURL,
			Logger:      slog.Default(),
		},
		Targets:     store,
		Users:       store,
		ExtraFilter: enabledOnly,
	}

	create, err := faves.NewCreateHandler(fcfg)
	if err != nil {
		return nil, fmt.Errorf("creating favorite create handler: %w", err)
	}
	remove, err := faves.NewDeleteHandler(fcfg)
	if err != nil {
		return nil, fmt.Errorf("creating favorite delete handler: %w", err)
	}
	list, err := faves.NewListHandler(fcfg)
	if err != nil {
		return nil, fmt.Errorf("creating favorite list handler: %w", err)
	}

	limit := RateLimit(lim)
	cookie := cfg.Auth.CookieName

	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(auth.Middleware(tokens, cookie, store))

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.With(limit).Post("/register", handlers.Register(store, tokens, cookie))
		api.With(limit).Post("/login", handlers.Login(store, tokens, cookie))
		api.Post("/logout", handlers.Logout(cookie))

		api.Get("/articles", handlers.ListArticles(store))
		api.Get("/articles/{id}", handlers.GetArticle(store))
		api.Put("/articles/{id}", handlers.SetArticleEnabled(store, cfg.Auth.Admins))
	})

	// Favorites, with and without the trailing slash the client script adds.
	r.Route("/favorites", func(fr chi.Router) {
		fr.Group(func(mut chi.Router) {
			mut.Use(limit)
			mut.Method(http.MethodPost, "/create/{pk}", create)
			mut.Method(http.MethodPost, "/create/{pk}/", create)
			mut.Method(http.MethodPost, "/delete/{pk}", remove)
			mut.Method(http.MethodPost, "/delete/{pk}/", remove)
			mut.Method(http.MethodDelete, "/delete/{pk}", remove)
			mut.Method(http.MethodDelete, "/delete/{pk}/", remove)
		})
		fr.Method(http.MethodGet, "/list", list)
		fr.Method(http.MethodGet, "/list/", list)
		fr.Method(http.MethodGet, "/list/{username}", list)
		fr.Method(http.MethodGet, "/list/{username}/", list)
	})

	r.Method(http.MethodGet, "/static/faves.js", faves.ScriptHandler())
	r.Get("/login", handlers.LoginPage())
	r.Get("/healthz", handlers.Health(store))
	r.Get("/", handlers.Index(store, cfg.Auth.LoginURL))

	return r, nil
}
