package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/models"
	"github.com/hoanghai1803/faves/internal/storage"
)

// indexEntry is one article row of the index page.
type indexEntry struct {
	Article models.Article
	LinkID  string
	Class   string
	Label   string
	Href    string
}

// Index handles GET /. It lists enabled articles with favorite links that
// the client script turns into asynchronous calls.
func Index(store *storage.Store, loginURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articles, err := store.ListArticles(ctx, true)
		if err != nil {
			slog.Error("failed to list articles", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		viewer, authenticated := auth.CurrentUser(r)
		ids := make([]int64, 0, len(articles))
		for _, a := range articles {
			ids = append(ids, a.ID)
		}
		favorited, err := store.FavoritedIDs(ctx, viewer.ID, ids)
		if err != nil {
			slog.Error("failed to load favorites", "user_id", viewer.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Anonymous visitors follow the link to the login page.
		href := "#"
		if !authenticated {
			href = loginURL + "?" + url.Values{"next": {r.URL.Path}}.Encode()
		}

		entries := make([]indexEntry, 0, len(articles))
		for _, a := range articles {
			class, label := faves.LinkState(favorited[a.ID])
			entries = append(entries, indexEntry{
				Article: a,
				LinkID:  faves.LinkID(a.ID),
				Class:   class,
				Label:   label,
				Href:    href,
			})
		}

		render(w, "index.html", map[string]any{
			"entries":       entries,
			"user":          viewer,
			"authenticated": authenticated,
		})
	}
}
