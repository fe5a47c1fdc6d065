package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/models"
	"github.com/hoanghai1803/faves/internal/storage"
)

// articleResponse is an article annotated with the viewer's favorite status.
type articleResponse struct {
	models.Article
	Favorite bool `json:"favorite"`
}

// ListArticles handles GET /api/articles. It returns enabled articles, or
// all of them with ?all=true, each flagged with the viewer's favorite status.
func ListArticles(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articles, err := store.ListArticles(ctx, r.URL.Query().Get("all") != "true")
		if err != nil {
			slog.Error("failed to list articles", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list articles")
			return
		}

		var viewerID int64
		if u, ok := auth.CurrentUser(r); ok {
			viewerID = u.ID
		}
		ids := make([]int64, 0, len(articles))
		for _, a := range articles {
			ids = append(ids, a.ID)
		}
		favorited, err := store.FavoritedIDs(ctx, viewerID, ids)
		if err != nil {
			slog.Error("failed to load favorites", "user_id", viewerID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list articles")
			return
		}

		out := make([]articleResponse, 0, len(articles))
		for _, a := range articles {
			out = append(out, articleResponse{Article: a, Favorite: favorited[a.ID]})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetArticle handles GET /api/articles/{id}.
func GetArticle(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		article, err := store.GetArticle(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Article not found")
				return
			}
			slog.Error("failed to get article", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get article")
			return
		}

		resp := articleResponse{Article: article}
		if u, ok := auth.CurrentUser(r); ok {
			resp.Favorite, err = store.ArticleFavorites().Exists(ctx, u.ID, id)
			if err != nil {
				slog.Error("failed to check favorite", "id", id, "user_id", u.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to get article")
				return
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// SetArticleEnabled handles PUT /api/articles/{id}. It toggles the enabled
// flag for an article. Only users named in admins may do so.
func SetArticleEnabled(store *storage.Store, admins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		u, ok := auth.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !isAdmin(admins, u.Username) {
			writeError(w, http.StatusForbidden, "Not allowed to change articles")
			return
		}

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := store.SetArticleEnabled(ctx, id, *body.Enabled); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Article not found")
				return
			}
			slog.Error("failed to update article", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update article")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// isAdmin reports whether username is listed in admins, ignoring case.
func isAdmin(admins []string, username string) bool {
	for _, a := range admins {
		if strings.EqualFold(a, username) {
			return true
		}
	}
	return false
}
