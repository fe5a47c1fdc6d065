package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoanghai1803/faves/internal/storage"
)

// Health handles GET /healthz. It reports whether the database answers.
func Health(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.DB().PingContext(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
