package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoanghai1803/faves/internal/models"
)

// ArticleSaver persists imported articles, upserting by URL.
type ArticleSaver interface {
	SaveArticles(ctx context.Context, articles []models.Article) (int, error)
}

// Importer fetches the configured feeds and saves their articles.
type Importer struct {
	fetcher *Fetcher
	saver   ArticleSaver
	urls    []string
}

// NewImporter returns an Importer for urls.
func NewImporter(fetcher *Fetcher, saver ArticleSaver, urls []string) *Importer {
	return &Importer{fetcher: fetcher, saver: saver, urls: urls}
}

// Import runs one fetch-and-save pass. Feeds that fail are logged and
// skipped; only a storage failure is returned.
func (im *Importer) Import(ctx context.Context) (*FetchResult, error) {
	if len(im.urls) == 0 {
		return &FetchResult{}, nil
	}

	result, err := im.fetcher.FetchAll(ctx, im.urls)
	if err != nil {
		return nil, err
	}

	n, err := im.saver.SaveArticles(ctx, result.Articles)
	if err != nil {
		return nil, fmt.Errorf("saving imported articles: %w", err)
	}

	slog.Info("imported feeds",
		"feeds", len(im.urls),
		"failed", len(result.Failed),
		"articles", n,
	)
	return result, nil
}

// Run imports once, then again every interval until ctx is cancelled. A zero
// interval imports once and returns. Import errors are logged, not returned.
func (im *Importer) Run(ctx context.Context, interval time.Duration) error {
	if _, err := im.Import(ctx); err != nil && ctx.Err() == nil {
		slog.Error("feed import failed", "error", err)
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := im.Import(ctx); err != nil && ctx.Err() == nil {
				slog.Error("feed import failed", "error", err)
			}
		}
	}
}
