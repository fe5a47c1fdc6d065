package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/faves/internal/models"
)

const (
	httpTimeout    = 30 * time.Second
	maxConcurrent  = 10
	rateLimitDelay = 1 * time.Second
)

// FailedFeed records a feed that could not be fetched.
type FailedFeed struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// FetchResult contains the successfully fetched articles and any failures.
type FetchResult struct {
	Articles []models.Article
	Failed   []FailedFeed
}

// Fetcher handles RSS feed fetching with per-domain rate limiting and
// bounded concurrency.
type Fetcher struct {
	client      *http.Client
	maxArticles int
	rateLimiter map[string]time.Time // per-domain last request time
	mu          sync.Mutex           // protects rateLimiter
}

// NewFetcher creates a Fetcher with a custom HTTP client configured with a
// 30-second timeout and the site's user agent. At most maxArticles items are
// kept per feed; zero keeps all of them.
func NewFetcher(maxArticles int) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		maxArticles: maxArticles,
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; faves/1.0)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	return t.base.RoundTrip(req)
}

// FetchAll fetches feeds concurrently with a maximum of 10 goroutines.
// Individual feed failures are collected in FetchResult.Failed rather than
// failing the entire batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) (*FetchResult, error) {
	var (
		result FetchResult
		mu     sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, feedURL := range urls {
		g.Go(func() error {
			articles, err := f.fetchSingleFeed(ctx, feedURL)
			if err != nil {
				slog.Warn("failed to fetch feed", "url", feedURL, "error", err)

				mu.Lock()
				result.Failed = append(result.Failed, FailedFeed{URL: feedURL, Error: err.Error()})
				mu.Unlock()

				return nil // skip failures, don't fail the batch
			}

			mu.Lock()
			result.Articles = append(result.Articles, articles...)
			mu.Unlock()

			slog.Info("fetched feed", "url", feedURL, "items", len(articles))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	return &result, nil
}

// fetchSingleFeed retrieves and parses a single RSS or Atom feed.
func (f *Fetcher) fetchSingleFeed(ctx context.Context, feedURL string) ([]models.Article, error) {
	if err := f.waitForRateLimit(ctx, extractDomain(feedURL)); err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	return parseFeedItems(feedURL, feed, f.maxArticles), nil
}

// waitForRateLimit enforces a minimum delay of 1 second between requests to
// the same domain. It blocks until the delay has elapsed or ctx is done.
func (f *Fetcher) waitForRateLimit(ctx context.Context, domain string) error {
	f.mu.Lock()
	var wait time.Duration
	if last, ok := f.rateLimiter[domain]; ok {
		if elapsed := time.Since(last); elapsed < rateLimitDelay {
			wait = rateLimitDelay - elapsed
		}
	}
	// Reserve the slot before sleeping so concurrent callers queue up.
	f.rateLimiter[domain] = time.Now().Add(wait)
	f.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
