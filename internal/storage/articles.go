package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/models"
)

// defaultArticles are seeded into a new database so the site has something
// to favorite before the first feed import.
var defaultArticles = []models.Article{
	{Source: "Netflix", Title: "Netflix Tech Blog", URL: "https://netflixtechblog.com", Enabled: true},
	{Source: "Meta", Title: "Engineering at Meta", URL: "https://engineering.fb.com", Enabled: true},
	{Source: "Uber", Title: "Uber Engineering", URL: "https://www.uber.com/blog/engineering", Enabled: true},
	{Source: "Spotify", Title: "Spotify Engineering", URL: "https://engineering.atspotify.com", Enabled: true},
	{Source: "Stripe", Title: "Stripe Engineering", URL: "https://stripe.com/blog", Enabled: true},
	{Source: "Cloudflare", Title: "Cloudflare Blog", URL: "https://blog.cloudflare.com", Enabled: true},
	{Source: "GitHub", Title: "GitHub Engineering", URL: "https://github.blog/engineering", Enabled: true},
	{Source: "Dropbox", Title: "Dropbox Tech Blog", URL: "https://dropbox.tech", Enabled: true},
}

const articleColumns = `id, source, title, url, summary, enabled, published_at, created_at`

type articleRow struct {
	ID          int64           `db:"id"`
	Source      string          `db:"source"`
	Title       string          `db:"title"`
	URL         string          `db:"url"`
	Summary     string          `db:"summary"`
	Enabled     bool            `db:"enabled"`
	PublishedAt faves.Timestamp `db:"published_at"`
	CreatedAt   faves.Timestamp `db:"created_at"`
}

func (r articleRow) article() models.Article {
	a := models.Article{
		ID:        r.ID,
		Source:    r.Source,
		Title:     r.Title,
		URL:       r.URL,
		Summary:   r.Summary,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt.Time,
	}
	if !r.PublishedAt.IsZero() {
		t := r.PublishedAt.Time
		a.PublishedAt = &t
	}
	return a
}

// UpsertArticle inserts an article or updates it if a row with the same URL
// already exists. On conflict the source, title, summary, and published_at
// fields are refreshed; the enabled flag is left alone. The row ID is
// returned.
func (s *Store) UpsertArticle(ctx context.Context, a *models.Article) (int64, error) {
	if a.Title == "" || a.URL == "" {
		return 0, errors.New("article title and url are required")
	}

	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO articles (source, title, url, summary, enabled, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			source       = excluded.source,
			title        = excluded.title,
			summary      = excluded.summary,
			published_at = excluded.published_at
		 RETURNING id`),
		a.Source, a.Title, a.URL, a.Summary, a.Enabled,
		nullableTime(a.PublishedAt), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting article %q: %w", a.URL, err)
	}
	return id, nil
}

// SaveArticles batch-upserts articles inside a single transaction and
// returns how many were written.
func (s *Store) SaveArticles(ctx context.Context, articles []models.Article) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		`INSERT INTO articles (source, title, url, summary, enabled, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			source       = excluded.source,
			title        = excluded.title,
			summary      = excluded.summary,
			published_at = excluded.published_at`))
	if err != nil {
		return 0, fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := formatTime(s.now())
	n := 0
	for _, a := range articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			a.Source, a.Title, a.URL, a.Summary, a.Enabled, nullableTime(a.PublishedAt), now,
		); err != nil {
			return 0, fmt.Errorf("upserting article %q: %w", a.URL, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return n, nil
}

// GetArticle returns the article with the given ID.
// Returns ErrNotFound if no matching row exists.
func (s *Store) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Article{}, ErrNotFound
		}
		return models.Article{}, fmt.Errorf("getting article %d: %w", id, err)
	}
	return row.article(), nil
}

// ListArticles returns articles newest first. With enabledOnly, disabled
// articles are left out.
func (s *Store) ListArticles(ctx context.Context, enabledOnly bool) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if enabledOnly {
		query += ` WHERE enabled = ?`
		args = append(args, true)
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC, id DESC`

	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	// Return empty slice instead of nil for consistent JSON serialization.
	articles := make([]models.Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, r.article())
	}
	return articles, nil
}

// SetArticleEnabled sets the enabled flag for the given article ID.
// It returns ErrNotFound if no article matches the given ID.
func (s *Store) SetArticleEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE articles SET enabled = ? WHERE id = ?`), enabled, id)
	if err != nil {
		return fmt.Errorf("updating article %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for article %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Target implements faves.Targets.
func (s *Store) Target(ctx context.Context, id int64) (models.Article, error) {
	return s.GetArticle(ctx, id)
}

// TargetsByID implements faves.BatchTargets. IDs without a matching article
// are absent from the result.
func (s *Store) TargetsByID(ctx context.Context, ids []int64) (map[int64]models.Article, error) {
	out := make(map[int64]models.Article, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+articleColumns+` FROM articles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building article lookup: %w", err)
	}

	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("looking up articles: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r.article()
	}
	return out, nil
}

// SeedDefaults inserts the default articles if the articles table is empty.
// This operation is idempotent: calling it on a non-empty table is a no-op.
func (s *Store) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles`); err != nil {
		return fmt.Errorf("counting articles: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.SaveArticles(ctx, defaultArticles); err != nil {
		return fmt.Errorf("seeding articles: %w", err)
	}
	return nil
}

// DefaultArticleCount returns the number of default articles that will be
// seeded into a new database. Useful for tests.
func DefaultArticleCount() int {
	return len(defaultArticles)
}

var _ faves.BatchTargets[models.Article] = (*Store)(nil)
