package models

import (
	"time"

	"github.com/hoanghai1803/faves/faves"
)

// Article is a piece of content on the site, usually imported from a feed.
// Disabled articles stay in the database but are hidden from listings.
type Article struct {
	ID          int64      `json:"id" xml:"id"`
	Source      string     `json:"source" xml:"source"`
	Title       string     `json:"title" xml:"title"`
	URL         string     `json:"url" xml:"url"`
	Summary     string     `json:"summary,omitempty" xml:"summary,omitempty"`
	Enabled     bool       `json:"enabled" xml:"enabled"`
	PublishedAt *time.Time `json:"published_at,omitempty" xml:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" xml:"created_at"`
}

// String returns the article title, used by the default listing template.
func (a Article) String() string {
	return a.Title
}

// ArticleFavorite is a user's favorite article.
type ArticleFavorite = faves.Favorite[Article]
