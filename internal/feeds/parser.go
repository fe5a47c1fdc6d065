package feeds

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hoanghai1803/faves/internal/models"
)

// summaryWords caps the length of derived article summaries.
const summaryWords = 60

// parseFeedItems converts gofeed items into Article models, keeping at most
// maxArticles of them in feed order. Items with empty Title or Link are
// skipped. Imported articles start enabled.
func parseFeedItems(feedURL string, feed *gofeed.Feed, maxArticles int) []models.Article {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = extractDomain(feedURL)
	}

	var articles []models.Article
	for _, item := range feed.Items {
		if maxArticles > 0 && len(articles) >= maxArticles {
			break
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		articles = append(articles, models.Article{
			Source:      source,
			Title:       plainText(title),
			URL:         link,
			Summary:     summarize(item.Description, item.Content, link, summaryWords),
			Enabled:     true,
			PublishedAt: publishedAt(item),
		})
	}

	return articles
}

// publishedAt returns the item's publication time, falling back to its
// update time.
func publishedAt(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		return &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}
