package feeds

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Engineering Blog</title>
    <link>https://blog.example.com</link>
    <item>
      <title>Scaling Writes</title>
      <link>https://blog.example.com/scaling-writes</link>
      <description>How we &lt;b&gt;sharded&lt;/b&gt; the primary database.</description>
      <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://blog.example.com/untitled</link>
    </item>
    <item>
      <title>No Link</title>
    </item>
    <item>
      <title>Undated Post</title>
      <link>https://blog.example.com/undated</link>
    </item>
  </channel>
</rss>`

func TestParseFeedItems(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(sampleRSS)
	if err != nil {
		t.Fatalf("parsing sample feed: %v", err)
	}

	articles := parseFeedItems("https://blog.example.com/feed.xml", feed, 0)
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2 (items without title or link skipped)", len(articles))
	}

	a := articles[0]
	if a.Title != "Scaling Writes" {
		t.Errorf("Title = %q, want %q", a.Title, "Scaling Writes")
	}
	if a.URL != "https://blog.example.com/scaling-writes" {
		t.Errorf("URL = %q", a.URL)
	}
	if a.Source != "Engineering Blog" {
		t.Errorf("Source = %q, want %q", a.Source, "Engineering Blog")
	}
	if a.Summary != "How we sharded the primary database." {
		t.Errorf("Summary = %q", a.Summary)
	}
	if !a.Enabled {
		t.Error("imported article should be enabled")
	}
	want := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	if a.PublishedAt == nil || !a.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", a.PublishedAt, want)
	}

	if articles[1].PublishedAt != nil {
		t.Errorf("undated PublishedAt = %v, want nil", articles[1].PublishedAt)
	}
}

func TestParseFeedItems_MaxArticles(t *testing.T) {
	feed := &gofeed.Feed{Title: "Many"}
	for i := 0; i < 5; i++ {
		feed.Items = append(feed.Items, &gofeed.Item{
			Title: "Post",
			Link:  "https://example.com/post/" + string(rune('a'+i)),
		})
	}

	tests := []struct {
		name string
		max  int
		want int
	}{
		{name: "unlimited", max: 0, want: 5},
		{name: "capped", max: 3, want: 3},
		{name: "cap above count", max: 10, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(parseFeedItems("https://example.com/rss", feed, tt.max)); got != tt.want {
				t.Errorf("got %d articles, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFeedItems_SourceFallsBackToDomain(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "Hello", Link: "https://news.example.org/hello"},
	}}

	articles := parseFeedItems("https://news.example.org/rss.xml", feed, 0)
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if articles[0].Source != "news.example.org" {
		t.Errorf("Source = %q, want %q", articles[0].Source, "news.example.org")
	}
}

func TestPublishedAt_UsesUpdated(t *testing.T) {
	updated := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))
	got := publishedAt(&gofeed.Item{UpdatedParsed: &updated})
	if got == nil || !got.Equal(updated) || got.Location() != time.UTC {
		t.Errorf("publishedAt = %v, want %v in UTC", got, updated)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://blog.example.com/feed", "blog.example.com"},
		{"http://example.com:8080/rss", "example.com"},
		{"://bad", "://bad"},
	}

	for _, tt := range tests {
		if got := extractDomain(tt.input); got != tt.want {
			t.Errorf("extractDomain(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
