package feeds

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// summarize derives a plain-text summary for a feed item. Full item content
// goes through go-readability; the description, or content readability could
// not handle, is reduced to its text. The result holds at most maxWords words.
func summarize(description, content, link string, maxWords int) string {
	text := ""
	if content != "" {
		text = readableText(content, link)
	}
	if text == "" {
		text = plainText(description)
	}
	if text == "" {
		text = plainText(content)
	}
	return truncateWords(text, maxWords)
}

// readableText extracts the main readable text of an HTML document.
func readableText(doc, link string) string {
	pageURL, err := url.Parse(link)
	if err != nil {
		pageURL = nil
	}
	article, err := readability.FromReader(strings.NewReader(doc), pageURL)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(article.TextContent), " ")
}

// plainText returns the text nodes of an HTML fragment joined by single
// spaces. Entities are decoded; script and style contents are dropped.
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
