// Package normalize converts upstream article shapes into domain.Article.
// Every function here is total: missing or broken fields fall back to defaults.
package normalize

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/samvad-headlines/internal/categorize"
	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Article maps a News API record at position index of its batch.
func Article(raw providers.RawArticle, index int, now time.Time) domain.Article {
	title := cleanText(raw.Title)
	description := cleanText(raw.Description)

	return domain.Article{
		ID:          index + 1,
		Title:       orDefault(title, domain.DefaultTitle),
		Description: orDefault(description, domain.DefaultDescription),
		URL:         orDefault(strings.TrimSpace(raw.URL), domain.DefaultURL),
		ImageURL:    orDefault(strings.TrimSpace(raw.URLToImage), domain.DefaultImageURL),
		SourceName:  orDefault(strings.TrimSpace(raw.Source.Name), domain.DefaultSourceName),
		PublishedAt: parseTime(raw.PublishedAt, now),
		Category:    categorize.Categorize(title, description),
	}
}

// Item maps a feed item; feeds carry no per-item source so sourceName is fixed by the caller.
func Item(item providers.RawItem, sourceName string, index int, now time.Time) domain.Article {
	title := cleanText(item.Title)
	description := cleanText(item.Description)

	image := strings.TrimSpace(item.Thumbnail)
	if image == "" && strings.HasPrefix(item.Enclosure.Type, "image") {
		image = strings.TrimSpace(item.Enclosure.Link)
	}

	return domain.Article{
		ID:          index + 1,
		Title:       orDefault(title, domain.DefaultTitle),
		Description: orDefault(description, domain.DefaultDescription),
		URL:         orDefault(strings.TrimSpace(item.Link), domain.DefaultURL),
		ImageURL:    orDefault(image, domain.DefaultImageURL),
		SourceName:  orDefault(strings.TrimSpace(sourceName), domain.DefaultSourceName),
		PublishedAt: parseTime(item.PubDate, now),
		Category:    categorize.Categorize(title, description),
	}
}

// Payload normalizes every record of a payload, articles first, with ids 1..n.
func Payload(p providers.Payload, feedSourceName string, now time.Time) []domain.Article {
	out := make([]domain.Article, 0, p.Len())
	for _, raw := range p.Articles {
		out = append(out, Article(raw, len(out), now))
	}
	for _, item := range p.Items {
		out = append(out, Item(item, feedSourceName, len(out), now))
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// parseTime tries the layouts seen across upstreams and falls back to now.
func parseTime(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// cleanText strips markup and collapses whitespace. Plain text is only trimmed.
func cleanText(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
