package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// RSSFeedFetcher downloads and parses the feed itself, without the conversion service.
type RSSFeedFetcher struct {
	client    HTTPClient
	feedURL   string
	userAgent string
}

// NewRSSFeedFetcher builds a direct feed fetcher.
func NewRSSFeedFetcher(client HTTPClient, feedURL, userAgent string) *RSSFeedFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if strings.TrimSpace(feedURL) == "" {
		feedURL = DefaultRSSFeedURL
	}
	return &RSSFeedFetcher{client: client, feedURL: feedURL, userAgent: userAgent}
}

func (f *RSSFeedFetcher) Source() domain.Source {
	return domain.SourceRSSDirect
}

// Fetch parses RSS/Atom with gofeed and maps entries onto rss2json shaped items.
func (f *RSSFeedFetcher) Fetch(ctx context.Context, _ Request) (Payload, error) {
	body, err := fetchBody(ctx, f.client, domain.SourceRSSDirect, f.feedURL, headers(f.userAgent, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	}))
	if err != nil {
		return Payload{}, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return Payload{}, &FetchError{
			Source: domain.SourceRSSDirect,
			Kind:   KindMalformed,
			Body:   responseSnippet(body),
			Err:    fmt.Errorf("parse feed: %w", err),
		}
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, RawItem{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			Thumbnail:   feedThumbnail(it),
			PubDate:     it.Published,
		})
	}
	return Payload{Status: "ok", Items: items}, nil
}

// feedThumbnail picks the item image, falling back to media:thumbnail and then enclosures.
func feedThumbnail(it *gofeed.Item) string {
	if it.Image != nil && strings.TrimSpace(it.Image.URL) != "" {
		return strings.TrimSpace(it.Image.URL)
	}
	if media, ok := it.Extensions["media"]; ok {
		for _, name := range []string{"thumbnail", "content"} {
			for _, e := range media[name] {
				if u := strings.TrimSpace(e.Attrs["url"]); u != "" {
					return u
				}
			}
		}
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && strings.TrimSpace(enc.URL) != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	return ""
}
