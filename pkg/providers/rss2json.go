package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// RSSJSONFetcher reads a fixed RSS feed through the rss2json conversion service.
type RSSJSONFetcher struct {
	client   HTTPClient
	endpoint string
	feedURL  string
}

// NewRSSJSONFetcher builds a fetcher for the rss2json service.
func NewRSSJSONFetcher(client HTTPClient, endpoint, feedURL string) *RSSJSONFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultRSSEndpoint
	}
	if strings.TrimSpace(feedURL) == "" {
		feedURL = DefaultRSSFeedURL
	}
	return &RSSJSONFetcher{client: client, endpoint: endpoint, feedURL: feedURL}
}

func (f *RSSJSONFetcher) Source() domain.Source {
	return domain.SourceRSS
}

// Fetch ignores the request parameters: the feed is fixed.
func (f *RSSJSONFetcher) Fetch(ctx context.Context, _ Request) (Payload, error) {
	target, err := buildURL(f.endpoint, url.Values{"rss_url": {f.feedURL}})
	if err != nil {
		return Payload{}, fmt.Errorf("rss2json url: %w", err)
	}

	body, err := fetchBody(ctx, f.client, domain.SourceRSS, target, headers("", nil))
	if err != nil {
		return Payload{}, err
	}

	p, err := decodePayload(domain.SourceRSS, body)
	if err != nil {
		return Payload{}, err
	}
	if !strings.EqualFold(p.Status, "ok") {
		return Payload{}, &FetchError{Source: domain.SourceRSS, Kind: KindUpstream, Message: fmt.Sprintf("feed status %q", p.Status)}
	}
	if p.Items == nil {
		return Payload{}, &FetchError{Source: domain.SourceRSS, Kind: KindUpstream, Message: "feed has no items list"}
	}
	return p, nil
}
