package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// NewsAPIFetcher calls the News API top-headlines endpoint directly.
type NewsAPIFetcher struct {
	client    HTTPClient
	baseURL   string
	userAgent string
}

// NewNewsAPIFetcher builds a fetcher for the upstream news API.
func NewNewsAPIFetcher(client HTTPClient, baseURL, userAgent string) *NewsAPIFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultNewsAPIURL
	}
	return &NewsAPIFetcher{client: client, baseURL: baseURL, userAgent: userAgent}
}

func (f *NewsAPIFetcher) Source() domain.Source {
	return domain.SourceNewsAPI
}

// Fetch retrieves headlines with the key sent in the X-Api-Key header.
func (f *NewsAPIFetcher) Fetch(ctx context.Context, req Request) (Payload, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return Payload{}, ErrCredentialMissing
	}

	target, err := buildURL(f.baseURL, req.values(false))
	if err != nil {
		return Payload{}, fmt.Errorf("newsapi url: %w", err)
	}

	body, err := fetchBody(ctx, f.client, domain.SourceNewsAPI, target, headers(f.userAgent, map[string]string{
		"X-Api-Key": req.APIKey,
	}))
	if err != nil {
		return Payload{}, err
	}
	p, err := decodePayload(domain.SourceNewsAPI, body)
	return requireArticles(domain.SourceNewsAPI, p, err)
}

// Probe issues a one-article request with the key in the query string to check that the key is accepted.
func (f *NewsAPIFetcher) Probe(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.APIKey) == "" {
		return ErrCredentialMissing
	}

	probe := Request{Country: req.Country, PageSize: 1, APIKey: req.APIKey}
	target, err := buildURL(f.baseURL, probe.values(true))
	if err != nil {
		return fmt.Errorf("newsapi probe url: %w", err)
	}

	body, err := fetchBody(ctx, f.client, domain.SourcePrecheck, target, headers(f.userAgent, nil))
	if err != nil {
		return err
	}
	p, err := decodePayload(domain.SourcePrecheck, body)
	if err != nil {
		return err
	}
	if !strings.EqualFold(p.Status, "ok") {
		return &FetchError{Source: domain.SourcePrecheck, Kind: KindUpstream, Message: fmt.Sprintf("unexpected status %q", p.Status)}
	}
	return nil
}

// UpstreamURL returns the direct request URL with the key embedded as a query parameter, as relays need it.
func (f *NewsAPIFetcher) UpstreamURL(req Request) (string, error) {
	return buildURL(f.baseURL, req.values(true))
}
