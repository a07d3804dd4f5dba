package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// ProxyFetcher calls a self-hosted pass-through that holds the key server side.
type ProxyFetcher struct {
	client    HTTPClient
	endpoint  string
	userAgent string
}

// NewProxyFetcher builds a fetcher for the configured proxy endpoint.
func NewProxyFetcher(client HTTPClient, endpoint, userAgent string) *ProxyFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &ProxyFetcher{client: client, endpoint: strings.TrimSpace(endpoint), userAgent: userAgent}
}

func (f *ProxyFetcher) Source() domain.Source {
	return domain.SourceConfiguredProxy
}

// Configured reports whether an endpoint was provided.
func (f *ProxyFetcher) Configured() bool { return f.endpoint != "" }

// Fetch forwards country and page size only; the proxy never receives the key.
// req.Endpoint, when set, replaces the configured endpoint.
func (f *ProxyFetcher) Fetch(ctx context.Context, req Request) (Payload, error) {
	endpoint := f.endpoint
	if e := strings.TrimSpace(req.Endpoint); e != "" {
		endpoint = e
	}
	if endpoint == "" {
		return Payload{}, fmt.Errorf("configured proxy endpoint is empty")
	}

	target, err := buildURL(endpoint, Request{Country: req.Country, PageSize: req.PageSize}.values(false))
	if err != nil {
		return Payload{}, fmt.Errorf("proxy url: %w", err)
	}

	body, err := fetchBody(ctx, f.client, domain.SourceConfiguredProxy, target, headers(f.userAgent, nil))
	if err != nil {
		return Payload{}, err
	}
	p, err := decodePayload(domain.SourceConfiguredProxy, body)
	return requireArticles(domain.SourceConfiguredProxy, p, err)
}
