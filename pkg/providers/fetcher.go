package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

type fetcherRegistry struct {
	fetchers map[domain.Source]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
// A later fetcher for the same source replaces an earlier one.
func NewFetcherRegistry(fetchers ...Fetcher) Registry {
	reg := &fetcherRegistry{
		fetchers: make(map[domain.Source]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[normalizeSource(f.Source())] = f
	}

	return reg
}

// FetcherFor selects the fetcher registered for the given source.
func (r *fetcherRegistry) FetcherFor(source domain.Source) (Fetcher, error) {
	if source == "" {
		return nil, fmt.Errorf("source is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[normalizeSource(source)]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for source %q", source)
}

func normalizeSource(s domain.Source) domain.Source {
	return domain.Source(strings.ToLower(strings.TrimSpace(string(s))))
}

// DefaultHTTPClient returns a tuned client for provider fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultRegistry wires the fetchers for every stage of the fallback chain.
// The proxy fetcher is always registered; without an endpoint it needs one per request.
func DefaultRegistry(client HTTPClient, ep Endpoints) Registry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	newsAPI := NewNewsAPIFetcher(client, ep.NewsAPIURL, ep.UserAgent)
	fetchers := []Fetcher{
		newsAPI,
		NewRSSJSONFetcher(client, ep.RSSEndpoint, ep.RSSFeedURL),
		NewRSSFeedFetcher(client, ep.RSSFeedURL, ep.UserAgent),
		NewProxyFetcher(client, ep.ProxyURL, ep.UserAgent),
	}

	relays := ep.Relays
	if relays == nil {
		relays = DefaultRelays()
	}
	for _, relay := range relays {
		fetchers = append(fetchers, NewRelayFetcher(client, relay, newsAPI))
	}

	return NewFetcherRegistry(fetchers...)
}
