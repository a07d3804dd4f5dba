package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// RelayFetcher fetches the direct upstream URL through a public CORS relay.
type RelayFetcher struct {
	client   HTTPClient
	relay    Relay
	upstream *NewsAPIFetcher
}

// NewRelayFetcher builds a fetcher for one relay wrapping the given upstream.
func NewRelayFetcher(client HTTPClient, relay Relay, upstream *NewsAPIFetcher) *RelayFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if upstream == nil {
		upstream = NewNewsAPIFetcher(client, "", "")
	}
	return &RelayFetcher{client: client, relay: relay, upstream: upstream}
}

func (f *RelayFetcher) Source() domain.Source {
	return f.relay.Source
}

// Name returns the relay's human name.
func (f *RelayFetcher) Name() string { return f.relay.Name }

// Fetch sends the keyed upstream URL through the relay. A 200 response whose body is not JSON
// is returned as an empty payload flagged Malformed instead of an error.
func (f *RelayFetcher) Fetch(ctx context.Context, req Request) (Payload, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return Payload{}, ErrCredentialMissing
	}
	if !strings.Contains(f.relay.Template, RelayURLPlaceholder) {
		return Payload{}, fmt.Errorf("relay %s template has no %s placeholder", f.relay.Name, RelayURLPlaceholder)
	}

	upstream, err := f.upstream.UpstreamURL(req)
	if err != nil {
		return Payload{}, fmt.Errorf("relay %s upstream url: %w", f.relay.Name, err)
	}

	body, err := fetchBody(ctx, f.client, f.relay.Source, wrapURL(f.relay.Template, upstream), headers("", nil))
	if err != nil {
		return Payload{}, err
	}

	p, err := decodePayload(f.relay.Source, body)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.Kind == KindMalformed {
			return Payload{Malformed: true}, nil
		}
		return Payload{}, err
	}
	return p, nil
}
