package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

const errBodySnippet = 256

// httpPublisher posts the encoded event to a webhook.
type httpPublisher struct {
	id     string
	cfg    HTTPConfig
	client httpclient.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, client httpclient.Client, log Logger) (Publisher, error) {
	if cfg.HTTP == nil || cfg.HTTP.URL == "" {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	if client == nil {
		client = httpclient.NewRestyClient(cfg.HTTP.Timeout)
	}
	return &httpPublisher{id: cfg.ID, cfg: *cfg.HTTP, client: client, log: ensureLogger(log)}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event as JSON. Any non-2xx answer is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"X-Event-Type": evt.Type,
		"X-Event-Id":   evt.ID,
	}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.client.Do(ctx, p.cfg.Method, p.cfg.URL, headers, body)
	if err != nil {
		return fmt.Errorf("http publisher %s: %w", p.id, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > errBodySnippet {
			snippet = snippet[:errBodySnippet]
		}
		return fmt.Errorf("http publisher %s: status %d body: %s", p.id, resp.StatusCode(), snippet)
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": p.id,
		"event_id":     evt.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func (p *httpPublisher) Close() error { return nil }
