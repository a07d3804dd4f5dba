package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a publisher type. A later call for the same type wins.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

func (r *registry) PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires the queue publishers and an HTTP publisher sending through client.
// A nil client gets a resty client per publisher, sized by its configured timeout.
func DefaultRegistry(client httpclient.Client) Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP: func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
			return newHTTPPublisher(ctx, cfg, client, log)
		},
		TypeQueue: newQueuePublisher,
	})
}

// BuildAll instantiates the enabled publishers. Publishers built before a failure are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}
	log = ensureLogger(log)

	var pubs []Publisher
	for _, cfg := range Enabled(cfgs) {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			_ = CloseAll(pubs)
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		log.InfoObj("publisher ready", "publisher_ready", map[string]any{
			"publisher_id": pub.ID(),
			"type":         pub.Type(),
		})
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// Open loads the publishers file at path and builds its enabled entries with the default registry.
func Open(ctx context.Context, path string, client httpclient.Client, log Logger) ([]Publisher, error) {
	cfgs, err := LoadConfigs(path)
	if err != nil {
		return nil, err
	}
	return BuildAll(ctx, DefaultRegistry(client), cfgs, log)
}
