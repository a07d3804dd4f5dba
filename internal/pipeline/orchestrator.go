// Package pipeline runs the headline fallback chain and the category bundle merge.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/logger"
	"github.com/Adda-Baaj/samvad-headlines/internal/normalize"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
)

// Options are the parameters of one fetch cycle.
type Options struct {
	Country  string
	PageSize int
	Language string
	// ProxyURL enables the configured proxy stage when set.
	ProxyURL string
	// APIKey may be empty. The sample placeholder counts as empty.
	APIKey string
}

func (o Options) apiKey() string {
	key := strings.TrimSpace(o.APIKey)
	if key == providers.APIKeyPlaceholder {
		return ""
	}
	return key
}

func (o Options) request() providers.Request {
	return providers.Request{
		Country:  strings.TrimSpace(o.Country),
		PageSize: o.PageSize,
		Language: strings.TrimSpace(o.Language),
		APIKey:   o.apiKey(),
	}
}

// Settings tune the orchestrator.
type Settings struct {
	// Timeout bounds every single network call.
	Timeout time.Duration
	// Precheck enables the best-effort credential probe.
	Precheck bool
	// Relays lists the relay stages in the order they are tried.
	Relays []domain.Source
	// FeedSourceName is stamped on every article produced by a feed stage.
	FeedSourceName string
	// DirectFeed adds the direct feed stage after rss2json.
	DirectFeed bool
	// BundleConcurrency caps the category fetches in flight.
	BundleConcurrency int
}

func (s Settings) withDefaults() Settings {
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.Relays == nil {
		s.Relays = []domain.Source{domain.SourceCORSPrimary, domain.SourceCORSSecondary, domain.SourceCORSTertiary}
	}
	if strings.TrimSpace(s.FeedSourceName) == "" {
		s.FeedSourceName = providers.DefaultRSSSourceName
	}
	if s.BundleConcurrency < 1 {
		s.BundleConcurrency = defaultConcurrency
	}
	return s
}

// Orchestrator walks the fallback chain and merges category bundles.
type Orchestrator struct {
	registry providers.Registry
	log      logger.Logger
	settings Settings
	now      func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the clock used for missing publication dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an orchestrator over the given fetcher registry.
func New(registry providers.Registry, log logger.Logger, settings Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		log:      logger.Ensure(log),
		settings: settings.withDefaults(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// cycle is the mutable state of one Run.
type cycle struct {
	opts     Options
	req      providers.Request
	now      time.Time
	attempts []domain.Attempt
	// cause is the direct upstream failure; it is the one classified at the end of the chain.
	cause error
}

func (c *cycle) hasKey() bool { return c.req.APIKey != "" }

func (c *cycle) record(source domain.Source, p providers.Payload, err error) {
	a := domain.Attempt{Source: source}
	switch {
	case err == nil && p.Malformed:
		a.Outcome = domain.OutcomeMalformed
		a.Detail = "non-JSON body treated as empty batch"
	case err == nil:
		a.Outcome = domain.OutcomeSuccess
		a.Articles = p.Len()
	case errors.Is(err, providers.ErrCredentialMissing):
		a.Outcome = domain.OutcomeSkipped
		a.Detail = err.Error()
	default:
		a.Outcome = domain.OutcomeTransportError
		a.Detail = err.Error()
		if fe, ok := providers.AsFetchError(err); ok {
			a.Outcome = fe.Outcome()
			a.StatusCode = fe.StatusCode
		}
	}
	c.attempts = append(c.attempts, a)
}

// Run executes the fallback chain once. It never returns an error: every failure ends up
// classified in a Fail result.
func (o *Orchestrator) Run(ctx context.Context, opts Options) domain.FetchResult {
	c := &cycle{opts: opts, req: opts.request(), now: o.now()}

	for _, st := range o.stages() {
		if ctx.Err() != nil {
			break
		}
		res := st.run(ctx, c)
		if res.verdict != verdictContinue {
			return res.result
		}
	}
	return o.terminal(ctx, c)
}

// fetchFrom runs the fetcher registered for source under the per-call timeout and records the attempt.
func (o *Orchestrator) fetchFrom(ctx context.Context, c *cycle, source domain.Source, req providers.Request) (providers.Payload, error) {
	f, err := o.registry.FetcherFor(source)
	if err != nil {
		c.attempts = append(c.attempts, domain.Attempt{Source: source, Outcome: domain.OutcomeSkipped, Detail: err.Error()})
		o.log.WarnObj("no fetcher for stage", "stage_unavailable", map[string]any{
			"source": source,
			"error":  err,
		})
		return providers.Payload{}, fmt.Errorf("stage %s: %w", source, err)
	}

	o.log.DebugObj("stage started", "stage_start", map[string]any{"source": source})

	callCtx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	p, err := f.Fetch(callCtx, req)
	c.record(source, p, err)
	if err != nil {
		o.log.WarnObj("stage failed", "stage_failed", map[string]any{
			"source": source,
			"status": statusOf(err),
			"error":  err,
		})
		return providers.Payload{}, err
	}
	return p, nil
}

func (o *Orchestrator) succeed(c *cycle, source domain.Source, articles []domain.Article, message string) stageResult {
	o.log.InfoObj("stage succeeded", "stage_succeeded", map[string]any{
		"source":   source,
		"status":   "ok",
		"articles": len(articles),
	})
	return stageResult{
		verdict: verdictOK,
		result:  domain.Ok(articles, source, message, c.attempts),
	}
}

func (o *Orchestrator) terminal(ctx context.Context, c *cycle) domain.FetchResult {
	cause := c.cause
	if cause == nil {
		cause = ctx.Err()
	}
	reason, message := Classify(cause)

	o.log.ErrorObj("all headline sources failed", "fetch_failed", map[string]any{
		"reason":   reason,
		"attempts": len(c.attempts),
		"error":    cause,
	})
	return domain.Fail(reason, message, cause, c.attempts)
}

func statusOf(err error) int {
	if fe, ok := providers.AsFetchError(err); ok {
		return fe.StatusCode
	}
	return 0
}

// normalizePayload maps a batch; articles of one cycle share the cycle's fallback date.
func (o *Orchestrator) normalizePayload(c *cycle, p providers.Payload) []domain.Article {
	return normalize.Payload(p, o.settings.FeedSourceName, c.now)
}
