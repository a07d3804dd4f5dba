// Package refresher re-runs the fetch cycle on a cron schedule and keeps the latest result.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/logger"
	"github.com/Adda-Baaj/samvad-headlines/internal/pipeline"
	"github.com/Adda-Baaj/samvad-headlines/pkg/publishers"
)

// DefaultSchedule refreshes every five minutes.
const DefaultSchedule = "@every 5m"

// Fetcher runs one fetch cycle. *pipeline.Orchestrator satisfies it.
type Fetcher interface {
	Run(ctx context.Context, opts pipeline.Options) domain.FetchResult
	RunBundle(ctx context.Context, opts pipeline.Options, categories []string) domain.FetchResult
}

// Enricher replaces placeholder fields of a batch. *crawler.Scraper satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// Config selects what each cycle fetches.
type Config struct {
	Schedule string
	Options  pipeline.Options
	// Categories switches the cycle to bundle mode when non-empty.
	Categories []string
}

// Refresher owns the refresh loop.
type Refresher struct {
	fetcher    Fetcher
	enricher   Enricher
	publishers []publishers.Publisher
	listener   func(domain.FetchResult)
	log        logger.Logger
	cfg        Config
	now        func() time.Time

	latest atomic.Pointer[domain.FetchResult]

	cycleMu sync.Mutex
	mu      sync.Mutex
	cron    *cron.Cron
}

// Option customises a Refresher.
type Option func(*Refresher)

func WithEnricher(e Enricher) Option {
	return func(r *Refresher) { r.enricher = e }
}

func WithPublishers(pubs ...publishers.Publisher) Option {
	return func(r *Refresher) { r.publishers = append(r.publishers, pubs...) }
}

// WithListener is called after every cycle with the result that became latest.
func WithListener(fn func(domain.FetchResult)) Option {
	return func(r *Refresher) { r.listener = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a refresher around fetcher.
func New(fetcher Fetcher, log logger.Logger, cfg Config, opts ...Option) (*Refresher, error) {
	if fetcher == nil {
		return nil, errors.New("refresher: fetcher is required")
	}
	cfg.Schedule = strings.TrimSpace(cfg.Schedule)
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("refresher: parse schedule %q: %w", cfg.Schedule, err)
	}

	r := &Refresher{
		fetcher: fetcher,
		log:     logger.Ensure(log),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Latest returns the result of the most recent cycle. ok is false before the first one.
func (r *Refresher) Latest() (domain.FetchResult, bool) {
	res := r.latest.Load()
	if res == nil {
		return domain.FetchResult{}, false
	}
	return *res, true
}

// Refresh runs one cycle, replaces the latest result and publishes a refresh event.
// Concurrent calls are serialised. Publishing failures are logged only.
func (r *Refresher) Refresh(ctx context.Context) domain.FetchResult {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	started := r.now()
	var res domain.FetchResult
	if len(r.cfg.Categories) > 0 {
		res = r.fetcher.RunBundle(ctx, r.cfg.Options, r.cfg.Categories)
	} else {
		res = r.fetcher.Run(ctx, r.cfg.Options)
	}

	if res.IsOK() && r.enricher != nil {
		enriched := r.enricher.Enrich(ctx, res.Articles())
		res = domain.Ok(enriched, res.Source(), res.Message(), res.Attempts())
	}

	r.latest.Store(&res)

	fields := map[string]any{
		"ok":          res.IsOK(),
		"source":      string(res.Source()),
		"articles":    len(res.Articles()),
		"duration_ms": r.now().Sub(started).Milliseconds(),
	}
	if !res.IsOK() {
		fields["reason"] = string(res.Reason())
	}
	r.log.InfoObj("refresh cycle finished", "refresh_done", fields)

	if len(r.publishers) > 0 {
		evt := publishers.NewRefreshEvent(res, r.now())
		if err := publishers.PublishAll(ctx, r.publishers, evt, r.log); err != nil {
			r.log.WarnObj("refresh event not delivered everywhere", "refresh_publish_failed", map[string]any{
				"event_id": evt.ID,
				"error":    err,
			})
		}
	}

	if r.listener != nil {
		r.listener(res)
	}
	return res
}

// Start schedules Refresh on the configured cron spec. ctx is handed to every scheduled cycle;
// cycles that would overlap a running one are skipped.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return errors.New("refresher: already started")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(r.cfg.Schedule, func() {
		if ctx.Err() != nil {
			return
		}
		r.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("refresher: schedule %q: %w", r.cfg.Schedule, err)
	}
	c.Start()
	r.cron = c

	r.log.InfoObj("refresher started", "refresher_started", map[string]any{
		"schedule": r.cfg.Schedule,
		"bundle":   len(r.cfg.Categories) > 0,
	})
	return nil
}

// Stop halts the schedule and waits for a running cycle to return. It is a no-op when not started.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.log.InfoObj("refresher stopped", "refresher_stopped", nil)
}
