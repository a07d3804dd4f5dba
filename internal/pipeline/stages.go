package pipeline

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

type verdict int

const (
	verdictContinue verdict = iota
	verdictOK
	verdictFail
)

// stageResult is what a stage hands back to Run: keep going, or stop with result.
type stageResult struct {
	verdict verdict
	result  domain.FetchResult
}

func next() stageResult { return stageResult{verdict: verdictContinue} }

type stage struct {
	name string
	run  func(ctx context.Context, c *cycle) stageResult
}

// prober is implemented by fetchers that can validate a credential cheaply.
type prober interface {
	Probe(ctx context.Context, req providers.Request) error
}

var relayMessages = map[domain.Source]string{
	domain.SourceCORSPrimary:   "Loaded %d real-time news articles via CORS proxy",
	domain.SourceCORSSecondary: "Loaded %d real-time news articles via secondary CORS proxy",
	domain.SourceCORSTertiary:  "Loaded %d real-time news via tertiary CORS proxy",
}

// stages returns the chain in execution order.
func (o *Orchestrator) stages() []stage {
	out := []stage{
		{name: "precondition", run: o.precondition},
		{name: string(domain.SourcePrecheck), run: o.precheck},
		{name: string(domain.SourceConfiguredProxy), run: o.configuredProxy},
		{name: string(domain.SourceNewsAPI), run: o.direct},
	}
	for _, src := range o.settings.Relays {
		out = append(out, stage{name: string(src), run: o.relay(src)})
	}
	out = append(out, stage{name: string(domain.SourceRSS), run: o.feed(domain.SourceRSS, "Loaded %d articles from BBC RSS feed (NewsAPI failed)")})
	if o.settings.DirectFeed {
		out = append(out, stage{name: string(domain.SourceRSSDirect), run: o.feed(domain.SourceRSSDirect, "Loaded %d articles from the BBC feed directly (NewsAPI failed)")})
	}
	return out
}

func (o *Orchestrator) precondition(_ context.Context, c *cycle) stageResult {
	if c.opts.ProxyURL != "" || c.hasKey() {
		return next()
	}

	o.log.WarnObj("no proxy endpoint and no api key configured", "precondition_failed", nil)
	return stageResult{
		verdict: verdictFail,
		result:  domain.Fail(domain.ReasonCredentialMissing, MessageCredentialMissing, providers.ErrCredentialMissing, c.attempts),
	}
}

// precheck probes the credential. Its outcome is recorded but never changes the flow.
func (o *Orchestrator) precheck(ctx context.Context, c *cycle) stageResult {
	if !o.settings.Precheck || !c.hasKey() {
		return next()
	}

	f, err := o.registry.FetcherFor(domain.SourceNewsAPI)
	if err != nil {
		return next()
	}
	p, ok := f.(prober)
	if !ok {
		return next()
	}

	callCtx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	if err := p.Probe(callCtx, c.req); err != nil {
		c.record(domain.SourcePrecheck, providers.Payload{}, err)
		o.log.WarnObj("api key precheck failed, continuing", "precheck_failed", map[string]any{
			"source": domain.SourcePrecheck,
			"status": statusOf(err),
			"error":  err,
		})
		return next()
	}

	c.attempts = append(c.attempts, domain.Attempt{Source: domain.SourcePrecheck, Outcome: domain.OutcomeSuccess})
	o.log.DebugObj("api key precheck passed", "precheck_ok", nil)
	return next()
}

func (o *Orchestrator) configuredProxy(ctx context.Context, c *cycle) stageResult {
	if c.opts.ProxyURL == "" {
		return next()
	}

	req := c.req
	req.APIKey = ""
	req.Endpoint = c.opts.ProxyURL

	p, err := o.fetchFrom(ctx, c, domain.SourceConfiguredProxy, req)
	if err != nil {
		return next()
	}
	articles := o.normalizePayload(c, p)
	return o.succeed(c, domain.SourceConfiguredProxy, articles, fmt.Sprintf("Loaded %d real-time news via configured proxy", len(articles)))
}

// direct calls the upstream with the key in a header. Its failure is the cause classified
// at the end of the chain.
func (o *Orchestrator) direct(ctx context.Context, c *cycle) stageResult {
	p, err := o.fetchFrom(ctx, c, domain.SourceNewsAPI, c.req)
	if err != nil {
		c.cause = err
		return next()
	}
	articles := o.normalizePayload(c, p)
	return o.succeed(c, domain.SourceNewsAPI, articles, fmt.Sprintf("Loaded %d real-time news articles from NewsAPI.org", len(articles)))
}

func (o *Orchestrator) relay(source domain.Source) func(context.Context, *cycle) stageResult {
	format, ok := relayMessages[source]
	if !ok {
		format = "Loaded %d real-time news articles via " + string(source)
	}

	return func(ctx context.Context, c *cycle) stageResult {
		if !c.hasKey() {
			return next()
		}

		p, err := o.fetchFrom(ctx, c, source, c.req)
		if err != nil {
			return next()
		}
		articles := o.normalizePayload(c, p)
		return o.succeed(c, source, articles, fmt.Sprintf(format, len(articles)))
	}
}

func (o *Orchestrator) feed(source domain.Source, format string) func(context.Context, *cycle) stageResult {
	return func(ctx context.Context, c *cycle) stageResult {
		p, err := o.fetchFrom(ctx, c, source, c.req)
		if err != nil {
			return next()
		}
		articles := o.normalizePayload(c, p)
		return o.succeed(c, source, articles, fmt.Sprintf(format, len(articles)))
	}
}
