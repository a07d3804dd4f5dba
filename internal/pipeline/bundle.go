package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/normalize"
)

const minPerCategory = 5

// Aggregate fetches every category concurrently and merges the batches in the order the
// categories were given, dropping duplicates, until opts.PageSize articles are collected.
// A failed category contributes nothing. The result is never nil.
func (o *Orchestrator) Aggregate(ctx context.Context, opts Options, categories []string) []domain.Article {
	return o.aggregate(ctx, opts, o.bundleCategories(categories))
}

func (o *Orchestrator) aggregate(ctx context.Context, opts Options, cats []domain.Category) []domain.Article {
	total := opts.PageSize
	if total <= 0 || len(cats) == 0 {
		return []domain.Article{}
	}

	f, err := o.registry.FetcherFor(domain.SourceNewsAPI)
	if err != nil {
		o.log.WarnObj("bundle has no upstream fetcher", "bundle_unavailable", map[string]any{"error": err})
		return []domain.Article{}
	}

	perCategory := max(minPerCategory, (total+len(cats)-1)/len(cats))
	now := o.now()
	base := opts.request()

	// Each goroutine owns its slot; the merge reads them after Wait.
	batches := make([][]domain.Article, len(cats))

	var g errgroup.Group
	g.SetLimit(o.settings.BundleConcurrency)

	for i, cat := range cats {
		g.Go(func() error {
			req := base
			req.PageSize = perCategory
			req.Category = cat

			callCtx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
			defer cancel()

			p, err := f.Fetch(callCtx, req)
			if err != nil {
				o.log.WarnObj("bundle category fetch failed", "bundle_category_failed", map[string]any{
					"category": cat,
					"status":   statusOf(err),
					"error":    err,
				})
				return nil
			}
			batches[i] = normalize.Payload(p, o.settings.FeedSourceName, now)
			o.log.DebugObj("bundle category fetched", "bundle_category_ok", map[string]any{
				"category": cat,
				"articles": len(batches[i]),
			})
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeBatches(batches, total)
	o.log.InfoObj("bundle merged", "bundle_merged", map[string]any{
		"categories": len(cats),
		"articles":   len(merged),
	})
	return merged
}

// RunBundle wraps Aggregate in a result so bundle mode can stand in for Run.
func (o *Orchestrator) RunBundle(ctx context.Context, opts Options, categories []string) domain.FetchResult {
	cats := o.bundleCategories(categories)
	articles := o.aggregate(ctx, opts, cats)
	attempts := []domain.Attempt{{Source: domain.SourceBundle, Outcome: domain.OutcomeSuccess, Articles: len(articles)}}
	return domain.Ok(articles, domain.SourceBundle, fmt.Sprintf("Loaded %d articles across %d categories", len(articles), len(cats)), attempts)
}

// bundleCategories parses names, dropping unknown and repeated ones.
func (o *Orchestrator) bundleCategories(names []string) []domain.Category {
	out := make([]domain.Category, 0, len(names))
	seen := make(map[domain.Category]struct{}, len(names))
	for _, name := range names {
		cat, ok := domain.ParseCategory(name)
		if !ok {
			o.log.WarnObj("ignoring unknown bundle category", "bundle_category_unknown", map[string]any{"category": name})
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out
}

// mergeBatches concatenates batches in order, keeps the first article per dedup key and
// stops at limit. Ids are reassigned 1..n.
func mergeBatches(batches [][]domain.Article, limit int) []domain.Article {
	out := make([]domain.Article, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, batch := range batches {
		for _, a := range batch {
			if len(out) == limit {
				return domain.Renumber(out)
			}
			key := a.DedupKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, a)
		}
	}
	return domain.Renumber(out)
}
