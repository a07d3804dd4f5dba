// Package crawler fills placeholder article fields from the linked pages' meta tags.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/logger"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

const (
	maxHTMLBodyBytes  = 1 << 20 // 1 MiB
	maxArticleWorkers = 10
	errSnippetBytes   = 256
)

// Scraper enriches articles whose image or description is still a placeholder.
type Scraper struct {
	client    httpclient.Client
	log       logger.Logger
	delay     time.Duration
	userAgent string
}

// NewScraper creates a Scraper. delay spaces out page requests across all workers; zero disables it.
func NewScraper(client httpclient.Client, log logger.Logger, delay time.Duration, userAgent string) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = providers.DefaultUserAgent
	}
	return &Scraper{client: client, log: logger.Ensure(log), delay: delay, userAgent: userAgent}
}

// needsEnrichment reports whether a can be improved: it links somewhere real and still
// carries a placeholder image or description.
func needsEnrichment(a domain.Article) bool {
	if !a.HasURL() || !strings.HasPrefix(a.URL, "http") {
		return false
	}
	return a.ImageURL == domain.DefaultImageURL || a.Description == domain.DefaultDescription
}

// Enrich returns a copy of articles with placeholder images and descriptions replaced by the
// page's og:image and og:description. Failures keep the original article; partial results
// are returned when ctx is cancelled.
func (s *Scraper) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	jobs := make([]int, 0, len(articles))
	for i, a := range articles {
		if needsEnrichment(a) {
			jobs = append(jobs, i)
		}
	}
	if len(jobs) == 0 {
		return out
	}

	workerCount := min(len(jobs), maxArticleWorkers)

	var limiter <-chan time.Time
	if s.delay > 0 {
		ticker := time.NewTicker(s.delay)
		defer ticker.Stop()
		limiter = ticker.C
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := range workerCount {
		wg.Add(1)
		go s.articleWorker(ctx, articles, limiter, jobCh, out, &wg, workerID)
	}

feed:
	for _, idx := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- idx:
		}
	}
	close(jobCh)

	wg.Wait()

	s.log.DebugObj("enrichment finished", "enrich_done", map[string]any{
		"candidates": len(jobs),
		"workers":    workerCount,
	})
	return out
}

// articleWorker scrapes the pages handed to it, waiting on the limiter before each request.
func (s *Scraper) articleWorker(
	ctx context.Context,
	articles []domain.Article,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.Article,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		art := articles[idx]
		enriched, err := s.fetchAndParse(ctx, art, workerID)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"worker_id":  workerID,
				"article_id": art.ID,
				"url":        art.URL,
				"error":      err,
			})
			continue
		}
		out[idx] = enriched
	}
}

// fetchAndParse fetches the article page and applies its meta tags to the placeholder fields.
func (s *Scraper) fetchAndParse(ctx context.Context, art domain.Article, workerID int) (domain.Article, error) {
	s.log.DebugObj("scraping article metadata", "scrape_start", map[string]any{
		"worker_id": workerID,
		"url":       art.URL,
	})

	resp, err := s.client.Get(ctx, art.URL, map[string]string{
		"User-Agent": s.userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > errSnippetBytes {
			snippet = snippet[:errSnippetBytes]
		}
		return art, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"worker_id": workerID,
			"url":       art.URL,
			"original":  len(body),
			"kept":      maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}

	updated := art
	if art.Description == domain.DefaultDescription && meta.Description != "" {
		updated.Description = meta.Description
	}
	if art.ImageURL == domain.DefaultImageURL && meta.ImageURL != "" {
		updated.ImageURL = resolveURL(meta.ImageURL, art.URL)
	}
	return updated, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Description string
	ImageURL    string
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
			extract(`meta[name="twitter:description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[property="og:image:url"]`),
			extract(`meta[name="twitter:image"]`),
		),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(parsed).String()
}
