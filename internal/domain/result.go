package domain

import "slices"

// Source identifies the stage or upstream that produced (or failed to produce) a batch.
type Source string

const (
	SourcePrecheck        Source = "precheck"
	SourceConfiguredProxy Source = "configured-proxy"
	SourceNewsAPI         Source = "newsapi"
	SourceCORSPrimary     Source = "cors-primary"
	SourceCORSSecondary   Source = "cors-secondary"
	SourceCORSTertiary    Source = "cors-tertiary"
	SourceRSS             Source = "rss"
	SourceRSSDirect       Source = "rss-direct"
	SourceBundle          Source = "bundle"
	SourceMock            Source = "mock"
)

// Outcome classifies a single network attempt.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeHTTPError      Outcome = "http-error"
	OutcomeTransportError Outcome = "transport-error"
	OutcomeMalformed      Outcome = "malformed-response"
	OutcomeUpstreamError  Outcome = "upstream-error"
	OutcomeSkipped        Outcome = "skipped"
)

// Attempt records what one stage did during a fetch cycle.
type Attempt struct {
	Source     Source  `json:"source"`
	Outcome    Outcome `json:"outcome"`
	StatusCode int     `json:"status_code,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	Articles   int     `json:"articles,omitempty"`
}

// Reason explains a terminal failure.
type Reason string

const (
	ReasonCredentialMissing Reason = "credential-missing"
	ReasonInvalidCredential Reason = "invalid-credential"
	ReasonRateLimited       Reason = "rate-limited"
	ReasonUnknown           Reason = "unknown"
)

// FetchResult is the outcome of one aggregation cycle. It is built once and never mutated.
type FetchResult struct {
	ok       bool
	articles []Article
	source   Source
	message  string
	reason   Reason
	cause    error
	attempts []Attempt
}

// Ok builds a successful result.
func Ok(articles []Article, source Source, message string, attempts []Attempt) FetchResult {
	return FetchResult{
		ok:       true,
		articles: slices.Clone(articles),
		source:   source,
		message:  message,
		attempts: slices.Clone(attempts),
	}
}

// Fail builds a terminal failure.
func Fail(reason Reason, message string, cause error, attempts []Attempt) FetchResult {
	return FetchResult{
		reason:   reason,
		message:  message,
		cause:    cause,
		attempts: slices.Clone(attempts),
	}
}

func (r FetchResult) IsOK() bool      { return r.ok }
func (r FetchResult) Source() Source  { return r.source }
func (r FetchResult) Message() string { return r.message }
func (r FetchResult) Reason() Reason  { return r.reason }

// Cause returns the error that was classified into Reason. Nil for successful results.
func (r FetchResult) Cause() error { return r.cause }

// Articles returns a copy of the batch.
func (r FetchResult) Articles() []Article { return slices.Clone(r.articles) }

// Attempts returns a copy of the per-stage trail.
func (r FetchResult) Attempts() []Attempt { return slices.Clone(r.attempts) }
