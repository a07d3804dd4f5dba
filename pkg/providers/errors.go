package providers

import (
	"errors"
	"fmt"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// ErrCredentialMissing is reported when a stage needs the API key and none is configured.
var ErrCredentialMissing = errors.New("news api key is not configured")

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindHTTP      ErrorKind = "http"
	KindUpstream  ErrorKind = "upstream"
	KindMalformed ErrorKind = "malformed"
)

// FetchError is the typed failure every fetcher returns.
type FetchError struct {
	Source     domain.Source
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s returned status %d body: %s", e.Source, e.StatusCode, e.Body)
	case KindUpstream:
		msg := e.Message
		if msg == "" {
			msg = "API Error"
		}
		if e.Code != "" {
			return fmt.Sprintf("%s api error [%s]: %s", e.Source, e.Code, msg)
		}
		return fmt.Sprintf("%s api error: %s", e.Source, msg)
	case KindMalformed:
		return fmt.Sprintf("%s returned malformed response: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Source, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Outcome maps the error kind onto the attempt outcome recorded in results.
func (e *FetchError) Outcome() domain.Outcome {
	switch e.Kind {
	case KindHTTP:
		return domain.OutcomeHTTPError
	case KindUpstream:
		return domain.OutcomeUpstreamError
	case KindMalformed:
		return domain.OutcomeMalformed
	default:
		return domain.OutcomeTransportError
	}
}

// AsFetchError unwraps err into a *FetchError when possible.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
