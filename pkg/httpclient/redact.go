package httpclient

import (
	"errors"
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// maxRedactDepth bounds how far URLs nested in query values (relay targets) are followed.
const maxRedactDepth = 3

var sensitiveParams = map[string]struct{}{
	"apikey":       {},
	"api_key":      {},
	"key":          {},
	"token":        {},
	"access_token": {},
}

// RedactURL masks credential query parameters, including those of URLs carried inside query values.
func RedactURL(raw string) string {
	out, _ := redactURL(raw, 0)
	return out
}

func redactURL(raw string, depth int) (string, []string) {
	if depth > maxRedactDepth {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw, nil
	}

	q := u.Query()
	var secrets []string
	for k, vs := range q {
		_, sensitive := sensitiveParams[strings.ToLower(k)]
		for i, v := range vs {
			if sensitive {
				if v != "" && v != redacted {
					secrets = append(secrets, v)
					vs[i] = redacted
				}
				continue
			}
			if nested, inner := redactURL(v, depth+1); len(inner) > 0 {
				vs[i] = nested
				secrets = append(secrets, inner...)
			}
		}
	}
	if len(secrets) == 0 {
		return raw, nil
	}
	u.RawQuery = q.Encode()
	return u.String(), secrets
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// RedactError strips the credentials carried by rawURL from err's text. The original error stays
// reachable through errors.Is and errors.As; a wrapped *url.Error gets its URL masked too.
func RedactError(err error, rawURL string) error {
	if err == nil {
		return nil
	}
	_, secrets := redactURL(rawURL, 0)
	if len(secrets) == 0 {
		return err
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = RedactURL(ue.URL)
	}

	msg := err.Error()
	for _, s := range secrets {
		msg = strings.ReplaceAll(msg, url.QueryEscape(s), redacted)
		msg = strings.ReplaceAll(msg, s, redacted)
	}
	return &redactedError{msg: msg, err: err}
}
