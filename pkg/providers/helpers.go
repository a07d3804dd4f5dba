package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// headers builds the request headers shared by every fetcher.
func headers(userAgent string, extra map[string]string) map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		h["User-Agent"] = ua
	}
	for k, v := range extra {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			h[k] = v
		}
	}
	return h
}

// buildURL merges q into the query string of base.
func buildURL(base string, q url.Values) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", base)
	}

	merged := u.Query()
	for k, vs := range q {
		for i, v := range vs {
			if i == 0 {
				merged.Set(k, v)
				continue
			}
			merged.Add(k, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}

// wrapURL substitutes the escaped target into a relay template.
func wrapURL(template, target string) string {
	return strings.ReplaceAll(template, RelayURLPlaceholder, url.QueryEscape(target))
}

// fetchBody performs a GET and returns the body of a 200 response. Anything else becomes a *FetchError.
func fetchBody(ctx context.Context, client HTTPClient, source domain.Source, rawURL string, hdrs map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, rawURL, hdrs)
	if err != nil {
		return nil, &FetchError{Source: source, Kind: KindTransport, Err: httpclient.RedactError(err, rawURL)}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		fe := &FetchError{
			Source:     source,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode(),
			Body:       responseSnippet(body),
		}
		var p Payload
		if json.Unmarshal(body, &p) == nil {
			fe.Code = p.Code
			fe.Message = p.Message
		}
		return nil, fe
	}
	return body, nil
}

// decodePayload decodes a JSON body and rejects payloads whose status is "error".
func decodePayload(source domain.Source, body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, &FetchError{
			Source: source,
			Kind:   KindMalformed,
			Body:   responseSnippet(body),
			Err:    fmt.Errorf("decode json: %w", err),
		}
	}
	if strings.EqualFold(p.Status, "error") {
		return Payload{}, &FetchError{
			Source:     source,
			Kind:       KindUpstream,
			StatusCode: http.StatusOK,
			Code:       p.Code,
			Message:    p.Message,
		}
	}
	return p, nil
}

// requireArticles rejects a News API shaped payload without an articles array, such as a bare
// `null` or `{"status":"ok"}` body.
func requireArticles(source domain.Source, p Payload, err error) (Payload, error) {
	if err != nil {
		return Payload{}, err
	}
	if p.Articles == nil {
		return Payload{}, &FetchError{
			Source: source,
			Kind:   KindMalformed,
			Err:    fmt.Errorf("response has no articles array"),
		}
	}
	return p, nil
}
