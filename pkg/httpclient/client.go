package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the minimal HTTP surface fetchers, the enricher and publishers depend on.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient builds a Client with the given per-request timeout. No retries are configured;
// callers decide what to do after a failure.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &restyClient{rc: rc}
}

// NewFromResty wraps a preconfigured resty client.
func NewFromResty(rc *resty.Client) Client {
	if rc == nil {
		rc = resty.New()
	}
	return &restyClient{rc: rc}
}

// Get issues a GET request. Non-2xx statuses are returned as responses, not errors.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

// Do issues a request with an optional body. Credentials in url never reach the returned error.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.rc.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, RedactError(fmt.Errorf("%s %s: %w", method, RedactURL(url), err), url)
	}
	return resp, nil
}
