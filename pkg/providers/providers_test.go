package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

const okBody = `{"status":"ok","totalResults":2,"articles":[
	{"source":{"id":null,"name":"Wire"},"title":"First","description":"d1","url":"https://a.example/1","urlToImage":null,"publishedAt":"2025-01-02T03:04:05Z"},
	{"source":{"name":"Wire"},"title":"Second","url":"https://a.example/2"}
]}`

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func testClient() HTTPClient { return httpclient.NewRestyClient(5 * time.Second) }

func TestNewsAPIFetcherSendsKeyHeader(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "NewsAggregator/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, "20", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Empty(t, r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, okBody)
	})

	f := NewNewsAPIFetcher(testClient(), srv.URL, DefaultUserAgent)
	p, err := f.Fetch(context.Background(), Request{Country: "us", PageSize: 20, Language: "en", APIKey: "secret"})
	require.NoError(t, err)
	require.Len(t, p.Articles, 2)
	assert.Equal(t, "Wire", p.Articles[0].Source.Name)
	assert.Empty(t, p.Articles[0].URLToImage)
	assert.Equal(t, domain.SourceNewsAPI, f.Source())
}

func TestNewsAPIFetcherWithoutKey(t *testing.T) {
	f := NewNewsAPIFetcher(testClient(), "http://127.0.0.1:1", "")
	_, err := f.Fetch(context.Background(), Request{Country: "us"})
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestNewsAPIFetcherHTTPErrorCarriesCode(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid or incorrect."}`)
	})

	_, err := NewNewsAPIFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{APIKey: "bad"})
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindHTTP, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Equal(t, "apiKeyInvalid", fe.Code)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, domain.OutcomeHTTPError, fe.Outcome())
}

func TestNewsAPIFetcherUpstreamAndMalformed(t *testing.T) {
	body := `{"status":"error","code":"rateLimited","message":"You have made too many requests"}`
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	f := NewNewsAPIFetcher(testClient(), srv.URL, "")

	_, err := f.Fetch(context.Background(), Request{APIKey: "k"})
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, fe.Kind)
	assert.Equal(t, "rateLimited", fe.Code)

	body = "<html>oops</html>"
	_, err = f.Fetch(context.Background(), Request{APIKey: "k"})
	fe, ok = AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, fe.Kind)
}

func TestNewsAPIFetcherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewNewsAPIFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{APIKey: "k"})
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, fe.Kind)
	assert.Equal(t, domain.OutcomeTransportError, fe.Outcome())
}

func TestProbeUsesQueryKeyAndSingleArticle(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "k", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"status":"ok","articles":[]}`)
	})

	f := NewNewsAPIFetcher(testClient(), srv.URL, "")
	require.NoError(t, f.Probe(context.Background(), Request{Country: "gb", PageSize: 50, APIKey: "k"}))
	assert.ErrorIs(t, f.Probe(context.Background(), Request{}), ErrCredentialMissing)
}

func TestProxyFetcherOmitsKey(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Api-Key"))
		assert.Empty(t, r.URL.Query().Get("apiKey"))
		assert.Equal(t, "in", r.URL.Query().Get("country"))
		fmt.Fprint(w, okBody)
	})

	f := NewProxyFetcher(testClient(), srv.URL+"/api/news", "")
	require.True(t, f.Configured())
	p, err := f.Fetch(context.Background(), Request{Country: "in", PageSize: 10, APIKey: "secret"})
	require.NoError(t, err)
	assert.Len(t, p.Articles, 2)

	_, err = NewProxyFetcher(testClient(), "", "").Fetch(context.Background(), Request{})
	assert.Error(t, err)

	override, err := NewProxyFetcher(testClient(), "", "").Fetch(context.Background(), Request{Country: "in", Endpoint: srv.URL})
	require.NoError(t, err)
	assert.Len(t, override.Articles, 2)
}

func TestRelayFetcherWrapsUpstreamURL(t *testing.T) {
	var gotTarget string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("url")
		fmt.Fprint(w, okBody)
	})

	upstream := NewNewsAPIFetcher(testClient(), "https://newsapi.example/v2/top-headlines", "")
	f := NewRelayFetcher(testClient(), Relay{Source: domain.SourceCORSPrimary, Name: "test", Template: srv.URL + "/raw?url={url}"}, upstream)

	p, err := f.Fetch(context.Background(), Request{Country: "us", PageSize: 5, APIKey: "k y"})
	require.NoError(t, err)
	assert.Len(t, p.Articles, 2)

	u, err := url.Parse(gotTarget)
	require.NoError(t, err)
	assert.Equal(t, "newsapi.example", u.Host)
	assert.Equal(t, "k y", u.Query().Get("apiKey"))
	assert.Equal(t, "5", u.Query().Get("pageSize"))
}

func TestRelayFetcherMalformedIsEmptySuccess(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<!doctype html><p>relay page</p>")
	})

	f := NewRelayFetcher(testClient(), Relay{Source: domain.SourceCORSSecondary, Template: srv.URL + "/fetch/{url}"}, nil)
	p, err := f.Fetch(context.Background(), Request{APIKey: "k"})
	require.NoError(t, err)
	assert.True(t, p.Malformed)
	assert.Zero(t, p.Len())
}

func TestRelayFetcherStatusErrorAndBadTemplate(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"apiKeyInvalid"}`)
	})

	f := NewRelayFetcher(testClient(), Relay{Source: domain.SourceCORSTertiary, Template: srv.URL + "/?{url}"}, nil)
	_, err := f.Fetch(context.Background(), Request{APIKey: "k"})
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, fe.Kind)

	bad := NewRelayFetcher(testClient(), Relay{Source: domain.SourceCORSTertiary, Template: srv.URL}, nil)
	_, err = bad.Fetch(context.Background(), Request{APIKey: "k"})
	assert.Error(t, err)
}

func TestRSSJSONFetcher(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://feed.example/rss.xml", r.URL.Query().Get("rss_url"))
		fmt.Fprint(w, `{"status":"ok","items":[
			{"title":"A","link":"https://bbc.example/a","thumbnail":"","enclosure":{"link":"https://img.example/a.jpg","type":"image/jpeg"},"pubDate":"2025-01-02 03:04:05"},
			{"title":"B","link":"https://bbc.example/b","enclosure":[]}
		]}`)
	})

	p, err := NewRSSJSONFetcher(testClient(), srv.URL, "https://feed.example/rss.xml").Fetch(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "https://img.example/a.jpg", p.Items[0].Enclosure.Link)
	assert.Empty(t, p.Items[1].Enclosure.Link)
}

func TestRSSJSONFetcherRequiresOKAndItems(t *testing.T) {
	body := `{"status":"ok"}`
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	f := NewRSSJSONFetcher(testClient(), srv.URL, "")

	_, err := f.Fetch(context.Background(), Request{})
	assert.Error(t, err)

	body = `{"status":"pending","items":[]}`
	_, err = f.Fetch(context.Background(), Request{})
	assert.Error(t, err)

	body = `{"status":"ok","items":[]}`
	p, err := f.Fetch(context.Background(), Request{})
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Zero(t, p.Len())
}

func TestRSSFeedFetcherParsesFeed(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel><title>BBC News</title>
<item><title>Feed item</title><description>Body</description><link>https://bbc.example/1</link>
<pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate><media:thumbnail width="240" height="135" url="https://img.example/1.jpg"/></item>
</channel></rss>`)
	})

	f := NewRSSFeedFetcher(testClient(), srv.URL, DefaultUserAgent)
	p, err := f.Fetch(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Feed item", p.Items[0].Title)
	assert.Equal(t, "https://bbc.example/1", p.Items[0].Link)
	assert.Equal(t, "https://img.example/1.jpg", p.Items[0].Thumbnail)
	assert.Equal(t, "Mon, 06 Jan 2025 10:00:00 GMT", p.Items[0].PubDate)
}

func TestRSSFeedFetcherRejectsGarbage(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "definitely not a feed")
	})

	_, err := NewRSSFeedFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{})
	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, fe.Kind)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(testClient(), Endpoints{})

	for _, src := range []domain.Source{
		domain.SourceNewsAPI, domain.SourceRSS, domain.SourceRSSDirect,
		domain.SourceCORSPrimary, domain.SourceCORSSecondary, domain.SourceCORSTertiary,
	} {
		f, err := reg.FetcherFor(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, f.Source())
	}

	proxy, err := reg.FetcherFor(domain.SourceConfiguredProxy)
	require.NoError(t, err)
	assert.False(t, proxy.(*ProxyFetcher).Configured())
	_, err = reg.FetcherFor("")
	assert.Error(t, err)

	withProxy := DefaultRegistry(testClient(), Endpoints{ProxyURL: "http://localhost:3000/api/news"})
	proxy, err = withProxy.FetcherFor("CONFIGURED-PROXY")
	require.NoError(t, err)
	assert.True(t, proxy.(*ProxyFetcher).Configured())
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	err := fmt.Errorf("stage: %w", &FetchError{Source: domain.SourceNewsAPI, Kind: KindTransport, Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "newsapi request failed")
}

func TestDirectAndProxyRequireArticlesArray(t *testing.T) {
	for _, body := range []string{`null`, `{"status":"ok"}`, `{"status":"ok","totalResults":0}`} {
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, body)
		})

		_, err := NewNewsAPIFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{APIKey: "k"})
		fe, ok := AsFetchError(err)
		require.True(t, ok, body)
		assert.Equal(t, KindMalformed, fe.Kind)
		assert.Equal(t, domain.OutcomeMalformed, fe.Outcome())

		_, err = NewProxyFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{})
		fe, ok = AsFetchError(err)
		require.True(t, ok, body)
		assert.Equal(t, domain.SourceConfiguredProxy, fe.Source)
	}

	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"ok","totalResults":0,"articles":[]}`)
	})
	p, err := NewNewsAPIFetcher(testClient(), srv.URL, "").Fetch(context.Background(), Request{APIKey: "k"})
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

func TestTransportErrorHidesQueryKey(t *testing.T) {
	f := NewNewsAPIFetcher(testClient(), "http://127.0.0.1:1/v2/top-headlines", "")
	relay := NewRelayFetcher(testClient(), Relay{Source: domain.SourceCORSPrimary, Name: "p", Template: "http://127.0.0.1:1/raw?url={url}"}, f)

	_, err := relay.Fetch(context.Background(), Request{Country: "us", APIKey: "SECRETKEY123"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")

	err = f.Probe(context.Background(), Request{Country: "us", APIKey: "SECRETKEY123"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
}

func TestResponseSnippetKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("a", 511) + strings.Repeat("é", 10)
	got := responseSnippet([]byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 511)+"...", got)

	assert.Equal(t, "<empty>", responseSnippet([]byte("  ")))
	assert.Equal(t, "short", responseSnippet([]byte("short")))
}
