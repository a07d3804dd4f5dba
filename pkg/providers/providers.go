package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
)

// HTTPClient is the client abstraction shared by all fetchers.
type HTTPClient = httpclient.Client

// Fetcher retrieves one raw batch from a single upstream.
type Fetcher interface {
	Source() domain.Source
	Fetch(ctx context.Context, req Request) (Payload, error)
}

// Registry resolves the fetcher that serves a given source.
type Registry interface {
	FetcherFor(source domain.Source) (Fetcher, error)
}

// Request carries the query parameters of a headline fetch.
type Request struct {
	Country  string
	PageSize int
	Language string
	Category domain.Category
	APIKey   string

	// Endpoint overrides the configured endpoint of the proxy fetcher for one call.
	Endpoint string
}

// values renders the request as upstream query parameters. The key is only included when withKey is set.
func (r Request) values(withKey bool) url.Values {
	q := url.Values{}
	if c := strings.TrimSpace(r.Country); c != "" {
		q.Set("country", c)
	}
	if r.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(r.PageSize))
	}
	if l := strings.TrimSpace(r.Language); l != "" {
		q.Set("language", l)
	}
	if r.Category != "" {
		q.Set("category", string(r.Category))
	}
	if withKey && r.APIKey != "" {
		q.Set("apiKey", r.APIKey)
	}
	return q
}

// Payload is the decoded body of a successful fetch. News API style sources fill Articles,
// feed style sources fill Items.
type Payload struct {
	Status   string       `json:"status"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message,omitempty"`
	Articles []RawArticle `json:"articles"`
	Items    []RawItem    `json:"items"`

	// Malformed is set when a relay answered 200 with a body that was not JSON.
	Malformed bool `json:"-"`
}

// Len returns the number of records in the payload.
func (p Payload) Len() int { return len(p.Articles) + len(p.Items) }

// RawArticle mirrors a News API article record.
type RawArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// RawItem mirrors an rss2json feed item.
type RawItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Thumbnail   string    `json:"thumbnail"`
	PubDate     string    `json:"pubDate"`
	Enclosure   Enclosure `json:"enclosure"`
}

// Enclosure is the media attachment of a feed item. rss2json emits either an object or an
// empty array, so decoding is lenient.
type Enclosure struct {
	Link string `json:"link"`
	Type string `json:"type"`
}

func (e *Enclosure) UnmarshalJSON(b []byte) error {
	var aux struct {
		Link string `json:"link"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		*e = Enclosure{}
		return nil
	}
	*e = Enclosure{Link: aux.Link, Type: aux.Type}
	return nil
}

// Relay describes one public CORS relay. Template must contain the {url} placeholder.
type Relay struct {
	Source   domain.Source
	Name     string
	Template string
}

// Endpoints groups the upstream locations the default registry wires.
type Endpoints struct {
	NewsAPIURL    string
	ProxyURL      string
	Relays        []Relay
	RSSEndpoint   string
	RSSFeedURL    string
	RSSSourceName string
	UserAgent     string
}

// Default upstream locations.
const (
	DefaultNewsAPIURL    = "https://newsapi.org/v2/top-headlines"
	DefaultRSSEndpoint   = "https://api.rss2json.com/v1/api.json"
	DefaultRSSFeedURL    = "https://feeds.bbci.co.uk/news/rss.xml"
	DefaultRSSSourceName = "BBC News"
	DefaultUserAgent     = "NewsAggregator/1.0"
	RelayURLPlaceholder  = "{url}"

	// APIKeyPlaceholder is the value shipped in sample configs; it counts as no key.
	APIKeyPlaceholder = "YOUR_NEWS_API_KEY"
)

// DefaultRelays returns the three public relays in the order they are tried.
func DefaultRelays() []Relay {
	return []Relay{
		{Source: domain.SourceCORSPrimary, Name: "allorigins", Template: "https://api.allorigins.win/raw?url={url}"},
		{Source: domain.SourceCORSSecondary, Name: "thingproxy", Template: "https://thingproxy.freeboard.io/fetch/{url}"},
		{Source: domain.SourceCORSTertiary, Name: "corsproxy", Template: "https://corsproxy.io/?{url}"},
	}
}
