package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigsYAML(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "secret")
	path := writeConfig(t, "publishers.yaml", `
publishers:
  - id: " hook "
    type: HTTP
    http:
      url: https://hooks.example/headlines
      headers:
        Authorization: "Bearer ${HOOK_TOKEN}"
        X-Empty: ""
  - id: sqs
    type: queue
    enabled: false
    queue:
      provider: AWS-SQS
      sqs:
        queue_url: https://sqs.eu-west-1.amazonaws.com/1/headlines
        region: eu-west-1
  - id: topic
    type: queue
    queue:
      provider: gcp
      gcp:
        project_id: demo
        topic: headlines
`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	hook := cfgs[0]
	assert.Equal(t, "hook", hook.ID)
	assert.Equal(t, TypeHTTP, hook.Type)
	assert.Equal(t, "POST", hook.HTTP.Method)
	assert.Equal(t, httpDefaultTimeout, hook.HTTP.Timeout)
	assert.Equal(t, map[string]string{"Authorization": "Bearer secret"}, hook.HTTP.Headers)

	assert.Equal(t, QueueProviderAWSSQS, cfgs[1].Queue.Provider)
	assert.Equal(t, "eu-west-1", cfgs[1].Queue.SQS.Region)
	assert.False(t, cfgs[1].IsEnabled())

	enabled := Enabled(cfgs)
	require.Len(t, enabled, 2)
	assert.Equal(t, "topic", enabled[1].ID)
}

func TestLoadConfigsJSON(t *testing.T) {
	path := writeConfig(t, "publishers.json", `{"publishers":[
		{"id":"sns","type":"queue","queue":{"provider":"aws-sns","sns":{"topic_arn":"arn:aws:sns:us-east-1:1:h","region":"us-east-1","access_key_id":"AK","secret_access_key":"SK"}}}
	]}`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "AK", cfgs[0].Queue.SNS.AccessKeyID)
}

func TestLoadConfigsRejectsInvalidEntries(t *testing.T) {
	tests := map[string]string{
		"empty":           `publishers: []`,
		"no id":           `publishers: [{type: http, http: {url: "https://x.example"}}]`,
		"no type":         `publishers: [{id: a}]`,
		"unknown type":    `publishers: [{id: a, type: smtp}]`,
		"bad http url":    `publishers: [{id: a, type: http, http: {url: "ftp://x"}}]`,
		"azure":           `publishers: [{id: a, type: queue, queue: {provider: azure}}]`,
		"sqs no region":   `publishers: [{id: a, type: queue, queue: {provider: aws-sqs, sqs: {queue_url: "https://q"}}}]`,
		"half keys":       `publishers: [{id: a, type: queue, queue: {provider: aws-sns, sns: {topic_arn: t, region: r, access_key_id: k}}}]`,
		"gcp no topic":    `publishers: [{id: a, type: queue, queue: {provider: gcp, gcp: {project_id: p}}}]`,
		"duplicate ids":   `publishers: [{id: a, type: http, http: {url: "https://x"}}, {id: a, type: http, http: {url: "https://y"}}]`,
		"not yaml at all": `publishers: [`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigs(writeConfig(t, "p.yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfigs("")
	assert.Error(t, err)
	_, err = LoadConfigs(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRefreshEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	ok := domain.Ok([]domain.Article{{ID: 1, Title: "a"}}, domain.SourceNewsAPI, "Loaded 1", nil)

	evt := NewRefreshEvent(ok, at)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, EventTypeRefreshed, evt.Type)
	assert.Equal(t, "newsapi", evt.Source)
	assert.Equal(t, StatusOK, evt.Status)
	assert.Equal(t, 1, evt.ArticleCount)
	assert.Equal(t, time.UTC, evt.GeneratedAt.Location())
	assert.Equal(t, map[string]string{"event_type": EventTypeRefreshed, "status": StatusOK, "source": "newsapi"}, evt.attributes())

	failed := NewRefreshEvent(domain.Fail(domain.ReasonRateLimited, "API rate limit exceeded.", errors.New("429"), nil), at)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "rate-limited", failed.Reason)
	assert.Empty(t, failed.Source)
	assert.NotNil(t, failed.Articles)
	assert.Zero(t, failed.ArticleCount)
	assert.NotEqual(t, evt.ID, failed.ID)
	_, hasSource := failed.attributes()["source"]
	assert.False(t, hasSource)
}

func TestHTTPPublisher(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		assert.Equal(t, EventTypeRefreshed, r.Header.Get("X-Event-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	cfg := PublisherConfig{ID: "hook", Type: "http", HTTP: &HTTPConfig{URL: srv.URL, Method: "put", Headers: map[string]string{"Authorization": "Bearer t"}}}.sanitized()
	pubs, err := BuildAll(context.Background(), DefaultRegistry(nil), []PublisherConfig{cfg}, nil)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, TypeHTTP, pubs[0].Type())

	evt := NewRefreshEvent(domain.Ok([]domain.Article{{ID: 1, Title: "a"}}, domain.SourceRSS, "Loaded 1", nil), time.Now())
	require.NoError(t, pubs[0].Publish(context.Background(), evt))
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, 1, got.ArticleCount)
	require.NoError(t, CloseAll(pubs))
}

func TestHTTPPublisherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := PublisherConfig{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: srv.URL}}.sanitized()
	pub, err := DefaultRegistry(nil).PublisherFor(context.Background(), cfg, nil)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), Event{ID: "1", Type: EventTypeRefreshed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

type fakeSender struct {
	bodies [][]byte
	attrs  []map[string]string
	err    error
	closed bool
}

func (f *fakeSender) Send(_ context.Context, body []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.bodies = append(f.bodies, body)
	f.attrs = append(f.attrs, attrs)
	return "m-1", nil
}

func (f *fakeSender) Close() error { f.closed = true; return nil }

func TestQueuePublisherEncodesOnce(t *testing.T) {
	sender := &fakeSender{}
	pub := &queuePublisher{id: "q", provider: QueueProviderAWSSQS, sender: sender, log: ensureLogger(nil)}

	evt := Event{ID: "e-1", Type: EventTypeRefreshed, Source: "rss", Status: StatusOK}
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, sender.bodies, 1)
	assert.JSONEq(t, `{"id":"e-1","type":"headlines.refreshed","source":"rss","status":"ok","message":"","article_count":0,"articles":null,"generated_at":"0001-01-01T00:00:00Z"}`, string(sender.bodies[0]))
	assert.Equal(t, "rss", sender.attrs[0]["source"])

	require.NoError(t, pub.Close())
	assert.True(t, sender.closed)
}

type namedPublisher struct {
	id    string
	err   error
	calls int
}

func (p *namedPublisher) ID() string   { return p.id }
func (p *namedPublisher) Type() string { return "test" }
func (p *namedPublisher) Publish(context.Context, Event) error {
	p.calls++
	return p.err
}
func (p *namedPublisher) Close() error { return nil }

func TestPublishAllContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	first := &namedPublisher{id: "first", err: boom}
	second := &namedPublisher{id: "second"}

	err := PublishAll(context.Background(), []Publisher{first, second}, Event{ID: "e"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publisher first")
	assert.Equal(t, 1, second.calls)

	assert.NoError(t, PublishAll(context.Background(), nil, Event{}, nil))
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("", func(context.Context, PublisherConfig, Logger) (Publisher, error) { return nil, nil })
	_, err := reg.PublisherFor(context.Background(), PublisherConfig{ID: "x", Type: "smtp"}, nil)
	assert.Error(t, err)

	pubs, err := BuildAll(context.Background(), reg, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, pubs)
}

type fakeSQS struct{ input *sqs.SendMessageInput }

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

type fakeSNS struct{ input *sns.PublishInput }

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestAWSSendersSetAttributes(t *testing.T) {
	attrs := map[string]string{"source": "newsapi", "status": "ok"}

	q := &fakeSQS{}
	id, err := (&awsSQSSender{queueURL: "https://q", client: q}).Send(context.Background(), []byte(`{}`), attrs)
	require.NoError(t, err)
	assert.Equal(t, "sqs-1", id)
	assert.Equal(t, "https://q", aws.ToString(q.input.QueueUrl))
	assert.Equal(t, "newsapi", aws.ToString(q.input.MessageAttributes["source"].StringValue))

	n := &fakeSNS{}
	id, err = (&awsSNSSender{topicARN: "arn:t", client: n}).Send(context.Background(), []byte(`{}`), attrs)
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "arn:t", aws.ToString(n.input.TopicArn))
	assert.Equal(t, "String", aws.ToString(n.input.MessageAttributes["status"].DataType))
}
