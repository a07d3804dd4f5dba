package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/logger"
)

// EventTypeRefreshed is emitted once per refresh cycle.
const EventTypeRefreshed = "headlines.refreshed"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Logger is the logging surface publishers write to.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }

// Event is the message delivered to every publisher.
type Event struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Source       string           `json:"source"`
	Status       string           `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	Message      string           `json:"message"`
	ArticleCount int              `json:"article_count"`
	Articles     []domain.Article `json:"articles"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// NewRefreshEvent describes the outcome of one refresh cycle.
func NewRefreshEvent(res domain.FetchResult, generatedAt time.Time) Event {
	evt := Event{
		ID:          uuid.NewString(),
		Type:        EventTypeRefreshed,
		Source:      string(res.Source()),
		Status:      StatusOK,
		Message:     res.Message(),
		Articles:    res.Articles(),
		GeneratedAt: generatedAt.UTC(),
	}
	if !res.IsOK() {
		evt.Status = StatusFailed
		evt.Reason = string(res.Reason())
		evt.Source = ""
	}
	if evt.Articles == nil {
		evt.Articles = []domain.Article{}
	}
	evt.ArticleCount = len(evt.Articles)
	return evt
}

// attributes are attached to queue messages so consumers can filter without decoding the body.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"event_type": e.Type,
		"status":     e.Status,
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	return attrs
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// PublishAll delivers evt to every publisher. A failing publisher does not stop the others;
// their errors are joined.
func PublishAll(ctx context.Context, pubs []Publisher, evt Event, log Logger) error {
	log = ensureLogger(log)

	var errs []error
	for _, p := range pubs {
		if err := p.Publish(ctx, evt); err != nil {
			log.WarnObj("event publish failed", "publish_failed", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"event_id":     evt.ID,
				"error":        err,
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		log.DebugObj("event published", "publish_ok", map[string]any{
			"publisher_id": p.ID(),
			"event_id":     evt.ID,
		})
	}
	return errors.Join(errs...)
}

// CloseAll closes every publisher and joins their errors.
func CloseAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
