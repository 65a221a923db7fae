// Package events fans newly ingested articles out to NATS subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"newsflow/internal/logger"
	"newsflow/internal/metrics"
)

const SubjectArticleIngested = "newsflow.articles.ingested"

// ArticleEvent describes one freshly inserted article.
type ArticleEvent struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	SourceID    int64     `json:"sourceId"`
	SourceName  string    `json:"sourceName"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"publishedAt"`
}

type envelope struct {
	Article   ArticleEvent `json:"article"`
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"`
	Version   string       `json:"version"`
}

// Publisher receives ingestion events.
type Publisher interface {
	ArticleIngested(ctx context.Context, ev ArticleEvent) error
	Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) ArticleIngested(context.Context, ArticleEvent) error { return nil }
func (Nop) Close() {}

// NATSPublisher publishes JSON envelopes to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *logger.Logger
}

// New connects to url, or returns Nop when url is empty.
func New(url string, log *logger.Logger) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("newsflow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return NewNATSPublisher(nc, SubjectArticleIngested, log), nil
}

func NewNATSPublisher(nc *nats.Conn, subject string, log *logger.Logger) *NATSPublisher {
	return &NATSPublisher{conn: nc, subject: subject, log: log.With("component", "events")}
}

func (p *NATSPublisher) ArticleIngested(_ context.Context, ev ArticleEvent) error {
	data, err := json.Marshal(envelope{
		Article:   ev,
		Timestamp: time.Now().UTC(),
		Source:    "newsflow",
		Version:   "1.0",
	})
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		metrics.EventsPublished.WithLabelValues(p.subject, "error").Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues(p.subject, "ok").Inc()
	p.log.Debug("published article event", "article_id", ev.ID, "subject", p.subject)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
}
