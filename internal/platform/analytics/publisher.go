// Package analytics provides a fire-and-forget NATS publisher for usage events
// emitted by the catalog API.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every analytics event type.
const (
	SubjectCatalogQueried     = "analytics.catalog.queried"
	SubjectCatalogAnimeViewed = "analytics.catalog.anime_viewed"
	SubjectCatalogFacetViewed = "analytics.catalog.facet_viewed"
)

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Emitter is what handlers depend on; *Publisher implements it.
type Emitter interface {
	Publish(subject, eventName, requestID string, props map[string]any)
}

// asyncPublisher is the subset of nats.JetStreamContext used here.
type asyncPublisher interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  asyncPublisher
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{log: log, now: time.Now}
	if js != nil {
		p.js = js
	}
	return p
}

// Publish sends an event asynchronously. Failures are logged as warnings and
// never surface to the caller.
func (p *Publisher) Publish(subject, eventName, requestID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		RequestID:  requestID,
		OccurredAt: p.now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
