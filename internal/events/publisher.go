package events

import (
	"context"

	"presence-notify/internal/domain"
	"presence-notify/internal/metrics"
)

// Publisher emits normalized presence changes on the bus.
type Publisher struct {
	bus     Bus
	metrics *metrics.Metrics
}

func NewPublisher(bus Bus, m *metrics.Metrics) *Publisher {
	return &Publisher{bus: bus, metrics: m}
}

func (p *Publisher) PublishPresenceChanged(ctx context.Context, evt domain.PresenceChanged) error {
	err := p.bus.Publish(ctx, domain.EventUserPresenceChanged, evt)
	p.metrics.RecordEventPublished(domain.EventUserPresenceChanged, err)
	return err
}
