package dispatcher

import (
	"context"
	"iter"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/metrics"
	"presence-notify/internal/registry"
)

var tracer = otel.Tracer("presence-notify/dispatcher")

// Registry is the read side of the connection registry used for routing.
type Registry interface {
	ConnectionsFor(userID string) []registry.Connection
	AllConnections() iter.Seq[registry.Connection]
}

// Report summarizes one dispatch. Failed deliveries never abort the dispatch.
type Report struct {
	Type      string `json:"type"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
}

// NotificationDispatcher routes inbound events to live connections.
type NotificationDispatcher struct {
	registry Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewNotificationDispatcher(reg Registry, m *metrics.Metrics, logger *zap.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		registry: reg,
		metrics:  m,
		logger:   logger,
	}
}

// OnMessageCreated delivers a new_message notification to every connection of the receiver.
// The event is dropped when the receiver has no live connection.
func (d *NotificationDispatcher) OnMessageCreated(ctx context.Context, evt domain.MessageCreated) Report {
	n := domain.NewMessageNotification(evt)
	return d.deliver(ctx, n, slices.Values(d.registry.ConnectionsFor(evt.ReceiverID)))
}

// OnPresenceChanged broadcasts a presence_change notification to every live connection.
func (d *NotificationDispatcher) OnPresenceChanged(ctx context.Context, evt domain.PresenceChanged) Report {
	n := domain.NewPresenceNotification(evt)
	return d.deliver(ctx, n, d.registry.AllConnections())
}

// deliver sends n to each target. Targets are snapshots, so no registry lock is held here.
func (d *NotificationDispatcher) deliver(ctx context.Context, n domain.Notification, targets iter.Seq[registry.Connection]) Report {
	_, span := tracer.Start(ctx, "dispatch "+n.Type)
	defer span.End()

	start := time.Now()
	report := Report{Type: n.Type}

	for conn := range targets {
		report.Attempted++
		if err := d.send(conn, n); err != nil {
			report.Failed++
			d.logger.Warn("Notification delivery failed",
				zap.String("connectionId", conn.ID()),
				zap.String("userId", conn.UserID()),
				zap.String("type", n.Type),
				zap.Error(err),
			)
			continue
		}
		report.Delivered++
	}

	span.SetAttributes(
		attribute.Int("dispatch.attempted", report.Attempted),
		attribute.Int("dispatch.delivered", report.Delivered),
		attribute.Int("dispatch.failed", report.Failed),
	)
	d.metrics.RecordDispatch(n.Type, report.Delivered, report.Failed, time.Since(start))
	d.logger.Debug("Notification dispatched",
		zap.String("type", report.Type),
		zap.Int("attempted", report.Attempted),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)
	return report
}

// send isolates one delivery so a panicking connection cannot abort the dispatch.
func (d *NotificationDispatcher) send(conn registry.Connection, n domain.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f := domain.Describe(r)
			err = domain.NewDeliveryFailure(conn.ID(), &domain.Error{Kind: domain.KindUnknown, Message: f.Message})
		}
	}()

	if err := conn.Send(domain.PushEvent, n); err != nil {
		return domain.NewDeliveryFailure(conn.ID(), err)
	}
	return nil
}
