package metrics

import "presence-notify/internal/domain"

// RecordPresenceTransition counts an applied status change
func (m *Metrics) RecordPresenceTransition(status domain.PresenceStatus) {
	m.safeExecute("RecordPresenceTransition", func() {
		m.PresenceTransitionsTotal.WithLabelValues(string(status)).Inc()
	})
}

// SetPresenceSnapshot sets the online/known user gauges
func (m *Metrics) SetPresenceSnapshot(online, known int) {
	m.safeExecute("SetPresenceSnapshot", func() {
		m.OnlineUsers.Set(float64(online))
		m.KnownUsers.Set(float64(known))
	})
}

// RecordEventPublished records an outbound event
func (m *Metrics) RecordEventPublished(subject string, err error) {
	m.safeExecute("RecordEventPublished", func() {
		m.EventsPublishedTotal.WithLabelValues(subject, result(err)).Inc()
	})
}

// RecordEventReceived records an inbound event and whether handling succeeded
func (m *Metrics) RecordEventReceived(subject string, err error) {
	m.safeExecute("RecordEventReceived", func() {
		m.EventsReceivedTotal.WithLabelValues(subject, result(err)).Inc()
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
