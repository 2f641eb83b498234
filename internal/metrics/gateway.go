package metrics

import "time"

// ConnectionOpened records an admitted WebSocket connection
func (m *Metrics) ConnectionOpened() {
	m.safeExecute("ConnectionOpened", func() {
		m.WSConnectionsTotal.Inc()
		m.WSConnectionsActive.Inc()
	})
}

// ConnectionClosed records a WebSocket connection leaving the registry
func (m *Metrics) ConnectionClosed() {
	m.safeExecute("ConnectionClosed", func() {
		m.WSConnectionsActive.Dec()
	})
}

// ConnectionRejected records a connection refused before upgrade
func (m *Metrics) ConnectionRejected() {
	m.safeExecute("ConnectionRejected", func() {
		m.WSConnectionsRejected.Inc()
	})
}

// RecordDispatch records the outcome of one dispatch across its target connections
func (m *Metrics) RecordDispatch(notificationType string, delivered, failed int, duration time.Duration) {
	m.safeExecute("RecordDispatch", func() {
		m.DeliveriesTotal.WithLabelValues(notificationType, "delivered").Add(float64(delivered))
		m.DeliveriesTotal.WithLabelValues(notificationType, "failed").Add(float64(failed))
		m.DispatchDuration.WithLabelValues(notificationType).Observe(duration.Seconds())
	})
}
