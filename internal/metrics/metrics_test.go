package metrics

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"presence-notify/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), nil)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.GetGauge().GetValue()
}

func TestMetricsInitialization(t *testing.T) {
	m := getTestMetrics()

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.StoreErrors)
	assert.NotNil(t, m.PresenceTransitionsTotal)
	assert.NotNil(t, m.EventsPublishedTotal)
	assert.NotNil(t, m.DeliveriesTotal)
	assert.NotNil(t, m.WSConnectionsActive)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.RecordDispatch("new_message", 1, 1, time.Millisecond)
		m.RecordStoreOperation("get", time.Millisecond, errors.New("boom"))
	})
}

func TestRecordHTTPRequest(t *testing.T) {
	m := getTestMetrics()

	m.RecordHTTPRequest("GET", "/api/presence/users/online", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/presence/users/online", 503, 10*time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, m.HTTPRequestsTotal.WithLabelValues("GET", "/api/presence/users/online", "2xx")))
	assert.Equal(t, 1.0, counterValue(t, m.HTTPRequestsTotal.WithLabelValues("GET", "/api/presence/users/online", "5xx")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(301))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "1xx", statusClass(101))
	assert.Equal(t, "unknown", statusClass(42))
}

func TestShouldSkipEndpoint(t *testing.T) {
	assert.True(t, ShouldSkipEndpoint("/metrics"))
	assert.True(t, ShouldSkipEndpoint("/api/presence/health"))
	assert.False(t, ShouldSkipEndpoint("/api/presence/users/online"))
}

func TestRecordStoreOperation_SkipsNotFound(t *testing.T) {
	m := getTestMetrics()

	m.RecordStoreOperation("get_status", time.Millisecond, domain.NewNotFound("USER_NOT_FOUND", "User not found"))
	m.RecordStoreOperation("get_status", time.Millisecond, domain.NewStoreUnavailable("get status", errors.New("dial")))

	assert.Equal(t, 0.0, counterValue(t, m.StoreErrors.WithLabelValues("get_status", "NOT_FOUND")))
	assert.Equal(t, 1.0, counterValue(t, m.StoreErrors.WithLabelValues("get_status", "STORE_UNAVAILABLE")))
}

func TestConnectionGauges(t *testing.T) {
	m := getTestMetrics()

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.ConnectionRejected()

	assert.Equal(t, 1.0, gaugeValue(t, m.WSConnectionsActive))
	assert.Equal(t, 2.0, counterValue(t, m.WSConnectionsTotal))
	assert.Equal(t, 1.0, counterValue(t, m.WSConnectionsRejected))
}

func TestRecordDispatch(t *testing.T) {
	m := getTestMetrics()

	m.RecordDispatch("presence_change", 3, 1, time.Millisecond)

	assert.Equal(t, 3.0, counterValue(t, m.DeliveriesTotal.WithLabelValues("presence_change", "delivered")))
	assert.Equal(t, 1.0, counterValue(t, m.DeliveriesTotal.WithLabelValues("presence_change", "failed")))
}

func TestSnapshotAndDBStats(t *testing.T) {
	m := getTestMetrics()

	m.SetPresenceSnapshot(2, 5)
	m.UpdateDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3})

	assert.Equal(t, 2.0, gaugeValue(t, m.OnlineUsers))
	assert.Equal(t, 5.0, gaugeValue(t, m.KnownUsers))
	assert.Equal(t, 4.0, gaugeValue(t, m.DBConnectionsOpen))
	assert.Equal(t, 3.0, gaugeValue(t, m.DBConnectionsIdle))
}
