package metrics

import (
	"database/sql"
	"time"

	"presence-notify/internal/domain"
)

// RecordStoreOperation records one presence store round-trip. NotFound is an
// expected outcome and is not counted as an error.
func (m *Metrics) RecordStoreOperation(operation string, duration time.Duration, err error) {
	m.safeExecute("RecordStoreOperation", func() {
		m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
		if err == nil {
			return
		}
		kind := domain.KindOf(err)
		if kind == domain.KindNotFound {
			return
		}
		m.StoreErrors.WithLabelValues(operation, kind.String()).Inc()
	})
}

// UpdateDBStats updates database connection pool metrics
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.safeExecute("UpdateDBStats", func() {
		m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
		m.DBConnectionsInUse.Set(float64(stats.InUse))
		m.DBConnectionsIdle.Set(float64(stats.Idle))
	})
}
