package job

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"presence-notify/internal/metrics"
)

// OnlineLister reports which users are currently online.
type OnlineLister interface {
	GetOnlineUsers(ctx context.Context) ([]string, error)
}

// KnownLister reports every user id ever registered.
type KnownLister interface {
	ListKnownUsers(ctx context.Context) ([]string, error)
}

// OnlineSnapshotJob refreshes the online/known user gauges and, for SQL
// backends, the connection pool gauges.
type OnlineSnapshotJob struct {
	online  OnlineLister
	known   KnownLister
	dbStats func() sql.DBStats
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewOnlineSnapshotJob creates a new OnlineSnapshotJob. dbStats may be nil.
func NewOnlineSnapshotJob(
	online OnlineLister,
	known KnownLister,
	dbStats func() sql.DBStats,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OnlineSnapshotJob {
	return &OnlineSnapshotJob{
		online:  online,
		known:   known,
		dbStats: dbStats,
		metrics: m,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Run executes one snapshot. Failures are logged and the gauges keep their previous values.
func (j *OnlineSnapshotJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if j.dbStats != nil {
		j.metrics.UpdateDBStats(j.dbStats())
	}

	known, err := j.known.ListKnownUsers(ctx)
	if err != nil {
		j.logger.Error("Failed to list known users", zap.Error(err))
		return
	}

	online, err := j.online.GetOnlineUsers(ctx)
	if err != nil {
		j.logger.Error("Failed to list online users", zap.Error(err))
		return
	}

	j.metrics.SetPresenceSnapshot(len(online), len(known))
	j.logger.Debug("Presence snapshot updated",
		zap.Int("online", len(online)),
		zap.Int("known", len(known)),
	)
}

// Schedule registers job under spec on a new cron scheduler. The caller starts and stops it.
func Schedule(spec string, job cron.Job, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	logger.Info("Scheduled job", zap.String("spec", spec))
	return c, nil
}
