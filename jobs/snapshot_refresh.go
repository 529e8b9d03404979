package jobs

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-bms/meridian/internal/authz"
)

// SnapshotRefreshJob periodically reconciles the local role/tenant-user
// snapshot with upstream so permission changes made by other clients
// converge within one refresh interval.
type SnapshotRefreshJob struct {
	refresher *authz.Refresher
	cache     *authz.SnapshotCache
	logger    *slog.Logger
}

// NewSnapshotRefreshJob constructs the job. cache may be nil.
func NewSnapshotRefreshJob(refresher *authz.Refresher, cache *authz.SnapshotCache, logger *slog.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{refresher: refresher, cache: cache, logger: logger}
}

// Handle processes TaskSnapshotRefresh tasks. Fetch failures return an
// error so Asynq retries with backoff; the store keeps the last confirmed
// snapshot in the meantime.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	snap, err := j.refresher.Refresh(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("snapshot reconcile failed",
				slog.String("reason", payload.Reason), slog.Any("error", err))
		}
		return err
	}
	if j.cache != nil {
		if err := j.cache.Save(ctx, snap); err != nil && j.logger != nil {
			j.logger.Warn("cache snapshot", slog.Any("error", err))
		}
	}
	if j.logger != nil {
		j.logger.Info("snapshot reconciled",
			slog.String("reason", payload.Reason),
			slog.Uint64("version", snap.Version()))
	}
	return nil
}
