// Package jobs hosts the background worker that keeps the local
// authorization snapshot reconciled with the upstream API.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotRefresh re-fetches roles and tenant users wholesale.
	TaskSnapshotRefresh = "snapshot:refresh"
)

// SnapshotRefreshPayload describes why a refresh was requested.
type SnapshotRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewSnapshotRefreshTask constructs an Asynq task.
func NewSnapshotRefreshTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, data), nil
}
