package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	SyncEligibilityTaskName = "syncEligibilityTask"
	ReconcileStaleTaskName  = "reconcileStaleEligibilityTask"
	EligibilityQueueName    = "eligibilityQueue"
)

type SyncEligibility struct {
	UserID uuid.UUID `json:"user_id"`
}

// NewSyncEligibilityTask is keyed by user so that repeated failures for the
// same user collapse into one queued task.
func NewSyncEligibilityTask(userID uuid.UUID, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncEligibility{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SyncEligibilityTaskName,
		payload,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(EligibilityQueueName),
		asynq.TaskID("sync-eligibility:"+userID.String()),
	), nil
}

// NewReconcileStaleTask sweeps every stale projection. Only one sweep may be
// queued per interval.
func NewReconcileStaleTask(interval time.Duration) *asynq.Task {
	return asynq.NewTask(
		ReconcileStaleTaskName,
		nil,
		asynq.MaxRetry(0),
		asynq.Queue(EligibilityQueueName),
		asynq.Unique(interval),
	)
}
