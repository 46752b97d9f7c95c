package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/pawsitter/backend/internal/domain"
)

const (
	NotifyDecisionTaskName   = "notifyDecisionTask"
	NotificationsQueueName   = "notificationsQueue"
	defaultNotifyDecisionTry = 5
)

func NewNotifyDecisionTask(n domain.DecisionNotification, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	if maxRetry <= 0 {
		maxRetry = defaultNotifyDecisionTry
	}

	return asynq.NewTask(
		NotifyDecisionTaskName,
		payload,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(NotificationsQueueName),
	), nil
}
