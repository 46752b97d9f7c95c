package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifyDecisionTask(t *testing.T) {
	n := domain.DecisionNotification{
		VerificationID: uuid.New(),
		UserID:         uuid.New(),
		Status:         domain.VerificationStatusRejected,
		Reason:         "Document expired",
	}

	tk, err := NewNotifyDecisionTask(n, 0)
	require.NoError(t, err)
	assert.Equal(t, NotifyDecisionTaskName, tk.Type())

	var got domain.DecisionNotification
	require.NoError(t, json.Unmarshal(tk.Payload(), &got))
	assert.Equal(t, n, got)
}

func TestNewSyncEligibilityTask(t *testing.T) {
	id := uuid.New()

	tk, err := NewSyncEligibilityTask(id, 3)
	require.NoError(t, err)
	assert.Equal(t, SyncEligibilityTaskName, tk.Type())
	assert.JSONEq(t, `{"user_id":"`+id.String()+`"}`, string(tk.Payload()))

	assert.Equal(t, ReconcileStaleTaskName, NewReconcileStaleTask(time.Minute).Type())
}
