package repository

import (
	"context"
	"testing"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchLogRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDispatchLogRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.DispatchLog{
		ReminderID: 42,
		Outcome:    model.ReminderStatusSent,
		ElapsedMs:  120,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.AttemptedAt)
}

func TestDispatchLogRepository_ListByReminder(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDispatchLogRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.DispatchLog{
		ReminderID: 7,
		Outcome:    model.ReminderStatusFailed,
		Reason:     "channel not connected",
	})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Create(ctx, &model.DispatchLog{
		ReminderID: 7,
		Outcome:    model.ReminderStatusSent,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.DispatchLog{
		ReminderID: 8,
		Outcome:    model.ReminderStatusSent,
	})
	require.NoError(t, err)

	logs, err := repo.ListByReminder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ReminderStatusFailed, logs[0].Outcome)
	assert.Equal(t, "channel not connected", logs[0].Reason)
	assert.Equal(t, model.ReminderStatusSent, logs[1].Outcome)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
