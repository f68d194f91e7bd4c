package repository

import (
	"context"
	"testing"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingReminder(owner string, scheduledAt time.Time) *model.Reminder {
	return &model.Reminder{
		Owner:          owner,
		Target:         "0812-3456-789",
		Body:           "minum obat",
		ScheduledAt:    scheduledAt,
		SourceTimezone: model.TimezoneWIB,
		Status:         model.ReminderStatusPending,
	}
}

func TestReminderRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	t.Run("create reminder successfully", func(t *testing.T) {
		rem := newPendingReminder("user-1", time.Now().Add(time.Hour))

		created, err := repo.Create(ctx, rem)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, rem.Owner, created.Owner)
		assert.Equal(t, rem.Target, created.Target)
		assert.Equal(t, model.ReminderStatusPending, created.Status)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("status defaults to pending", func(t *testing.T) {
		rem := newPendingReminder("user-1", time.Now().Add(time.Hour))
		rem.Status = ""

		created, err := repo.Create(ctx, rem)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusPending, created.Status)
	})
}

func TestReminderRepository_ListDue(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()
	now := time.Now()

	overdue, err := repo.Create(ctx, newPendingReminder("user-1", now.Add(-2*time.Hour)))
	require.NoError(t, err)
	justDue, err := repo.Create(ctx, newPendingReminder("user-1", now.Add(-time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingReminder("user-1", now.Add(time.Hour)))
	require.NoError(t, err)

	sent := newPendingReminder("user-2", now.Add(-time.Hour))
	sent.Status = model.ReminderStatusSent
	_, err = repo.Create(ctx, sent)
	require.NoError(t, err)

	t.Run("returns only pending and past-due, oldest first", func(t *testing.T) {
		due, err := repo.ListDue(ctx, now)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, overdue.ID, due[0].ID)
		assert.Equal(t, justDue.ID, due[1].ID)
	})

	t.Run("nothing due in the past", func(t *testing.T) {
		due, err := repo.ListDue(ctx, now.Add(-3*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestReminderRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	rem, err := repo.Create(ctx, newPendingReminder("user-1", time.Now()))
	require.NoError(t, err)

	t.Run("pending to sent", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, rem.ID, model.ReminderStatusSent)
		require.NoError(t, err)

		got, err := repo.Get(ctx, rem.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusSent, got.Status)
	})

	t.Run("terminal status is never overwritten", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, rem.ID, model.ReminderStatusFailed)
		require.NoError(t, err)

		got, err := repo.Get(ctx, rem.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusSent, got.Status)
	})

	t.Run("re-applying the same outcome is a no-op", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, rem.ID, model.ReminderStatusSent)
		require.NoError(t, err)

		got, err := repo.Get(ctx, rem.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusSent, got.Status)
	})
}

func TestReminderRepository_UpdateIfPending(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	t.Run("updates a pending reminder", func(t *testing.T) {
		rem, err := repo.Create(ctx, newPendingReminder("user-1", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		body := "jangan lupa meeting"
		newAt := time.Now().Add(2 * time.Hour).Truncate(time.Second)
		tz := model.TimezoneWITA
		ok, err := repo.UpdateIfPending(ctx, rem.ID, model.ReminderUpdateRequest{
			Body:        &body,
			ScheduledAt: &newAt,
			Timezone:    &tz,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.Get(ctx, rem.ID)
		require.NoError(t, err)
		assert.Equal(t, body, got.Body)
		assert.Equal(t, model.TimezoneWITA, got.SourceTimezone)
		assert.WithinDuration(t, newAt, got.ScheduledAt, time.Second)
	})

	t.Run("refuses to edit a sent reminder", func(t *testing.T) {
		rem, err := repo.Create(ctx, newPendingReminder("user-1", time.Now()))
		require.NoError(t, err)
		require.NoError(t, repo.UpdateStatus(ctx, rem.ID, model.ReminderStatusSent))

		body := "too late"
		ok, err := repo.UpdateIfPending(ctx, rem.ID, model.ReminderUpdateRequest{Body: &body})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.Get(ctx, rem.ID)
		require.NoError(t, err)
		assert.Equal(t, "minum obat", got.Body)
	})

	t.Run("no fields means no update", func(t *testing.T) {
		rem, err := repo.Create(ctx, newPendingReminder("user-1", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		ok, err := repo.UpdateIfPending(ctx, rem.ID, model.ReminderUpdateRequest{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReminderRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	t.Run("delete works regardless of status", func(t *testing.T) {
		rem, err := repo.Create(ctx, newPendingReminder("user-1", time.Now()))
		require.NoError(t, err)
		require.NoError(t, repo.UpdateStatus(ctx, rem.ID, model.ReminderStatusFailed))

		err = repo.Delete(ctx, rem.ID)
		require.NoError(t, err)

		_, err = repo.Get(ctx, rem.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting a missing reminder reports not found", func(t *testing.T) {
		err := repo.Delete(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReminderRepository_CountPending(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newPendingReminder("user-1", time.Now().Add(time.Hour)))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newPendingReminder("user-2", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	done := newPendingReminder("user-1", time.Now())
	done.Status = model.ReminderStatusSent
	_, err = repo.Create(ctx, done)
	require.NoError(t, err)

	count, err := repo.CountPending(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountPending(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountPending(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReminderRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	owner := "user-1"
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newPendingReminder(owner, time.Now().Add(time.Hour)))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("list by owner", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ReminderFilter{Owner: &owner, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 5)
	})

	t.Run("list with pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ReminderFilter{Owner: &owner, Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 1)
	})

	t.Run("list by status", func(t *testing.T) {
		items, _, err := repo.List(ctx, model.ReminderFilter{
			Owner:    &owner,
			Statuses: []model.ReminderStatus{model.ReminderStatusSent},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("list desc", func(t *testing.T) {
		items, _, err := repo.List(ctx, model.ReminderFilter{Owner: &owner, Limit: 10, Desc: true})
		require.NoError(t, err)
		for i := 0; i < len(items)-1; i++ {
			assert.True(t, !items[i].CreatedAt.Before(items[i+1].CreatedAt))
		}
	})
}

func TestReminderRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.Create(ctx, newPendingReminder("user-1", time.Now().Add(time.Hour)))
		require.NoError(t, err)
	}
	sent := newPendingReminder("user-1", time.Now())
	sent.Status = model.ReminderStatusSent
	_, err := repo.Create(ctx, sent)
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(1), counts.Sent)
	assert.Zero(t, counts.Failed)
}
