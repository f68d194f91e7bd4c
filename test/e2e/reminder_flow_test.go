package e2e

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prasetya/reminder-gateway/internal/channel"
	"github.com/prasetya/reminder-gateway/internal/dispatch"
	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/internal/repository"
	"github.com/prasetya/reminder-gateway/internal/scheduler"
	"github.com/prasetya/reminder-gateway/internal/services"
	"github.com/prasetya/reminder-gateway/pkg/pg"
	"github.com/prasetya/reminder-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB = pg.DB

// fakeChannel stands in for the whole bridge: connectivity is a switch and
// sends are recorded in memory.
type fakeChannel struct {
	mu        sync.Mutex
	connected bool
	sendErr   error
	sent      []sentMessage
}

type sentMessage struct {
	MSISDN string
	Text   string
}

func (f *fakeChannel) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) Send(ctx context.Context, msisdn, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return channel.ErrNotConnected
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{MSISDN: msisdn, Text: text})
	return nil
}

func (f *fakeChannel) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type TestEnvironment struct {
	DB              *pg.DB
	Redis           *miniredis.Miniredis
	RedisAdapter    redis.RedisAdapter
	ReminderRepo    *repository.ReminderRepository
	DispatchLogRepo *repository.DispatchLogRepository
	ReminderService *services.ReminderService
	StateStore      *channel.StateStore
	Channel         *fakeChannel
	Scheduler       *scheduler.Scheduler
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.ReminderEntity{},
		&repository.DispatchLogEntity{},
	)
	require.NoError(t, err)

	pgDB := &testDB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	reminderRepo := repository.NewReminderRepository(pgDB)
	dispatchLogRepo := repository.NewDispatchLogRepository(pgDB)

	admission := services.NewAdmissionService(reminderRepo, 10)
	reminderService := services.NewReminderService(reminderRepo, admission, 0)

	ch := &fakeChannel{connected: true}
	templates := dispatch.NewTemplateSet([]dispatch.Template{{Text: "[reminder] {message}"}}, nil)
	dispatcher := dispatch.NewDispatcher(ch, templates, "62")

	sched := scheduler.NewScheduler(reminderRepo, dispatchLogRepo, ch, dispatcher, &scheduler.Config{
		PollInterval: time.Hour,
		JitterMin:    time.Millisecond,
		JitterMax:    2 * time.Millisecond,
	})

	return &TestEnvironment{
		DB:              pgDB,
		Redis:           mr,
		RedisAdapter:    redisAdapter,
		ReminderRepo:    reminderRepo,
		DispatchLogRepo: dispatchLogRepo,
		ReminderService: reminderService,
		StateStore:      channel.NewStateStore(redisAdapter),
		Channel:         ch,
		Scheduler:       sched,
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func TestE2E_CreateStoresCanonicalTime(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	local := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "08973914602",
		Body:        "minum obat",
		ScheduledAt: local,
		Timezone:    model.TimezoneWITA,
	}

	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, rem.ID)
	assert.Equal(t, model.ReminderStatusPending, rem.Status)

	// 09:00 WITA is 08:00 canonical
	assert.Equal(t, local.Add(-time.Hour), rem.ScheduledAt)
	assert.Equal(t, model.TimezoneWITA, rem.SourceTimezone)
	assert.Equal(t, local, rem.LocalScheduledAt())
}

func TestE2E_QuotaEnforcement(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	owner := "628111111111"
	scheduledAt := time.Now().Add(time.Hour)

	for i := 0; i < 10; i++ {
		req := model.ReminderCreateRequest{
			Owner:       owner,
			Target:      "08973914602",
			Body:        fmt.Sprintf("reminder %d", i),
			ScheduledAt: scheduledAt,
			Timezone:    model.TimezoneWIB,
		}
		_, err := env.ReminderService.Create(ctx, req)
		require.NoError(t, err)
	}

	// 11th hits the cap
	req := model.ReminderCreateRequest{
		Owner:       owner,
		Target:      "08973914602",
		Body:        "one too many",
		ScheduledAt: scheduledAt,
		Timezone:    model.TimezoneWIB,
	}
	_, err := env.ReminderService.Create(ctx, req)
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)

	// Another owner is unaffected
	req.Owner = "628222222222"
	_, err = env.ReminderService.Create(ctx, req)
	assert.NoError(t, err)

	// Freeing a slot lets the owner create again
	pending, _, err := env.ReminderService.Quota(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(10), pending)

	list, _, err := env.ReminderService.List(ctx, model.ReminderFilter{Owner: &owner, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, env.ReminderService.Delete(ctx, list[0].ID))

	req.Owner = owner
	_, err = env.ReminderService.Create(ctx, req)
	assert.NoError(t, err)
}

func TestE2E_DueReminderIsDispatched(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "0897-3914-602",
		Body:        "minum obat",
		ScheduledAt: time.Now().Add(-time.Minute),
		Timezone:    model.TimezoneWIB,
	}
	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)

	env.Scheduler.RunCycle(ctx)

	got, err := env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusSent, got.Status)

	sent := env.Channel.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "628973914602", sent[0].MSISDN)
	assert.Equal(t, "[reminder] minum obat", sent[0].Text)

	logs, err := env.DispatchLogRepo.ListByReminder(ctx, rem.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ReminderStatusSent, logs[0].Outcome)
}

func TestE2E_FutureReminderIsNotDispatched(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "08973914602",
		Body:        "later",
		ScheduledAt: time.Now().Add(time.Hour),
		Timezone:    model.TimezoneWIB,
	}
	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)

	env.Scheduler.RunCycle(ctx)

	got, err := env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusPending, got.Status)
	assert.Empty(t, env.Channel.sentMessages())
}

func TestE2E_DisconnectedChannelLeavesRemindersPending(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "08973914602",
		Body:        "should wait",
		ScheduledAt: time.Now().Add(-time.Minute),
		Timezone:    model.TimezoneWIB,
	}
	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)

	env.Channel.mu.Lock()
	env.Channel.connected = false
	env.Channel.mu.Unlock()

	env.Scheduler.RunCycle(ctx)

	got, err := env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusPending, got.Status, "reminder keeps its attempt for when the channel is back")

	// Reconnect and dispatch on the next cycle
	env.Channel.mu.Lock()
	env.Channel.connected = true
	env.Channel.mu.Unlock()

	env.Scheduler.RunCycle(ctx)

	got, err = env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusSent, got.Status)
}

func TestE2E_FailedDispatchIsTerminal(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "08973914602",
		Body:        "doomed",
		ScheduledAt: time.Now().Add(-time.Minute),
		Timezone:    model.TimezoneWIB,
	}
	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)

	env.Channel.mu.Lock()
	env.Channel.sendErr = errors.New("stream closed")
	env.Channel.mu.Unlock()

	env.Scheduler.RunCycle(ctx)

	got, err := env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusFailed, got.Status)

	// Recovery of the channel must not resurrect the reminder
	env.Channel.mu.Lock()
	env.Channel.sendErr = nil
	env.Channel.mu.Unlock()

	env.Scheduler.RunCycle(ctx)

	got, err = env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusFailed, got.Status)
	assert.Empty(t, env.Channel.sentMessages(), "no retry after a terminal failure")

	logs, err := env.DispatchLogRepo.ListByReminder(ctx, rem.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ReminderStatusFailed, logs[0].Outcome)
	assert.Contains(t, logs[0].Reason, "stream closed")
}

func TestE2E_EditAfterDispatchIsRejected(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	req := model.ReminderCreateRequest{
		Owner:       "628111111111",
		Target:      "08973914602",
		Body:        "original",
		ScheduledAt: time.Now().Add(-time.Minute),
		Timezone:    model.TimezoneWIB,
	}
	rem, err := env.ReminderService.Create(ctx, req)
	require.NoError(t, err)

	env.Scheduler.RunCycle(ctx)

	newBody := "edited"
	_, err = env.ReminderService.Update(ctx, rem.ID, model.ReminderUpdateRequest{Body: &newBody})
	assert.ErrorIs(t, err, services.ErrNotPending)

	got, err := env.ReminderService.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Body)
}

func TestE2E_ChannelStateFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	transitions := []model.ChannelState{
		{Status: model.ChannelStatusConnecting},
		{Status: model.ChannelStatusScanning, QR: "2@pairing-code"},
		{Status: model.ChannelStatusConnected},
	}
	for _, st := range transitions {
		require.NoError(t, env.StateStore.Publish(st))
	}

	state, err := env.StateStore.Current()
	require.NoError(t, err)
	assert.Equal(t, model.ChannelStatusConnected, state.Status)
	assert.Empty(t, state.QR)

	events, err := env.StateStore.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.ChannelStatusConnected, events[0].Status)
	assert.Equal(t, model.ChannelStatusConnecting, events[2].Status)
}

func TestE2E_StatsReflectOutcomes(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	mk := func(body string, due bool) *model.Reminder {
		at := time.Now().Add(time.Hour)
		if due {
			at = time.Now().Add(-time.Minute)
		}
		rem, err := env.ReminderService.Create(ctx, model.ReminderCreateRequest{
			Owner:       "628111111111",
			Target:      "08973914602",
			Body:        body,
			ScheduledAt: at,
			Timezone:    model.TimezoneWIB,
		})
		require.NoError(t, err)
		return rem
	}

	mk("due one", true)
	mk("due two", true)
	mk("future", false)

	env.Scheduler.RunCycle(ctx)

	stats, err := env.ReminderService.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(0), stats.Failed)
}
