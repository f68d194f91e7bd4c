package fixtures

import (
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
)

const (
	TestOwner1 = "628111111111"
	TestOwner2 = "628222222222"
)

func NewTestReminder(owner, target, body string, scheduledAt time.Time) *model.Reminder {
	return &model.Reminder{
		ID:             0,
		Owner:          owner,
		Target:         target,
		Body:           body,
		ScheduledAt:    scheduledAt,
		SourceTimezone: model.TimezoneWIB,
		Status:         model.ReminderStatusPending,
		CreatedAt:      time.Now(),
	}
}

func NewTestReminderCreateRequest(owner, target, body string, scheduledAt time.Time, tz model.Timezone) model.ReminderCreateRequest {
	return model.ReminderCreateRequest{
		Owner:       owner,
		Target:      target,
		Body:        body,
		ScheduledAt: scheduledAt,
		Timezone:    tz,
	}
}

func NewTestDispatchLog(reminderID int64, outcome model.ReminderStatus, reason string) *model.DispatchLog {
	return &model.DispatchLog{
		ReminderID:  reminderID,
		Outcome:     outcome,
		Reason:      reason,
		AttemptedAt: time.Now(),
	}
}

var (
	ValidTargets = []string{
		"08973914602",
		"628973914602",
		"0897-3914-602",
		"+62 897 3914 602",
		"8973914602",
	}

	InvalidTargets = []string{
		"",
		"n/a",
		"---",
		"abc",
	}

	ValidBodies = []string{
		"minum obat",
		"meeting jam 3",
		"Short",
		"This is a longer reminder body with more content for testing purposes",
	}

	InvalidBodies = []string{
		"",
		"   ",
		"\n\t",
	}
)

func ReminderWithID(id int64) *model.Reminder {
	rem := NewTestReminder(TestOwner1, "08973914602", "Test", time.Now())
	rem.ID = id
	return rem
}

func ReminderCreateRequestWIB() model.ReminderCreateRequest {
	return NewTestReminderCreateRequest(TestOwner1, "08973914602", "reminder in WIB", time.Now().Add(time.Hour), model.TimezoneWIB)
}

func ReminderCreateRequestWITA() model.ReminderCreateRequest {
	return NewTestReminderCreateRequest(TestOwner1, "08973914602", "reminder in WITA", time.Now().Add(time.Hour), model.TimezoneWITA)
}

func ReminderCreateRequestInvalidTarget() model.ReminderCreateRequest {
	return NewTestReminderCreateRequest(TestOwner1, "", "Test reminder", time.Now().Add(time.Hour), model.TimezoneWIB)
}

func ReminderCreateRequestEmptyBody() model.ReminderCreateRequest {
	return NewTestReminderCreateRequest(TestOwner1, "08973914602", "", time.Now().Add(time.Hour), model.TimezoneWIB)
}

func ReminderFilterByOwner(owner string) model.ReminderFilter {
	return model.ReminderFilter{
		Owner:  &owner,
		Limit:  50,
		Offset: 0,
		Desc:   false,
	}
}

func ReminderFilterWithPagination(owner string, limit, offset int) model.ReminderFilter {
	return model.ReminderFilter{
		Owner:  &owner,
		Limit:  limit,
		Offset: offset,
		Desc:   false,
	}
}

func ReminderFilterByStatus(statuses ...model.ReminderStatus) model.ReminderFilter {
	return model.ReminderFilter{
		Statuses: statuses,
		Limit:    50,
		Offset:   0,
		Desc:     false,
	}
}

func ReminderFilterByTimeRange(owner string, from, to time.Time) model.ReminderFilter {
	return model.ReminderFilter{
		Owner:  &owner,
		From:   &from,
		To:     &to,
		Limit:  50,
		Offset: 0,
		Desc:   false,
	}
}
