package model

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// ReminderStatus is the lifecycle state of a reminder. Transitions out of
// pending are terminal: the scheduler never revisits a sent or failed record.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusFailed  ReminderStatus = "failed"
)

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusSent, ReminderStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the reminder's lifecycle.
func (s ReminderStatus) Terminal() bool {
	return s == ReminderStatusSent || s == ReminderStatusFailed
}

type Reminder struct {
	ID     int64  `json:"id"      db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Owner  string `json:"owner"   db:"owner"   gorm:"column:owner;index"`
	Target string `json:"target"  db:"target"  gorm:"column:target;not null"` // raw user-entered phone, normalized at dispatch
	Body   string `json:"body"    db:"body"    gorm:"column:body;not null"`
	// ScheduledAt is always in canonical time (WIB). SourceTimezone records
	// what the user picked so the edit path can show their local time again.
	ScheduledAt    time.Time      `json:"scheduled_at"    db:"scheduled_at"    gorm:"column:scheduled_at;not null;index"`
	SourceTimezone Timezone       `json:"source_timezone" db:"source_timezone" gorm:"column:source_timezone;not null"`
	Status         ReminderStatus `json:"status"          db:"status"          gorm:"column:status;not null;default:pending;index"`
	CreatedAt      time.Time      `json:"created_at"      db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (Reminder) TableName() string { return "reminders" }

// LocalScheduledAt converts the stored canonical instant back to the
// timezone the reminder was created in.
func (r *Reminder) LocalScheduledAt() time.Time {
	return r.SourceTimezone.FromCanonical(r.ScheduledAt)
}

var (
	ErrMissingTarget   = errors.New("target phone number is required")
	ErrInvalidTarget   = errors.New("target phone number must contain digits")
	ErrEmptyBody       = errors.New("reminder body cannot be empty")
	ErrMissingSchedule = errors.New("scheduled time is required")
	ErrInvalidTimezone = errors.New("unknown timezone")
)

// ReminderCreateRequest is the input for creating a reminder. ScheduledAt is
// interpreted in Timezone and converted to canonical before persisting.
type ReminderCreateRequest struct {
	Owner       string
	Target      string
	Body        string
	ScheduledAt time.Time
	Timezone    Timezone
}

func (p ReminderCreateRequest) Validate() error {
	if strings.TrimSpace(p.Target) == "" {
		return ErrMissingTarget
	}
	if !containsDigit(p.Target) {
		return ErrInvalidTarget
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrEmptyBody
	}
	if p.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	if !p.Timezone.Valid() {
		return ErrInvalidTimezone
	}
	return nil
}

// ReminderUpdateRequest carries the editable fields. Nil means "leave as is".
// Updates only apply while the reminder is still pending.
type ReminderUpdateRequest struct {
	Target      *string
	Body        *string
	ScheduledAt *time.Time
	Timezone    *Timezone
}

func (p ReminderUpdateRequest) Validate() error {
	if p.Target != nil {
		if strings.TrimSpace(*p.Target) == "" {
			return ErrMissingTarget
		}
		if !containsDigit(*p.Target) {
			return ErrInvalidTarget
		}
	}
	if p.Body != nil && strings.TrimSpace(*p.Body) == "" {
		return ErrEmptyBody
	}
	if p.ScheduledAt != nil && p.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	if p.Timezone != nil && !p.Timezone.Valid() {
		return ErrInvalidTimezone
	}
	return nil
}

// ReminderFilter controls List queries.
type ReminderFilter struct {
	Owner    *string
	Statuses []ReminderStatus
	From     *time.Time
	To       *time.Time
	Limit    int // default 50
	Offset   int
	Desc     bool // order by created_at
}

// StatusCounts is the dashboard aggregate.
type StatusCounts struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
