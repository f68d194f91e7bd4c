package model

import "time"

// DispatchLog records one dispatch attempt for a reminder. The scheduler
// writes one row per attempt; with the current single-attempt policy a
// reminder has at most one.
type DispatchLog struct {
	ID          int64          `json:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	ReminderID  int64          `json:"reminder_id"  gorm:"column:reminder_id;not null;index"`
	Outcome     ReminderStatus `json:"outcome"      gorm:"column:outcome;not null"`
	Reason      string         `json:"reason,omitempty" gorm:"column:reason"`
	ElapsedMs   int64          `json:"elapsed_ms"   gorm:"column:elapsed_ms"`
	AttemptedAt time.Time      `json:"attempted_at" gorm:"column:attempted_at;autoCreateTime"`
}

func (DispatchLog) TableName() string { return "dispatch_logs" }
