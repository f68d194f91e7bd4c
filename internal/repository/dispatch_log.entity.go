package repository

import (
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
)

type DispatchLogEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	ReminderID  int64     `db:"reminder_id"  gorm:"column:reminder_id;not null;index"`
	Outcome     string    `db:"outcome"      gorm:"column:outcome;not null"`
	Reason      string    `db:"reason"       gorm:"column:reason"`
	ElapsedMs   int64     `db:"elapsed_ms"   gorm:"column:elapsed_ms"`
	AttemptedAt time.Time `db:"attempted_at" gorm:"column:attempted_at;autoCreateTime"`
}

func (DispatchLogEntity) TableName() string {
	return "dispatch_logs"
}

func toDispatchLogEntity(l *model.DispatchLog) *DispatchLogEntity {
	if l == nil {
		return nil
	}
	return &DispatchLogEntity{
		ID:          l.ID,
		ReminderID:  l.ReminderID,
		Outcome:     string(l.Outcome),
		Reason:      l.Reason,
		ElapsedMs:   l.ElapsedMs,
		AttemptedAt: l.AttemptedAt,
	}
}

func toDispatchLogModel(e *DispatchLogEntity) *model.DispatchLog {
	if e == nil {
		return nil
	}
	return &model.DispatchLog{
		ID:          e.ID,
		ReminderID:  e.ReminderID,
		Outcome:     model.ReminderStatus(e.Outcome),
		Reason:      e.Reason,
		ElapsedMs:   e.ElapsedMs,
		AttemptedAt: e.AttemptedAt,
	}
}

func toDispatchLogModels(entities []*DispatchLogEntity) []*model.DispatchLog {
	if entities == nil {
		return nil
	}
	models := make([]*model.DispatchLog, len(entities))
	for i, e := range entities {
		models[i] = toDispatchLogModel(e)
	}
	return models
}
