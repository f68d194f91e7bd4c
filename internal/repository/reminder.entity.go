package repository

import (
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
)

type ReminderEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Owner          string    `db:"owner"           gorm:"column:owner;index"`
	Target         string    `db:"target"          gorm:"column:target;not null"`
	Body           string    `db:"body"            gorm:"column:body;not null"`
	ScheduledAt    time.Time `db:"scheduled_at"    gorm:"column:scheduled_at;not null;index"`
	SourceTimezone string    `db:"source_timezone" gorm:"column:source_timezone;not null;default:WIB"`
	Status         string    `db:"status"          gorm:"column:status;not null;default:pending;index"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (ReminderEntity) TableName() string {
	return "reminders"
}

func toReminderEntity(r *model.Reminder) *ReminderEntity {
	if r == nil {
		return nil
	}
	return &ReminderEntity{
		ID:             r.ID,
		Owner:          r.Owner,
		Target:         r.Target,
		Body:           r.Body,
		ScheduledAt:    r.ScheduledAt,
		SourceTimezone: string(r.SourceTimezone),
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
	}
}

func toReminderModel(e *ReminderEntity) *model.Reminder {
	if e == nil {
		return nil
	}
	return &model.Reminder{
		ID:             e.ID,
		Owner:          e.Owner,
		Target:         e.Target,
		Body:           e.Body,
		ScheduledAt:    e.ScheduledAt,
		SourceTimezone: model.Timezone(e.SourceTimezone),
		Status:         model.ReminderStatus(e.Status),
		CreatedAt:      e.CreatedAt,
	}
}

func toReminderModels(entities []*ReminderEntity) []*model.Reminder {
	if entities == nil {
		return nil
	}
	models := make([]*model.Reminder, len(entities))
	for i, e := range entities {
		models[i] = toReminderModel(e)
	}
	return models
}
