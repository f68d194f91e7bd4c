package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a reminder does not exist.
	ErrNotFound = errors.New("reminder not found")
)

type ReminderRepository struct {
	*pg.DB
}

func NewReminderRepository(db *pg.DB) *ReminderRepository {
	return &ReminderRepository{
		db,
	}
}

func (r *ReminderRepository) Create(ctx context.Context, rem *model.Reminder) (*model.Reminder, error) {
	entity := toReminderEntity(rem)
	if entity.Status == "" {
		entity.Status = string(model.ReminderStatusPending)
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toReminderModel(entity), nil
}

func (r *ReminderRepository) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	var entity ReminderEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toReminderModel(&entity), nil
}

// ListDue returns every pending reminder whose scheduled instant has passed,
// oldest schedule first so long-overdue reminders go out before fresh ones.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	var entities []*ReminderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ?", string(model.ReminderStatusPending)).
		Where("scheduled_at <= ?", now).
		Order("scheduled_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toReminderModels(entities), nil
}

// UpdateStatus finalizes a reminder. It only moves records out of pending,
// so re-applying an outcome is a no-op and a terminal status is never
// overwritten.
func (r *ReminderRepository) UpdateStatus(ctx context.Context, id int64, status model.ReminderStatus) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&ReminderEntity{}).
		Where("id = ? AND status = ?", id, string(model.ReminderStatusPending)).
		Update("status", string(status)).Error
}

// UpdateIfPending applies the edit only while the reminder is still pending.
// Returns false when the record is gone or already dispatched.
func (r *ReminderRepository) UpdateIfPending(ctx context.Context, id int64, p model.ReminderUpdateRequest) (bool, error) {
	fields := map[string]interface{}{}
	if p.Target != nil {
		fields["target"] = *p.Target
	}
	if p.Body != nil {
		fields["body"] = *p.Body
	}
	if p.ScheduledAt != nil {
		fields["scheduled_at"] = *p.ScheduledAt
	}
	if p.Timezone != nil {
		fields["source_timezone"] = string(*p.Timezone)
	}
	if len(fields) == 0 {
		return false, nil
	}

	res := r.Write(ctx).WithContext(ctx).
		Model(&ReminderEntity{}).
		Where("id = ? AND status = ?", id, string(model.ReminderStatusPending)).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a reminder regardless of status. Owners may clean up
// sent and failed records.
func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).WithContext(ctx).Delete(&ReminderEntity{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPending backs the per-owner admission check.
func (r *ReminderRepository) CountPending(ctx context.Context, owner string) (int64, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&ReminderEntity{}).
		Where("owner = ? AND status = ?", owner, string(model.ReminderStatusPending)).
		Count(&count).Error
	return count, err
}

func (r *ReminderRepository) List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ReminderEntity{})

	if f.Owner != nil {
		q = q.Where("owner = ?", *f.Owner)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ReminderEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toReminderModels(entities), total, nil
}

// CountByStatus feeds the dashboard stats endpoint.
func (r *ReminderRepository) CountByStatus(ctx context.Context) (*model.StatusCounts, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.Read(ctx).WithContext(ctx).
		Model(&ReminderEntity{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &model.StatusCounts{}
	for _, rw := range rows {
		counts.Total += rw.N
		switch model.ReminderStatus(rw.Status) {
		case model.ReminderStatusPending:
			counts.Pending = rw.N
		case model.ReminderStatusSent:
			counts.Sent = rw.N
		case model.ReminderStatusFailed:
			counts.Failed = rw.N
		}
	}
	return counts, nil
}
