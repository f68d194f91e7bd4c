package repository

import (
	"context"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/pg"
)

type DispatchLogRepository struct {
	*pg.DB
}

func NewDispatchLogRepository(db *pg.DB) *DispatchLogRepository {
	return &DispatchLogRepository{
		db,
	}
}

func (r *DispatchLogRepository) Create(ctx context.Context, l *model.DispatchLog) (*model.DispatchLog, error) {
	entity := toDispatchLogEntity(l)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDispatchLogModel(entity), nil
}

func (r *DispatchLogRepository) ListByReminder(ctx context.Context, reminderID int64) ([]*model.DispatchLog, error) {
	var entities []*DispatchLogEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("reminder_id = ?", reminderID).
		Order("attempted_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toDispatchLogModels(entities), nil
}

func (r *DispatchLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).Model(&DispatchLogEntity{}).Count(&count).Error
	return count, err
}
