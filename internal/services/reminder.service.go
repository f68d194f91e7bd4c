package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/internal/repository"
)

var (
	ErrBodyTooLong = fmt.Errorf("reminder body exceeds maximum length")
	ErrNotPending  = errors.New("reminder is not pending")
	ErrNotFound    = errors.New("reminder not found")
)

type ReminderRepository interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	Get(ctx context.Context, id int64) (*model.Reminder, error)
	List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error)
	UpdateIfPending(ctx context.Context, id int64, p model.ReminderUpdateRequest) (bool, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (*model.StatusCounts, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Admission interface {
	CanCreate(ctx context.Context, owner string) error
	CurrentPending(ctx context.Context, owner string) (int64, int, error)
}

type ReminderService struct {
	reminderRepo ReminderRepository
	admission    Admission
	maxBodyLen   int
}

func NewReminderService(reminderRepo ReminderRepository, admission Admission, maxBodyLen int) *ReminderService {
	if maxBodyLen <= 0 {
		maxBodyLen = 4096
	}
	return &ReminderService{
		reminderRepo: reminderRepo,
		admission:    admission,
		maxBodyLen:   maxBodyLen,
	}
}

// Create validates, converts the schedule to canonical time, and inserts.
// The quota is re-checked against the store inside the insert transaction
// so a stale earlier check cannot let an owner far past the cap.
func (s *ReminderService) Create(ctx context.Context, p model.ReminderCreateRequest) (*model.Reminder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.Target = strings.TrimSpace(p.Target)
	p.Body = strings.TrimSpace(p.Body)
	if s.maxBodyLen > 0 && utf8.RuneCountInString(p.Body) > s.maxBodyLen {
		return nil, ErrBodyTooLong
	}

	rem := &model.Reminder{
		Owner:          p.Owner,
		Target:         p.Target,
		Body:           p.Body,
		ScheduledAt:    p.Timezone.ToCanonical(p.ScheduledAt),
		SourceTimezone: p.Timezone,
		Status:         model.ReminderStatusPending,
	}

	var created *model.Reminder
	err := s.reminderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.admission.CanCreate(ctx, p.Owner); err != nil {
			return err
		}
		c, err := s.reminderRepo.Create(ctx, rem)
		if err != nil {
			return fmt.Errorf("create reminder: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update edits a reminder that is still pending. A schedule change is
// interpreted in the request's timezone (or the reminder's stored one when
// the timezone is not being changed) and converted to canonical.
func (s *ReminderService) Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) (*model.Reminder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// Nothing to change; hand back the current record.
	if p.Target == nil && p.Body == nil && p.ScheduledAt == nil && p.Timezone == nil {
		return s.Get(ctx, id)
	}

	if p.ScheduledAt != nil {
		tz := p.Timezone
		if tz == nil {
			existing, err := s.reminderRepo.Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrNotFound
				}
				return nil, err
			}
			tz = &existing.SourceTimezone
		}
		canonical := tz.ToCanonical(*p.ScheduledAt)
		p.ScheduledAt = &canonical
	}
	if p.Target != nil {
		trimmed := strings.TrimSpace(*p.Target)
		p.Target = &trimmed
	}
	if p.Body != nil {
		trimmed := strings.TrimSpace(*p.Body)
		if s.maxBodyLen > 0 && utf8.RuneCountInString(trimmed) > s.maxBodyLen {
			return nil, ErrBodyTooLong
		}
		p.Body = &trimmed
	}

	ok, err := s.reminderRepo.UpdateIfPending(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Either gone or already dispatched; disambiguate for the caller.
		if _, err := s.reminderRepo.Get(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrNotPending
	}

	return s.reminderRepo.Get(ctx, id)
}

func (s *ReminderService) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	rem, err := s.reminderRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rem, nil
}

func (s *ReminderService) List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error) {
	return s.reminderRepo.List(ctx, f)
}

func (s *ReminderService) Delete(ctx context.Context, id int64) error {
	err := s.reminderRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ReminderService) Quota(ctx context.Context, owner string) (int64, int, error) {
	return s.admission.CurrentPending(ctx, owner)
}

func (s *ReminderService) Stats(ctx context.Context) (*model.StatusCounts, error) {
	return s.reminderRepo.CountByStatus(ctx)
}
