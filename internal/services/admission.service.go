package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuotaExceeded is surfaced to the caller when an owner already has the
// maximum number of pending reminders. User-correctable: delete one or wait
// for dispatch.
var ErrQuotaExceeded = errors.New("pending reminder quota exceeded")

type PendingCounter interface {
	CountPending(ctx context.Context, owner string) (int64, error)
}

// AdmissionService enforces the per-owner cap on concurrently pending
// reminders. It only guards the creation path; dispatch is never blocked
// by quota.
type AdmissionService struct {
	counter    PendingCounter
	maxPending int
}

func NewAdmissionService(counter PendingCounter, maxPending int) *AdmissionService {
	if maxPending <= 0 {
		maxPending = 10
	}
	return &AdmissionService{
		counter:    counter,
		maxPending: maxPending,
	}
}

// CanCreate re-reads the pending count from the store and rejects when the
// cap is reached. Callers run this immediately before the insert; the quota
// is soft, so a lost race only overshoots by one.
func (s *AdmissionService) CanCreate(ctx context.Context, owner string) error {
	count, err := s.counter.CountPending(ctx, owner)
	if err != nil {
		return fmt.Errorf("count pending reminders: %w", err)
	}
	if count >= int64(s.maxPending) {
		return ErrQuotaExceeded
	}
	return nil
}

// CurrentPending returns the owner's pending count and the configured cap,
// for quota display in the UI.
func (s *AdmissionService) CurrentPending(ctx context.Context, owner string) (int64, int, error) {
	count, err := s.counter.CountPending(ctx, owner)
	if err != nil {
		return 0, s.maxPending, fmt.Errorf("count pending reminders: %w", err)
	}
	return count, s.maxPending, nil
}
