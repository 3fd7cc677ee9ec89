package service

import (
	"context"

	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/model"
)

// OwnerTimers is TimerService bound to one owner, for views that run in the
// same process as the service.
type OwnerTimers struct {
	svc    *TimerService
	userID string
}

func (s *TimerService) ForOwner(userID string) *OwnerTimers {
	return &OwnerTimers{svc: s, userID: userID}
}

func (o *OwnerTimers) ListTimers(ctx context.Context) ([]model.Timer, error) {
	timers, apiErr := o.svc.ListTimers(ctx, o.userID)
	return timers, asError(apiErr)
}

func (o *OwnerTimers) StartTimer(ctx context.Context, id string) error {
	_, apiErr := o.svc.StartTimer(ctx, o.userID, id)
	return asError(apiErr)
}

func (o *OwnerTimers) PauseTimer(ctx context.Context, id string, remainingSeconds int) error {
	_, apiErr := o.svc.PauseTimer(ctx, o.userID, id, remainingSeconds)
	return asError(apiErr)
}

func (o *OwnerTimers) ResetTimer(ctx context.Context, id string) error {
	_, apiErr := o.svc.ResetTimer(ctx, o.userID, id)
	return asError(apiErr)
}

func (o *OwnerTimers) UpdateTimer(ctx context.Context, id string, patch model.TimerPatch) error {
	_, apiErr := o.svc.UpdateTimer(ctx, o.userID, id, patch)
	return asError(apiErr)
}

func (o *OwnerTimers) DeleteTimer(ctx context.Context, id string) error {
	return asError(o.svc.DeleteTimer(ctx, o.userID, id))
}

// asError keeps a nil *APIError from becoming a non-nil error.
func asError(apiErr *apperrors.APIError) error {
	if apiErr == nil {
		return nil
	}
	return apiErr
}
