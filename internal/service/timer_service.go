package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/events"
	"dashboard/backend/internal/metrics"
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/repository"
	"dashboard/backend/internal/timer"
)

type TimerService struct {
	repo    *repository.TimerRepository
	clock   clock.Clock
	emitter events.Emitter
	metrics *metrics.Recorder
	logger  *zap.Logger
}

type CreateTimerInput struct {
	Name                  string
	DurationSeconds       int
	EnableCompletionColor bool
	CompletionColor       *string
	EnableAlarm           bool
	AlarmSound            *string
	DisplayOrder          *int
}

func NewTimerService(
	repo *repository.TimerRepository,
	clk clock.Clock,
	emitter events.Emitter,
	rec *metrics.Recorder,
	logger *zap.Logger,
) *TimerService {
	if emitter == nil {
		emitter = events.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimerService{
		repo:    repo,
		clock:   clk,
		emitter: emitter,
		metrics: rec,
		logger:  logger,
	}
}

func (s *TimerService) ListTimers(ctx context.Context, userID string) (timers []model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("list", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}

	timers, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, s.persistenceError("list timers", err)
	}

	now := s.clock.Now()
	for i := range timers {
		timers[i] = s.reconcile(ctx, timers[i], now)
	}
	return timers, nil
}

func (s *TimerService) GetTimer(ctx context.Context, userID, id string) (t *model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("get", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}
	current, apiErr := s.load(ctx, userID, id, s.clock.Now())
	if apiErr != nil {
		return nil, apiErr
	}
	return &current, nil
}

func (s *TimerService) CreateTimer(ctx context.Context, userID string, input CreateTimerInput) (id string, apiErr *apperrors.APIError) {
	defer s.observe("create", &apiErr)
	if userID == "" {
		return "", apperrors.NotAuthenticated()
	}

	name := strings.TrimSpace(input.Name)
	if err := timer.ValidName(name); err != nil {
		return "", apperrors.Validation(err.Error())
	}
	if err := timer.ValidDuration(input.DurationSeconds); err != nil {
		return "", apperrors.Validation(err.Error())
	}

	color := model.DefaultCompletionColor
	if input.CompletionColor != nil {
		if err := timer.ValidColor(*input.CompletionColor); err != nil {
			return "", apperrors.Validation(err.Error())
		}
		color = *input.CompletionColor
	}
	sound := model.DefaultAlarmSound
	if input.AlarmSound != nil {
		if !model.IsAlarmSound(*input.AlarmSound) {
			return "", apperrors.Validation("Alarm sound must be one of " + strings.Join(model.AlarmSounds, ", "))
		}
		sound = *input.AlarmSound
	}

	var order int
	if input.DisplayOrder != nil {
		if *input.DisplayOrder < 0 {
			return "", apperrors.Validation("Display order must be non-negative")
		}
		order = *input.DisplayOrder
	} else {
		next, err := s.repo.NextDisplayOrder(ctx, userID)
		if err != nil {
			return "", s.persistenceError("next display order", err)
		}
		order = next
	}

	now := s.clock.Now().UTC()
	t := model.Timer{
		ID:                    uuid.NewString(),
		UserID:                userID,
		Name:                  name,
		DurationSeconds:       input.DurationSeconds,
		RemainingSeconds:      input.DurationSeconds,
		State:                 model.StateStopped,
		EnableCompletionColor: input.EnableCompletionColor,
		CompletionColor:       color,
		EnableAlarm:           input.EnableAlarm,
		AlarmSound:            sound,
		DisplayOrder:          order,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		return "", s.persistenceError("create timer", err)
	}
	return t.ID, nil
}

func (s *TimerService) UpdateTimer(ctx context.Context, userID, id string, patch model.TimerPatch) (t *model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("update", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}
	if patch.Empty() {
		return nil, apperrors.Validation("No fields to update")
	}
	if apiErr := validatePatch(&patch); apiErr != nil {
		return nil, apiErr
	}

	now := s.clock.Now().UTC()
	current, apiErr := s.load(ctx, userID, id, now)
	if apiErr != nil {
		return nil, apiErr
	}

	if patch.State != nil && *patch.State != model.StateRunning {
		patch.EndTime = nil
		patch.ClearEndTime = true
	}
	merged := patch.Apply(current)
	if merged.State == model.StateRunning && merged.EndTime == nil {
		end := timer.CalculateEndTime(merged.RemainingSeconds, now)
		patch.EndTime = &end
		patch.ClearEndTime = false
		merged = patch.Apply(current)
	}
	if err := timer.Validate(merged); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if apiErr := s.write(ctx, userID, id, patch, now); apiErr != nil {
		return nil, apiErr
	}
	merged.UpdatedAt = now

	if current.State != model.StateCompleted && merged.State == model.StateCompleted {
		s.emit(events.SourceUpdate, merged, current.EndTime, now)
	}
	return &merged, nil
}

func (s *TimerService) DeleteTimer(ctx context.Context, userID, id string) (apiErr *apperrors.APIError) {
	defer s.observe("delete", &apiErr)
	if userID == "" {
		return apperrors.NotAuthenticated()
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.TimerNotFound()
		}
		return s.persistenceError("delete timer", err)
	}
	return nil
}

func (s *TimerService) StartTimer(ctx context.Context, userID, id string) (t *model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("start", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}

	now := s.clock.Now().UTC()
	current, apiErr := s.load(ctx, userID, id, now)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := timer.Transition(current.State, timer.EventStart); err != nil || current.RemainingSeconds <= 0 {
		return nil, apperrors.BadRequest("invalid_transition", "Timer has completed; reset it before starting again")
	}
	if current.State == model.StateRunning {
		return &current, nil
	}

	state := model.StateRunning
	end := timer.CalculateEndTime(current.RemainingSeconds, now)
	patch := model.TimerPatch{State: &state, EndTime: &end}
	if apiErr := s.write(ctx, userID, id, patch, now); apiErr != nil {
		return nil, apiErr
	}

	started := patch.Apply(current)
	started.UpdatedAt = now
	return &started, nil
}

// PauseTimer trusts the caller's snapshot, which may trail by one tick.
func (s *TimerService) PauseTimer(ctx context.Context, userID, id string, remainingSeconds int) (t *model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("pause", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}
	if remainingSeconds < 0 {
		return nil, apperrors.Validation("Remaining seconds must be non-negative")
	}

	now := s.clock.Now().UTC()
	current, apiErr := s.load(ctx, userID, id, now)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := timer.Transition(current.State, timer.EventPause); err != nil {
		return nil, apperrors.BadRequest("invalid_transition", "Only a running timer can be paused")
	}
	if remainingSeconds > current.DurationSeconds {
		remainingSeconds = current.DurationSeconds
	}

	state := model.StatePaused
	patch := model.TimerPatch{State: &state, RemainingSeconds: &remainingSeconds, ClearEndTime: true}
	if apiErr := s.write(ctx, userID, id, patch, now); apiErr != nil {
		return nil, apiErr
	}

	paused := patch.Apply(current)
	paused.UpdatedAt = now
	return &paused, nil
}

func (s *TimerService) ResetTimer(ctx context.Context, userID, id string) (t *model.Timer, apiErr *apperrors.APIError) {
	defer s.observe("reset", &apiErr)
	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}

	now := s.clock.Now().UTC()
	current, apiErr := s.load(ctx, userID, id, now)
	if apiErr != nil {
		return nil, apiErr
	}

	state, _ := timer.Transition(current.State, timer.EventReset)
	remaining := current.DurationSeconds
	patch := model.TimerPatch{State: &state, RemainingSeconds: &remaining, ClearEndTime: true}
	if apiErr := s.write(ctx, userID, id, patch, now); apiErr != nil {
		return nil, apiErr
	}

	reset := patch.Apply(current)
	reset.UpdatedAt = now
	return &reset, nil
}

func (s *TimerService) ReorderTimers(ctx context.Context, userID string, ids []string) (apiErr *apperrors.APIError) {
	defer s.observe("reorder", &apiErr)
	if userID == "" {
		return apperrors.NotAuthenticated()
	}
	if len(ids) == 0 {
		return apperrors.Validation("At least one timer id is required")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apperrors.Validation("Timer ids must be unique")
		}
		seen[id] = struct{}{}
	}

	if err := s.repo.SetDisplayOrders(ctx, userID, ids, s.clock.Now().UTC()); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.TimerNotFound()
		}
		return s.persistenceError("reorder timers", err)
	}
	return nil
}

func (s *TimerService) load(ctx context.Context, userID, id string, now time.Time) (model.Timer, *apperrors.APIError) {
	stored, err := s.repo.Get(ctx, userID, id)
	if err == repository.ErrNotFound {
		return model.Timer{}, apperrors.TimerNotFound()
	}
	if err != nil {
		return model.Timer{}, s.persistenceError("get timer", err)
	}
	return s.reconcile(ctx, *stored, now), nil
}

func (s *TimerService) reconcile(ctx context.Context, stored model.Timer, now time.Time) model.Timer {
	synced := timer.SyncTimerState(stored, now)
	if stored.State != model.StateRunning || synced.State != model.StateCompleted {
		return synced
	}

	changed, err := s.repo.MarkCompleted(ctx, stored.UserID, stored.ID, now.UTC())
	if err != nil {
		s.logger.Warn("persist reconciled completion",
			zap.String("timer_id", stored.ID),
			zap.String("user_id", stored.UserID),
			zap.Error(err),
		)
		return synced
	}
	if changed {
		synced.UpdatedAt = now.UTC()
		s.emit(events.SourceReconcile, synced, stored.EndTime, now)
	}
	return synced
}

func (s *TimerService) write(ctx context.Context, userID, id string, patch model.TimerPatch, now time.Time) *apperrors.APIError {
	if err := s.repo.Update(ctx, userID, id, patch, now); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.TimerNotFound()
		}
		return s.persistenceError("update timer", err)
	}
	return nil
}

func (s *TimerService) emit(source events.Source, t model.Timer, runEnd *time.Time, now time.Time) {
	s.metrics.Completion(string(source))
	s.logger.Info("timer completed",
		zap.String("timer_id", t.ID),
		zap.String("user_id", t.UserID),
		zap.String("source", string(source)),
	)
	s.emitter.Publish(events.Completion{Timer: t, Source: source, RunEnd: runEnd, At: now})
}

func (s *TimerService) persistenceError(op string, err error) *apperrors.APIError {
	s.logger.Error(op, zap.Error(err))
	return apperrors.Internal(errors.Cause(err).Error())
}

func (s *TimerService) observe(op string, apiErr **apperrors.APIError) {
	s.metrics.Operation(op, *apiErr == nil)
}

func validatePatch(patch *model.TimerPatch) *apperrors.APIError {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := timer.ValidName(name); err != nil {
			return apperrors.Validation(err.Error())
		}
		patch.Name = &name
	}
	if patch.DurationSeconds != nil {
		if err := timer.ValidDuration(*patch.DurationSeconds); err != nil {
			return apperrors.Validation(err.Error())
		}
	}
	if patch.RemainingSeconds != nil && *patch.RemainingSeconds < 0 {
		return apperrors.Validation("Remaining seconds must be non-negative")
	}
	if patch.State != nil && !patch.State.Valid() {
		return apperrors.Validation("State must be one of stopped, running, paused, completed")
	}
	if patch.DisplayOrder != nil && *patch.DisplayOrder < 0 {
		return apperrors.Validation("Display order must be non-negative")
	}
	if patch.CompletionColor != nil {
		if err := timer.ValidColor(*patch.CompletionColor); err != nil {
			return apperrors.Validation(err.Error())
		}
	}
	if patch.AlarmSound != nil && !model.IsAlarmSound(*patch.AlarmSound) {
		return apperrors.Validation("Alarm sound must be one of " + strings.Join(model.AlarmSounds, ", "))
	}
	return nil
}
