package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"dashboard/backend/internal/db"
	"dashboard/backend/internal/model"
)

const timerColumns = `id, user_id, name, duration_seconds, remaining_seconds, state, end_time,
		enable_completion_color, completion_color, enable_alarm, alarm_sound,
		display_order, created_at, updated_at`

type TimerRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewTimerRepository(database *sql.DB, dialect db.Dialect) *TimerRepository {
	return &TimerRepository{db: database, dialect: dialect}
}

func (r *TimerRepository) q(query string) string {
	return db.Rebind(r.dialect, query)
}

func (r *TimerRepository) Create(ctx context.Context, t *model.Timer) error {
	_, err := r.db.ExecContext(
		ctx,
		r.q(`INSERT INTO timers (`+timerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID,
		t.UserID,
		t.Name,
		t.DurationSeconds,
		t.RemainingSeconds,
		string(t.State),
		formatNullableTime(t.EndTime),
		t.EnableCompletionColor,
		t.CompletionColor,
		t.EnableAlarm,
		t.AlarmSound,
		t.DisplayOrder,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return errors.Wrap(err, "create timer")
	}
	return nil
}

func (r *TimerRepository) NextDisplayOrder(ctx context.Context, userID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(
		ctx,
		r.q(`SELECT COALESCE(MAX(display_order) + 1, 0) FROM timers WHERE user_id = ?`),
		userID,
	).Scan(&next)
	if err != nil {
		return 0, errors.Wrap(err, "next display order")
	}
	return next, nil
}

func (r *TimerRepository) List(ctx context.Context, userID string) ([]model.Timer, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.q(`SELECT `+timerColumns+`
		 FROM timers
		 WHERE user_id = ?
		 ORDER BY display_order ASC, created_at ASC`),
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list timers")
	}
	defer rows.Close()

	timers := make([]model.Timer, 0)
	for rows.Next() {
		t, scanErr := scanTimer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		timers = append(timers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate timers")
	}
	return timers, nil
}

func (r *TimerRepository) Get(ctx context.Context, userID, id string) (*model.Timer, error) {
	row := r.db.QueryRowContext(
		ctx,
		r.q(`SELECT `+timerColumns+` FROM timers WHERE id = ? AND user_id = ?`),
		id,
		userID,
	)
	return scanTimer(row)
}

func (r *TimerRepository) Update(ctx context.Context, userID, id string, patch model.TimerPatch, updatedAt time.Time) error {
	sets := make([]string, 0, 12)
	args := make([]interface{}, 0, 14)
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.DurationSeconds != nil {
		set("duration_seconds", *patch.DurationSeconds)
	}
	if patch.RemainingSeconds != nil {
		set("remaining_seconds", *patch.RemainingSeconds)
	}
	if patch.State != nil {
		set("state", string(*patch.State))
	}
	if patch.ClearEndTime {
		set("end_time", nil)
	} else if patch.EndTime != nil {
		set("end_time", formatTime(*patch.EndTime))
	}
	if patch.EnableCompletionColor != nil {
		set("enable_completion_color", *patch.EnableCompletionColor)
	}
	if patch.CompletionColor != nil {
		set("completion_color", *patch.CompletionColor)
	}
	if patch.EnableAlarm != nil {
		set("enable_alarm", *patch.EnableAlarm)
	}
	if patch.AlarmSound != nil {
		set("alarm_sound", *patch.AlarmSound)
	}
	if patch.DisplayOrder != nil {
		set("display_order", *patch.DisplayOrder)
	}
	set("updated_at", formatTime(updatedAt))
	args = append(args, id, userID)

	res, err := r.db.ExecContext(
		ctx,
		r.q(`UPDATE timers SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`),
		args...,
	)
	if err != nil {
		return errors.Wrap(err, "update timer")
	}
	return expectRow(res, "update timer")
}

// MarkCompleted reports false when the row was no longer running.
func (r *TimerRepository) MarkCompleted(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(
		ctx,
		r.q(`UPDATE timers
		 SET state = ?, remaining_seconds = 0, end_time = NULL, updated_at = ?
		 WHERE id = ? AND user_id = ? AND state = ?`),
		string(model.StateCompleted),
		formatTime(now),
		id,
		userID,
		string(model.StateRunning),
	)
	if err != nil {
		return false, errors.Wrap(err, "complete timer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "complete timer")
	}
	return n > 0, nil
}

func (r *TimerRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(
		ctx,
		r.q(`DELETE FROM timers WHERE id = ? AND user_id = ?`),
		id,
		userID,
	)
	if err != nil {
		return errors.Wrap(err, "delete timer")
	}
	return expectRow(res, "delete timer")
}

func (r *TimerRepository) SetDisplayOrders(ctx context.Context, userID string, ids []string, updatedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt := r.q(`UPDATE timers SET display_order = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	for i, id := range ids {
		res, err := tx.ExecContext(ctx, stmt, i, formatTime(updatedAt), id, userID)
		if err != nil {
			return errors.Wrap(err, "reorder timers")
		}
		if err := expectRow(res, "reorder timers"); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit reorder")
	}
	return nil
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTimer(s scanner) (*model.Timer, error) {
	t := model.Timer{}
	var state string
	var endTime sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.DurationSeconds,
		&t.RemainingSeconds,
		&state,
		&endTime,
		&t.EnableCompletionColor,
		&t.CompletionColor,
		&t.EnableAlarm,
		&t.AlarmSound,
		&t.DisplayOrder,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "scan timer")
	}
	t.State = model.TimerState(state)

	if endTime.Valid && endTime.String != "" {
		if parsed, parseErr := parseTime(endTime.String); parseErr == nil {
			t.EndTime = &parsed
		}
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, errors.Wrap(err, "parse timer created_at")
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, errors.Wrap(err, "parse timer updated_at")
	}
	return &t, nil
}
