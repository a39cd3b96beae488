package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

const eventColumns = `id, user_id, title, description, location, start_time, end_time,
	is_recurring, recurrence_rule, external_id, created_at, updated_at`

// CreateEvent persists a new event.
func (s *SQLiteStorage) CreateEvent(ctx context.Context, event *model.Event) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	ts := now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = ts
	}
	event.UpdatedAt = ts

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, user_id, title, description, location, start_time, end_time,
			is_recurring, recurrence_rule, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.UserID, event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime, event.IsRecurring, event.RecurrenceRule,
		event.ExternalID, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event by id.
func (s *SQLiteStorage) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	event, err := s.scanEventRow(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetEventByExternalID retrieves the event linked to an external calendar id.
func (s *SQLiteStorage) GetEventByExternalID(ctx context.Context, userID, externalID string) (*model.Event, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return nil, err
	}

	event, err := s.scanEventRow(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = ? AND external_id = ?`, userID, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event with external id %s", common.ErrNotFound, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by external id: %w", err)
	}

	return event, nil
}

// ListEventsByRange retrieves events that overlap [start, end), ordered by
// start time.
func (s *SQLiteStorage) ListEventsByRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, ErrInvalidDateRange
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC
	`, userID, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var event model.Event
		if err := rows.Scan(
			&event.ID, &event.UserID, &event.Title, &event.Description, &event.Location,
			&event.StartTime, &event.EndTime, &event.IsRecurring, &event.RecurrenceRule,
			&event.ExternalID, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// UpdateEvent replaces an event's mutable fields.
func (s *SQLiteStorage) UpdateEvent(ctx context.Context, event *model.Event) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	event.UpdatedAt = now()

	return s.execOne(ctx, fmt.Errorf("%w: event %s", common.ErrNotFound, event.ID), `
		UPDATE events
		SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
			is_recurring = ?, recurrence_rule = ?, external_id = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, event.Title, event.Description, event.Location, event.StartTime, event.EndTime,
		event.IsRecurring, event.RecurrenceRule, event.ExternalID, event.UpdatedAt,
		event.UserID, event.ID)
}

// DeleteEvent removes an event.
func (s *SQLiteStorage) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: event %s", common.ErrNotFound, id), `
		DELETE FROM events WHERE user_id = ? AND id = ?
	`, userID, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorage) scanEventRow(row rowScanner) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID, &event.UserID, &event.Title, &event.Description, &event.Location,
		&event.StartTime, &event.EndTime, &event.IsRecurring, &event.RecurrenceRule,
		&event.ExternalID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
