package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snapjot/snapjot/internal/model"
)

// defaultCurrency is assumed when a user has never saved settings.
const defaultCurrency = "USD"

// GetSettings retrieves the settings singleton for a user. A user who has
// never saved settings gets defaults rather than a not-found error.
func (s *SQLiteStorage) GetSettings(ctx context.Context, userID string) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var settings model.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, currency, calendar_sync, calendar_token_file, updated_at
		FROM settings
		WHERE user_id = ?
	`, userID).Scan(
		&settings.UserID, &settings.Currency, &settings.CalendarSync,
		&settings.CalendarTokenFile, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Settings{
			UserID:   userID,
			Currency: defaultCurrency,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// UpdateSettings saves the settings singleton for a user, creating it on
// first write.
func (s *SQLiteStorage) UpdateSettings(ctx context.Context, settings *model.Settings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}
	if err := validateString(settings.UserID, "userID"); err != nil {
		return err
	}

	if settings.Currency == "" {
		settings.Currency = defaultCurrency
	}
	settings.UpdatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, currency, calendar_sync, calendar_token_file, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			currency = excluded.currency,
			calendar_sync = excluded.calendar_sync,
			calendar_token_file = excluded.calendar_token_file,
			updated_at = excluded.updated_at
	`, settings.UserID, settings.Currency, settings.CalendarSync,
		settings.CalendarTokenFile, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}
