// Package storage provides the data persistence layer for the snapjot application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snapjot/snapjot/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start time must be before end time")
	ErrInvalidTask        = errors.New("invalid task")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrInvalidNote        = errors.New("invalid note")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTask validates a single task.
func validateTask(task *model.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task", ErrNilParameter)
	}
	if task.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTask)
	}
	if task.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTask)
	}
	if task.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidTask)
	}
	if !task.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, task.Priority)
	}
	return nil
}

// validateEvent validates a single event.
func validateEvent(event *model.Event) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEvent)
	}
	if event.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidEvent)
	}
	if event.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidEvent)
	}
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		return fmt.Errorf("%w: missing time interval", ErrInvalidEvent)
	}
	if !event.EndTime.After(event.StartTime) {
		return fmt.Errorf("%w: end is not after start", ErrInvalidEvent)
	}
	return nil
}

// validateNote validates a single note.
func validateNote(note *model.Note) error {
	if note == nil {
		return fmt.Errorf("%w: note", ErrNilParameter)
	}
	if note.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidNote)
	}
	if note.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidNote)
	}
	if note.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidNote)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.Direction != model.DirectionExpense && txn.Direction != model.DirectionIncome {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidTransaction, txn.Direction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if txn.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	return nil
}
