package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

const transactionColumns = `id, user_id, direction, amount, category, description,
	photo_url, date, created_at, updated_at`

// CreateTransaction persists a new transaction.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	ts := now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = ts
	}
	txn.UpdatedAt = ts

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, direction, amount, category, description,
			photo_url, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, string(txn.Direction), txn.Amount, txn.Category,
		txn.Description, txn.PhotoURL, txn.Date, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	txn, err := s.scanTransactionRow(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// ListTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && !filter.StartDate.Before(*filter.EndDate) {
		return nil, ErrInvalidDateRange
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if filter.Direction != "" {
		query += ` AND direction = ?`
		args = append(args, string(filter.Direction))
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND date < ?`
		args = append(args, *filter.EndDate)
	}

	query += ` ORDER BY date DESC, created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := s.scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// UpdateTransaction replaces a transaction's mutable fields.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	txn.UpdatedAt = now()

	return s.execOne(ctx, fmt.Errorf("%w: transaction %s", common.ErrNotFound, txn.ID), `
		UPDATE transactions
		SET direction = ?, amount = ?, category = ?, description = ?, photo_url = ?,
			date = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, string(txn.Direction), txn.Amount, txn.Category, txn.Description, txn.PhotoURL,
		txn.Date, txn.UpdatedAt, txn.UserID, txn.ID)
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id), `
		DELETE FROM transactions WHERE user_id = ? AND id = ?
	`, userID, id)
}

func (s *SQLiteStorage) scanTransactionRow(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var direction string
	err := row.Scan(
		&txn.ID, &txn.UserID, &direction, &txn.Amount, &txn.Category,
		&txn.Description, &txn.PhotoURL, &txn.Date, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	txn.Direction = model.TransactionDirection(direction)
	return &txn, nil
}
