package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

const noteColumns = `id, user_id, title, content, photo_url, tags, pinned, created_at, updated_at`

// CreateNote persists a new note.
func (s *SQLiteStorage) CreateNote(ctx context.Context, note *model.Note) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return err
	}

	ts := now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = ts
	}
	note.UpdatedAt = ts

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, content, photo_url, tags, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.UserID, note.Title, note.Content, note.PhotoURL, tags,
		note.Pinned, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetNote retrieves a note by id.
func (s *SQLiteStorage) GetNote(ctx context.Context, userID, id string) (*model.Note, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	note, err := s.scanNoteRow(s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: note %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// GetNoteByTitle retrieves a note by exact title, compared case-insensitively.
// A note whose title merely contains the search string does not match.
func (s *SQLiteStorage) GetNoteByTitle(ctx context.Context, userID, title string) (*model.Note, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}

	note, err := s.scanNoteRow(s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = ? AND LOWER(title) = LOWER(?)
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: note titled %q", common.ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note by title: %w", err)
	}

	return note, nil
}

// ListNotes retrieves notes matching the filter, pinned notes first, then
// most recently updated.
func (s *SQLiteStorage) ListNotes(ctx context.Context, userID string, filter service.NoteFilter) ([]model.Note, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = ?`
	args := []any{userID}

	if filter.PinnedOnly {
		query += ` AND pinned = 1`
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array of strings.
		query += ` AND EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}

	query += ` ORDER BY pinned DESC, updated_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []model.Note
	for rows.Next() {
		note, err := s.scanNoteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

// UpdateNote replaces a note's mutable fields.
func (s *SQLiteStorage) UpdateNote(ctx context.Context, note *model.Note) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return err
	}

	note.UpdatedAt = now()

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: note %s", common.ErrNotFound, note.ID), `
		UPDATE notes
		SET title = ?, content = ?, photo_url = ?, tags = ?, pinned = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, note.Title, note.Content, note.PhotoURL, tags, note.Pinned, note.UpdatedAt,
		note.UserID, note.ID)
}

// DeleteNote removes a note.
func (s *SQLiteStorage) DeleteNote(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.execOne(ctx, fmt.Errorf("%w: note %s", common.ErrNotFound, id), `
		DELETE FROM notes WHERE user_id = ? AND id = ?
	`, userID, id)
}

func (s *SQLiteStorage) scanNoteRow(row rowScanner) (*model.Note, error) {
	var note model.Note
	var tags string
	err := row.Scan(
		&note.ID, &note.UserID, &note.Title, &note.Content, &note.PhotoURL,
		&tags, &note.Pinned, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode note tags: %w", err)
	}

	return &note, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode note tags: %w", err)
	}
	return string(encoded), nil
}
