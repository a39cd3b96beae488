// Package merge decides whether a newly classified note should be appended to
// an existing bucket note (a note acting as an append-only running list,
// identified by its title) instead of creating a new record.
//
// Merged entries cannot be individually retracted; deleting the bucket note
// deletes the whole list. This is a known limitation of the running-list
// model, not a bug.
package merge

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

// NoteFinder is the slice of the storage contract the resolver needs.
type NoteFinder interface {
	GetNoteByTitle(ctx context.Context, userID, title string) (*model.Note, error)
}

// Action is the outcome of a merge decision.
type Action int

// Merge decision outcomes.
const (
	CreateNew Action = iota
	AppendTo
)

// Decision describes how a note capture should be persisted. For AppendTo,
// NoteID names the bucket note and Content is its full merged content. For
// CreateNew, Title and Content are the new note's fields.
type Decision struct {
	Action  Action
	NoteID  string
	Title   string
	Content string
}

// bucketPattern splits "<bucket>: <entry>" or "<bucket> - <entry>" at the
// first colon or hyphen. It is a deliberate heuristic, not a parser; inputs
// with no separator never match.
var bucketPattern = regexp.MustCompile(`(?s)^(.+?)(?::|-)\s*(.+)$`)

// SplitBucketEntry applies the bucket heuristic to text. It reports ok=false
// when there is no separator or either half is empty after trimming.
func SplitBucketEntry(text string) (bucket, entry string, ok bool) {
	m := bucketPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}

	bucket = strings.TrimSpace(m[1])
	entry = strings.TrimSpace(m[2])
	if bucket == "" || entry == "" {
		return "", "", false
	}

	return bucket, entry, true
}

// Resolver decides between appending to a bucket note and creating a new one.
type Resolver struct {
	storage NoteFinder
	logger  *slog.Logger
}

// NewResolver creates a merge resolver backed by the given storage.
func NewResolver(storage NoteFinder, logger *slog.Logger) *Resolver {
	return &Resolver{storage: storage, logger: logger}
}

// Resolve inspects a parsed note for the bucket pattern and looks up an
// existing note whose title equals the bucket, case-insensitively. Entries
// are HTML-escaped before they are rendered into the list, so markup in
// capture text cannot inject into the stored note.
func (r *Resolver) Resolve(ctx context.Context, userID string, note model.ParsedNote) (Decision, error) {
	bucket, entry, ok := SplitBucketEntry(note.Title)
	if !ok {
		bucket, entry, ok = SplitBucketEntry(note.Content)
	}
	if !ok {
		return Decision{Action: CreateNew, Title: note.Title, Content: note.Content}, nil
	}

	rendered := renderEntry(entry)

	existing, err := r.storage.GetNoteByTitle(ctx, userID, bucket)
	if err != nil {
		if !isNotFound(err) {
			return Decision{}, fmt.Errorf("bucket lookup failed: %w", err)
		}

		// First item of a new running list.
		return Decision{Action: CreateNew, Title: bucket, Content: rendered}, nil
	}

	r.logger.Debug("appending to bucket note",
		"bucket", existing.Title,
		"note_id", existing.ID)

	return Decision{
		Action:  AppendTo,
		NoteID:  existing.ID,
		Title:   existing.Title,
		Content: appendContent(existing.Content, rendered),
	}, nil
}

// renderEntry escapes an entry and wraps it in a list-item fragment.
func renderEntry(entry string) string {
	return "<li>" + html.EscapeString(entry) + "</li>"
}

// appendContent adds a rendered entry to prior content, inserting a line
// separator only when the prior content does not already end in one. Prior
// entries are never rewritten.
func appendContent(prior, rendered string) string {
	if prior == "" {
		return rendered
	}
	if strings.HasSuffix(prior, "\n") {
		return prior + rendered
	}
	return prior + "\n" + rendered
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
