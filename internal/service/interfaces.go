// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/snapjot/snapjot/internal/model"
)

// TaskFilter defines filtering options for task list queries.
type TaskFilter struct {
	DueBefore   *time.Time
	PendingOnly bool
	Limit       int
	Offset      int
}

// NoteFilter defines filtering options for note list queries.
type NoteFilter struct {
	Tag        string
	PinnedOnly bool
	Limit      int
	Offset     int
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Direction model.TransactionDirection
	Category  string
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer. Every operation is
// scoped to an explicit user id; there is no ambient current user.
type Storage interface {
	// Task operations
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	CompleteTask(ctx context.Context, userID, id string) error
	DeleteTask(ctx context.Context, userID, id string) error

	// Event operations
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, userID, id string) (*model.Event, error)
	GetEventByExternalID(ctx context.Context, userID, externalID string) (*model.Event, error)
	ListEventsByRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, userID, id string) error

	// Note operations
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, userID, id string) (*model.Note, error)
	GetNoteByTitle(ctx context.Context, userID, title string) (*model.Note, error)
	ListNotes(ctx context.Context, userID string, filter NoteFilter) ([]model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, userID, id string) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	// Settings operations
	GetSettings(ctx context.Context, userID string) (*model.Settings, error)
	UpdateSettings(ctx context.Context, settings *model.Settings) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Classifier defines the contract for the natural-language classifier gateway.
type Classifier interface {
	Classify(ctx context.Context, text string, now time.Time) (model.ClassifiedCapture, error)
}

// ObjectStore defines the contract for the photo attachment backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Attacher defines the contract for the attachment pipeline.
type Attacher interface {
	Attach(ctx context.Context, photo model.PhotoBlob, kind model.RecordKind) (string, error)
	Detach(ctx context.Context, url string) error
}

// CalendarBridge defines the contract for the external calendar provider.
// Push returns the external event id, or an empty string when sync was
// skipped because no valid token is available.
type CalendarBridge interface {
	Push(ctx context.Context, event *model.Event) (string, error)
	Pull(ctx context.Context, userID string, since time.Time) (int, error)
	Delete(ctx context.Context, externalID string) error
}
