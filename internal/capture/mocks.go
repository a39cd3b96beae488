package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

// MockClassifier is a test implementation of the Classifier interface. It
// returns the scripted capture, or Err when set.
type MockClassifier struct {
	Result model.ClassifiedCapture
	Err    error
	mu     sync.Mutex
	calls  []string
}

// Classify returns the scripted result and records the input text.
func (m *MockClassifier) Classify(_ context.Context, text string, _ time.Time) (model.ClassifiedCapture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.Err != nil {
		return model.ClassifiedCapture{}, m.Err
	}
	return m.Result, nil
}

// Calls returns the texts classified so far.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockAttacher is a test implementation of the Attacher interface.
type MockAttacher struct {
	AttachErr error
	DetachErr error
	mu        sync.Mutex
	attached  []string
	detached  []string
}

// Attach returns a deterministic URL derived from the photo filename.
func (m *MockAttacher) Attach(_ context.Context, photo model.PhotoBlob, kind model.RecordKind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AttachErr != nil {
		return "", m.AttachErr
	}
	url := fmt.Sprintf("https://photos.test/%s/%s", kind, photo.Filename)
	m.attached = append(m.attached, url)
	return url, nil
}

// Detach records the URL and returns DetachErr when set.
func (m *MockAttacher) Detach(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = append(m.detached, url)
	return m.DetachErr
}

// Attached returns the URLs uploaded so far.
func (m *MockAttacher) Attached() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.attached...)
}

// Detached returns the URLs deleted so far.
func (m *MockAttacher) Detached() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.detached...)
}

// MockBridge is a test implementation of the CalendarBridge interface.
type MockBridge struct {
	PushID    string
	PushErr   error
	DeleteErr error
	mu        sync.Mutex
	pushed    []model.Event
	deleted   []string
}

// Push records the event and returns the scripted external id.
func (m *MockBridge) Push(_ context.Context, event *model.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PushErr != nil {
		return "", m.PushErr
	}
	m.pushed = append(m.pushed, *event)
	return m.PushID, nil
}

// Pull is a no-op for the mock.
func (m *MockBridge) Pull(_ context.Context, _ string, _ time.Time) (int, error) {
	return 0, nil
}

// Delete records the external id and returns DeleteErr when set.
func (m *MockBridge) Delete(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, externalID)
	return m.DeleteErr
}

// Pushed returns the events pushed so far.
func (m *MockBridge) Pushed() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Event(nil), m.pushed...)
}

// Deleted returns the external ids deleted so far.
func (m *MockBridge) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// MockStorage is an in-memory implementation of the Storage interface.
type MockStorage struct {
	CreateTaskErr        error
	CreateEventErr       error
	CreateNoteErr        error
	CreateTransactionErr error
	UpdateEventErr       error

	mu           sync.Mutex
	tasks        map[string]model.Task
	events       map[string]model.Event
	notes        map[string]model.Note
	transactions map[string]model.Transaction
	settings     map[string]model.Settings
}

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		tasks:        make(map[string]model.Task),
		events:       make(map[string]model.Event),
		notes:        make(map[string]model.Note),
		transactions: make(map[string]model.Transaction),
		settings:     make(map[string]model.Settings),
	}
}

// CreateTask stores a task.
func (m *MockStorage) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateTaskErr != nil {
		return m.CreateTaskErr
	}
	m.tasks[task.ID] = *task
	return nil
}

// GetTask retrieves a task.
func (m *MockStorage) GetTask(_ context.Context, userID, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &task, nil
}

// ListTasks returns all stored tasks for the user; the filter is ignored.
func (m *MockStorage) ListTasks(_ context.Context, userID string, _ service.TaskFilter) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, task := range m.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

// UpdateTask replaces a stored task.
func (m *MockStorage) UpdateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return common.ErrNotFound
	}
	m.tasks[task.ID] = *task
	return nil
}

// CompleteTask marks a stored task completed.
func (m *MockStorage) CompleteTask(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return common.ErrNotFound
	}
	task.Completed = true
	m.tasks[id] = task
	return nil
}

// DeleteTask removes a stored task.
func (m *MockStorage) DeleteTask(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return common.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// CreateEvent stores an event.
func (m *MockStorage) CreateEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateEventErr != nil {
		return m.CreateEventErr
	}
	m.events[event.ID] = *event
	return nil
}

// GetEvent retrieves an event.
func (m *MockStorage) GetEvent(_ context.Context, userID, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok || event.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &event, nil
}

// GetEventByExternalID retrieves the event with the given external id.
func (m *MockStorage) GetEventByExternalID(_ context.Context, userID, externalID string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.UserID == userID && event.ExternalID == externalID {
			return &event, nil
		}
	}
	return nil, common.ErrNotFound
}

// ListEventsByRange returns events overlapping [start, end).
func (m *MockStorage) ListEventsByRange(_ context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, event := range m.events {
		if event.UserID == userID && event.StartTime.Before(end) && event.EndTime.After(start) {
			out = append(out, event)
		}
	}
	return out, nil
}

// UpdateEvent replaces a stored event.
func (m *MockStorage) UpdateEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateEventErr != nil {
		return m.UpdateEventErr
	}
	if _, ok := m.events[event.ID]; !ok {
		return common.ErrNotFound
	}
	m.events[event.ID] = *event
	return nil
}

// DeleteEvent removes a stored event.
func (m *MockStorage) DeleteEvent(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok || event.UserID != userID {
		return common.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// CreateNote stores a note.
func (m *MockStorage) CreateNote(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateNoteErr != nil {
		return m.CreateNoteErr
	}
	m.notes[note.ID] = *note
	return nil
}

// GetNote retrieves a note.
func (m *MockStorage) GetNote(_ context.Context, userID, id string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok || note.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &note, nil
}

// GetNoteByTitle retrieves a note by exact case-insensitive title.
func (m *MockStorage) GetNoteByTitle(_ context.Context, userID, title string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, note := range m.notes {
		if note.UserID == userID && strings.EqualFold(note.Title, title) {
			return &note, nil
		}
	}
	return nil, common.ErrNotFound
}

// ListNotes returns all stored notes for the user; the filter is ignored.
func (m *MockStorage) ListNotes(_ context.Context, userID string, _ service.NoteFilter) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Note
	for _, note := range m.notes {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	return out, nil
}

// UpdateNote replaces a stored note.
func (m *MockStorage) UpdateNote(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[note.ID]; !ok {
		return common.ErrNotFound
	}
	m.notes[note.ID] = *note
	return nil
}

// DeleteNote removes a stored note.
func (m *MockStorage) DeleteNote(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok || note.UserID != userID {
		return common.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// CreateTransaction stores a transaction.
func (m *MockStorage) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateTransactionErr != nil {
		return m.CreateTransactionErr
	}
	m.transactions[txn.ID] = *txn
	return nil
}

// GetTransaction retrieves a transaction.
func (m *MockStorage) GetTransaction(_ context.Context, userID, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok || txn.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &txn, nil
}

// ListTransactions returns all stored transactions for the user; the filter
// is ignored.
func (m *MockStorage) ListTransactions(_ context.Context, userID string, _ service.TransactionFilter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, txn := range m.transactions {
		if txn.UserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

// UpdateTransaction replaces a stored transaction.
func (m *MockStorage) UpdateTransaction(_ context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[txn.ID]; !ok {
		return common.ErrNotFound
	}
	m.transactions[txn.ID] = *txn
	return nil
}

// DeleteTransaction removes a stored transaction.
func (m *MockStorage) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok || txn.UserID != userID {
		return common.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

// GetSettings returns the stored settings or defaults.
func (m *MockStorage) GetSettings(_ context.Context, userID string) (*model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if settings, ok := m.settings[userID]; ok {
		return &settings, nil
	}
	return &model.Settings{UserID: userID, Currency: "USD"}, nil
}

// UpdateSettings stores the settings.
func (m *MockStorage) UpdateSettings(_ context.Context, settings *model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = *settings
	return nil
}

// Migrate is a no-op for the mock.
func (m *MockStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the mock.
func (m *MockStorage) Close() error { return nil }
