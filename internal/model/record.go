// Package model defines the core domain types shared across the application.
package model

import "time"

// RecordKind identifies one of the five record types a capture can resolve to.
type RecordKind string

// The five record kinds.
const (
	KindTask    RecordKind = "task"
	KindEvent   RecordKind = "event"
	KindExpense RecordKind = "expense"
	KindIncome  RecordKind = "income"
	KindNote    RecordKind = "note"
)

// Valid reports whether k is one of the five known record kinds.
func (k RecordKind) Valid() bool {
	switch k {
	case KindTask, KindEvent, KindExpense, KindIncome, KindNote:
		return true
	}
	return false
}

// SupportsPhoto reports whether records of this kind carry a photo URL.
// Events are the only kind without photo support.
func (k RecordKind) SupportsPhoto() bool {
	return k != KindEvent
}

// Priority is a task priority level.
type Priority string

// Task priority levels.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task is a persisted to-do item.
type Task struct {
	DueDate        *time.Time
	ID             string
	UserID         string
	Title          string
	Description    string
	Priority       Priority
	RecurrenceRule string
	PhotoURL       string
	IsRecurring    bool
	Completed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Event is a persisted calendar event. ExternalID links it to the external
// calendar provider and is set only after a successful push.
type Event struct {
	ID             string
	UserID         string
	Title          string
	Description    string
	Location       string
	RecurrenceRule string
	ExternalID     string
	StartTime      time.Time
	EndTime        time.Time
	IsRecurring    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Note is a persisted free-form note. A note whose title names a running list
// acts as a bucket that captures can append to. Tags are not deduplicated.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	PhotoURL  string
	Tags      []string
	Pinned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionDirection distinguishes money in from money out.
type TransactionDirection string

// Transaction directions.
const (
	DirectionExpense TransactionDirection = "expense"
	DirectionIncome  TransactionDirection = "income"
)

// Transaction is a persisted expense or income record.
type Transaction struct {
	ID          string
	UserID      string
	Direction   TransactionDirection
	Amount      float64
	Category    string
	Description string
	PhotoURL    string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings is the singleton per-user settings record.
type Settings struct {
	UserID            string
	Currency          string
	CalendarSync      bool
	CalendarTokenFile string
	UpdatedAt         time.Time
}
