package model

import "time"

// CaptureInput is one unit of free-form text (plus optional photo) submitted
// by the user. It exists only for the duration of a single capture call.
// CapturedAt is used as "now" when resolving relative dates like "tomorrow".
type CaptureInput struct {
	UserID     string
	Text       string
	Photo      *PhotoBlob
	CapturedAt time.Time
}

// PhotoBlob is an in-memory photo attachment awaiting upload.
type PhotoBlob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ClassifiedCapture is the tagged union produced by the classifier gateway.
// Exactly one variant pointer is non-nil, matching Kind. It is consumed
// immediately by the capture orchestrator and never persisted as-is.
type ClassifiedCapture struct {
	Kind        RecordKind
	Task        *ParsedTask
	Event       *ParsedEvent
	Transaction *ParsedTransaction
	Note        *ParsedNote
}

// ParsedTask is the task variant of a classified capture.
type ParsedTask struct {
	DueDate        *time.Time
	Title          string
	Description    string
	Priority       Priority
	RecurrenceRule string
	IsRecurring    bool
}

// ParsedEvent is the calendar-event variant of a classified capture.
type ParsedEvent struct {
	Title          string
	Description    string
	Location       string
	RecurrenceRule string
	StartTime      time.Time
	EndTime        time.Time
	IsRecurring    bool
}

// ParsedTransaction is the expense/income variant of a classified capture.
type ParsedTransaction struct {
	Direction   TransactionDirection
	Amount      float64
	Category    string
	Description string
	Date        time.Time
}

// ParsedNote is the note variant of a classified capture.
type ParsedNote struct {
	Title   string
	Content string
	Tags    []string
}

// CaptureResult reports the outcome of a successful capture: what kind of
// record was persisted, its id, and any non-fatal warnings (attachment or
// calendar sync degradation) accumulated along the way.
type CaptureResult struct {
	Kind     RecordKind
	RecordID string
	Merged   bool // true when a note capture appended to an existing bucket
	Warnings []string
}
