// Package capture orchestrates the pipeline that turns one piece of
// free-form text into a persisted record: validate, classify, branch on the
// record kind, then attach, merge, and sync as that kind requires.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapjot/snapjot/internal/attach"
	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/merge"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

// Orchestrator runs the capture pipeline. Validation, classification, and
// store failures abort a capture; attachment and calendar failures degrade
// it to success-with-warnings.
type Orchestrator struct {
	storage    service.Storage
	classifier service.Classifier
	attacher   service.Attacher
	resolver   *merge.Resolver
	bridge     service.CalendarBridge
	logger     *slog.Logger
}

// New creates an orchestrator. The attacher and bridge may be nil when photo
// attachments or calendar sync are not configured; captures then proceed
// without them. The classifier may be nil for an orchestrator that only
// serves deletions.
func New(storage service.Storage, classifier service.Classifier, attacher service.Attacher, bridge service.CalendarBridge, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		storage:    storage,
		classifier: classifier,
		attacher:   attacher,
		resolver:   merge.NewResolver(storage, logger),
		bridge:     bridge,
		logger:     logger,
	}
}

// Capture classifies one input and persists the resulting record.
func (o *Orchestrator) Capture(ctx context.Context, input model.CaptureInput) (model.CaptureResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return model.CaptureResult{}, common.ErrEmptyCapture
	}
	if strings.TrimSpace(input.UserID) == "" {
		return model.CaptureResult{}, fmt.Errorf("%w: user id is required", common.ErrInvalidConfig)
	}
	if input.Photo != nil {
		// Reject a bad photo before spending a classifier call on it.
		if err := attach.ValidatePhoto(*input.Photo); err != nil {
			return model.CaptureResult{}, err
		}
	}

	capturedAt := input.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	classified, err := o.classifier.Classify(ctx, input.Text, capturedAt)
	if err != nil {
		return model.CaptureResult{}, err
	}

	o.logger.Info("capture classified",
		"user_id", input.UserID,
		"kind", classified.Kind)

	switch classified.Kind {
	case model.KindTask:
		return o.captureTask(ctx, input, capturedAt, classified.Task)
	case model.KindEvent:
		return o.captureEvent(ctx, input, capturedAt, classified.Event)
	case model.KindExpense, model.KindIncome:
		return o.captureTransaction(ctx, input, capturedAt, classified.Kind, classified.Transaction)
	case model.KindNote:
		return o.captureNote(ctx, input, capturedAt, classified.Note)
	default:
		return model.CaptureResult{}, fmt.Errorf("%w: %q", common.ErrUnknownKind, classified.Kind)
	}
}

func (o *Orchestrator) captureTask(ctx context.Context, input model.CaptureInput, capturedAt time.Time, parsed *model.ParsedTask) (model.CaptureResult, error) {
	result := model.CaptureResult{Kind: model.KindTask}

	task := &model.Task{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		Title:          parsed.Title,
		Description:    parsed.Description,
		DueDate:        parsed.DueDate,
		Priority:       parsed.Priority,
		IsRecurring:    parsed.IsRecurring,
		RecurrenceRule: parsed.RecurrenceRule,
		CreatedAt:      capturedAt,
	}
	task.PhotoURL = o.attachPhoto(ctx, input, model.KindTask, &result)

	if err := o.storage.CreateTask(ctx, task); err != nil {
		o.detachPhoto(ctx, task.PhotoURL)
		return model.CaptureResult{}, fmt.Errorf("failed to save task: %w", err)
	}

	result.RecordID = task.ID
	return result, nil
}

func (o *Orchestrator) captureEvent(ctx context.Context, input model.CaptureInput, capturedAt time.Time, parsed *model.ParsedEvent) (model.CaptureResult, error) {
	result := model.CaptureResult{Kind: model.KindEvent}

	if input.Photo != nil {
		result.Warnings = append(result.Warnings, "events do not support photo attachments; photo discarded")
	}

	event := &model.Event{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		Title:          parsed.Title,
		Description:    parsed.Description,
		Location:       parsed.Location,
		StartTime:      parsed.StartTime,
		EndTime:        parsed.EndTime,
		IsRecurring:    parsed.IsRecurring,
		RecurrenceRule: parsed.RecurrenceRule,
		CreatedAt:      capturedAt,
	}

	if err := o.storage.CreateEvent(ctx, event); err != nil {
		return model.CaptureResult{}, fmt.Errorf("failed to save event: %w", err)
	}
	result.RecordID = event.ID

	if o.bridge == nil {
		return result, nil
	}

	externalID, err := o.bridge.Push(ctx, event)
	if err != nil {
		o.logger.Warn("calendar push failed",
			"user_id", input.UserID,
			"event_id", event.ID,
			"error", err)
		result.Warnings = append(result.Warnings, "event saved locally but calendar sync failed")
		return result, nil
	}
	if externalID == "" {
		// Not authenticated; the event stays local-only.
		return result, nil
	}

	event.ExternalID = externalID
	if err := o.storage.UpdateEvent(ctx, event); err != nil {
		o.logger.Warn("failed to record external event id",
			"event_id", event.ID,
			"external_id", externalID,
			"error", err)
		result.Warnings = append(result.Warnings, "event synced but external id could not be recorded")
	}

	return result, nil
}

func (o *Orchestrator) captureTransaction(ctx context.Context, input model.CaptureInput, capturedAt time.Time, kind model.RecordKind, parsed *model.ParsedTransaction) (model.CaptureResult, error) {
	result := model.CaptureResult{Kind: kind}

	txn := &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Direction:   parsed.Direction,
		Amount:      parsed.Amount,
		Category:    parsed.Category,
		Description: parsed.Description,
		Date:        parsed.Date,
		CreatedAt:   capturedAt,
	}
	txn.PhotoURL = o.attachPhoto(ctx, input, kind, &result)

	if err := o.storage.CreateTransaction(ctx, txn); err != nil {
		o.detachPhoto(ctx, txn.PhotoURL)
		return model.CaptureResult{}, fmt.Errorf("failed to save transaction: %w", err)
	}

	result.RecordID = txn.ID
	return result, nil
}

func (o *Orchestrator) captureNote(ctx context.Context, input model.CaptureInput, capturedAt time.Time, parsed *model.ParsedNote) (model.CaptureResult, error) {
	result := model.CaptureResult{Kind: model.KindNote}

	decision, err := o.resolver.Resolve(ctx, input.UserID, *parsed)
	if err != nil {
		return model.CaptureResult{}, err
	}

	if decision.Action == merge.AppendTo {
		if input.Photo != nil {
			result.Warnings = append(result.Warnings, "photo discarded: list items do not carry attachments")
		}
		note, err := o.storage.GetNote(ctx, input.UserID, decision.NoteID)
		if err != nil {
			return model.CaptureResult{}, fmt.Errorf("failed to load bucket note: %w", err)
		}
		note.Content = decision.Content
		if err := o.storage.UpdateNote(ctx, note); err != nil {
			return model.CaptureResult{}, fmt.Errorf("failed to append to note: %w", err)
		}
		result.RecordID = note.ID
		result.Merged = true
		return result, nil
	}

	note := &model.Note{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Title:     decision.Title,
		Content:   decision.Content,
		Tags:      parsed.Tags,
		CreatedAt: capturedAt,
	}
	note.PhotoURL = o.attachPhoto(ctx, input, model.KindNote, &result)

	if err := o.storage.CreateNote(ctx, note); err != nil {
		o.detachPhoto(ctx, note.PhotoURL)
		return model.CaptureResult{}, fmt.Errorf("failed to save note: %w", err)
	}

	result.RecordID = note.ID
	return result, nil
}

// attachPhoto uploads the input's photo if present, appending a warning to
// the result instead of failing when the upload cannot complete.
func (o *Orchestrator) attachPhoto(ctx context.Context, input model.CaptureInput, kind model.RecordKind, result *model.CaptureResult) string {
	if input.Photo == nil {
		return ""
	}
	if o.attacher == nil {
		result.Warnings = append(result.Warnings, "photo discarded: attachment storage is not configured")
		return ""
	}

	url, err := o.attacher.Attach(ctx, *input.Photo, kind)
	if err != nil {
		o.logger.Warn("photo attachment failed",
			"user_id", input.UserID,
			"kind", kind,
			"error", err)
		result.Warnings = append(result.Warnings, "record saved without photo: upload failed")
		return ""
	}
	return url
}

// detachPhoto cleans up an uploaded photo after the record it belonged to
// failed to persist.
func (o *Orchestrator) detachPhoto(ctx context.Context, photoURL string) {
	if photoURL == "" || o.attacher == nil {
		return
	}
	_ = o.attacher.Detach(ctx, photoURL)
}
