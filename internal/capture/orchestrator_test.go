package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(classifier *MockClassifier) (*Orchestrator, *MockStorage, *MockAttacher, *MockBridge) {
	storage := NewMockStorage()
	attacher := &MockAttacher{}
	bridge := &MockBridge{}
	o := New(storage, classifier, attacher, bridge, testLogger())
	return o, storage, attacher, bridge
}

func taskCapture(title string) model.ClassifiedCapture {
	return model.ClassifiedCapture{
		Kind: model.KindTask,
		Task: &model.ParsedTask{Title: title, Priority: model.PriorityMedium},
	}
}

func TestCaptureEmptyTextRejected(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(&MockClassifier{})

	_, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "   \n\t"})
	assert.ErrorIs(t, err, common.ErrEmptyCapture)
}

func TestCaptureTask(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("Call the dentist")}
	o, storage, _, _ := newTestOrchestrator(classifier)

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "call the dentist tomorrow",
	})
	require.NoError(t, err)
	assert.Equal(t, model.KindTask, result.Kind)
	assert.NotEmpty(t, result.RecordID)
	assert.False(t, result.Merged)
	assert.Empty(t, result.Warnings)

	task, err := storage.GetTask(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Call the dentist", task.Title)
	assert.Equal(t, []string{"call the dentist tomorrow"}, classifier.Calls())
}

func TestCaptureTaskWithPhoto(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("Fix the fence")}
	o, storage, attacher, _ := newTestOrchestrator(classifier)

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "fix the fence, see photo",
		Photo:  &model.PhotoBlob{Filename: "fence.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	task, err := storage.GetTask(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.test/task/fence.jpg", task.PhotoURL)
	assert.Len(t, attacher.Attached(), 1)
}

func TestCaptureAttachmentFailureIsWarning(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("Fix the fence")}
	o, storage, attacher, _ := newTestOrchestrator(classifier)
	attacher.AttachErr = common.ErrAttachmentFailed

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "fix the fence",
		Photo:  &model.PhotoBlob{Filename: "fence.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")},
	})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "without photo")

	task, err := storage.GetTask(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Empty(t, task.PhotoURL)
}

func TestCaptureInvalidPhotoIsFatal(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("never reached")}
	o, _, _, _ := newTestOrchestrator(classifier)

	_, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "task with a bogus photo",
		Photo:  &model.PhotoBlob{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hi")},
	})
	assert.ErrorIs(t, err, common.ErrInvalidPhoto)
	assert.Empty(t, classifier.Calls(), "classifier should not be called for invalid input")
}

func TestCaptureStoreFailureCleansUpPhoto(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("Doomed")}
	o, storage, attacher, _ := newTestOrchestrator(classifier)
	storage.CreateTaskErr = errors.New("disk full")

	_, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "doomed task",
		Photo:  &model.PhotoBlob{Filename: "pic.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.Error(t, err)
	assert.Len(t, attacher.Detached(), 1, "uploaded photo should be cleaned up")
}

func TestCaptureClassifierFailureIsFatal(t *testing.T) {
	classifier := &MockClassifier{Err: common.ErrClassificationFailed}
	o, _, _, _ := newTestOrchestrator(classifier)

	_, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "anything"})
	assert.ErrorIs(t, err, common.ErrClassificationFailed)
}

func TestCaptureExpense(t *testing.T) {
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindExpense,
		Transaction: &model.ParsedTransaction{
			Direction: model.DirectionExpense,
			Amount:    45.00,
			Category:  "groceries",
			Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	o, storage, _, _ := newTestOrchestrator(classifier)

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "spent $45 on groceries",
	})
	require.NoError(t, err)
	assert.Equal(t, model.KindExpense, result.Kind)

	txn, err := storage.GetTransaction(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionExpense, txn.Direction)
	assert.InDelta(t, 45.00, txn.Amount, 0.001)
}

func TestCaptureEventPushesToCalendar(t *testing.T) {
	start := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindEvent,
		Event: &model.ParsedEvent{
			Title:     "Dentist",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		},
	}}
	o, storage, _, bridge := newTestOrchestrator(classifier)
	bridge.PushID = "gcal-123"

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "dentist thursday at 2pm",
	})
	require.NoError(t, err)
	assert.Equal(t, model.KindEvent, result.Kind)
	assert.Empty(t, result.Warnings)

	event, err := storage.GetEvent(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "gcal-123", event.ExternalID)
	assert.Len(t, bridge.Pushed(), 1)
}

func TestCaptureEventCalendarFailureIsWarning(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindEvent,
		Event: &model.ParsedEvent{
			Title:     "Standup",
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
		},
	}}
	o, storage, _, bridge := newTestOrchestrator(classifier)
	bridge.PushErr = common.ErrCalendarSync

	result, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "standup tomorrow"})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "calendar sync failed")

	event, err := storage.GetEvent(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Empty(t, event.ExternalID, "failed push must not record an external id")
}

func TestCaptureEventUnauthenticatedSkipIsSilent(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindEvent,
		Event: &model.ParsedEvent{
			Title:     "Lunch",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		},
	}}
	o, storage, _, bridge := newTestOrchestrator(classifier)
	bridge.PushID = "" // skip-mode bridge reports empty external id

	result, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "lunch tomorrow"})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings, "unauthenticated skip is not a warning")

	event, err := storage.GetEvent(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Empty(t, event.ExternalID)
}

func TestCaptureEventPhotoDiscarded(t *testing.T) {
	start := time.Now().Add(time.Hour)
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindEvent,
		Event: &model.ParsedEvent{
			Title:     "Concert",
			StartTime: start,
			EndTime:   start.Add(2 * time.Hour),
		},
	}}
	o, _, attacher, _ := newTestOrchestrator(classifier)

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "concert tonight",
		Photo:  &model.PhotoBlob{Filename: "poster.jpg", ContentType: "image/jpeg", Data: []byte("jpg")},
	})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "do not support photo")
	assert.Empty(t, attacher.Attached(), "event photos are never uploaded")
}

func TestCaptureNoteCreatesNew(t *testing.T) {
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindNote,
		Note: &model.ParsedNote{Title: "Gift ideas", Content: "wool socks"},
	}}
	o, storage, _, _ := newTestOrchestrator(classifier)

	result, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "gift ideas wool socks"})
	require.NoError(t, err)
	assert.Equal(t, model.KindNote, result.Kind)
	assert.False(t, result.Merged)

	note, err := storage.GetNote(context.Background(), "u1", result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Gift ideas", note.Title)
}

func TestCaptureNoteMergesIntoBucket(t *testing.T) {
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindNote,
		Note: &model.ParsedNote{Title: "Groceries", Content: "Groceries: milk"},
	}}
	o, storage, _, _ := newTestOrchestrator(classifier)

	existing := &model.Note{
		ID:      "bucket-1",
		UserID:  "u1",
		Title:   "Groceries",
		Content: "<li>eggs</li>",
	}
	require.NoError(t, storage.CreateNote(context.Background(), existing))

	result, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "Groceries: milk"})
	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, "bucket-1", result.RecordID)

	note, err := storage.GetNote(context.Background(), "u1", "bucket-1")
	require.NoError(t, err)
	assert.Equal(t, "<li>eggs</li>\n<li>milk</li>", note.Content)
}

func TestCaptureNoteDuplicateEntriesBothKept(t *testing.T) {
	classifier := &MockClassifier{Result: model.ClassifiedCapture{
		Kind: model.KindNote,
		Note: &model.ParsedNote{Title: "Groceries", Content: "Groceries: milk"},
	}}
	o, storage, _, _ := newTestOrchestrator(classifier)

	input := model.CaptureInput{UserID: "u1", Text: "Groceries: milk"}
	first, err := o.Capture(context.Background(), input)
	require.NoError(t, err)
	second, err := o.Capture(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.RecordID, second.RecordID)
	assert.True(t, second.Merged)

	note, err := storage.GetNote(context.Background(), "u1", first.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "<li>milk</li>\n<li>milk</li>", note.Content)
}

func TestCaptureUnknownKindRejected(t *testing.T) {
	classifier := &MockClassifier{Result: model.ClassifiedCapture{Kind: model.RecordKind("reminder")}}
	o, _, _, _ := newTestOrchestrator(classifier)

	_, err := o.Capture(context.Background(), model.CaptureInput{UserID: "u1", Text: "ping me later"})
	assert.ErrorIs(t, err, common.ErrUnknownKind)
}

func TestCaptureWithoutOptionalServices(t *testing.T) {
	classifier := &MockClassifier{Result: taskCapture("Plain task")}
	storage := NewMockStorage()
	o := New(storage, classifier, nil, nil, testLogger())

	result, err := o.Capture(context.Background(), model.CaptureInput{
		UserID: "u1",
		Text:   "plain task",
		Photo:  &model.PhotoBlob{Filename: "p.jpg", ContentType: "image/jpeg", Data: []byte("jpg")},
	})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "not configured")
}

func TestCaptureStampsCreationTime(t *testing.T) {
	capturedAt := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	start := capturedAt.Add(48 * time.Hour)

	tests := []struct {
		name       string
		classified model.ClassifiedCapture
		createdAt  func(t *testing.T, storage *MockStorage, id string) time.Time
	}{
		{
			name:       "task",
			classified: taskCapture("Call the dentist"),
			createdAt: func(t *testing.T, storage *MockStorage, id string) time.Time {
				task, err := storage.GetTask(context.Background(), "u1", id)
				require.NoError(t, err)
				return task.CreatedAt
			},
		},
		{
			name: "event",
			classified: model.ClassifiedCapture{
				Kind:  model.KindEvent,
				Event: &model.ParsedEvent{Title: "Dentist", StartTime: start, EndTime: start.Add(time.Hour)},
			},
			createdAt: func(t *testing.T, storage *MockStorage, id string) time.Time {
				event, err := storage.GetEvent(context.Background(), "u1", id)
				require.NoError(t, err)
				return event.CreatedAt
			},
		},
		{
			name: "expense",
			classified: model.ClassifiedCapture{
				Kind: model.KindExpense,
				Transaction: &model.ParsedTransaction{
					Direction: model.DirectionExpense,
					Amount:    12.50,
					Category:  "coffee",
					Date:      capturedAt,
				},
			},
			createdAt: func(t *testing.T, storage *MockStorage, id string) time.Time {
				txn, err := storage.GetTransaction(context.Background(), "u1", id)
				require.NoError(t, err)
				return txn.CreatedAt
			},
		},
		{
			name: "note",
			classified: model.ClassifiedCapture{
				Kind: model.KindNote,
				Note: &model.ParsedNote{Title: "Gift ideas", Content: "wool socks"},
			},
			createdAt: func(t *testing.T, storage *MockStorage, id string) time.Time {
				note, err := storage.GetNote(context.Background(), "u1", id)
				require.NoError(t, err)
				return note.CreatedAt
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, storage, _, _ := newTestOrchestrator(&MockClassifier{Result: tt.classified})

			result, err := o.Capture(context.Background(), model.CaptureInput{
				UserID:     "u1",
				Text:       "something worth keeping",
				CapturedAt: capturedAt,
			})
			require.NoError(t, err)
			assert.Equal(t, capturedAt, tt.createdAt(t, storage, result.RecordID))
		})
	}
}

var _ service.Storage = (*MockStorage)(nil)
var _ service.Classifier = (*MockClassifier)(nil)
var _ service.Attacher = (*MockAttacher)(nil)
var _ service.CalendarBridge = (*MockBridge)(nil)
