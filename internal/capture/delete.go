package capture

import (
	"context"
	"fmt"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

// Delete removes a record along with what it left behind elsewhere: the
// external calendar copy for events and the photo attachment for kinds that
// carry one. Cleanup is best-effort; only the local store delete can fail
// the operation.
func (o *Orchestrator) Delete(ctx context.Context, userID string, kind model.RecordKind, id string) error {
	switch kind {
	case model.KindTask:
		task, err := o.storage.GetTask(ctx, userID, id)
		if err != nil {
			return err
		}
		o.cleanupPhoto(ctx, model.KindTask, id, task.PhotoURL)
		return o.storage.DeleteTask(ctx, userID, id)

	case model.KindEvent:
		event, err := o.storage.GetEvent(ctx, userID, id)
		if err != nil {
			return err
		}
		o.cleanupExternalEvent(ctx, event)
		return o.storage.DeleteEvent(ctx, userID, id)

	case model.KindExpense, model.KindIncome:
		txn, err := o.storage.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		o.cleanupPhoto(ctx, kind, id, txn.PhotoURL)
		return o.storage.DeleteTransaction(ctx, userID, id)

	case model.KindNote:
		note, err := o.storage.GetNote(ctx, userID, id)
		if err != nil {
			return err
		}
		o.cleanupPhoto(ctx, model.KindNote, id, note.PhotoURL)
		return o.storage.DeleteNote(ctx, userID, id)

	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownKind, kind)
	}
}

// cleanupPhoto detaches a record's photo before the record is deleted. A
// failed detach is logged and does not block the deletion.
func (o *Orchestrator) cleanupPhoto(ctx context.Context, kind model.RecordKind, id, photoURL string) {
	if photoURL == "" || o.attacher == nil {
		return
	}
	if err := o.attacher.Detach(ctx, photoURL); err != nil {
		o.logger.Warn("failed to detach photo",
			"kind", kind,
			"record_id", id,
			"photo_url", photoURL,
			"error", err)
	}
}

// cleanupExternalEvent removes the calendar copy of an event before the
// local record is deleted. A failed remote delete is logged and does not
// block the deletion.
func (o *Orchestrator) cleanupExternalEvent(ctx context.Context, event *model.Event) {
	if event.ExternalID == "" || o.bridge == nil {
		return
	}
	if err := o.bridge.Delete(ctx, event.ExternalID); err != nil {
		o.logger.Warn("failed to delete external calendar event",
			"event_id", event.ID,
			"external_id", event.ExternalID,
			"error", err)
	}
}
