package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

// EventStore is the slice of the storage contract the bridge needs for
// pull reconciliation.
type EventStore interface {
	GetEventByExternalID(ctx context.Context, userID, externalID string) (*model.Event, error)
	CreateEvent(ctx context.Context, event *model.Event) error
	UpdateEvent(ctx context.Context, event *model.Event) error
}

// Bridge pushes local events to the external calendar and reconciles remote
// changes back. A bridge without a valid token operates in skip mode: Push
// and Delete succeed without effect so the local record flow is never
// blocked by missing authentication.
type Bridge struct {
	remote  remoteCalendar
	storage EventStore
	logger  *slog.Logger
}

// NewBridge creates a calendar bridge. A missing or unrefreshable token is
// not an error; it produces a bridge in skip mode.
func NewBridge(ctx context.Context, cfg OAuth2Config, storage EventStore, logger *slog.Logger) *Bridge {
	bridge := &Bridge{storage: storage, logger: logger}

	token, err := LoadToken(cfg.TokenFile)
	if err != nil {
		logger.Info("calendar sync disabled: no token", "token_file", cfg.TokenFile)
		return bridge
	}

	token, err = RefreshTokenIfNeeded(ctx, cfg, token)
	if err != nil {
		logger.Warn("calendar sync disabled: token refresh failed", "error", err)
		return bridge
	}

	remote, err := newGoogleCalendar(ctx, cfg, token)
	if err != nil {
		logger.Warn("calendar sync disabled: service init failed", "error", err)
		return bridge
	}

	bridge.remote = remote
	return bridge
}

// NewBridgeWithRemote creates a bridge over an existing remote client.
func NewBridgeWithRemote(remote remoteCalendar, storage EventStore, logger *slog.Logger) *Bridge {
	return &Bridge{remote: remote, storage: storage, logger: logger}
}

// Authenticated reports whether the bridge can reach the provider.
func (b *Bridge) Authenticated() bool {
	return b.remote != nil
}

// Push creates or overwrites the external copy of an event and returns its
// external id. Local fields always win on update. An unauthenticated bridge
// returns an empty id and no error.
func (b *Bridge) Push(ctx context.Context, event *model.Event) (string, error) {
	if b.remote == nil {
		b.logger.Debug("calendar push skipped: not authenticated", "event_id", event.ID)
		return "", nil
	}

	remote := toRemoteEvent(event)

	if event.ExternalID == "" {
		created, err := b.remote.Insert(ctx, remote)
		if err != nil {
			return "", fmt.Errorf("%w: insert failed: %v", common.ErrCalendarSync, err)
		}
		return created.Id, nil
	}

	if _, err := b.remote.Update(ctx, event.ExternalID, remote); err != nil {
		return "", fmt.Errorf("%w: update failed: %v", common.ErrCalendarSync, err)
	}
	return event.ExternalID, nil
}

// Pull retrieves remote events starting at or after since and reconciles
// them into local storage. The provider's list filter bounds end times, so
// events that began earlier are dropped here by start time. All-day events
// are skipped because the local model requires exact start and end instants.
// Returns the number of local records created or updated.
func (b *Bridge) Pull(ctx context.Context, userID string, since time.Time) (int, error) {
	if b.remote == nil {
		b.logger.Debug("calendar pull skipped: not authenticated")
		return 0, nil
	}

	remoteEvents, err := b.remote.List(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("%w: list failed: %v", common.ErrCalendarSync, err)
	}

	applied := 0
	for _, remote := range remoteEvents {
		changed, reconcileErr := b.reconcile(ctx, userID, remote, since)
		if reconcileErr != nil {
			b.logger.Warn("failed to reconcile remote event",
				"external_id", remote.Id,
				"error", reconcileErr)
			continue
		}
		if changed {
			applied++
		}
	}

	b.logger.Info("calendar pull complete",
		"remote_events", len(remoteEvents),
		"applied", applied)
	return applied, nil
}

// reconcile applies one remote event: create the local twin if the external
// id is unknown, otherwise overwrite local fields only when the remote copy
// is strictly newer (last-write-wins; ties keep local).
func (b *Bridge) reconcile(ctx context.Context, userID string, remote *calendarapi.Event, since time.Time) (bool, error) {
	start, end, ok := remoteInterval(remote)
	if !ok {
		// All-day or malformed interval.
		return false, nil
	}
	if start.Before(since) {
		return false, nil
	}

	rule := remoteRecurrenceRule(remote)

	local, err := b.storage.GetEventByExternalID(ctx, userID, remote.Id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return false, err
		}

		event := &model.Event{
			ID:             uuid.NewString(),
			UserID:         userID,
			Title:          remote.Summary,
			Description:    remote.Description,
			Location:       remote.Location,
			StartTime:      start,
			EndTime:        end,
			IsRecurring:    rule != "",
			RecurrenceRule: rule,
			ExternalID:     remote.Id,
		}
		if createErr := b.storage.CreateEvent(ctx, event); createErr != nil {
			return false, createErr
		}
		return true, nil
	}

	remoteUpdated, err := time.Parse(time.RFC3339, remote.Updated)
	if err != nil {
		return false, fmt.Errorf("bad remote updated timestamp %q: %w", remote.Updated, err)
	}

	if !remoteUpdated.After(local.UpdatedAt) {
		return false, nil
	}

	local.Title = remote.Summary
	local.Description = remote.Description
	local.Location = remote.Location
	local.StartTime = start
	local.EndTime = end
	local.IsRecurring = rule != ""
	local.RecurrenceRule = rule
	if updateErr := b.storage.UpdateEvent(ctx, local); updateErr != nil {
		return false, updateErr
	}
	return true, nil
}

// Delete removes the external copy of an event. Best-effort: the caller's
// local deletion proceeds regardless. A missing remote event or an
// unauthenticated bridge counts as success.
func (b *Bridge) Delete(ctx context.Context, externalID string) error {
	if b.remote == nil || externalID == "" {
		return nil
	}

	if err := b.remote.Delete(ctx, externalID); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return nil
		}
		return fmt.Errorf("%w: delete failed: %v", common.ErrCalendarSync, err)
	}

	return nil
}

// toRemoteEvent maps a local event onto the provider's wire type.
func toRemoteEvent(event *model.Event) *calendarapi.Event {
	remote := &calendarapi.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start: &calendarapi.EventDateTime{
			DateTime: event.StartTime.Format(time.RFC3339),
		},
		End: &calendarapi.EventDateTime{
			DateTime: event.EndTime.Format(time.RFC3339),
		},
	}

	if event.IsRecurring && event.RecurrenceRule != "" {
		remote.Recurrence = []string{event.RecurrenceRule}
	}

	return remote
}

// remoteRecurrenceRule extracts the RRULE line from a remote recurring
// event, or returns empty for single occurrences.
func remoteRecurrenceRule(remote *calendarapi.Event) string {
	for _, line := range remote.Recurrence {
		if strings.HasPrefix(line, "RRULE:") {
			return line
		}
	}
	return ""
}

// remoteInterval extracts exact start/end instants from a remote event.
// All-day events carry a date without a time-of-day and are reported as not ok.
func remoteInterval(remote *calendarapi.Event) (start, end time.Time, ok bool) {
	if remote.Start == nil || remote.Start.DateTime == "" {
		return time.Time{}, time.Time{}, false
	}

	start, err := time.Parse(time.RFC3339, remote.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	if remote.End != nil && remote.End.DateTime != "" {
		end, err = time.Parse(time.RFC3339, remote.End.DateTime)
		if err == nil && end.After(start) {
			return start, end, true
		}
	}

	return start, start.Add(time.Hour), true
}
