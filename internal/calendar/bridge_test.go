package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

// fakeRemote implements remoteCalendar in memory.
type fakeRemote struct {
	events    map[string]*calendarapi.Event
	nextID    int
	insertErr error
	listErr   error
	deleteErr error
	deletes   []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{events: make(map[string]*calendarapi.Event)}
}

func (f *fakeRemote) Insert(_ context.Context, event *calendarapi.Event) (*calendarapi.Event, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	event.Id = fmt.Sprintf("ext-%d", f.nextID)
	f.events[event.Id] = event
	return event, nil
}

func (f *fakeRemote) Update(_ context.Context, externalID string, event *calendarapi.Event) (*calendarapi.Event, error) {
	event.Id = externalID
	f.events[externalID] = event
	return event, nil
}

func (f *fakeRemote) List(_ context.Context, _ time.Time) ([]*calendarapi.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	events := make([]*calendarapi.Event, 0, len(f.events))
	for _, e := range f.events {
		events = append(events, e)
	}
	return events, nil
}

func (f *fakeRemote) Delete(_ context.Context, externalID string) error {
	f.deletes = append(f.deletes, externalID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.events, externalID)
	return nil
}

// fakeEventStore implements EventStore in memory, keyed by external id.
type fakeEventStore struct {
	byExternal map[string]*model.Event
	created    []*model.Event
	updated    []*model.Event
}

func newFakeEventStore(events ...*model.Event) *fakeEventStore {
	s := &fakeEventStore{byExternal: make(map[string]*model.Event)}
	for _, e := range events {
		s.byExternal[e.ExternalID] = e
	}
	return s
}

func (s *fakeEventStore) GetEventByExternalID(_ context.Context, _, externalID string) (*model.Event, error) {
	event, ok := s.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", externalID, common.ErrNotFound)
	}
	return event, nil
}

func (s *fakeEventStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.byExternal[event.ExternalID] = event
	s.created = append(s.created, event)
	return nil
}

func (s *fakeEventStore) UpdateEvent(_ context.Context, event *model.Event) error {
	s.byExternal[event.ExternalID] = event
	s.updated = append(s.updated, event)
	return nil
}

func localEvent() *model.Event {
	return &model.Event{
		ID:        "evt-1",
		UserID:    "user-1",
		Title:     "Dentist",
		StartTime: time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC),
	}
}

func TestPushSkippedWhenNotAuthenticated(t *testing.T) {
	bridge := NewBridgeWithRemote(nil, newFakeEventStore(), slog.Default())

	externalID, err := bridge.Push(context.Background(), localEvent())
	require.NoError(t, err)
	assert.Empty(t, externalID)
	assert.False(t, bridge.Authenticated())
}

func TestPushCreatesNewExternalEvent(t *testing.T) {
	remote := newFakeRemote()
	bridge := NewBridgeWithRemote(remote, newFakeEventStore(), slog.Default())

	externalID, err := bridge.Push(context.Background(), localEvent())
	require.NoError(t, err)
	assert.Equal(t, "ext-1", externalID)

	pushed := remote.events["ext-1"]
	require.NotNil(t, pushed)
	assert.Equal(t, "Dentist", pushed.Summary)
	assert.Equal(t, "2024-03-08T14:00:00Z", pushed.Start.DateTime)
}

func TestPushOverwritesExistingExternalEvent(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-9"] = &calendarapi.Event{Id: "ext-9", Summary: "stale"}
	bridge := NewBridgeWithRemote(remote, newFakeEventStore(), slog.Default())

	event := localEvent()
	event.ExternalID = "ext-9"

	externalID, err := bridge.Push(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "ext-9", externalID)
	// Local fields win.
	assert.Equal(t, "Dentist", remote.events["ext-9"].Summary)
}

func TestPushWrapsProviderError(t *testing.T) {
	remote := newFakeRemote()
	remote.insertErr = fmt.Errorf("quota exceeded")
	bridge := NewBridgeWithRemote(remote, newFakeEventStore(), slog.Default())

	_, err := bridge.Push(context.Background(), localEvent())
	require.ErrorIs(t, err, common.ErrCalendarSync)
}

func TestPullCreatesLocalForUnknownExternalID(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-5"] = &calendarapi.Event{
		Id:      "ext-5",
		Summary: "Team offsite",
		Start:   &calendarapi.EventDateTime{DateTime: "2024-03-10T09:00:00Z"},
		End:     &calendarapi.EventDateTime{DateTime: "2024-03-10T17:00:00Z"},
		Updated: "2024-03-01T12:00:00Z",
	}
	store := newFakeEventStore()
	bridge := NewBridgeWithRemote(remote, store, slog.Default())

	applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, "ext-5", created.ExternalID)
	assert.Equal(t, "Team offsite", created.Title)
	assert.NotEmpty(t, created.ID)
}

func TestPullSkipsAllDayEvents(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-6"] = &calendarapi.Event{
		Id:      "ext-6",
		Summary: "Birthday",
		Start:   &calendarapi.EventDateTime{Date: "2024-03-10"},
		End:     &calendarapi.EventDateTime{Date: "2024-03-11"},
		Updated: "2024-03-01T12:00:00Z",
	}
	store := newFakeEventStore()
	bridge := NewBridgeWithRemote(remote, store, slog.Default())

	applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, store.created)
}

func TestPullLastWriteWins(t *testing.T) {
	localUpdated := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		remoteUpdated string
		wantApplied   int
		wantTitle     string
	}{
		{
			name:          "remote strictly newer wins",
			remoteUpdated: "2024-03-05T12:00:01Z",
			wantApplied:   1,
			wantTitle:     "Remote title",
		},
		{
			name:          "tie keeps local",
			remoteUpdated: "2024-03-05T12:00:00Z",
			wantApplied:   0,
			wantTitle:     "Local title",
		},
		{
			name:          "older remote keeps local",
			remoteUpdated: "2024-03-04T12:00:00Z",
			wantApplied:   0,
			wantTitle:     "Local title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			remote.events["ext-7"] = &calendarapi.Event{
				Id:      "ext-7",
				Summary: "Remote title",
				Start:   &calendarapi.EventDateTime{DateTime: "2024-03-10T09:00:00Z"},
				End:     &calendarapi.EventDateTime{DateTime: "2024-03-10T10:00:00Z"},
				Updated: tt.remoteUpdated,
			}

			local := &model.Event{
				ID:         "evt-7",
				UserID:     "user-1",
				Title:      "Local title",
				ExternalID: "ext-7",
				StartTime:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
				EndTime:    time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
				UpdatedAt:  localUpdated,
			}
			store := newFakeEventStore(local)
			bridge := NewBridgeWithRemote(remote, store, slog.Default())

			applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, applied)
			assert.Equal(t, tt.wantTitle, store.byExternal["ext-7"].Title)
		})
	}
}

func TestPullDropsEventsStartingBeforeSince(t *testing.T) {
	remote := newFakeRemote()
	// Started before the window but still running inside it; the provider
	// returns it because its end time clears the list filter.
	remote.events["ext-10"] = &calendarapi.Event{
		Id:      "ext-10",
		Summary: "Conference week",
		Start:   &calendarapi.EventDateTime{DateTime: "2024-03-08T09:00:00Z"},
		End:     &calendarapi.EventDateTime{DateTime: "2024-03-12T17:00:00Z"},
		Updated: "2024-03-01T12:00:00Z",
	}
	store := newFakeEventStore()
	bridge := NewBridgeWithRemote(remote, store, slog.Default())

	applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, store.created)
}

func TestPullMapsRecurrence(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-11"] = &calendarapi.Event{
		Id:      "ext-11",
		Summary: "Standup",
		Start:   &calendarapi.EventDateTime{DateTime: "2024-03-11T09:00:00Z"},
		End:     &calendarapi.EventDateTime{DateTime: "2024-03-11T09:15:00Z"},
		Updated: "2024-03-01T12:00:00Z",
		Recurrence: []string{
			"EXDATE;TZID=UTC:20240318T090000",
			"RRULE:FREQ=WEEKLY;BYDAY=MO",
		},
	}
	store := newFakeEventStore()
	bridge := NewBridgeWithRemote(remote, store, slog.Default())

	applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.True(t, created.IsRecurring)
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO", created.RecurrenceRule)
}

func TestPullUpdatesRecurrenceOnOverwrite(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-12"] = &calendarapi.Event{
		Id:         "ext-12",
		Summary:    "Standup",
		Start:      &calendarapi.EventDateTime{DateTime: "2024-03-11T09:00:00Z"},
		End:        &calendarapi.EventDateTime{DateTime: "2024-03-11T09:15:00Z"},
		Updated:    "2024-03-06T12:00:00Z",
		Recurrence: []string{"RRULE:FREQ=DAILY"},
	}

	local := &model.Event{
		ID:         "evt-12",
		UserID:     "user-1",
		Title:      "Standup",
		ExternalID: "ext-12",
		StartTime:  time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2024, 3, 11, 9, 15, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}
	store := newFakeEventStore(local)
	bridge := NewBridgeWithRemote(remote, store, slog.Default())

	applied, err := bridge.Pull(context.Background(), "user-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.True(t, store.byExternal["ext-12"].IsRecurring)
	assert.Equal(t, "RRULE:FREQ=DAILY", store.byExternal["ext-12"].RecurrenceRule)
}

func TestDeleteBestEffort(t *testing.T) {
	remote := newFakeRemote()
	remote.events["ext-8"] = &calendarapi.Event{Id: "ext-8"}
	bridge := NewBridgeWithRemote(remote, newFakeEventStore(), slog.Default())

	require.NoError(t, bridge.Delete(context.Background(), "ext-8"))
	assert.Empty(t, remote.events)

	// Already-deleted remote events are not an error.
	remote.deleteErr = &googleapi.Error{Code: http.StatusNotFound}
	require.NoError(t, bridge.Delete(context.Background(), "ext-gone"))

	// Other provider failures surface as sync errors for the caller to log.
	remote.deleteErr = &googleapi.Error{Code: http.StatusInternalServerError}
	require.ErrorIs(t, bridge.Delete(context.Background(), "ext-8"), common.ErrCalendarSync)
}

func TestDeleteSkippedWhenNotAuthenticated(t *testing.T) {
	bridge := NewBridgeWithRemote(nil, newFakeEventStore(), slog.Default())
	require.NoError(t, bridge.Delete(context.Background(), "ext-1"))
}
