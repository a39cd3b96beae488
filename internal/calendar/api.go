package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// remoteCalendar is the slice of the provider API the bridge depends on.
type remoteCalendar interface {
	Insert(ctx context.Context, event *calendarapi.Event) (*calendarapi.Event, error)
	Update(ctx context.Context, externalID string, event *calendarapi.Event) (*calendarapi.Event, error)
	List(ctx context.Context, since time.Time) ([]*calendarapi.Event, error)
	Delete(ctx context.Context, externalID string) error
}

// googleCalendar implements remoteCalendar against the user's primary
// Google calendar.
type googleCalendar struct {
	service    *calendarapi.Service
	calendarID string
}

// newGoogleCalendar builds the API client from an authenticated token.
func newGoogleCalendar(ctx context.Context, cfg OAuth2Config, token *oauth2.Token) (*googleCalendar, error) {
	source := cfg.oauthConfig().TokenSource(ctx, token)

	service, err := calendarapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &googleCalendar{
		service:    service,
		calendarID: "primary",
	}, nil
}

func (g *googleCalendar) Insert(ctx context.Context, event *calendarapi.Event) (*calendarapi.Event, error) {
	return g.service.Events.Insert(g.calendarID, event).Context(ctx).Do()
}

func (g *googleCalendar) Update(ctx context.Context, externalID string, event *calendarapi.Event) (*calendarapi.Event, error) {
	return g.service.Events.Update(g.calendarID, externalID, event).Context(ctx).Do()
}

func (g *googleCalendar) List(ctx context.Context, since time.Time) ([]*calendarapi.Event, error) {
	var events []*calendarapi.Event
	pageToken := ""

	for {
		// TimeMin bounds an event's end time, not its start; the bridge
		// narrows to start times on its side.
		call := g.service.Events.List(g.calendarID).
			TimeMin(since.Format(time.RFC3339)).
			SingleEvents(false).
			ShowDeleted(false).
			MaxResults(250).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, err
		}

		events = append(events, page.Items...)

		pageToken = page.NextPageToken
		if pageToken == "" {
			return events, nil
		}
	}
}

func (g *googleCalendar) Delete(ctx context.Context, externalID string) error {
	return g.service.Events.Delete(g.calendarID, externalID).Context(ctx).Do()
}
