package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/calchat/calchat/internal/logging"
)

// Client wraps the Google Calendar service. It is built once per session
// from an authenticated HTTP client and reused for every operation; the
// remote calendar is the single source of truth, so no results are cached.
type Client struct {
	svc    *calendar.Service
	logger *slog.Logger
}

// NewClient creates a Calendar client over an authenticated HTTP client.
// If logger is nil, slog.Default() is used.
func NewClient(ctx context.Context, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, logger: logger}, nil
}

// SearchEvents searches events across all calendars visible to the user
// within the request's time range. The request is validated before any
// network call; an invalid order_by never reaches the backend.
func (c *Client) SearchEvents(req SearchEventsRequest) ([]EventSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logging.WithOperation(c.logger, "search_events")

	// The search is scoped across the visible calendars, so resolve them
	// first.
	calendars, err := c.CalendarsInfo("")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visible calendars: %w", err)
	}

	var events []EventSummary
	for _, cal := range calendars {
		call := c.svc.Events.List(cal.ID).
			TimeMin(req.minTime.Format(time.RFC3339)).
			TimeMax(req.maxTime.Format(time.RFC3339)).
			MaxResults(req.MaxResults).
			SingleEvents(*req.SingleEvents)

		// The backend rejects startTime ordering for non-expanded listings.
		if *req.SingleEvents || req.OrderBy == OrderByUpdated {
			call = call.OrderBy(req.OrderBy)
		}
		if req.Query != "" {
			call = call.Q(req.Query)
		}

		result, err := call.Do()
		if err != nil {
			log.Error("backend search failed", logging.Calendar(cal.ID), logging.Err(err))
			return nil, fmt.Errorf("failed to search events in calendar %s: %w", cal.ID, err)
		}

		for _, event := range result.Items {
			events = append(events, toEventSummary(event, cal.ID))
		}
	}

	sortEventSummaries(events, req.OrderBy)
	if int64(len(events)) > req.MaxResults {
		events = events[:req.MaxResults]
	}

	log.Debug("search complete", slog.Int("events", len(events)))
	return events, nil
}

// CreateEvent creates a new event from a normalized request.
func (c *Client) CreateEvent(req CreateEventRequest) (*EventSummary, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	log := logging.WithOperation(c.logger, "create_event")

	event := req.toEvent()
	call := c.svc.Events.Insert(req.CalendarID, event)
	if req.ConferenceData != nil && *req.ConferenceData {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("calchat-%d", time.Now().UnixNano()),
			},
		}
		call = call.ConferenceDataVersion(1)
	}
	if req.SendUpdates != nil {
		call = call.SendUpdates(*req.SendUpdates)
	}

	created, err := call.Do()
	if err != nil {
		log.Error("backend create failed", logging.Calendar(req.CalendarID), logging.Err(err))
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info("event created", logging.Calendar(req.CalendarID), logging.Event(created.Id))
	summary := toEventSummary(created, req.CalendarID)
	return &summary, nil
}

// UpdateEvent patches an existing event. Only fields present in the
// request are sent; everything else keeps its stored value.
func (c *Client) UpdateEvent(req UpdateEventRequest) (*EventSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logging.WithOperation(c.logger, "update_event")

	patch := req.toPatch()
	call := c.svc.Events.Patch(req.CalendarID, req.EventID, patch)
	if req.ConferenceData != nil && *req.ConferenceData {
		patch.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("calchat-%d", time.Now().UnixNano()),
			},
		}
		call = call.ConferenceDataVersion(1)
	}
	if req.SendUpdates != nil {
		call = call.SendUpdates(*req.SendUpdates)
	}

	updated, err := call.Do()
	if err != nil {
		log.Error("backend update failed",
			logging.Calendar(req.CalendarID), logging.Event(req.EventID), logging.Err(err))
		return nil, fmt.Errorf("failed to update event %s: %w", req.EventID, err)
	}

	log.Info("event updated", logging.Calendar(req.CalendarID), logging.Event(req.EventID))
	summary := toEventSummary(updated, req.CalendarID)
	return &summary, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(req DeleteEventRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	log := logging.WithOperation(c.logger, "delete_event")

	call := c.svc.Events.Delete(req.CalendarID, req.EventID)
	if req.SendUpdates != nil {
		call = call.SendUpdates(*req.SendUpdates)
	}

	if err := call.Do(); err != nil {
		log.Error("backend delete failed",
			logging.Calendar(req.CalendarID), logging.Event(req.EventID), logging.Err(err))
		return fmt.Errorf("failed to delete event %s: %w", req.EventID, err)
	}

	log.Info("event deleted", logging.Calendar(req.CalendarID), logging.Event(req.EventID))
	return nil
}

// CalendarsInfo returns calendar metadata. With a calendar ID it returns a
// one-element slice for that calendar; without one it lists every visible
// calendar. The result is always a slice, never a bare record.
func (c *Client) CalendarsInfo(calendarID string) ([]CalendarInfo, error) {
	log := logging.WithOperation(c.logger, "calendars_info")

	if calendarID != "" {
		entry, err := c.svc.CalendarList.Get(calendarID).Do()
		if err != nil {
			log.Error("backend calendar lookup failed", logging.Calendar(calendarID), logging.Err(err))
			return nil, fmt.Errorf("failed to get calendar %s: %w", calendarID, err)
		}
		return []CalendarInfo{toCalendarInfo(entry)}, nil
	}

	list, err := c.svc.CalendarList.List().Do()
	if err != nil {
		log.Error("backend calendar listing failed", logging.Err(err))
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}
	return calendars, nil
}

// CurrentDateTime resolves the named calendar's timezone and returns the
// current date and time there, formatted for the model.
func (c *Client) CurrentDateTime(calendarID string) (string, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	log := logging.WithOperation(c.logger, "current_datetime")

	entry, err := c.svc.CalendarList.Get(calendarID).Do()
	if err != nil {
		log.Error("backend calendar lookup failed", logging.Calendar(calendarID), logging.Err(err))
		return "", fmt.Errorf("failed to get calendar %s: %w", calendarID, err)
	}

	return FormatCurrentDateTime(entry.TimeZone, time.Now()), nil
}

// FormatCurrentDateTime renders a timestamp in the given timezone using
// the fixed answer shape for the current-time operation. An unknown or
// empty timezone falls back to UTC.
func FormatCurrentDateTime(timezone string, now time.Time) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		timezone = "UTC"
		loc = time.UTC
	}
	return fmt.Sprintf("Time zone: %s, Date and time: %s", timezone, now.In(loc).Format(DateTimeLayout))
}
