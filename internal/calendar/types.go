package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Date-time wire formats accepted from the model. A bare date marks an
// all-day event.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// ParseDateTime parses a date-time string in the wire format, interpreted
// in loc. It reports whether the value was date-only (all-day).
func ParseDateTime(value string, loc *time.Location) (t time.Time, allDay bool, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err = time.ParseInLocation(DateTimeLayout, value, loc); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date-time %q: expected %q or %q", value, DateTimeLayout, DateLayout)
}

// RecurrenceRule is the structured recurrence shape accepted from the
// model: frequency, interval, and an optional count/until/by-day bound.
type RecurrenceRule struct {
	Freq     string // DAILY, WEEKLY, MONTHLY, YEARLY
	Interval int64
	Count    int64  // 0 means unbounded
	Until    string // YYYYMMDD, empty means unbounded
	ByDay    string // e.g. "MO" or "MO,WE,FR"
}

var validFrequencies = map[string]bool{
	"DAILY":   true,
	"WEEKLY":  true,
	"MONTHLY": true,
	"YEARLY":  true,
}

var validByDays = map[string]bool{
	"MO": true, "TU": true, "WE": true, "TH": true,
	"FR": true, "SA": true, "SU": true,
}

// Validate checks the rule's fields without touching the network.
func (r *RecurrenceRule) Validate() error {
	if !validFrequencies[r.Freq] {
		return fmt.Errorf("recurrence: FREQ must be one of DAILY, WEEKLY, MONTHLY, YEARLY, got %q", r.Freq)
	}
	if r.Interval < 0 {
		return fmt.Errorf("recurrence: INTERVAL must be positive, got %d", r.Interval)
	}
	if r.Count < 0 {
		return fmt.Errorf("recurrence: COUNT must be positive, got %d", r.Count)
	}
	if r.Until != "" {
		if _, err := time.Parse("20060102", r.Until); err != nil {
			return fmt.Errorf("recurrence: UNTIL must be in YYYYMMDD format, got %q", r.Until)
		}
	}
	if r.ByDay != "" {
		for _, day := range strings.Split(r.ByDay, ",") {
			if !validByDays[strings.TrimSpace(day)] {
				return fmt.Errorf("recurrence: BYDAY contains invalid day %q", day)
			}
		}
	}
	return nil
}

// RRule renders the rule as a single RRULE line for the backend.
func (r *RecurrenceRule) RRule() string {
	parts := []string{"FREQ=" + r.Freq}
	if r.Interval > 0 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if r.Until != "" {
		parts = append(parts, "UNTIL="+r.Until)
	}
	if r.ByDay != "" {
		parts = append(parts, "BYDAY="+strings.ReplaceAll(r.ByDay, " ", ""))
	}
	return "RRULE:" + strings.Join(parts, ";")
}

// ReminderSpec is the reminder shape accepted from the model: either
// "use the calendar's defaults" or an explicit list of overrides.
type ReminderSpec struct {
	UseDefault bool
	Overrides  []ReminderOverride
}

// ReminderOverride is one explicit reminder.
type ReminderOverride struct {
	Method  string // "email" or "popup"
	Minutes int64
}

// Validate checks the reminder methods and minute bounds.
func (s *ReminderSpec) Validate() error {
	for _, o := range s.Overrides {
		if o.Method != "email" && o.Method != "popup" {
			return fmt.Errorf("reminders: method must be email or popup, got %q", o.Method)
		}
		if o.Minutes < 0 {
			return fmt.Errorf("reminders: minutes must be non-negative, got %d", o.Minutes)
		}
	}
	return nil
}

// toEventReminders converts the reminder settings to the backend representation.
func (s *ReminderSpec) toEventReminders() *calendar.EventReminders {
	if s.UseDefault {
		return &calendar.EventReminders{
			UseDefault:      true,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	reminders := &calendar.EventReminders{
		UseDefault:      false,
		ForceSendFields: []string{"UseDefault"},
	}
	for _, o := range s.Overrides {
		reminders.Overrides = append(reminders.Overrides, &calendar.EventReminder{
			Method:  o.Method,
			Minutes: o.Minutes,
		})
	}
	return reminders
}

// Valid orderings for event searches.
const (
	OrderByStartTime = "startTime"
	OrderByUpdated   = "updated"
)

// SearchEventsRequest scopes an event search across the user's visible
// calendars.
type SearchEventsRequest struct {
	MinDateTime string
	MaxDateTime string
	Query       string
	MaxResults  int64 // default 10
	OrderBy     string
	// SingleEvents expands recurring events into instances. Nil defaults
	// to true; startTime ordering requires it.
	SingleEvents *bool

	minTime time.Time
	maxTime time.Time
}

// Validate fills defaults and checks every field before any network call.
// In particular an invalid OrderBy must fail here, never at the backend.
func (r *SearchEventsRequest) Validate() error {
	if r.MinDateTime == "" {
		return fmt.Errorf("min_datetime is required")
	}
	if r.MaxDateTime == "" {
		return fmt.Errorf("max_datetime is required")
	}

	var err error
	if r.minTime, _, err = ParseDateTime(r.MinDateTime, time.UTC); err != nil {
		return fmt.Errorf("min_datetime: %w", err)
	}
	if r.maxTime, _, err = ParseDateTime(r.MaxDateTime, time.UTC); err != nil {
		return fmt.Errorf("max_datetime: %w", err)
	}

	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
	if r.MaxResults < 0 {
		return fmt.Errorf("max_results must be positive, got %d", r.MaxResults)
	}

	if r.OrderBy == "" {
		r.OrderBy = OrderByStartTime
	}
	if r.OrderBy != OrderByStartTime && r.OrderBy != OrderByUpdated {
		return fmt.Errorf("order_by must be %q or %q, got %q", OrderByStartTime, OrderByUpdated, r.OrderBy)
	}

	if r.SingleEvents == nil {
		singleEvents := true
		r.SingleEvents = &singleEvents
	}
	return nil
}

// CreateEventRequest carries the inputs for a new event. Optional fields
// are pointers (or nil slices) so absent and zero-valued inputs stay
// distinguishable; only present fields reach the backend.
type CreateEventRequest struct {
	Summary       string
	StartDateTime string
	EndDateTime   string // empty defaults to one hour after start
	TimeZone      string // empty defaults to UTC
	CalendarID    string // empty defaults to "primary"

	Description    *string
	Location       *string
	ColorID        *string
	Transparency   *string // "transparent" or "opaque"
	Attendees      []string
	ConferenceData *bool
	Recurrence     *RecurrenceRule
	Reminders      *ReminderSpec
	SendUpdates    *string

	start  time.Time
	end    time.Time
	allDay bool
}

// Normalize fills defaults and validates the request. After a successful
// call the request carries a resolved timezone, calendar, and end time.
func (r *CreateEventRequest) Normalize() error {
	if r.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if r.StartDateTime == "" {
		return fmt.Errorf("start_datetime is required")
	}

	if r.TimeZone == "" {
		r.TimeZone = "UTC"
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return fmt.Errorf("timezone: unknown timezone %q", r.TimeZone)
	}

	if r.CalendarID == "" {
		r.CalendarID = "primary"
	}

	r.start, r.allDay, err = ParseDateTime(r.StartDateTime, loc)
	if err != nil {
		return fmt.Errorf("start_datetime: %w", err)
	}

	if r.EndDateTime == "" {
		// Directive contract: an unspecified end means one hour after the
		// start, or the following day for all-day events.
		if r.allDay {
			r.end = r.start.AddDate(0, 0, 1)
			r.EndDateTime = r.end.Format(DateLayout)
		} else {
			r.end = r.start.Add(time.Hour)
			r.EndDateTime = r.end.Format(DateTimeLayout)
		}
	} else {
		var endAllDay bool
		r.end, endAllDay, err = ParseDateTime(r.EndDateTime, loc)
		if err != nil {
			return fmt.Errorf("end_datetime: %w", err)
		}
		if endAllDay != r.allDay {
			return fmt.Errorf("start_datetime and end_datetime must both be date-only or both carry a time")
		}
	}

	if r.Transparency != nil && *r.Transparency != "transparent" && *r.Transparency != "opaque" {
		return fmt.Errorf("transparency must be transparent or opaque, got %q", *r.Transparency)
	}
	if err := validateSendUpdates(r.SendUpdates); err != nil {
		return err
	}
	if r.Recurrence != nil {
		if err := r.Recurrence.Validate(); err != nil {
			return err
		}
	}
	if r.Reminders != nil {
		if err := r.Reminders.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// toEvent builds the backend event, including only present optional
// fields.
func (r *CreateEventRequest) toEvent() *calendar.Event {
	event := &calendar.Event{
		Summary: r.Summary,
	}

	if r.allDay {
		event.Start = &calendar.EventDateTime{Date: r.start.Format(DateLayout)}
		event.End = &calendar.EventDateTime{Date: r.end.Format(DateLayout)}
	} else {
		event.Start = &calendar.EventDateTime{
			DateTime: r.start.Format(time.RFC3339),
			TimeZone: r.TimeZone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: r.end.Format(time.RFC3339),
			TimeZone: r.TimeZone,
		}
	}

	if r.Description != nil {
		event.Description = *r.Description
	}
	if r.Location != nil {
		event.Location = *r.Location
	}
	if r.ColorID != nil {
		event.ColorId = *r.ColorID
	}
	if r.Transparency != nil {
		event.Transparency = *r.Transparency
	}
	for _, email := range r.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	if r.Recurrence != nil {
		event.Recurrence = []string{r.Recurrence.RRule()}
	}
	if r.Reminders != nil {
		event.Reminders = r.Reminders.toEventReminders()
	}
	return event
}

// UpdateEventRequest patches an existing event. Every field except the
// identifiers is a pointer: nil means "leave the stored value untouched",
// which is what the backend patch semantics guarantee for omitted fields.
type UpdateEventRequest struct {
	EventID    string
	CalendarID string // empty defaults to "primary"

	Summary        *string
	StartDateTime  *string
	EndDateTime    *string
	TimeZone       *string
	Description    *string
	Location       *string
	ColorID        *string
	Transparency   *string
	Attendees      []string // nil means absent; empty slice clears
	ConferenceData *bool
	Recurrence     *RecurrenceRule
	Reminders      *ReminderSpec
	SendUpdates    *string
}

// Validate fills defaults and checks the supplied subset of fields.
func (r *UpdateEventRequest) Validate() error {
	if r.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if r.CalendarID == "" {
		r.CalendarID = "primary"
	}

	loc := time.UTC
	if r.TimeZone != nil {
		var err error
		if loc, err = time.LoadLocation(*r.TimeZone); err != nil {
			return fmt.Errorf("timezone: unknown timezone %q", *r.TimeZone)
		}
	}
	if r.StartDateTime != nil {
		if _, _, err := ParseDateTime(*r.StartDateTime, loc); err != nil {
			return fmt.Errorf("start_datetime: %w", err)
		}
	}
	if r.EndDateTime != nil {
		if _, _, err := ParseDateTime(*r.EndDateTime, loc); err != nil {
			return fmt.Errorf("end_datetime: %w", err)
		}
	}
	if r.Transparency != nil && *r.Transparency != "transparent" && *r.Transparency != "opaque" {
		return fmt.Errorf("transparency must be transparent or opaque, got %q", *r.Transparency)
	}
	if err := validateSendUpdates(r.SendUpdates); err != nil {
		return err
	}
	if r.Recurrence != nil {
		if err := r.Recurrence.Validate(); err != nil {
			return err
		}
	}
	if r.Reminders != nil {
		if err := r.Reminders.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// toPatch builds a sparse backend event carrying only the present fields,
// so an omitted field never overwrites stored event state.
func (r *UpdateEventRequest) toPatch() *calendar.Event {
	patch := &calendar.Event{}

	if r.Summary != nil {
		patch.Summary = *r.Summary
		patch.ForceSendFields = append(patch.ForceSendFields, "Summary")
	}
	if r.Description != nil {
		patch.Description = *r.Description
		patch.ForceSendFields = append(patch.ForceSendFields, "Description")
	}
	if r.Location != nil {
		patch.Location = *r.Location
		patch.ForceSendFields = append(patch.ForceSendFields, "Location")
	}
	if r.ColorID != nil {
		patch.ColorId = *r.ColorID
		patch.ForceSendFields = append(patch.ForceSendFields, "ColorId")
	}
	if r.Transparency != nil {
		patch.Transparency = *r.Transparency
		patch.ForceSendFields = append(patch.ForceSendFields, "Transparency")
	}

	tz := ""
	if r.TimeZone != nil {
		tz = *r.TimeZone
	}
	loc := time.UTC
	if tz != "" {
		loc, _ = time.LoadLocation(tz) // validated in Validate
	}
	if r.StartDateTime != nil {
		patch.Start = toEventDateTime(*r.StartDateTime, tz, loc)
	}
	if r.EndDateTime != nil {
		patch.End = toEventDateTime(*r.EndDateTime, tz, loc)
	}

	if r.Attendees != nil {
		patch.Attendees = []*calendar.EventAttendee{}
		for _, email := range r.Attendees {
			patch.Attendees = append(patch.Attendees, &calendar.EventAttendee{Email: email})
		}
	}
	if r.Recurrence != nil {
		patch.Recurrence = []string{r.Recurrence.RRule()}
	}
	if r.Reminders != nil {
		patch.Reminders = r.Reminders.toEventReminders()
	}
	return patch
}

// toEventDateTime converts a validated wire date-time into the backend
// shape, preserving the all-day distinction.
func toEventDateTime(value, tz string, loc *time.Location) *calendar.EventDateTime {
	t, allDay, _ := ParseDateTime(value, loc) // validated by the caller
	if allDay {
		return &calendar.EventDateTime{Date: t.Format(DateLayout)}
	}
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: tz,
	}
}

// DeleteEventRequest removes one event.
type DeleteEventRequest struct {
	EventID     string
	CalendarID  string  // empty defaults to "primary"
	SendUpdates *string // nil leaves the backend default in place
}

// Validate checks identifiers and the send_updates enum.
func (r *DeleteEventRequest) Validate() error {
	if r.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if r.CalendarID == "" {
		r.CalendarID = "primary"
	}
	return validateSendUpdates(r.SendUpdates)
}

func validateSendUpdates(v *string) error {
	if v == nil {
		return nil
	}
	switch *v {
	case "all", "externalOnly", "none":
		return nil
	}
	return fmt.Errorf("send_updates must be all, externalOnly, or none, got %q", *v)
}

// EventSummary is the normalized event returned by operations.
type EventSummary struct {
	ID           string
	CalendarID   string
	Summary      string
	Description  string
	Location     string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Status       string
	Creator      string
	Organizer    string
	Attendees    []AttendeeInfo
	Recurrence   []string
	Transparency string
	HTMLLink     string
	Updated      time.Time
}

// AttendeeInfo describes one event attendee.
type AttendeeInfo struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
	Organizer      bool
}

// CalendarInfo is the normalized calendar record.
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// toEventSummary converts a backend event to the normalized shape.
func toEventSummary(event *calendar.Event, calendarID string) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:           event.Id,
		CalendarID:   calendarID,
		Summary:      event.Summary,
		Description:  event.Description,
		Location:     event.Location,
		Status:       event.Status,
		Recurrence:   event.Recurrence,
		Transparency: event.Transparency,
		HTMLLink:     event.HtmlLink,
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				summary.Start = t
			}
		} else if event.Start.Date != "" {
			if t, err := time.Parse(DateLayout, event.Start.Date); err == nil {
				summary.Start = t
				summary.AllDay = true
			}
		}
	}
	if event.End != nil {
		if event.End.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
				summary.End = t
			}
		} else if event.End.Date != "" {
			if t, err := time.Parse(DateLayout, event.End.Date); err == nil {
				summary.End = t
			}
		}
	}

	if event.Creator != nil {
		summary.Creator = event.Creator.Email
	}
	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}
	if event.Updated != "" {
		if t, err := time.Parse(time.RFC3339, event.Updated); err == nil {
			summary.Updated = t
		}
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
		})
	}

	return summary
}

// toCalendarInfo converts a backend calendar list entry.
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}

// sortEventSummaries orders aggregated search results the way the backend
// orders a single-calendar listing.
func sortEventSummaries(events []EventSummary, orderBy string) {
	sort.SliceStable(events, func(i, j int) bool {
		if orderBy == OrderByUpdated {
			return events[i].Updated.Before(events[j].Updated)
		}
		return events[i].Start.Before(events[j].Start)
	})
}
