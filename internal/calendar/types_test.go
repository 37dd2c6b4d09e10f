package calendar

import (
	"strings"
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantAll   bool
		wantError bool
	}{
		{
			name:  "full datetime",
			value: "2024-06-10 09:00:00",
		},
		{
			name:    "date only is all-day",
			value:   "2024-06-10",
			wantAll: true,
		},
		{
			name:      "RFC3339 is rejected",
			value:     "2024-06-10T09:00:00Z",
			wantError: true,
		},
		{
			name:      "garbage",
			value:     "next tuesday",
			wantError: true,
		},
		{
			name:      "empty",
			value:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, allDay, err := ParseDateTime(tt.value, time.UTC)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if allDay != tt.wantAll {
				t.Errorf("allDay = %v, expected %v", allDay, tt.wantAll)
			}
		})
	}
}

func TestParseDateTime_Location(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	parsed, _, err := ParseDateTime("2024-06-10 09:00:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Location() != loc {
		t.Errorf("expected wall time in %v, got %v", loc, parsed.Location())
	}
}

func TestRecurrenceRule_RRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     RecurrenceRule
		expected string
	}{
		{
			name:     "daily",
			rule:     RecurrenceRule{Freq: "DAILY"},
			expected: "RRULE:FREQ=DAILY",
		},
		{
			name:     "weekly with interval and count",
			rule:     RecurrenceRule{Freq: "WEEKLY", Interval: 2, Count: 5},
			expected: "RRULE:FREQ=WEEKLY;INTERVAL=2;COUNT=5",
		},
		{
			name:     "until bound",
			rule:     RecurrenceRule{Freq: "DAILY", Until: "20241231"},
			expected: "RRULE:FREQ=DAILY;UNTIL=20241231",
		},
		{
			name:     "by-day list",
			rule:     RecurrenceRule{Freq: "WEEKLY", ByDay: "MO, WE, FR"},
			expected: "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.RRule(); got != tt.expected {
				t.Errorf("RRule() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestRecurrenceRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr string
	}{
		{
			name: "valid weekly",
			rule: RecurrenceRule{Freq: "WEEKLY", Interval: 1, ByDay: "MO"},
		},
		{
			name:    "invalid frequency",
			rule:    RecurrenceRule{Freq: "HOURLY"},
			wantErr: "FREQ",
		},
		{
			name:    "invalid until format",
			rule:    RecurrenceRule{Freq: "DAILY", Until: "2024-12-31"},
			wantErr: "UNTIL",
		},
		{
			name:    "invalid by-day",
			rule:    RecurrenceRule{Freq: "WEEKLY", ByDay: "XX"},
			wantErr: "BYDAY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error naming %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReminderSpec_Validate(t *testing.T) {
	valid := ReminderSpec{Overrides: []ReminderOverride{
		{Method: "email", Minutes: 30},
		{Method: "popup", Minutes: 10},
	}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	invalid := ReminderSpec{Overrides: []ReminderOverride{{Method: "sms", Minutes: 5}}}
	if err := invalid.Validate(); err == nil {
		t.Error("expected error for invalid reminder method")
	}

	negative := ReminderSpec{Overrides: []ReminderOverride{{Method: "email", Minutes: -1}}}
	if err := negative.Validate(); err == nil {
		t.Error("expected error for negative minutes")
	}
}

func TestReminderSpec_ToEventReminders(t *testing.T) {
	defaults := ReminderSpec{UseDefault: true}
	reminders := defaults.toEventReminders()
	if !reminders.UseDefault {
		t.Error("expected UseDefault to be set")
	}

	explicit := ReminderSpec{Overrides: []ReminderOverride{{Method: "popup", Minutes: 15}}}
	reminders = explicit.toEventReminders()
	if reminders.UseDefault {
		t.Error("explicit overrides must disable backend defaults")
	}
	if len(reminders.Overrides) != 1 || reminders.Overrides[0].Method != "popup" {
		t.Errorf("unexpected overrides: %+v", reminders.Overrides)
	}
	// UseDefault=false is a zero value and must be forced onto the wire.
	found := false
	for _, f := range reminders.ForceSendFields {
		if f == "UseDefault" {
			found = true
		}
	}
	if !found {
		t.Error("expected UseDefault in ForceSendFields")
	}
}

func TestSearchEventsRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchEventsRequest
		wantErr string
	}{
		{
			name: "valid with defaults",
			req: SearchEventsRequest{
				MinDateTime: "2024-06-01 00:00:00",
				MaxDateTime: "2024-06-30 23:59:59",
			},
		},
		{
			name: "date-only bounds",
			req: SearchEventsRequest{
				MinDateTime: "2024-06-01",
				MaxDateTime: "2024-06-30",
			},
		},
		{
			name:    "missing min",
			req:     SearchEventsRequest{MaxDateTime: "2024-06-30 00:00:00"},
			wantErr: "min_datetime",
		},
		{
			name: "malformed max",
			req: SearchEventsRequest{
				MinDateTime: "2024-06-01 00:00:00",
				MaxDateTime: "June 30th",
			},
			wantErr: "max_datetime",
		},
		{
			name: "invalid order_by",
			req: SearchEventsRequest{
				MinDateTime: "2024-06-01 00:00:00",
				MaxDateTime: "2024-06-30 00:00:00",
				OrderBy:     "priority",
			},
			wantErr: "order_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error naming %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSearchEventsRequest_Defaults(t *testing.T) {
	req := SearchEventsRequest{
		MinDateTime: "2024-06-01 00:00:00",
		MaxDateTime: "2024-06-30 00:00:00",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.MaxResults != 10 {
		t.Errorf("MaxResults = %d, expected default 10", req.MaxResults)
	}
	if req.OrderBy != OrderByStartTime {
		t.Errorf("OrderBy = %q, expected default %q", req.OrderBy, OrderByStartTime)
	}
	if req.SingleEvents == nil || !*req.SingleEvents {
		t.Error("SingleEvents should default to true")
	}
}

func TestCreateEventRequest_Normalize_Defaults(t *testing.T) {
	req := CreateEventRequest{
		Summary:       "Standup",
		StartDateTime: "2024-06-10 09:00:00",
	}
	if err := req.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, expected UTC", req.TimeZone)
	}
	if req.CalendarID != "primary" {
		t.Errorf("CalendarID = %q, expected primary", req.CalendarID)
	}
	if req.EndDateTime != "2024-06-10 10:00:00" {
		t.Errorf("EndDateTime = %q, expected one hour after start", req.EndDateTime)
	}
}

func TestCreateEventRequest_Normalize_AllDay(t *testing.T) {
	req := CreateEventRequest{
		Summary:       "Conference",
		StartDateTime: "2024-06-10",
	}
	if err := req.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.EndDateTime != "2024-06-11" {
		t.Errorf("EndDateTime = %q, expected next day for all-day event", req.EndDateTime)
	}

	event := req.toEvent()
	if event.Start.Date != "2024-06-10" || event.Start.DateTime != "" {
		t.Errorf("expected date-only start, got %+v", event.Start)
	}
}

func TestCreateEventRequest_Normalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateEventRequest
		wantErr string
	}{
		{
			name:    "missing summary",
			req:     CreateEventRequest{StartDateTime: "2024-06-10 09:00:00"},
			wantErr: "summary",
		},
		{
			name:    "missing start",
			req:     CreateEventRequest{Summary: "Standup"},
			wantErr: "start_datetime",
		},
		{
			name: "unknown timezone",
			req: CreateEventRequest{
				Summary:       "Standup",
				StartDateTime: "2024-06-10 09:00:00",
				TimeZone:      "Mars/Olympus",
			},
			wantErr: "timezone",
		},
		{
			name: "mixed all-day and timed",
			req: CreateEventRequest{
				Summary:       "Standup",
				StartDateTime: "2024-06-10 09:00:00",
				EndDateTime:   "2024-06-11",
			},
			wantErr: "date-only",
		},
		{
			name: "invalid transparency",
			req: CreateEventRequest{
				Summary:       "Standup",
				StartDateTime: "2024-06-10 09:00:00",
				Transparency:  strPtr("busy"),
			},
			wantErr: "transparency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error naming %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateEventRequest_ToEvent_OnlyPresentFields(t *testing.T) {
	req := CreateEventRequest{
		Summary:       "Standup",
		StartDateTime: "2024-06-10 09:00:00",
		Description:   strPtr("daily sync"),
		Attendees:     []string{"a@example.com", "b@example.com"},
		Recurrence:    &RecurrenceRule{Freq: "DAILY", Count: 5},
	}
	if err := req.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := req.toEvent()
	if event.Description != "daily sync" {
		t.Errorf("Description = %q", event.Description)
	}
	if event.Location != "" {
		t.Error("absent location must stay empty")
	}
	if len(event.Attendees) != 2 {
		t.Errorf("expected 2 attendees, got %d", len(event.Attendees))
	}
	if len(event.Recurrence) != 1 || event.Recurrence[0] != "RRULE:FREQ=DAILY;COUNT=5" {
		t.Errorf("unexpected recurrence: %v", event.Recurrence)
	}
	if event.Start.TimeZone != "UTC" {
		t.Errorf("Start.TimeZone = %q", event.Start.TimeZone)
	}
}

func TestUpdateEventRequest_ToPatch_OmittedFieldsAbsent(t *testing.T) {
	req := UpdateEventRequest{
		EventID: "evt-1",
		Summary: strPtr("Renamed"),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patch := req.toPatch()
	if patch.Summary != "Renamed" {
		t.Errorf("Summary = %q", patch.Summary)
	}
	// Everything not supplied must be absent from the patch so the
	// backend keeps the stored values.
	if patch.Description != "" || patch.Location != "" {
		t.Error("omitted fields leaked into the patch")
	}
	if patch.Start != nil || patch.End != nil {
		t.Error("omitted times leaked into the patch")
	}
	if patch.Attendees != nil {
		t.Error("omitted attendees leaked into the patch")
	}
	if patch.Reminders != nil {
		t.Error("omitted reminders leaked into the patch")
	}
}

func TestUpdateEventRequest_ToPatch_EmptyStringClears(t *testing.T) {
	// An explicitly supplied empty string clears the field; ForceSendFields
	// keeps it on the wire despite being a zero value.
	req := UpdateEventRequest{
		EventID:     "evt-1",
		Description: strPtr(""),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patch := req.toPatch()
	found := false
	for _, f := range patch.ForceSendFields {
		if f == "Description" {
			found = true
		}
	}
	if !found {
		t.Error("expected Description in ForceSendFields")
	}
}

func TestUpdateEventRequest_ToPatch_EmptyStringClearsColorAndTransparency(t *testing.T) {
	req := UpdateEventRequest{
		EventID: "evt-1",
		ColorID: strPtr(""),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patch := req.toPatch()
	forced := map[string]bool{}
	for _, f := range patch.ForceSendFields {
		forced[f] = true
	}
	if !forced["ColorId"] {
		t.Error("expected ColorId in ForceSendFields")
	}
	if forced["Transparency"] {
		t.Error("omitted transparency must not be forced onto the wire")
	}

	req = UpdateEventRequest{
		EventID:      "evt-1",
		Transparency: strPtr("transparent"),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patch = req.toPatch()
	forced = map[string]bool{}
	for _, f := range patch.ForceSendFields {
		forced[f] = true
	}
	if !forced["Transparency"] {
		t.Error("expected Transparency in ForceSendFields")
	}
}

func TestUpdateEventRequest_Validate(t *testing.T) {
	missing := UpdateEventRequest{}
	if err := missing.Validate(); err == nil || !strings.Contains(err.Error(), "event_id") {
		t.Errorf("expected event_id error, got %v", err)
	}

	badTime := UpdateEventRequest{
		EventID:       "evt-1",
		StartDateTime: strPtr("soon"),
	}
	if err := badTime.Validate(); err == nil || !strings.Contains(err.Error(), "start_datetime") {
		t.Errorf("expected start_datetime error, got %v", err)
	}

	defaulted := UpdateEventRequest{EventID: "evt-1"}
	if err := defaulted.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaulted.CalendarID != "primary" {
		t.Errorf("CalendarID = %q, expected primary", defaulted.CalendarID)
	}
}

func TestDeleteEventRequest_Validate(t *testing.T) {
	missing := DeleteEventRequest{}
	if err := missing.Validate(); err == nil || !strings.Contains(err.Error(), "event_id") {
		t.Errorf("expected event_id error, got %v", err)
	}

	badUpdates := DeleteEventRequest{EventID: "evt-1", SendUpdates: strPtr("everyone")}
	if err := badUpdates.Validate(); err == nil || !strings.Contains(err.Error(), "send_updates") {
		t.Errorf("expected send_updates error, got %v", err)
	}

	valid := DeleteEventRequest{EventID: "evt-1", SendUpdates: strPtr("externalOnly")}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToEventSummary_Nil(t *testing.T) {
	summary := toEventSummary(nil, "primary")
	if summary.ID != "" {
		t.Errorf("expected empty summary for nil event, got %+v", summary)
	}
}

func TestFormatCurrentDateTime(t *testing.T) {
	now := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)

	got := FormatCurrentDateTime("UTC", now)
	expected := "Time zone: UTC, Date and time: 2024-06-10 14:30:00"
	if got != expected {
		t.Errorf("FormatCurrentDateTime() = %q, expected %q", got, expected)
	}

	// Unknown timezone falls back to UTC rather than failing.
	got = FormatCurrentDateTime("Nowhere/Invalid", now)
	if got != expected {
		t.Errorf("fallback FormatCurrentDateTime() = %q, expected %q", got, expected)
	}

	got = FormatCurrentDateTime("America/New_York", now)
	if !strings.Contains(got, "Time zone: America/New_York") || !strings.Contains(got, "2024-06-10 10:30:00") {
		t.Errorf("unexpected formatted time: %q", got)
	}
}

func TestSortEventSummaries(t *testing.T) {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []EventSummary{
		{ID: "b", Start: base.Add(2 * time.Hour), Updated: base},
		{ID: "a", Start: base, Updated: base.Add(time.Hour)},
	}

	sortEventSummaries(events, OrderByStartTime)
	if events[0].ID != "a" {
		t.Errorf("startTime order: expected a first, got %s", events[0].ID)
	}

	sortEventSummaries(events, OrderByUpdated)
	if events[0].ID != "b" {
		t.Errorf("updated order: expected b first, got %s", events[0].ID)
	}
}

func strPtr(s string) *string { return &s }
