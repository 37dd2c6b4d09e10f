package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/calchat/calchat/internal/calendar"
	"github.com/calchat/calchat/internal/server"
)

func searchEventsTool() mcp.Tool {
	return mcp.NewTool("search_calendar_events",
		mcp.WithDescription("Search calendar events across all visible calendars within a time range"),
		mcp.WithString("min_datetime",
			mcp.Required(),
			mcp.Description("Start of the range, '2006-01-02 15:04:05' or '2006-01-02' for whole days"),
		),
		mcp.WithString("max_datetime",
			mcp.Required(),
			mcp.Description("End of the range, '2006-01-02 15:04:05' or '2006-01-02' for whole days"),
		),
		mcp.WithString("query",
			mcp.Description("Free-text filter applied to event fields"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
		mcp.WithString("order_by",
			mcp.Description("Result ordering: 'startTime' (default) or 'updated'"),
		),
		mcp.WithBoolean("single_events",
			mcp.Description("Expand recurring events into instances (default: true)"),
		),
	)
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := calendar.SearchEventsRequest{
		MinDateTime:  strArg(args, "min_datetime"),
		MaxDateTime:  strArg(args, "max_datetime"),
		Query:        strArg(args, "query"),
		MaxResults:   int64Arg(args, "max_results"),
		OrderBy:      strArg(args, "order_by"),
		SingleEvents: boolPtrArg(args, "single_events"),
	}

	// Validation runs again inside the client; calling it here keeps
	// bad arguments from ever creating the client.
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.SearchEvents(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No events found in the given range."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d events:\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, event.Summary)
		sb.WriteString(formatEvent(event))
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func createEventTool() mcp.Tool {
	return mcp.NewTool("create_calendar_event",
		mcp.WithDescription("Create a new calendar event (supports recurrence, reminders, attendees, and conference links)"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start_datetime",
			mcp.Required(),
			mcp.Description("Start, '2006-01-02 15:04:05' or '2006-01-02' for an all-day event"),
		),
		mcp.WithString("end_datetime",
			mcp.Description("End in the same format; defaults to one hour after the start"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA time zone for the event times (default: UTC)"),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Target calendar (default: 'primary')"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("color_id",
			mcp.Description("Event color identifier"),
		),
		mcp.WithString("transparency",
			mcp.Description("Busy indicator: 'opaque' (busy) or 'transparent' (free)"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Attendee email addresses"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("conference_data",
			mcp.Description("Attach a Google Meet conference to the event"),
		),
		mcp.WithObject("recurrence",
			mcp.Description("Recurrence rule: {FREQ, INTERVAL, COUNT, UNTIL (YYYYMMDD), BYDAY} with FREQ one of DAILY, WEEKLY, MONTHLY, YEARLY"),
		),
		withUntypedProperty("reminders",
			"Either true/false to use the calendar's default reminders, or a list of {method: 'email'|'popup', minutes: N}"),
		mcp.WithString("send_updates",
			mcp.Description("Whether attendees are notified: 'all', 'externalOnly', or 'none'"),
		),
	)
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	recurrence, err := decodeRecurrence(args["recurrence"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reminders, err := decodeReminders(args["reminders"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := calendar.CreateEventRequest{
		Summary:        strArg(args, "summary"),
		StartDateTime:  strArg(args, "start_datetime"),
		EndDateTime:    strArg(args, "end_datetime"),
		TimeZone:       strArg(args, "timezone"),
		CalendarID:     strArg(args, "calendar_id"),
		Description:    strPtrArg(args, "description"),
		Location:       strPtrArg(args, "location"),
		ColorID:        strPtrArg(args, "color_id"),
		Transparency:   strPtrArg(args, "transparency"),
		Attendees:      stringSliceArg(args, "attendees"),
		ConferenceData: boolPtrArg(args, "conference_data"),
		Recurrence:     recurrence,
		Reminders:      reminders,
		SendUpdates:    strPtrArg(args, "send_updates"),
	}

	if err := req.Normalize(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.CreateEvent(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Successfully created event: %s\n", event.Summary)
	sb.WriteString(formatEvent(*event))
	return mcp.NewToolResultText(sb.String()), nil
}

func updateEventTool() mcp.Tool {
	return mcp.NewTool("update_calendar_event",
		mcp.WithDescription("Update an existing calendar event; fields that are not provided keep their stored value"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar holding the event (default: 'primary')"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("start_datetime",
			mcp.Description("New start, '2006-01-02 15:04:05' or '2006-01-02'"),
		),
		mcp.WithString("end_datetime",
			mcp.Description("New end in the same format"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA time zone for the new times"),
		),
		mcp.WithString("description",
			mcp.Description("New description; an empty string clears it"),
		),
		mcp.WithString("location",
			mcp.Description("New location; an empty string clears it"),
		),
		mcp.WithString("color_id",
			mcp.Description("New color identifier"),
		),
		mcp.WithString("transparency",
			mcp.Description("Busy indicator: 'opaque' or 'transparent'"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Replacement attendee list; an empty list removes all attendees"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("conference_data",
			mcp.Description("Set true to attach a Google Meet link to the event"),
		),
		mcp.WithObject("recurrence",
			mcp.Description("Replacement recurrence rule: {FREQ, INTERVAL, COUNT, UNTIL, BYDAY}"),
		),
		withUntypedProperty("reminders",
			"Either true/false for default reminders, or a list of {method, minutes} overrides"),
		mcp.WithString("send_updates",
			mcp.Description("Whether attendees are notified: 'all', 'externalOnly', or 'none'"),
		),
	)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	recurrence, err := decodeRecurrence(args["recurrence"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reminders, err := decodeReminders(args["reminders"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := calendar.UpdateEventRequest{
		EventID:        strArg(args, "event_id"),
		CalendarID:     strArg(args, "calendar_id"),
		Summary:        strPtrArg(args, "summary"),
		StartDateTime:  strPtrArg(args, "start_datetime"),
		EndDateTime:    strPtrArg(args, "end_datetime"),
		TimeZone:       strPtrArg(args, "timezone"),
		Description:    strPtrArg(args, "description"),
		Location:       strPtrArg(args, "location"),
		ColorID:        strPtrArg(args, "color_id"),
		Transparency:   strPtrArg(args, "transparency"),
		ConferenceData: boolPtrArg(args, "conference_data"),
		Recurrence:     recurrence,
		Reminders:      reminders,
		SendUpdates:    strPtrArg(args, "send_updates"),
	}

	// Distinguish an absent attendees argument from an explicit empty
	// list; only the latter clears the attendee set.
	if _, present := args["attendees"]; present {
		req.Attendees = stringSliceArg(args, "attendees")
		if req.Attendees == nil {
			req.Attendees = []string{}
		}
	}

	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.UpdateEvent(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Successfully updated event: %s\n", event.Summary)
	sb.WriteString(formatEvent(*event))
	return mcp.NewToolResultText(sb.String()), nil
}

func deleteEventTool() mcp.Tool {
	return mcp.NewTool("delete_calendar_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar holding the event (default: 'primary')"),
		),
		mcp.WithString("send_updates",
			mcp.Description("Whether attendees are notified: 'all', 'externalOnly', or 'none'"),
		),
	)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := calendar.DeleteEventRequest{
		EventID:     strArg(args, "event_id"),
		CalendarID:  strArg(args, "calendar_id"),
		SendUpdates: strPtrArg(args, "send_updates"),
	}

	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s", req.EventID)), nil
}

// formatEvent renders the shared detail block that follows an event's
// title in tool results.
func formatEvent(event calendar.EventSummary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   ID: %s\n", event.ID)
	if event.CalendarID != "" {
		fmt.Fprintf(&sb, "   Calendar: %s\n", event.CalendarID)
	}
	if !event.Start.IsZero() {
		if event.AllDay {
			fmt.Fprintf(&sb, "   Start: %s (all day)\n", event.Start.Format(calendar.DateLayout))
		} else {
			fmt.Fprintf(&sb, "   Start: %s\n", event.Start.Format(calendar.DateTimeLayout))
		}
	}
	if !event.End.IsZero() {
		if event.AllDay {
			fmt.Fprintf(&sb, "   End: %s\n", event.End.Format(calendar.DateLayout))
		} else {
			fmt.Fprintf(&sb, "   End: %s\n", event.End.Format(calendar.DateTimeLayout))
		}
	}
	if event.Location != "" {
		fmt.Fprintf(&sb, "   Location: %s\n", event.Location)
	}
	if event.Status != "" {
		fmt.Fprintf(&sb, "   Status: %s\n", event.Status)
	}
	if len(event.Recurrence) > 0 {
		fmt.Fprintf(&sb, "   Recurrence: %s\n", strings.Join(event.Recurrence, "; "))
	}
	if len(event.Attendees) > 0 {
		fmt.Fprintf(&sb, "   Attendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			fmt.Fprintf(&sb, "     - %s (%s)\n", att.Email, att.ResponseStatus)
		}
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(&sb, "   Link: %s\n", event.HTMLLink)
	}

	return sb.String()
}
