package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/calchat/calchat/internal/server"
)

func calendarsInfoTool() mcp.Tool {
	return mcp.NewTool("get_calendars_info",
		mcp.WithDescription("List the user's calendars, or describe a single calendar"),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar to describe; omit to list all visible calendars"),
		),
	)
}

func handleCalendarsInfo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := strArg(args, "calendar_id")

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.CalendarsInfo(calendarID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get calendar info: %v", err)), nil
	}

	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&sb, "   ID: %s\n", cal.ID)
		if cal.Description != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", cal.Description)
		}
		if cal.TimeZone != "" {
			fmt.Fprintf(&sb, "   Time zone: %s\n", cal.TimeZone)
		}
		if cal.AccessRole != "" {
			fmt.Fprintf(&sb, "   Access: %s\n", cal.AccessRole)
		}
		if cal.Primary {
			sb.WriteString("   Primary: yes\n")
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func currentDateTimeTool() mcp.Tool {
	return mcp.NewTool("get_current_datetime",
		mcp.WithDescription("Get the current date and time in a calendar's time zone"),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar whose time zone to use (default: 'primary')"),
		),
	)
}

func handleCurrentDateTime(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := strArg(args, "calendar_id")

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := client.CurrentDateTime(calendarID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get current datetime: %v", err)), nil
	}

	return mcp.NewToolResultText(answer), nil
}
