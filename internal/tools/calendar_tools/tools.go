package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/server"
	"github.com/calchat/calchat/internal/tools/common"
)

// Tools returns the calendar tool set bound to the given server context.
// The same set backs both the conversational agent loop and the MCP
// serve mode, so every consumer dispatches through identical schemas and
// handlers.
func Tools(sc *server.ServerContext) []mcpserver.ServerTool {
	bind := func(operation string, tool mcp.Tool, handler func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)) mcpserver.ServerTool {
		return mcpserver.ServerTool{
			Tool: tool,
			Handler: common.InstrumentedToolHandlerWithOperation(tool.Name, operation, sc,
				func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					return handler(ctx, request, sc)
				}),
		}
	}

	return []mcpserver.ServerTool{
		bind(instrumentation.OperationSearch, searchEventsTool(), handleSearchEvents),
		bind(instrumentation.OperationCreate, createEventTool(), handleCreateEvent),
		bind(instrumentation.OperationUpdate, updateEventTool(), handleUpdateEvent),
		bind(instrumentation.OperationDelete, deleteEventTool(), handleDeleteEvent),
		bind(instrumentation.OperationList, calendarsInfoTool(), handleCalendarsInfo),
		bind(instrumentation.OperationDateTime, currentDateTimeTool(), handleCurrentDateTime),
	}
}

// Register adds the calendar tool set to an MCP server.
func Register(s *mcpserver.MCPServer, sc *server.ServerContext) {
	s.AddTools(Tools(sc)...)
}

// withUntypedProperty declares a tool argument without a JSON schema
// type, for arguments that legitimately take more than one shape.
func withUntypedProperty(name, description string) mcp.ToolOption {
	return func(t *mcp.Tool) {
		t.InputSchema.Properties[name] = map[string]any{
			"description": description,
		}
	}
}
