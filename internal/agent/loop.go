package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	openai "github.com/sashabaranov/go-openai"

	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/logging"
)

// User-facing fallback strings. These are the only texts Submit returns
// when something goes wrong; real errors go to the log.
const (
	emptyResponseFallback = "I couldn't generate a response. Please try again."
	errorFallback         = "An error occurred while processing your request."
)

// maxModelTurns bounds the number of completion requests per user turn,
// guarding against a model that never stops calling tools.
const maxModelTurns = 10

// ChatService is the completion surface the loop depends on.
// *openai.Client satisfies it.
type ChatService interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config carries the dependencies for a Loop.
type Config struct {
	Service ChatService
	Model   string
	Tools   []mcpserver.ServerTool
	Logger  *slog.Logger

	// Metrics is optional; nil disables recording.
	Metrics *instrumentation.Metrics

	// Now is the clock for the synthetic datetime message.
	// Defaults to time.Now.
	Now func() time.Time
}

// Loop drives one conversation: it sends the history to the model,
// dispatches the tool calls the model requests, and returns the model's
// final natural-language answer.
type Loop struct {
	service ChatService
	model   string
	tools   []mcpserver.ServerTool
	openai  []openai.Tool
	conv    *Conversation
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// NewLoop creates a loop with a fresh conversation.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("chat service is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Loop{
		service: cfg.Service,
		model:   cfg.Model,
		tools:   cfg.Tools,
		openai:  openaiTools(cfg.Tools),
		conv:    NewConversation(),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}, nil
}

// Conversation exposes the loop's message history.
func (l *Loop) Conversation() *Conversation {
	return l.conv
}

// Submit runs one user turn through the loop and returns the answer to
// display. It never returns an error: failures come back as the fixed
// fallback strings, with details logged.
func (l *Loop) Submit(ctx context.Context, utterance string) string {
	l.conv.EnsureDirective()
	l.conv.AddUserTurn(utterance, l.now())

	for turn := 0; turn < maxModelTurns; turn++ {
		start := time.Now()
		resp, err := l.service.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    l.model,
			Messages: l.conv.Messages(),
			Tools:    l.openai,
		})
		if err != nil {
			l.recordModelRequest(ctx, instrumentation.StatusError, time.Since(start))
			l.recordTurn(ctx, instrumentation.StatusError)
			l.logger.Error("chat completion failed", logging.Err(err))
			return errorFallback
		}
		l.recordModelRequest(ctx, instrumentation.StatusSuccess, time.Since(start))
		if l.metrics != nil {
			l.metrics.RecordModelTokens(ctx, int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))
		}

		if len(resp.Choices) == 0 {
			l.recordTurn(ctx, instrumentation.StatusError)
			l.logger.Error("chat completion returned no choices")
			return errorFallback
		}

		msg := resp.Choices[0].Message
		l.conv.AddAssistant(msg)

		if len(msg.ToolCalls) == 0 {
			l.recordTurn(ctx, instrumentation.StatusSuccess)
			if msg.Content == "" {
				return emptyResponseFallback
			}
			return msg.Content
		}

		// Dispatch in the order the model requested; every call gets a
		// result message, errors included, so the model can react.
		for _, call := range msg.ToolCalls {
			l.conv.AddToolResult(call.ID, l.dispatch(ctx, call))
		}
	}

	l.recordTurn(ctx, instrumentation.StatusError)
	l.logger.Error("model turn budget exhausted", slog.Int("max_turns", maxModelTurns))
	return errorFallback
}

// dispatch runs one tool call and returns the text to feed back to the
// model. Failures become descriptive text, not Go errors.
func (l *Loop) dispatch(ctx context.Context, call openai.ToolCall) string {
	name := call.Function.Name
	log := logging.WithTool(l.logger, name)

	tool, ok := l.lookup(name)
	if !ok {
		log.Warn("model requested unknown tool")
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			log.Warn("tool arguments are not valid JSON", logging.Err(err))
			return fmt.Sprintf("Error: invalid arguments for tool %q: %v", name, err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(ctx, req)
	if err != nil {
		log.Error("tool handler failed", logging.Err(err))
		return fmt.Sprintf("Error: tool %q failed: %v", name, err)
	}

	text := resultText(result)
	if result.IsError {
		log.Warn("tool returned error result", slog.String("result", text))
	} else {
		log.Debug("tool executed")
	}
	return text
}

func (l *Loop) lookup(name string) (mcpserver.ServerTool, bool) {
	for _, tool := range l.tools {
		if tool.Tool.Name == name {
			return tool, true
		}
	}
	return mcpserver.ServerTool{}, false
}

func (l *Loop) recordModelRequest(ctx context.Context, status string, duration time.Duration) {
	if l.metrics != nil {
		l.metrics.RecordModelRequest(ctx, l.model, status, duration)
	}
}

func (l *Loop) recordTurn(ctx context.Context, status string) {
	if l.metrics != nil {
		l.metrics.RecordConversationTurn(ctx, status)
	}
}

// resultText flattens a tool result to the text that goes back to the
// model.
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			return text.Text
		}
	}
	return ""
}

// openaiTools converts tool declarations to the function-call shape the
// completion API expects. The mcp input schema marshals to standard JSON
// schema, so it passes through as the function parameters.
func openaiTools(tools []mcpserver.ServerTool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Tool.Name,
				Description: tool.Tool.Description,
				Parameters:  tool.Tool.InputSchema,
			},
		})
	}
	return out
}
