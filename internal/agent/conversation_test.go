package agent

import (
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func TestConversation_DirectiveInjectedOnce(t *testing.T) {
	conv := NewConversation()

	conv.EnsureDirective()
	conv.EnsureDirective()
	conv.EnsureDirective()

	if conv.Len() != 1 {
		t.Fatalf("directive should appear exactly once, got %d messages", conv.Len())
	}

	msg := conv.Messages()[0]
	if msg.Role != openai.ChatMessageRoleSystem {
		t.Errorf("directive role = %q", msg.Role)
	}
	if msg.Content == "" {
		t.Error("directive content is empty")
	}
}

func TestConversation_AddUserTurn(t *testing.T) {
	conv := NewConversation()
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	conv.AddUserTurn("what's on my calendar today?", now)

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected datetime message plus utterance, got %d", len(msgs))
	}
	if msgs[0].Content != "current datetime is 2024-06-10 09:30:00" {
		t.Errorf("datetime message = %q", msgs[0].Content)
	}
	if msgs[1].Content != "what's on my calendar today?" {
		t.Errorf("utterance = %q", msgs[1].Content)
	}
	for _, msg := range msgs {
		if msg.Role != openai.ChatMessageRoleUser {
			t.Errorf("role = %q, expected user", msg.Role)
		}
	}
}

func TestConversation_AppendOnlyOrdering(t *testing.T) {
	conv := NewConversation()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	conv.EnsureDirective()
	conv.AddUserTurn("schedule lunch", now)
	conv.AddAssistant(openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: "call-1", Function: openai.FunctionCall{Name: "create_calendar_event"}},
		},
	})
	conv.AddToolResult("call-1", "Successfully created event: Lunch")

	msgs := conv.Messages()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}

	last := msgs[4]
	if last.Role != openai.ChatMessageRoleTool {
		t.Errorf("tool result role = %q", last.Role)
	}
	if last.ToolCallID != "call-1" {
		t.Errorf("tool result not bound to call, ToolCallID = %q", last.ToolCallID)
	}
}
