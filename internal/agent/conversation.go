package agent

import (
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// formattingDirective is injected once per conversation. It pins the
// date-time wire format the tools expect and the default event duration.
const formattingDirective = "Format all date and time values as 'YYYY-MM-DD HH:MM:SS' " +
	"(or 'YYYY-MM-DD' for all-day events). When the user does not give an " +
	"end time for an event, assume it ends one hour after it starts."

// Conversation is the append-only message history shared with the model.
// Whether the formatting directive has been injected is tracked with an
// explicit flag rather than by scanning message content.
type Conversation struct {
	messages          []openai.ChatCompletionMessage
	directiveInjected bool
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// EnsureDirective injects the formatting directive as a system message.
// Subsequent calls are no-ops.
func (c *Conversation) EnsureDirective() {
	if c.directiveInjected {
		return
	}
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: formattingDirective,
	})
	c.directiveInjected = true
}

// AddUserTurn appends the synthetic current-datetime message followed by
// the user's utterance. The datetime message keeps relative expressions
// like "tomorrow" resolvable without the model guessing.
func (c *Conversation) AddUserTurn(utterance string, now time.Time) {
	c.messages = append(c.messages,
		openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("current datetime is %s", now.Format("2006-01-02 15:04:05")),
		},
		openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: utterance,
		},
	)
}

// AddAssistant appends a model response, including any tool calls it
// carries.
func (c *Conversation) AddAssistant(msg openai.ChatCompletionMessage) {
	c.messages = append(c.messages, msg)
}

// AddToolResult appends a tool result bound to the originating call.
func (c *Conversation) AddToolResult(toolCallID, content string) {
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    content,
		ToolCallID: toolCallID,
	})
}

// Messages returns the history to send with the next completion request.
func (c *Conversation) Messages() []openai.ChatCompletionMessage {
	return c.messages
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	return len(c.messages)
}
