package inference

// Role defines message roles in a conversation.
type Role string

const (
	// RoleSystem is for system instructions.
	RoleSystem Role = "system"

	// RoleUser is for user messages.
	RoleUser Role = "user"

	// RoleAssistant is for assistant responses.
	RoleAssistant Role = "assistant"
)

// Message represents a chat message in a conversation.
type Message struct {
	// Role identifies the message sender.
	Role Role

	// Content is the text content of the message.
	Content string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	// Model overrides the configured default when set.
	Model string

	// Messages is the conversation so far.
	Messages []Message

	// MaxTokens bounds the completion length. Zero uses the config default.
	MaxTokens int

	// Temperature controls response randomness.
	Temperature float64
}

// ChatResponse is a completed chat response.
type ChatResponse struct {
	Message      Message
	FinishReason string
	Model        string
	LatencyMs    int64
}
