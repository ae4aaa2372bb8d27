package llm

import "context"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single role-tagged entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolMessage creates a tool-output Message.
func ToolMessage(text string) Message {
	return Message{Role: RoleTool, Content: text}
}

// Request is a blocking completion request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`

	// Provider optionally forces a specific registered adapter. When empty
	// the client falls back to the default provider, then to catalog
	// inference from the model name.
	Provider string `json:"provider,omitempty"`
}

// Response is the result of a completion request.
type Response struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// Backend is the narrow contract the agent loop consumes. Client
// implements it; tests substitute scripted fakes.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ProviderAdapter is the interface every provider integration implements.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Closer is implemented by adapters that hold resources.
type Closer interface {
	Close() error
}
