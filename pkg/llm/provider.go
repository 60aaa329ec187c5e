// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := provider.Complete(ctx, []*llm.Message{
//	    llm.NewSystemMessage("You extract structured data from HTML."),
//	    llm.NewUserMessage(prompt),
//	})
package llm

import "context"

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of a conversation with the model.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// CompletionOptions tunes one completion request.
type CompletionOptions struct {
	// JSONResponse asks the model to return a single JSON object.
	JSONResponse bool

	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float64
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication with LLM services and nothing else; the
// refiner and content-extraction layers own prompting and response parsing.
// This keeps providers reusable and testable independently of replay logic.
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	Complete(ctx context.Context, messages []*Message, opts CompletionOptions) (*Message, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}
