package llm

import "context"

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model name (e.g. "llama-3.1-8b-instant", "gpt-4o-mini")
	Model string `json:"model"`

	// Conversation messages, system prompt first
	Messages []Message `json:"messages"`

	// Generation parameters
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Client is the interface to a chat completion upstream. One call, one
// assistant message; no streaming.
type Client interface {
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
