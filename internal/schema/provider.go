package schema

import "context"

// ChatOptions configures a single model request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMResponse is the normalised response from any model backend.
type LLMResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// LLMProvider is the function-calling model a sub-agent loop talks to.
// No implementation ships with the orchestrator; embedders supply one.
type LLMProvider interface {
	Chat(ctx context.Context, messages Messages, tools []ToolSpec, opts ChatOptions) (LLMResponse, error)
}
