package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/shared/llmutils"
)

// LoopSettings bounds one model-driven sub-agent run.
type LoopSettings struct {
	Model       string
	MaxTokens   int
	Temperature float64
	MaxIter     int
}

// LoopRunner executes the model ↔ tool iteration loop for one sub-agent.
// The model itself is an injected schema.LLMProvider.
type LoopRunner struct {
	provider schema.LLMProvider
	settings LoopSettings
}

var _ Runner = (*LoopRunner)(nil)

func NewLoopRunner(provider schema.LLMProvider, settings LoopSettings) *LoopRunner {
	if settings.MaxIter <= 0 {
		settings.MaxIter = 15
	}
	return &LoopRunner{provider: provider, settings: settings}
}

// Run asks the model for the next step until it answers without tool calls.
// Tool calls go through the assignment's ToolList, so they never panic.
func (r *LoopRunner) Run(ctx context.Context, a Assignment) (any, error) {
	if r.provider == nil {
		return nil, errs.New(errs.CodeUnavailableCollaborator, "no model provider configured")
	}
	conversation := schema.NewMessages(
		schema.NewSystemMessage(systemPrompt(a)),
		schema.NewUserMessage(briefing(a)),
	)
	opts := schema.ChatOptions{
		Model:       r.settings.Model,
		MaxTokens:   r.settings.MaxTokens,
		Temperature: r.settings.Temperature,
	}
	defs := a.Tools.Definitions()

	for i := 0; i < r.settings.MaxIter; i++ {
		resp, err := r.provider.Chat(ctx, conversation, defs, opts)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}
		if !resp.HasToolCalls() {
			return llmutils.StringOrDefault(
				llmutils.StripThink(resp.Content),
				"Task completed but no final response was generated.",
			), nil
		}

		slog.Debug("Subagent tool calls", "id", a.AgentID, "calls", llmutils.ToolHint(resp.ToolCalls))
		conversation.AddAssistant(resp.Content, resp.ToolCalls)

		for _, tc := range resp.ToolCalls {
			res := a.Tools.Call(ctx, tc.Name, tc.Arguments, a.Context)
			out, err := json.Marshal(res)
			if err != nil {
				out = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()))
			}
			slog.Info("Tool call", "agent", a.AgentID, "name", tc.Name, "success", res.Success,
				"result", llmutils.Truncate(string(out), 200))
			conversation.AddToolResult(tc.ID, tc.Name, string(out))
		}
	}
	return nil, errs.Newf(errs.CodeExecution, "reached the maximum of %d tool iterations without a final answer", r.settings.MaxIter)
}

func systemPrompt(a Assignment) string {
	if a.Archetype.Prompt != "" {
		return a.Archetype.Prompt
	}
	return strings.Join([]string{
		"# Subagent: " + string(a.Archetype.Type),
		"",
		a.Archetype.Description,
		"",
		"## Rules",
		"1. Stay focused - complete only the assigned task, nothing else",
		"2. Your final response will be reported back to the caller",
		"3. Be concise but informative in your findings",
	}, "\n")
}
