package tools

import (
	"context"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// NewListAgentsTool returns list_agents, which reports the sub-agents the
// context's orchestrator is currently running.
func NewListAgentsTool() *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolListAgents,
			Description: "List subagents that are currently running.",
			Parameters:  schema.NewParameterSchema(nil),
		},
		Category:        schema.CategoryAgents,
		RequiredContext: []string{schema.ContextOrchestrator},
		Cost:            schema.CostLow,
		Handler: func(_ context.Context, _ map[string]any, ectx *schema.ExecutionContext) (any, error) {
			return schema.Result{Success: true, Data: ectx.Orchestrator.ActiveSubAgents()}, nil
		},
	}
}

// NewAgentHistoryTool returns agent_history, which lists sub-agent runs that
// finished within the last sinceMinutes (default 60).
func NewAgentHistoryTool() *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolAgentHistory,
			Description: "Show recently finished subagent runs and their results.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"sinceMinutes": {Type: schema.ParamInteger, Description: "Look-back window in minutes (default 60)"},
			}),
		},
		Category:            schema.CategoryAgents,
		RequiredPermissions: []string{"agents:read"},
		RequiredContext:     []string{schema.ContextOrchestrator},
		Cost:                schema.CostLow,
		Handler: func(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) (any, error) {
			minutes := 60
			switch v := args["sinceMinutes"].(type) {
			case float64:
				minutes = int(v)
			case int:
				minutes = v
			}
			since := time.Now().Add(-time.Duration(minutes) * time.Minute)
			entries, err := ectx.Orchestrator.ExecutionHistory(ctx, since)
			if err != nil {
				return nil, err
			}
			return schema.Result{Success: true, Data: entries}, nil
		},
	}
}
