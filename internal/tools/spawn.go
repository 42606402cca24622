package tools

import (
	"context"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// NewSpawnTool returns the spawn_agent tool, which lets a model hand a task
// to a specialist sub-agent through spawner. The orchestrator handle is read
// from the call's ExecutionContext.
func NewSpawnTool(spawner schema.Spawner) *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name: ToolSpawnAgent,
			Description: "Spawn a specialist subagent to handle a task. " +
				"Use returnTo=async for long-running work that can finish in the background; " +
				"the default waits for the result.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"agentType": {
					Type:        schema.ParamString,
					Description: "Archetype of the subagent, e.g. CODE_GENERATOR or CODE_REVIEWER",
				},
				"task": {
					Type:        schema.ParamString,
					Description: "The task for the subagent to complete",
				},
				"returnTo": {
					Type: schema.ParamString,
					Enum: []string{string(schema.ReturnWait), string(schema.ReturnAsync), string(schema.ReturnCallback)},
				},
			}, "agentType", "task"),
		},
		Category:        schema.CategoryAgents,
		RequiredContext: []string{schema.ContextOrchestrator},
		Cost:            schema.CostHigh,
		Async:           true,
		Handler: func(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) (any, error) {
			agentType, _ := args["agentType"].(string)
			task, _ := args["task"].(string)
			if task == "" {
				return schema.Failure("task is required"), nil
			}
			returnTo, _ := args["returnTo"].(string)

			res := spawner.Spawn(ctx, schema.SpawnRequest{
				AgentType: schema.AgentType(agentType),
				Task:      task,
				Context:   ectx,
				ReturnTo:  schema.ReturnMode(returnTo),
			})
			return schema.Result{Success: res.Success, Data: res, Error: res.Error}, nil
		},
	}
}
