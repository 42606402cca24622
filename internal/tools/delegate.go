package tools

import (
	"context"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// NewDelegateTool returns delegate_task, which recommends the archetype best
// suited to a task description.
func NewDelegateTool(classifier schema.Classifier) *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolDelegateTask,
			Description: "Recommend which specialist subagent should handle a task, with a confidence and reasoning.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"task": {Type: schema.ParamString, Description: "Free-text description of the task"},
			}, "task"),
		},
		Category: schema.CategoryAgents,
		Cost:     schema.CostLow,
		Handler: func(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			task, _ := args["task"].(string)
			return schema.Result{Success: true, Data: classifier.Classify(task)}, nil
		},
	}
}
