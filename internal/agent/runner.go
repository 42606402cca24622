package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
)

// Assignment is one unit of work handed to a Runner.
type Assignment struct {
	AgentID   string
	Archetype Archetype
	Task      string
	Context   *schema.ExecutionContext
	Tools     *tools.ToolList
}

// DependencyResult returns the upstream result injected by the workflow
// coordinator, or nil.
func (a Assignment) DependencyResult() any {
	return a.Context.Value(schema.ContextDependencyResult)
}

// Runner executes a sub-agent assignment to completion.
type Runner interface {
	Run(ctx context.Context, a Assignment) (any, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, a Assignment) (any, error)

func (f RunnerFunc) Run(ctx context.Context, a Assignment) (any, error) { return f(ctx, a) }

// briefing renders the task message a sub-agent starts from. An upstream
// result is appended as JSON.
func briefing(a Assignment) string {
	var sb strings.Builder
	sb.WriteString(a.Task)
	if dep := a.DependencyResult(); dep != nil {
		sb.WriteString("\n\n## Result of the previous step\n")
		switch v := dep.(type) {
		case string:
			sb.WriteString(v)
		default:
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				sb.WriteString("(unavailable)")
			} else {
				sb.Write(data)
			}
		}
	}
	return sb.String()
}
