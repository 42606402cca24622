package tools

import (
	"context"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Dispatch invokes one tool by its mapped name. It always goes through
// SafeExecute, so it never panics.
type Dispatch func(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) schema.Result

// ExportDefinitions maps each tool to the OpenAI function-calling shape, one
// entry per tool and in the same order.
func ExportDefinitions(list []*Tool) []schema.ToolSpec {
	out := make([]schema.ToolSpec, 0, len(list))
	for _, t := range list {
		out = append(out, schema.ToolSpec{Type: "function", Function: t.Definition})
	}
	return out
}

// CreateToolMapping builds the name → dispatch table a sub-agent's call loop
// uses. Later tools with the same name replace earlier ones.
func CreateToolMapping(list []*Tool) map[string]Dispatch {
	out := make(map[string]Dispatch, len(list))
	for _, t := range list {
		out[t.Name()] = t.SafeExecute
	}
	return out
}

// ToolList is the resolved tool set of one sub-agent run.
type ToolList struct {
	tools    []*Tool
	dispatch map[string]Dispatch
}

func NewToolList(ts ...*Tool) *ToolList {
	return &ToolList{tools: ts, dispatch: CreateToolMapping(ts)}
}

// Tools returns the tools in resolution order. A nil list is empty.
func (l *ToolList) Tools() []*Tool {
	if l == nil {
		return nil
	}
	return l.tools
}

// Definitions returns all tool definitions in OpenAI function-calling format.
func (l *ToolList) Definitions() []schema.ToolSpec {
	return ExportDefinitions(l.Tools())
}

// Call dispatches name with args. An unknown name is a failed Result.
func (l *ToolList) Call(ctx context.Context, name string, args map[string]any, ectx *schema.ExecutionContext) schema.Result {
	var d Dispatch
	if l != nil {
		d = l.dispatch[name]
	}
	if d == nil {
		return schema.Failure("Tool '" + name + "' not found")
	}
	return d(ctx, args, ectx)
}
