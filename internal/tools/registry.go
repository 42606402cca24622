package tools

import (
	"context"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Built-in tool names.
const (
	ToolSpawnAgent   = "spawn_agent"
	ToolDelegateTask = "delegate_task"
	ToolListAgents   = "list_agents"
	ToolAgentHistory = "agent_history"
	ToolWebFetch     = "web_fetch"
)

// ProjectToolProvider supplies the tools of the dynamically sourced category
// for one project. Implemented by mcp.Provider.
type ProjectToolProvider interface {
	ToolsForProject(ctx context.Context, projectID string, permissions []string) ([]*Tool, error)
}

// Registry is the tool catalogue: categories of canonical tools built once by
// RegistryBuilder and read concurrently afterwards without locking.
type Registry struct {
	order      []schema.Category
	categories map[schema.Category][]*Tool
	byName     map[string]*Tool

	dynamic  schema.Category
	provider ProjectToolProvider
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.byName[name]
}

// Categories returns the registered categories in declaration order.
func (r *Registry) Categories() []schema.Category {
	return append([]schema.Category(nil), r.order...)
}

// ToolsByCategory returns the tools of category, or an empty slice for an
// unknown category.
func (r *Registry) ToolsByCategory(category schema.Category) []*Tool {
	return append([]*Tool{}, r.categories[category]...)
}

// AllTools flattens every category in declaration order.
func (r *Registry) AllTools() []*Tool {
	out := make([]*Tool, 0, len(r.byName))
	for _, c := range r.order {
		out = append(out, r.categories[c]...)
	}
	return out
}

// Names returns every registered tool name in category order.
func (r *Registry) Names() []string {
	all := r.AllTools()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name()
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int { return len(r.byName) }

// DynamicCategory returns the category served by the project provider.
func (r *Registry) DynamicCategory() schema.Category { return r.dynamic }
