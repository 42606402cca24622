package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Capability is a category tag declared by an archetype. In catalogue files
// it may be written either as a bare string or as an object with a name.
type Capability struct {
	Name string `json:"name" yaml:"name"`
}

// Capabilities builds a capability list from category names.
func Capabilities(names ...schema.Category) []Capability {
	out := make([]Capability, len(names))
	for i, n := range names {
		out[i] = Capability{Name: string(n)}
	}
	return out
}

// UnmarshalYAML accepts "web" as well as {name: web}.
func (c *Capability) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Name = node.Value
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name string `yaml:"name"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		c.Name = raw.Name
		return nil
	}
	return fmt.Errorf("capability at line %d: expected string or mapping", node.Line)
}

// UnmarshalJSON accepts "web" as well as {"name":"web"}.
func (c *Capability) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c.Name = name
		return nil
	}
	var raw struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("capability: expected string or object: %w", err)
	}
	c.Name = raw.Name
	return nil
}

// ToolsByPermissions keeps a tool if it requires no permissions or every
// required permission is in permissions.
func (r *Registry) ToolsByPermissions(permissions []string) []*Tool {
	return FilterByPermissions(r.AllTools(), permissions)
}

// FilterByPermissions is ToolsByPermissions over an arbitrary tool list.
func FilterByPermissions(list []*Tool, permissions []string) []*Tool {
	out := make([]*Tool, 0, len(list))
	for _, t := range list {
		if len(t.RequiredPermissions) == 0 || hasAllPermissions(t.RequiredPermissions, permissions) {
			out = append(out, t)
		}
	}
	return out
}

// ToolsForArchetype resolves the tool set an archetype gets for one call by
// appending the tools of each capability in order. Invalid capability entries
// are skipped with a warning.
//
// The dynamic category is special: with an active project in ectx and a
// provider configured, its tools come from the provider for that project.
// The static table is the fallback when there is no project or the provider
// fails.
func (r *Registry) ToolsForArchetype(ctx context.Context, archetype schema.AgentType, capabilities []Capability, ectx *schema.ExecutionContext) []*Tool {
	var out []*Tool
	for i, capability := range capabilities {
		name := strings.TrimSpace(capability.Name)
		if name == "" {
			slog.Warn("Skipping invalid capability", "archetype", archetype, "index", i)
			continue
		}
		category := schema.Category(name)
		if category == r.dynamic && r.provider != nil && ectx.Has(schema.ContextProject) {
			dynamic, err := r.provider.ToolsForProject(ctx, ectx.ProjectID, ectx.Permissions())
			if err == nil {
				out = append(out, dynamic...)
				continue
			}
			slog.Warn("Project tools unavailable, using static table",
				"archetype", archetype, "project", ectx.ProjectID, "err", err)
		}
		out = append(out, r.categories[category]...)
	}
	return out
}

// SearchOptions narrows Search.
type SearchOptions struct {
	Category           schema.Category
	Permissions        []string
	IncludeDescription bool
}

// Search returns tools whose name (and optionally description) contains
// query, case-insensitively, after category and permission filtering.
// A nil Permissions slice disables permission filtering.
func (r *Registry) Search(query string, opts SearchOptions) []*Tool {
	candidates := r.AllTools()
	if opts.Category != "" {
		candidates = r.ToolsByCategory(opts.Category)
	}
	if opts.Permissions != nil {
		candidates = FilterByPermissions(candidates, opts.Permissions)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*Tool, 0, len(candidates))
	for _, t := range candidates {
		if strings.Contains(strings.ToLower(t.Name()), q) ||
			(opts.IncludeDescription && strings.Contains(strings.ToLower(t.Description()), q)) {
			out = append(out, t)
		}
	}
	return out
}
