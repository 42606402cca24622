// Package mcp sources the project tool category from the MCP servers
// configured for each project.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
)

// Provider implements tools.ProjectToolProvider. Servers of a project are
// connected on first use; concurrent first calls for the same project share
// one connection attempt. Tools are cached per project until Refresh.
type Provider struct {
	projects map[string]ProjectConfig
	timeout  time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	cache   map[string][]*tools.Tool
	clients map[string][]*client
}

var _ tools.ProjectToolProvider = (*Provider)(nil)

// NewProvider returns a Provider over the given project table.
func NewProvider(projects map[string]ProjectConfig, timeout time.Duration) *Provider {
	return &Provider{
		projects: projects,
		timeout:  timeout,
		cache:    make(map[string][]*tools.Tool),
		clients:  make(map[string][]*client),
	}
}

// ToolsForProject returns the project's tools visible with permissions.
// An unknown project is an errs.CodeNotFound error.
func (p *Provider) ToolsForProject(ctx context.Context, projectID string, permissions []string) ([]*tools.Tool, error) {
	p.mu.RLock()
	cached, ok := p.cache[projectID]
	p.mu.RUnlock()
	if ok {
		return tools.FilterByPermissions(cached, permissions), nil
	}

	v, err, _ := p.group.Do(projectID, func() (any, error) {
		return p.load(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return tools.FilterByPermissions(v.([]*tools.Tool), permissions), nil
}

// Refresh drops the cached tools and connections of projectID.
func (p *Provider) Refresh(projectID string) {
	p.mu.Lock()
	clients := p.clients[projectID]
	delete(p.cache, projectID)
	delete(p.clients, projectID)
	p.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// Close stops every subprocess-based server.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, clients := range p.clients {
		for _, c := range clients {
			c.close()
		}
		delete(p.clients, id)
	}
	p.cache = make(map[string][]*tools.Tool)
}

func (p *Provider) load(ctx context.Context, projectID string) ([]*tools.Tool, error) {
	pc, ok := p.projects[projectID]
	if !ok || len(pc.Servers) == 0 {
		return nil, errs.Newf(errs.CodeNotFound, "no MCP servers configured for project %q", projectID)
	}

	names := make([]string, 0, len(pc.Servers))
	for name := range pc.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		out       []*tools.Tool
		connected []*client
	)
	for _, name := range names {
		cfg := pc.Servers[name]
		c := newClient(name, cfg, p.timeout)
		if err := c.connect(ctx); err != nil {
			slog.Error("MCP server connect failed", "project", projectID, "server", name, "err", err)
			continue
		}
		remote, err := c.listTools(ctx)
		if err != nil {
			slog.Error("MCP server list tools failed", "project", projectID, "server", name, "err", err)
			c.close()
			continue
		}
		for _, rt := range remote {
			if rt.Name == "" {
				continue
			}
			out = append(out, wrap(c, name, rt, cfg.Permissions))
		}
		slog.Info("MCP server connected", "project", projectID, "server", name, "tools", len(remote))
		connected = append(connected, c)
	}
	if len(connected) == 0 {
		return nil, errs.Newf(errs.CodeUnavailableCollaborator, "no MCP server reachable for project %q", projectID)
	}

	p.mu.Lock()
	p.cache[projectID] = out
	p.clients[projectID] = connected
	p.mu.Unlock()
	return out, nil
}

// wrap turns one remote tool into a canonical project tool named
// mcp_<server>_<tool>.
func wrap(c *client, server string, rt remoteTool, permissions []string) *tools.Tool {
	remoteName := rt.Name
	return tools.Enrich(tools.Callable{
		Name:        fmt.Sprintf("mcp_%s_%s", server, remoteName),
		Description: rt.Description,
		Parameters:  parameterSchema(rt.InputSchema),
		Execute: func(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			text, isError, err := c.callTool(ctx, remoteName, args)
			if err != nil {
				return nil, err
			}
			if isError {
				return schema.Failure(text), nil
			}
			return schema.Result{Success: true, Data: text}, nil
		},
	}, schema.CategoryProject, tools.Metadata{
		RequiredPermissions: permissions,
		RequiredContext:     []string{schema.ContextProject},
		Cost:                schema.CostMedium,
	})
}

// parameterSchema keeps the top-level shape of a JSON Schema object: property
// types, descriptions, enums and the required list.
func parameterSchema(in map[string]any) schema.ParameterSchema {
	props := map[string]schema.Parameter{}
	if raw, ok := in["properties"].(map[string]any); ok {
		for name, v := range raw {
			m, _ := v.(map[string]any)
			param := schema.Parameter{Type: schema.ParamString}
			if t, ok := m["type"].(string); ok && t != "" {
				param.Type = schema.ParamType(t)
			}
			param.Description, _ = m["description"].(string)
			if enum, ok := m["enum"].([]any); ok {
				for _, e := range enum {
					if s, ok := e.(string); ok {
						param.Enum = append(param.Enum, s)
					}
				}
			}
			props[name] = param
		}
	}
	var required []string
	if raw, ok := in["required"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return schema.NewParameterSchema(props, required...)
}
