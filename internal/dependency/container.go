// Package dependency wires the orchestrator services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/dig"

	"github.com/crystaldolphin/orchestrator/internal/agent"
	"github.com/crystaldolphin/orchestrator/internal/config"
	"github.com/crystaldolphin/orchestrator/internal/history"
	"github.com/crystaldolphin/orchestrator/internal/mcp"
	"github.com/crystaldolphin/orchestrator/internal/runtime"
	"github.com/crystaldolphin/orchestrator/internal/schedule"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
	"github.com/crystaldolphin/orchestrator/internal/workflow"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg         *config.Config
	registry    *tools.Registry
	catalogue   *agent.Catalogue
	spawner     *agent.Spawner
	selector    agent.Selector
	coordinator *workflow.Coordinator
	runtime     *runtime.Runtime
	store       history.Store
	projects    *mcp.Provider
	scheduler   *schedule.Service
}

func (c *Container) Config() *config.Config             { return c.cfg }
func (c *Container) Registry() *tools.Registry          { return c.registry }
func (c *Container) Catalogue() *agent.Catalogue        { return c.catalogue }
func (c *Container) Spawner() *agent.Spawner            { return c.spawner }
func (c *Container) Selector() agent.Selector           { return c.selector }
func (c *Container) Coordinator() *workflow.Coordinator { return c.coordinator }
func (c *Container) Runtime() *runtime.Runtime          { return c.runtime }
func (c *Container) Scheduler() *schedule.Service       { return c.scheduler }

// Context returns a fresh execution context for the configured identity.
func (c *Container) Context() *schema.ExecutionContext {
	id := c.cfg.Identity
	user := &schema.User{ID: id.UserID, Permissions: append([]string(nil), id.Permissions...)}
	return c.runtime.Context(user, id.OrgID, id.ProjectID)
}

// Close releases MCP subprocesses and the history store.
func (c *Container) Close() error {
	c.projects.Close()
	return c.store.Close()
}

// Option adjusts the container before it is built.
type Option func(*options)

type options struct {
	runner agent.Runner
}

// WithRunner replaces the remote worker runner, typically with an
// agent.LoopRunner over an embedder's model client.
func WithRunner(r agent.Runner) Option {
	return func(o *options) { o.runner = r }
}

// New builds and wires all services from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := dig.New()
	providers := []any{
		func() *config.Config { return cfg },
		func() context.Context { return ctx },
		newCatalogue,
		agent.NewSpawner,
		func() agent.Selector { return agent.Selector{} },
		newProjectProvider,
		newRegistry,
		func(cfg *config.Config) agent.Runner {
			if o.runner != nil {
				return o.runner
			}
			return newRunner(cfg)
		},
		newHistoryStore,
		newCoordinator,
		newRuntime,
		newScheduler,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(in struct {
		dig.In
		Registry    *tools.Registry
		Catalogue   *agent.Catalogue
		Spawner     *agent.Spawner
		Selector    agent.Selector
		Coordinator *workflow.Coordinator
		Runtime     *runtime.Runtime
		Store       history.Store
		Projects    *mcp.Provider
		Scheduler   *schedule.Service
	}) {
		result = &Container{
			cfg:         cfg,
			registry:    in.Registry,
			catalogue:   in.Catalogue,
			spawner:     in.Spawner,
			selector:    in.Selector,
			coordinator: in.Coordinator,
			runtime:     in.Runtime,
			store:       in.Store,
			projects:    in.Projects,
			scheduler:   in.Scheduler,
		}
	})
	if err != nil {
		return nil, unwrapDig(err)
	}
	return result, nil
}

// unwrapDig strips dig's resolution chain so callers see the constructor's
// own error.
func unwrapDig(err error) error {
	if root := dig.RootCause(err); root != nil {
		return root
	}
	return err
}

func newCatalogue(cfg *config.Config) (*agent.Catalogue, error) {
	return agent.LoadCatalogue(cfg.CataloguePath())
}

func newProjectProvider(cfg *config.Config) *mcp.Provider {
	projects := make(map[string]mcp.ProjectConfig, len(cfg.Tools.Projects))
	for id, p := range cfg.Tools.Projects {
		servers := make(map[string]mcp.ServerConfig, len(p.MCPServers))
		for name, s := range p.MCPServers {
			servers[name] = mcp.ServerConfig{
				Command:     s.Command,
				Args:        s.Args,
				Env:         s.Env,
				URL:         s.URL,
				Headers:     s.Headers,
				Permissions: s.Permissions,
			}
		}
		projects[id] = mcp.ProjectConfig{Servers: servers}
	}
	return mcp.NewProvider(projects, time.Duration(cfg.Tools.MCPTimeoutSeconds)*time.Second)
}

func newRegistry(cfg *config.Config, spawner *agent.Spawner, selector agent.Selector, projects *mcp.Provider) (*tools.Registry, error) {
	web := cfg.Tools.Web
	return tools.NewRegistryBuilder().
		WithBuiltins(spawner, selector, tools.WebOptions{
			SearchAPIKey: web.Search.APIKey,
			MaxResults:   web.Search.MaxResults,
			MaxChars:     web.Fetch.MaxChars,
			Timeout:      time.Duration(web.Fetch.TimeoutSeconds) * time.Second,
		}).
		WithWorkspace(tools.WorkspaceOptions{
			Root:          cfg.WorkspacePath(),
			Restrict:      cfg.Tools.Workspace.RestrictToWorkspace,
			ExecTimeout:   time.Duration(cfg.Tools.Workspace.ExecTimeoutSeconds) * time.Second,
			DeployScripts: cfg.Tools.Workspace.DeployScripts,
		}).
		WithProvider(schema.CategoryProject, projects).
		Build()
}

func newRunner(cfg *config.Config) agent.Runner {
	if cfg.Agents.Endpoint == "" {
		slog.Warn("No agent worker endpoint configured; sub-agent runs will fail", "config", config.ConfigPath())
	}
	return agent.NewHTTPRunner(cfg.Agents.Endpoint, cfg.Agents.Token, cfg.AgentTimeout())
}

func newHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	h := cfg.History
	switch h.Driver {
	case "", config.HistoryMemory:
		return history.NewMemoryStore(h.Limit), nil
	case config.HistoryRedis:
		return history.NewRedisStore(ctx, history.RedisConfig{
			Address:    h.Redis.Address,
			Password:   h.Redis.Password,
			DB:         h.Redis.DB,
			Key:        h.Redis.Key,
			MaxEntries: h.Redis.MaxEntries,
		})
	default:
		return nil, fmt.Errorf("unknown history driver %q", h.Driver)
	}
}

func newCoordinator(spawner *agent.Spawner) *workflow.Coordinator {
	return workflow.NewCoordinator(spawner)
}

func newRuntime(
	registry *tools.Registry,
	catalogue *agent.Catalogue,
	runner agent.Runner,
	store history.Store,
	coordinator *workflow.Coordinator,
) *runtime.Runtime {
	return runtime.New(registry, catalogue, runner, store, coordinator)
}

func newScheduler(cfg *config.Config, rt *runtime.Runtime) *schedule.Service {
	return schedule.NewService(cfg.SchedulePath(), scheduledRun(cfg.Identity, rt))
}

// scheduledRun executes a job's target workflow as the configured identity.
func scheduledRun(id config.IdentityConfig, rt *runtime.Runtime) schedule.RunFunc {
	return func(ctx context.Context, job schedule.Job) error {
		projectID := job.Target.ProjectID
		if projectID == "" {
			projectID = id.ProjectID
		}
		user := &schema.User{ID: id.UserID, Permissions: append([]string(nil), id.Permissions...)}
		ectx := rt.Context(user, id.OrgID, projectID)
		if job.Target.Input != "" {
			ectx = ectx.With(schema.ContextWorkflowInput, job.Target.Input)
		}

		exec, err := rt.ExecuteWorkflow(ctx, job.Target.Workflow, ectx)
		if err != nil {
			return err
		}
		if exec.Success {
			return nil
		}
		for _, step := range exec.Steps {
			if !step.Success && step.Error != "" {
				return fmt.Errorf("workflow %s: %s: %s", job.Target.Workflow, step.Agent, step.Error)
			}
		}
		return fmt.Errorf("workflow %s failed", job.Target.Workflow)
	}
}
