// Package runtime is the in-process orchestrator: it runs sub-agents for the
// spawner and named workflows for the coordinator.
package runtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crystaldolphin/orchestrator/internal/agent"
	"github.com/crystaldolphin/orchestrator/internal/history"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
	"github.com/crystaldolphin/orchestrator/internal/workflow"
)

// Runtime implements schema.Orchestrator.
type Runtime struct {
	registry    *tools.Registry
	catalogue   *agent.Catalogue
	runner      agent.Runner
	store       history.Store
	coordinator *workflow.Coordinator

	mu     sync.Mutex
	active map[string]schema.AgentHandle
}

var _ schema.Orchestrator = (*Runtime)(nil)

func New(
	registry *tools.Registry,
	catalogue *agent.Catalogue,
	runner agent.Runner,
	store history.Store,
	coordinator *workflow.Coordinator,
) *Runtime {
	return &Runtime{
		registry:    registry,
		catalogue:   catalogue,
		runner:      runner,
		store:       store,
		coordinator: coordinator,
		active:      make(map[string]schema.AgentHandle),
	}
}

// Context returns an ExecutionContext whose orchestrator is r.
func (r *Runtime) Context(user *schema.User, orgID, projectID string) *schema.ExecutionContext {
	return &schema.ExecutionContext{
		User:         user,
		OrgID:        orgID,
		ProjectID:    projectID,
		Orchestrator: r,
		Values:       map[string]any{},
	}
}

func (r *Runtime) GenerateAgentID() string { return uuid.NewString() }

// SpawnSubAgent runs one sub-agent to completion with the tools of its
// archetype. An id reserved by an async spawn is used once; otherwise each run
// gets a fresh id, and the caller's own agent id becomes the parent.
func (r *Runtime) SpawnSubAgent(ctx context.Context, agentType schema.AgentType, task string, ectx *schema.ExecutionContext) (schema.SpawnResult, error) {
	archetype, err := r.catalogue.Archetype(agentType)
	if err != nil {
		return schema.SpawnResult{Success: false, Status: schema.StatusFailed, Error: err.Error()}, err
	}

	id := ectx.String(schema.ContextAssignedAgentID)
	if id == "" {
		id = r.GenerateAgentID()
	}
	runCtx := ectx.Clone()
	delete(runCtx.Values, schema.ContextAssignedAgentID)
	delete(runCtx.Values, schema.ContextParentAgentID)
	if parent := ectx.String(schema.ContextAgentID); parent != "" && parent != id {
		runCtx.Values[schema.ContextParentAgentID] = parent
	}
	runCtx.Values[schema.ContextAgentID] = id
	if runCtx.Orchestrator == nil {
		runCtx.Orchestrator = r
	}

	toolset := tools.NewToolList(r.registry.ToolsForArchetype(ctx, agentType, archetype.Capabilities, runCtx)...)

	start := time.Now()
	parentID := runCtx.String(schema.ContextParentAgentID)
	r.track(schema.AgentHandle{AgentID: id, ParentID: parentID, AgentType: agentType, Task: task, Status: schema.StatusRunning, StartedAt: start})
	defer r.untrack(id)

	slog.Info("Subagent starting", "id", id, "type", agentType, "tools", len(toolset.Tools()))
	out, runErr := r.runner.Run(ctx, agent.Assignment{
		AgentID:   id,
		Archetype: archetype,
		Task:      task,
		Context:   runCtx,
		Tools:     toolset,
	})
	duration := time.Since(start)

	res := schema.SpawnResult{
		Success:  runErr == nil,
		AgentID:  id,
		Result:   out,
		Duration: duration,
		Status:   schema.StatusCompleted,
	}
	entry := schema.HistoryEntry{
		AgentID:   id,
		ParentID:  parentID,
		AgentType: agentType,
		Task:      task,
		Success:   runErr == nil,
		Result:    out,
		StartedAt: start,
		Duration:  duration,
	}
	if runErr != nil {
		res.Status = schema.StatusFailed
		res.Error = runErr.Error()
		entry.Error = runErr.Error()
		slog.Error("Subagent failed", "id", id, "type", agentType, "err", runErr)
	} else {
		slog.Info("Subagent completed", "id", id, "type", agentType, "duration", duration)
	}

	// History is best effort; a store outage does not fail the run.
	if err := r.store.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("Failed to record subagent history", "id", id, "err", err)
	}
	return res, runErr
}

// ExecuteWorkflow runs a catalogue workflow through the coordinator. A
// workflowInput value in ectx is appended to every task.
func (r *Runtime) ExecuteWorkflow(ctx context.Context, name string, ectx *schema.ExecutionContext) (schema.WorkflowExecution, error) {
	wf, err := r.catalogue.Workflow(name)
	if err != nil {
		return schema.WorkflowExecution{}, err
	}
	runCtx := ectx.Clone()
	runCtx.Orchestrator = r

	tasks := wf.Tasks
	if input := ectx.String(schema.ContextWorkflowInput); input != "" {
		tasks = make([]schema.WorkflowTask, len(wf.Tasks))
		for i, t := range wf.Tasks {
			t.Task = t.Task + ": " + input
			tasks[i] = t
		}
	}

	slog.Info("Workflow starting", "workflow", name, "tasks", len(tasks))
	res := r.coordinator.Run(ctx, workflow.Request{Tasks: tasks, Context: runCtx})
	return schema.WorkflowExecution{
		Success:    res.Success,
		WorkflowID: res.WorkflowID,
		Steps:      res.Tasks,
		Duration:   res.Duration,
	}, nil
}

// ActiveSubAgents returns the running sub-agents, oldest first.
func (r *Runtime) ActiveSubAgents() []schema.AgentHandle {
	r.mu.Lock()
	out := make([]schema.AgentHandle, 0, len(r.active))
	for _, h := range r.active {
		out = append(out, h)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (r *Runtime) ExecutionHistory(ctx context.Context, since time.Time) ([]schema.HistoryEntry, error) {
	return r.store.Since(ctx, since)
}

func (r *Runtime) track(h schema.AgentHandle) {
	r.mu.Lock()
	r.active[h.AgentID] = h
	r.mu.Unlock()
}

func (r *Runtime) untrack(id string) {
	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()
}
