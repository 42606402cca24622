// Package workflow runs sequences of sub-agent tasks.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Request selects either a named workflow (Workflow) or a custom task list.
// Workflow takes precedence when both are set.
type Request struct {
	Workflow string
	Tasks    []schema.WorkflowTask
	Context  *schema.ExecutionContext
}

// Coordinator runs workflow requests against a Spawner.
//
// Custom task lists run strictly in order. A task's DependsOn is satisfied
// only by an earlier task in the same run with that agent key; results are
// stored per agent key, so a later task with the same agent replaces the
// stored result.
type Coordinator struct {
	spawner schema.Spawner
}

func NewCoordinator(spawner schema.Spawner) *Coordinator {
	return &Coordinator{spawner: spawner}
}

// Run executes req. It never panics; failures are reported in the result.
func (c *Coordinator) Run(ctx context.Context, req Request) (res schema.WorkflowRunResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Workflow panicked", "workflow", req.Workflow, "panic", r)
			res.Success = false
			res.Error = fmt.Sprintf("workflow execution failed: %v", r)
		}
	}()

	if req.Workflow != "" {
		return c.runNamed(ctx, req)
	}
	return c.runTasks(ctx, req)
}

func (c *Coordinator) runNamed(ctx context.Context, req Request) schema.WorkflowRunResult {
	if req.Context == nil || req.Context.Orchestrator == nil {
		return schema.WorkflowRunResult{
			Error: errs.New(errs.CodeUnavailableCollaborator, "workflow engine unavailable: no orchestrator in context").Error(),
		}
	}
	exec, err := req.Context.Orchestrator.ExecuteWorkflow(ctx, req.Workflow, req.Context)
	if err != nil {
		slog.Error("Workflow failed", "workflow", req.Workflow, "err", err)
		return schema.WorkflowRunResult{WorkflowID: exec.WorkflowID, Tasks: exec.Steps, Error: err.Error()}
	}
	return schema.WorkflowRunResult{
		Success:    exec.Success,
		WorkflowID: exec.WorkflowID,
		Tasks:      exec.Steps,
		Duration:   exec.Duration,
	}
}

func (c *Coordinator) runTasks(ctx context.Context, req Request) schema.WorkflowRunResult {
	res := schema.WorkflowRunResult{
		Success:    true,
		WorkflowID: uuid.NewString(),
		Tasks:      make([]schema.TaskOutcome, 0, len(req.Tasks)),
	}
	// Local to this run.
	completed := make(map[schema.AgentType]schema.TaskOutcome, len(req.Tasks))

	for i, task := range req.Tasks {
		outcome := c.runTask(ctx, task, req.Context, completed)
		completed[task.Agent] = outcome

		slog.Info("Workflow task finished",
			"workflow", res.WorkflowID, "index", i, "agent", task.Agent, "success", outcome.Success)

		res.Tasks = append(res.Tasks, outcome)
		res.Success = res.Success && outcome.Success
		res.Duration += outcome.Duration
	}
	return res
}

func (c *Coordinator) runTask(ctx context.Context, task schema.WorkflowTask, ectx *schema.ExecutionContext, completed map[schema.AgentType]schema.TaskOutcome) (out schema.TaskOutcome) {
	out = schema.TaskOutcome{Agent: task.Agent, Task: task.Task}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Workflow task panicked", "agent", task.Agent, "panic", r)
			out.Success = false
			out.Error = fmt.Sprintf("task execution failed: %v", r)
		}
	}()

	runCtx := ectx.Clone()
	if task.DependsOn != "" {
		dep, ok := completed[task.DependsOn]
		if !ok {
			out.Error = errs.Newf(errs.CodeDependencyNotMet, "Dependency not met: %s", task.DependsOn).Error()
			return out
		}
		runCtx.Values[schema.ContextDependencyResult] = dep.Result
	}

	start := time.Now()
	sr := c.spawner.Spawn(ctx, schema.SpawnRequest{
		AgentType: task.Agent,
		Task:      task.Task,
		Context:   runCtx,
		ReturnTo:  schema.ReturnWait,
	})
	out.Success = sr.Success
	out.Result = sr.Result
	out.Error = sr.Error
	out.Duration = sr.Duration
	if out.Duration == 0 {
		out.Duration = time.Since(start)
	}
	return out
}
