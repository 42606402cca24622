package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Spawner starts sub-agents on the orchestrator found in the request context.
// Every outcome, including a panicking run, comes back as a SpawnResult.
type Spawner struct {
	// async schedules a detached run. Tests replace it to run inline.
	async func(func())
}

var _ schema.Spawner = (*Spawner)(nil)

// NewSpawner returns a Spawner that detaches async runs onto goroutines.
func NewSpawner() *Spawner {
	return &Spawner{async: func(f func()) { go f() }}
}

// Spawn runs req according to its return mode.
func (s *Spawner) Spawn(ctx context.Context, req schema.SpawnRequest) schema.SpawnResult {
	var orch schema.Orchestrator
	if req.Context != nil {
		orch = req.Context.Orchestrator
	}
	if orch == nil {
		return failure(errs.New(errs.CodeUnavailableCollaborator, "tool executor unavailable: no orchestrator in context"))
	}

	switch req.ReturnTo {
	case "", schema.ReturnWait:
		return s.wait(ctx, orch, req)
	case schema.ReturnAsync:
		return s.detach(ctx, orch, req)
	case schema.ReturnCallback:
		return s.callback(req)
	default:
		return failure(errs.Newf(errs.CodeValidation, "unknown return mode %q", req.ReturnTo))
	}
}

func (s *Spawner) wait(ctx context.Context, orch schema.Orchestrator, req schema.SpawnRequest) (res schema.SpawnResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Subagent panicked", "type", req.AgentType, "panic", r)
			res = schema.SpawnResult{
				Success:  false,
				Duration: time.Since(start),
				Status:   schema.StatusFailed,
				Error:    fmt.Sprintf("subagent execution failed: %v", r),
			}
		}
	}()

	out, err := orch.SpawnSubAgent(ctx, req.AgentType, req.Task, req.Context)
	if out.Duration == 0 {
		out.Duration = time.Since(start)
	}
	if err != nil {
		slog.Error("Subagent failed", "type", req.AgentType, "id", out.AgentID, "err", err)
		out.Success = false
		out.Status = schema.StatusFailed
		out.Error = errs.Wrap(err, errs.CodeExecution, "subagent execution failed").Error()
		return out
	}
	if out.Status == "" {
		out.Status = schema.StatusCompleted
		if !out.Success {
			out.Status = schema.StatusFailed
		}
	}
	return out
}

// detach schedules the run and returns at once. The run is not bound to the
// caller's cancellation and its failures are only logged.
func (s *Spawner) detach(ctx context.Context, orch schema.Orchestrator, req schema.SpawnRequest) schema.SpawnResult {
	id := orch.GenerateAgentID()
	runCtx := context.WithoutCancel(ctx)
	ectx := req.Context.With(schema.ContextAssignedAgentID, id)

	s.async(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Async subagent panicked", "id", id, "type", req.AgentType, "panic", r)
			}
		}()
		out, err := orch.SpawnSubAgent(runCtx, req.AgentType, req.Task, ectx)
		switch {
		case err != nil:
			slog.Error("Async subagent failed", "id", id, "type", req.AgentType, "err", err)
		case !out.Success:
			slog.Error("Async subagent failed", "id", id, "type", req.AgentType, "err", out.Error)
		default:
			slog.Info("Async subagent completed", "id", id, "type", req.AgentType)
		}
	})

	slog.Info("Spawned subagent", "id", id, "type", req.AgentType)
	return schema.SpawnResult{Success: true, AgentID: id, Status: schema.StatusRunning}
}

func (s *Spawner) callback(req schema.SpawnRequest) schema.SpawnResult {
	if req.Context.String(schema.ContextCallbackURL) == "" {
		return failure(errs.New(errs.CodeMissingCallbackTarget, "callback return mode requires callbackUrl in context"))
	}
	return failure(errs.New(errs.CodeUnimplementedContract, "callback return mode not yet implemented"))
}

func failure(err error) schema.SpawnResult {
	return schema.SpawnResult{
		Success:   false,
		Status:    schema.StatusFailed,
		Error:     err.Error(),
		ErrorCode: string(errs.CodeOf(err)),
	}
}
