package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// fakeOrchestrator records spawn calls and answers with a fixed outcome.
type fakeOrchestrator struct {
	mu     sync.Mutex
	calls  []*schema.ExecutionContext
	result schema.SpawnResult
	err    error
	panics bool
}

func (f *fakeOrchestrator) SpawnSubAgent(_ context.Context, _ schema.AgentType, _ string, ectx *schema.ExecutionContext) (schema.SpawnResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ectx)
	f.mu.Unlock()
	if f.panics {
		panic("runner exploded")
	}
	return f.result, f.err
}

func (f *fakeOrchestrator) GenerateAgentID() string { return "agent-fixed" }

func (f *fakeOrchestrator) ExecuteWorkflow(context.Context, string, *schema.ExecutionContext) (schema.WorkflowExecution, error) {
	return schema.WorkflowExecution{}, nil
}

func (f *fakeOrchestrator) ActiveSubAgents() []schema.AgentHandle { return nil }

func (f *fakeOrchestrator) ExecutionHistory(context.Context, time.Time) ([]schema.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeOrchestrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// inlineSpawner runs async work synchronously so tests can observe it.
func inlineSpawner() *Spawner {
	return &Spawner{async: func(f func()) { f() }}
}

func TestSpawn_NoOrchestrator(t *testing.T) {
	s := NewSpawner()
	for _, ectx := range []*schema.ExecutionContext{nil, {}} {
		res := s.Spawn(context.Background(), schema.SpawnRequest{AgentType: schema.AgentCodeGenerator, Task: "x", Context: ectx})
		if res.Success {
			t.Fatal("expected failure without orchestrator")
		}
		if !strings.Contains(res.Error, "tool executor unavailable") {
			t.Errorf("unexpected error: %q", res.Error)
		}
	}
}

func TestSpawn_WaitDefault(t *testing.T) {
	orch := &fakeOrchestrator{result: schema.SpawnResult{Success: true, AgentID: "a1", Result: "done", Duration: time.Second}}
	res := NewSpawner().Spawn(context.Background(), schema.SpawnRequest{
		AgentType: schema.AgentCodeGenerator,
		Task:      "write it",
		Context:   &schema.ExecutionContext{Orchestrator: orch},
	})
	if !res.Success || res.AgentID != "a1" || res.Result != "done" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Status != schema.StatusCompleted {
		t.Errorf("expected completed, got %q", res.Status)
	}
	if res.Duration != time.Second {
		t.Errorf("expected duration 1s, got %v", res.Duration)
	}
}

func TestSpawn_WaitError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("model down")}
	res := NewSpawner().Spawn(context.Background(), schema.SpawnRequest{
		Task:     "x",
		Context:  &schema.ExecutionContext{Orchestrator: orch},
		ReturnTo: schema.ReturnWait,
	})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "model down") {
		t.Errorf("expected cause in error, got %q", res.Error)
	}
}

func TestSpawn_WaitPanic(t *testing.T) {
	orch := &fakeOrchestrator{panics: true}
	res := NewSpawner().Spawn(context.Background(), schema.SpawnRequest{
		Task:    "x",
		Context: &schema.ExecutionContext{Orchestrator: orch},
	})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "runner exploded") {
		t.Errorf("expected panic value in error, got %q", res.Error)
	}
}

func TestSpawn_Async(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("ignored")}
	s := inlineSpawner()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := s.Spawn(ctx, schema.SpawnRequest{
		AgentType: schema.AgentResearcher,
		Task:      "look around",
		Context:   &schema.ExecutionContext{Orchestrator: orch},
		ReturnTo:  schema.ReturnAsync,
	})
	if !res.Success || res.AgentID != "agent-fixed" || res.Status != schema.StatusRunning {
		t.Fatalf("unexpected result: %+v", res)
	}
	if orch.callCount() != 1 {
		t.Fatalf("expected 1 run, got %d", orch.callCount())
	}
	if got := orch.calls[0].String(schema.ContextAssignedAgentID); got != "agent-fixed" {
		t.Errorf("expected reserved agent id in run context, got %q", got)
	}
}

func TestSpawn_AsyncPanicIsContained(t *testing.T) {
	orch := &fakeOrchestrator{panics: true}
	res := inlineSpawner().Spawn(context.Background(), schema.SpawnRequest{
		Task:     "x",
		Context:  &schema.ExecutionContext{Orchestrator: orch},
		ReturnTo: schema.ReturnAsync,
	})
	if !res.Success {
		t.Errorf("async spawn should report running even if the run fails, got %+v", res)
	}
}

func TestSpawn_AsyncReturnsBeforeRun(t *testing.T) {
	orch := &fakeOrchestrator{result: schema.SpawnResult{Success: true}}
	release := make(chan struct{})
	done := make(chan struct{})
	s := &Spawner{async: func(f func()) {
		go func() {
			<-release
			f()
			close(done)
		}()
	}}

	res := s.Spawn(context.Background(), schema.SpawnRequest{
		Task:     "x",
		Context:  &schema.ExecutionContext{Orchestrator: orch},
		ReturnTo: schema.ReturnAsync,
	})
	if !res.Success || orch.callCount() != 0 {
		t.Fatalf("expected immediate return before run, got %+v with %d calls", res, orch.callCount())
	}
	close(release)
	<-done
	if orch.callCount() != 1 {
		t.Errorf("expected run after release, got %d calls", orch.callCount())
	}
}

func TestSpawn_Callback(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := NewSpawner()

	res := s.Spawn(context.Background(), schema.SpawnRequest{
		Task:     "x",
		Context:  &schema.ExecutionContext{Orchestrator: orch},
		ReturnTo: schema.ReturnCallback,
	})
	if res.Success || !strings.Contains(res.Error, "callbackUrl") {
		t.Errorf("expected missing callback target, got %+v", res)
	}
	if res.ErrorCode != string(errs.CodeMissingCallbackTarget) {
		t.Errorf("expected %s, got %q", errs.CodeMissingCallbackTarget, res.ErrorCode)
	}

	ectx := (&schema.ExecutionContext{Orchestrator: orch}).With(schema.ContextCallbackURL, "https://example.com/hook")
	res = s.Spawn(context.Background(), schema.SpawnRequest{Task: "x", Context: ectx, ReturnTo: schema.ReturnCallback})
	if res.Success || !strings.Contains(res.Error, "not yet implemented") {
		t.Errorf("expected not implemented, got %+v", res)
	}
	if res.ErrorCode != string(errs.CodeUnimplementedContract) {
		t.Errorf("expected %s, got %q", errs.CodeUnimplementedContract, res.ErrorCode)
	}
	if orch.callCount() != 0 {
		t.Errorf("callback mode must not run the agent, got %d calls", orch.callCount())
	}
}

func TestSpawn_UnknownMode(t *testing.T) {
	res := NewSpawner().Spawn(context.Background(), schema.SpawnRequest{
		Task:     "x",
		Context:  &schema.ExecutionContext{Orchestrator: &fakeOrchestrator{}},
		ReturnTo: "later",
	})
	if res.Success || !strings.Contains(res.Error, "later") {
		t.Errorf("expected unknown mode failure, got %+v", res)
	}
}
