package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
)

func newTestService(t *testing.T, run RunFunc) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule", "jobs.json")
	return NewService(path, run), path
}

// ─── Schedule ───

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name  string
		sched Schedule
		ok    bool
	}{
		{"every", Schedule{Kind: KindEvery, EveryMs: 1000}, true},
		{"every zero", Schedule{Kind: KindEvery}, false},
		{"cron", Schedule{Kind: KindCron, Expr: "0 9 * * 1"}, true},
		{"cron tz", Schedule{Kind: KindCron, Expr: "*/5 * * * *", TZ: "UTC"}, true},
		{"cron bad expr", Schedule{Kind: KindCron, Expr: "every tuesday"}, false},
		{"cron bad tz", Schedule{Kind: KindCron, Expr: "0 9 * * *", TZ: "Mars/Olympus"}, false},
		{"at", Schedule{Kind: KindAt, AtMs: 1}, true},
		{"unknown", Schedule{Kind: "hourly"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, errs.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSchedule_Next(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC).UnixMilli() // a Monday

	if got := (Schedule{Kind: KindEvery, EveryMs: 60_000}).next(now); got != now+60_000 {
		t.Errorf("every: expected %d, got %d", now+60_000, got)
	}
	if got := (Schedule{Kind: KindAt, AtMs: now - 1}).next(now); got != 0 {
		t.Errorf("past at: expected 0, got %d", got)
	}
	want := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC).UnixMilli()
	if got := (Schedule{Kind: KindCron, Expr: "0 9 * * 1", TZ: "UTC"}).next(now); got != want {
		t.Errorf("cron: expected %d, got %d", want, got)
	}
}

// ─── Service ───

func TestService_AddPersists(t *testing.T) {
	s, path := newTestService(t, nil)
	job, err := s.Add("weekly", Schedule{Kind: KindCron, Expr: "0 9 * * 1"}, Target{Workflow: "feature-delivery", Input: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID == "" || !job.Enabled || job.State.NextRunAtMs == 0 {
		t.Errorf("unexpected job: %+v", job)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected job file: %v", err)
	}
	var f jobFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("invalid job file: %v", err)
	}
	if f.Version != 1 || len(f.Jobs) != 1 || f.Jobs[0].Target.Workflow != "feature-delivery" {
		t.Errorf("unexpected file contents: %+v", f)
	}

	// A fresh service sees the persisted job.
	again := NewService(path, nil)
	if got := again.List(false); len(got) != 1 || got[0].ID != job.ID {
		t.Errorf("expected persisted job, got %+v", got)
	}
}

func TestService_AddValidation(t *testing.T) {
	s, _ := newTestService(t, nil)
	if _, err := s.Add("x", Schedule{Kind: KindEvery, EveryMs: 1000}, Target{}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for missing workflow, got %v", err)
	}
	if _, err := s.Add("x", Schedule{Kind: "nope"}, Target{Workflow: "w"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for bad schedule, got %v", err)
	}
}

func TestService_RemoveAndEnable(t *testing.T) {
	s, _ := newTestService(t, nil)
	a, _ := s.Add("a", Schedule{Kind: KindEvery, EveryMs: 60_000}, Target{Workflow: "w"})
	b, _ := s.Add("b", Schedule{Kind: KindEvery, EveryMs: 60_000}, Target{Workflow: "w"})

	if _, err := s.Enable(a.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.List(false); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("expected only b enabled, got %+v", got)
	}
	if got := s.List(true); len(got) != 2 {
		t.Errorf("expected 2 jobs including disabled, got %d", len(got))
	}

	if !s.Remove(b.ID) {
		t.Error("expected remove to find b")
	}
	if s.Remove(b.ID) {
		t.Error("expected second remove to miss")
	}
	if _, err := s.Enable("missing", true); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_RunNowRecordsState(t *testing.T) {
	var ran atomic.Int32
	s, _ := newTestService(t, func(_ context.Context, job Job) error {
		ran.Add(1)
		if job.Target.Input == "fail" {
			return errors.New("workflow failed")
		}
		return nil
	})
	ok, _ := s.Add("ok", Schedule{Kind: KindEvery, EveryMs: 60_000}, Target{Workflow: "w"})
	bad, _ := s.Add("bad", Schedule{Kind: KindAt, AtMs: time.Now().Add(time.Hour).UnixMilli()}, Target{Workflow: "w", Input: "fail"})

	if err := s.RunNow(context.Background(), ok.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RunNow(context.Background(), bad.ID); err == nil {
		t.Fatal("expected run error")
	}
	if ran.Load() != 2 {
		t.Errorf("expected 2 runs, got %d", ran.Load())
	}

	jobs := map[string]Job{}
	for _, j := range s.List(true) {
		jobs[j.ID] = j
	}
	if jobs[ok.ID].State.LastStatus != StatusOK {
		t.Errorf("expected ok status, got %+v", jobs[ok.ID].State)
	}
	if st := jobs[bad.ID].State; st.LastStatus != StatusError || st.LastError != "workflow failed" {
		t.Errorf("expected error status, got %+v", st)
	}
	if jobs[bad.ID].Enabled {
		t.Error("one-shot job should be disabled after running")
	}
}

func TestService_StartFiresEveryJob(t *testing.T) {
	fired := make(chan string, 1)
	s, _ := newTestService(t, func(_ context.Context, job Job) error {
		select {
		case fired <- job.ID:
		default:
		}
		return nil
	})
	job, _ := s.Add("tick", Schedule{Kind: KindEvery, EveryMs: 20}, Target{Workflow: "w"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case id := <-fired:
		if id != job.ID {
			t.Errorf("expected %s, got %s", job.ID, id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never fired")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestService_StartRunsOverdueOneShot(t *testing.T) {
	var runs atomic.Int32
	s, _ := newTestService(t, func(context.Context, Job) error {
		runs.Add(1)
		return nil
	})
	job, err := s.Add("missed", Schedule{Kind: KindAt, AtMs: time.Now().Add(-time.Hour).UnixMilli()}, Target{Workflow: "w"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx) //nolint:errcheck

	deadline := time.Now().Add(5 * time.Second)
	for {
		if jobs := s.List(true); len(jobs) == 1 && !jobs[0].Enabled {
			if jobs[0].ID != job.ID || jobs[0].State.LastStatus != StatusOK {
				t.Errorf("unexpected job state %+v", jobs[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("overdue one-shot job never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() != 1 {
		t.Errorf("expected one run, got %d", runs.Load())
	}
}
