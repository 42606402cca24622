package schedule

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/crystaldolphin/orchestrator/internal/errs"
)

// RunFunc executes a job's target when it fires.
type RunFunc func(ctx context.Context, job Job) error

// Service owns the job file and the timers that fire jobs.
type Service struct {
	path string
	run  RunFunc

	mu     sync.Mutex
	loaded bool
	file   jobFile

	started bool
	runCtx  context.Context
	timers  map[string]*time.Timer
	cron    *robfigcron.Cron
	cronIDs map[string]robfigcron.EntryID
}

// NewService returns a Service persisting to path. run may be nil for
// services that only edit the job file (the CLI).
func NewService(path string, run RunFunc) *Service {
	return &Service{
		path:    path,
		run:     run,
		timers:  make(map[string]*time.Timer),
		cron:    robfigcron.New(),
		cronIDs: make(map[string]robfigcron.EntryID),
	}
}

// Start loads jobs, arms every enabled job and blocks until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		slog.Warn("schedule: load failed, starting empty", "err", err)
	}
	now := nowMs()
	for i := range s.file.Jobs {
		if s.file.Jobs[i].Enabled {
			s.file.Jobs[i].State.NextRunAtMs = s.file.Jobs[i].Schedule.next(now)
		}
	}
	s.saveLocked()
	s.started = true
	s.runCtx = ctx
	for _, j := range s.file.Jobs {
		if j.Enabled {
			s.armLocked(j)
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("schedule: started", "jobs", len(s.file.Jobs))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.mu.Lock()
	for id := range s.timers {
		s.cancelLocked(id)
	}
	s.started = false
	s.mu.Unlock()
	return ctx.Err()
}

// Add validates and stores a new enabled job. When the service is running
// the job is armed at once.
func (s *Service) Add(name string, sched Schedule, target Target) (Job, error) {
	if err := sched.Validate(); err != nil {
		return Job{}, err
	}
	if target.Workflow == "" {
		return Job{}, errs.New(errs.CodeValidation, "job needs a workflow")
	}
	now := nowMs()
	job := Job{
		ID:          uuid.NewString(),
		Name:        name,
		Enabled:     true,
		Schedule:    sched,
		Target:      target,
		State:       JobState{NextRunAtMs: sched.next(now)},
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Job{}, err
	}
	s.file.Jobs = append(s.file.Jobs, job)
	s.saveLocked()
	if s.started {
		s.armLocked(job)
	}
	slog.Info("schedule: added job", "name", name, "id", job.ID, "kind", sched.Kind, "workflow", target.Workflow)
	return job, nil
}

// List returns jobs ordered by next run; disabled jobs only when asked.
func (s *Service) List(includeDisabled bool) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		slog.Warn("schedule: load failed", "err", err)
	}
	var out []Job
	for _, j := range s.file.Jobs {
		if includeDisabled || j.Enabled {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		a, b := out[i].State.NextRunAtMs, out[k].State.NextRunAtMs
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})
	return out
}

// Remove deletes a job and reports whether it existed.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return false
	}
	kept := s.file.Jobs[:0]
	found := false
	for _, j := range s.file.Jobs {
		if j.ID == id {
			found = true
			continue
		}
		kept = append(kept, j)
	}
	s.file.Jobs = kept
	if found {
		s.cancelLocked(id)
		s.saveLocked()
	}
	return found
}

// Enable switches a job on or off.
func (s *Service) Enable(id string, enabled bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Job{}, err
	}
	for i := range s.file.Jobs {
		j := &s.file.Jobs[i]
		if j.ID != id {
			continue
		}
		j.Enabled = enabled
		j.UpdatedAtMs = nowMs()
		s.cancelLocked(id)
		if enabled {
			j.State.NextRunAtMs = j.Schedule.next(nowMs())
			if s.started {
				s.armLocked(*j)
			}
		} else {
			j.State.NextRunAtMs = 0
		}
		s.saveLocked()
		return *j, nil
	}
	return Job{}, errs.Newf(errs.CodeNotFound, "job %q not found", id)
}

// RunNow executes a job immediately, even when disabled.
func (s *Service) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	var job *Job
	for i := range s.file.Jobs {
		if s.file.Jobs[i].ID == id {
			j := s.file.Jobs[i]
			job = &j
			break
		}
	}
	s.mu.Unlock()
	if job == nil {
		return errs.Newf(errs.CodeNotFound, "job %q not found", id)
	}
	return s.execute(ctx, *job)
}

// ─── timers ───

func (s *Service) armLocked(job Job) {
	s.cancelLocked(job.ID)
	ctx := s.runCtx

	switch job.Schedule.Kind {
	case KindEvery:
		if job.Schedule.EveryMs <= 0 {
			return
		}
		s.timers[job.ID] = time.AfterFunc(time.Duration(job.Schedule.EveryMs)*time.Millisecond, func() {
			s.execute(ctx, job) //nolint:errcheck
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, j := range s.file.Jobs {
				if j.ID == job.ID && j.Enabled && s.started {
					s.armLocked(j)
					break
				}
			}
		})

	case KindAt:
		// A one-shot missed while the service was down fires once, now.
		delay := time.Until(time.UnixMilli(job.Schedule.AtMs))
		if delay < 0 {
			slog.Info("schedule: one-shot job overdue, running now", "id", job.ID, "at", time.UnixMilli(job.Schedule.AtMs))
			delay = 0
		}
		s.timers[job.ID] = time.AfterFunc(delay, func() { s.execute(ctx, job) }) //nolint:errcheck

	case KindCron:
		loc, err := location(job.Schedule.TZ)
		if err != nil {
			slog.Warn("schedule: invalid timezone", "job", job.ID, "tz", job.Schedule.TZ, "err", err)
			return
		}
		sched, err := parser.Parse(job.Schedule.Expr)
		if err != nil {
			slog.Warn("schedule: invalid cron expression", "job", job.ID, "expr", job.Schedule.Expr, "err", err)
			return
		}
		s.cronIDs[job.ID] = s.cron.Schedule(
			locSchedule{inner: sched, loc: loc},
			robfigcron.FuncJob(func() { s.execute(ctx, job) }), //nolint:errcheck
		)
	}
}

func (s *Service) cancelLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if eid, ok := s.cronIDs[id]; ok {
		s.cron.Remove(eid)
		delete(s.cronIDs, id)
	}
}

func (s *Service) execute(ctx context.Context, job Job) error {
	start := nowMs()
	slog.Info("schedule: running job", "name", job.Name, "id", job.ID, "workflow", job.Target.Workflow)

	var runErr error
	if s.run == nil {
		runErr = errs.New(errs.CodeUnavailableCollaborator, "no workflow runner configured")
	} else {
		runErr = s.run(ctx, job)
	}
	if runErr != nil {
		slog.Error("schedule: job failed", "name", job.Name, "id", job.ID, "err", runErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.file.Jobs {
		j := &s.file.Jobs[i]
		if j.ID != job.ID {
			continue
		}
		now := nowMs()
		j.State.LastRunAtMs = start
		j.State.LastStatus = StatusOK
		j.State.LastError = ""
		if runErr != nil {
			j.State.LastStatus = StatusError
			j.State.LastError = runErr.Error()
		}
		j.UpdatedAtMs = now
		if job.Schedule.Kind == KindAt {
			// One-shot jobs stay in the file, disabled, so their outcome is visible.
			j.Enabled = false
			j.State.NextRunAtMs = 0
		} else {
			j.State.NextRunAtMs = job.Schedule.next(now)
		}
		break
	}
	s.saveLocked()
	return runErr
}

// ─── persistence ───

func (s *Service) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.file = jobFile{Version: 1}
		s.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	var f jobFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Version == 0 {
		f.Version = 1
	}
	s.file = f
	s.loaded = true
	return nil
}

func (s *Service) saveLocked() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		slog.Warn("schedule: mkdir failed", "err", err)
		return
	}
	data, err := json.MarshalIndent(s.file, "", "  ")
	if err != nil {
		slog.Warn("schedule: marshal failed", "err", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.Warn("schedule: write failed", "err", err)
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }
