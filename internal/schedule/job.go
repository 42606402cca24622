// Package schedule runs named workflows on a timer.
//
// Jobs persist as JSON:
//
//	{ "version": 1, "jobs": [ { "id":"…", "name":"…", "enabled":true,
//	    "schedule":{"kind":"cron","expr":"0 9 * * 1","tz":"Europe/Berlin"},
//	    "target":{"workflow":"feature-delivery","input":"…","projectId":"…"},
//	    "state":{"nextRunAtMs":…,"lastRunAtMs":…,"lastStatus":"ok"},
//	    "createdAtMs":…, "updatedAtMs":… } ] }
package schedule

import (
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/crystaldolphin/orchestrator/internal/errs"
)

// Schedule kinds.
const (
	KindEvery = "every"
	KindCron  = "cron"
	KindAt    = "at"
)

// Job run outcomes recorded in JobState.LastStatus.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Schedule struct {
	Kind    string `json:"kind"`
	AtMs    int64  `json:"atMs,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
	Expr    string `json:"expr,omitempty"`
	TZ      string `json:"tz,omitempty"`
}

// Target is what a job runs: a catalogue workflow with optional input.
type Target struct {
	Workflow  string `json:"workflow"`
	Input     string `json:"input,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

type JobState struct {
	NextRunAtMs int64  `json:"nextRunAtMs,omitempty"`
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

type Job struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	Schedule    Schedule `json:"schedule"`
	Target      Target   `json:"target"`
	State       JobState `json:"state"`
	CreatedAtMs int64    `json:"createdAtMs"`
	UpdatedAtMs int64    `json:"updatedAtMs"`
}

type jobFile struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// Standard five-field cron expressions.
var parser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

func location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Validate checks that s can produce run times.
func (s Schedule) Validate() error {
	switch s.Kind {
	case KindEvery:
		if s.EveryMs <= 0 {
			return errs.New(errs.CodeValidation, "every schedule needs a positive interval")
		}
	case KindAt:
		if s.AtMs <= 0 {
			return errs.New(errs.CodeValidation, "at schedule needs a time")
		}
	case KindCron:
		if _, err := parser.Parse(s.Expr); err != nil {
			return errs.Wrap(err, errs.CodeValidation, "invalid cron expression")
		}
		if _, err := location(s.TZ); err != nil {
			return errs.Wrap(err, errs.CodeValidation, "invalid timezone")
		}
	default:
		return errs.Newf(errs.CodeValidation, "unknown schedule kind %q", s.Kind)
	}
	return nil
}

// next returns the next run after nowMs, or 0 when there is none.
func (s Schedule) next(nowMs int64) int64 {
	switch s.Kind {
	case KindAt:
		if s.AtMs > nowMs {
			return s.AtMs
		}
	case KindEvery:
		if s.EveryMs > 0 {
			return nowMs + s.EveryMs
		}
	case KindCron:
		loc, err := location(s.TZ)
		if err != nil {
			return 0
		}
		parsed, err := parser.Parse(s.Expr)
		if err == nil {
			return parsed.Next(time.UnixMilli(nowMs).In(loc)).UnixMilli()
		}
	}
	return 0
}

// locSchedule evaluates a cron schedule in a fixed location.
type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}
