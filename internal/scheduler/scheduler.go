// Package scheduler implements the tick scheduler (C7): three periodic
// tick streams plus save-all and daily-boundary duties, per spec.md §4.5.
// It is grounded on timer.cpp's wall-clock anchor and the teacher's
// primary/secondary/update loop in cmd/server/main.go's Run, generalized
// from a fixed handful of hardcoded jobs into a labeled job list each
// stream walks in insertion order.
package scheduler

import (
	"time"

	"mudengine/internal/clock"
)

// DefaultPrimaryPeriod, DefaultSecondaryPeriod, and DefaultHarmfulPeriod
// are spec.md §4.5's stated default cadences.
const (
	DefaultPrimaryPeriod   = 60 * time.Second
	DefaultSecondaryPeriod = 60 * time.Second
	DefaultHarmfulPeriod   = 30 * time.Second
)

// Job is one periodic duty: a label, a period, and the function to run.
// Fn may return a new period to reschedule itself for next time (spec.md
// §4.5: "jobs see their own... interval field and are permitted to
// reschedule themselves"); returning 0 keeps the current period.
type Job struct {
	Label   string
	Period  time.Duration
	lastRun time.Time
	Fn      func(now time.Time) (nextPeriod time.Duration)
}

// Stream is an ordered list of jobs sharing one tick cadence check. Jobs
// run in insertion order within a single pass — spec.md §4.5's ordering
// guarantee that job execution never interleaves with session I/O or
// command dispatch, which holds here because Run is only ever called from
// the single server loop.
type Stream struct {
	jobs []*Job
}

// Add appends job to the stream. job.lastRun starts zero, so it fires the
// first time Run observes it regardless of period.
func (s *Stream) Add(job *Job) {
	s.jobs = append(s.jobs, job)
}

// Run walks the stream's jobs in order, running any whose period has
// elapsed since its last run.
func (s *Stream) Run(now time.Time) {
	for _, j := range s.jobs {
		if j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.Period {
			next := j.Fn(now)
			j.lastRun = now
			if next > 0 {
				j.Period = next
			}
		}
	}
}

// Scheduler owns the three tick streams plus the daily-boundary anchor.
// All three streams are checked on every cooperative pass (spec.md §4.5:
// "three tick streams run on every cooperative pass"); each stream itself
// decides whether enough wall time has passed for its jobs to fire.
type Scheduler struct {
	Primary   Stream
	Secondary Stream
	Harmful   Stream

	daily   clock.DailyAnchor
	onDaily []func(now time.Time)
	clk     clock.Clock
}

// New returns a Scheduler reading time from c.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{clk: c}
}

// OnDailyBoundary registers fn to run once when wall time crosses into a
// new calendar day (spec.md §4.5: "reset per-player daily counters").
func (s *Scheduler) OnDailyBoundary(fn func(now time.Time)) {
	s.onDaily = append(s.onDaily, fn)
}

// Tick runs one cooperative pass: all three streams, then the daily
// boundary check. Call once per server loop iteration.
func (s *Scheduler) Tick() {
	now := s.clk.Now()
	s.Primary.Run(now)
	s.Secondary.Run(now)
	s.Harmful.Run(now)

	if s.daily.Crossed(now) {
		for _, fn := range s.onDaily {
			fn(now)
		}
	}
}
