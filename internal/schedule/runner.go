// Package schedule owns the job timers. Jobs register as triggers on either
// a fixed interval or a daily wall-clock time; the runner owns every timer,
// runs daily jobs once shortly after boot to cover downtime, and exposes
// status introspection plus an ad-hoc one-off reminder table.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Talent5/Mama-Care/internal/reminders"
)

// Trigger is one schedulable job.
type Trigger interface {
	Name() string
	Run(ctx context.Context) reminders.Result
}

// JobTrigger adapts a plain function into a Trigger.
type JobTrigger struct {
	name string
	fn   func(ctx context.Context) reminders.Result
}

// NewTrigger wraps fn as a named trigger.
func NewTrigger(name string, fn func(ctx context.Context) reminders.Result) *JobTrigger {
	return &JobTrigger{name: name, fn: fn}
}

func (t *JobTrigger) Name() string                              { return t.name }
func (t *JobTrigger) Run(ctx context.Context) reminders.Result { return t.fn(ctx) }

// registration binds a trigger to its cadence. Exactly one of every /
// (atHour, atMinute) applies.
type registration struct {
	trigger  Trigger
	every    time.Duration
	atHour   int
	atMinute int
	daily    bool
}

// TriggerStatus is the per-trigger slice of the status query.
type TriggerStatus struct {
	Name        string    `json:"name"`
	Cadence     string    `json:"cadence"`
	Runs        int       `json:"runs"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastSummary string    `json:"last_summary,omitempty"`
}

// Status is the runner's introspection snapshot.
type Status struct {
	Initialized  bool            `json:"initialized"`
	Triggers     []TriggerStatus `json:"triggers"`
	AdHocPending int             `json:"ad_hoc_pending"`
}

// Runner registers triggers and drives them on their cadences.
type Runner struct {
	logger    *slog.Logger
	notifier  reminders.Notifier
	bootDelay time.Duration

	mu      sync.Mutex
	regs    []registration
	state   map[string]*TriggerStatus
	adhoc   map[string]*adhocJob
	started bool
}

// NewRunner creates a runner. notifier backs ad-hoc reminders; bootDelay is
// how long after process start the daily jobs run their catch-up pass.
func NewRunner(notifier reminders.Notifier, bootDelay time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if bootDelay <= 0 {
		bootDelay = 30 * time.Second
	}
	return &Runner{
		logger:    logger,
		notifier:  notifier,
		bootDelay: bootDelay,
		state:     make(map[string]*TriggerStatus),
		adhoc:     make(map[string]*adhocJob),
	}
}

// Every registers a trigger on a fixed interval.
func (r *Runner) Every(interval time.Duration, t Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, registration{trigger: t, every: interval})
	r.state[t.Name()] = &TriggerStatus{Name: t.Name(), Cadence: "every " + interval.String()}
}

// DailyAt registers a trigger at a fixed UTC wall-clock time. The next
// occurrence is always computed from now, so a restart self-corrects
// without double-firing.
func (r *Runner) DailyAt(hour, minute int, t Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, registration{trigger: t, atHour: hour, atMinute: minute, daily: true})
	r.state[t.Name()] = &TriggerStatus{
		Name:    t.Name(),
		Cadence: fmt.Sprintf("daily at %02d:%02d UTC", hour, minute),
	}
}

// Start launches one goroutine per registered trigger and blocks until ctx
// is cancelled. Intended to be called with `go`.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	regs := make([]registration, len(r.regs))
	copy(regs, r.regs)
	r.started = true
	r.mu.Unlock()

	r.logger.Info("Job runner started", "triggers", len(regs), "boot_delay", r.bootDelay)

	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(1)
		go func(reg registration) {
			defer wg.Done()
			if reg.daily {
				r.dailyLoop(ctx, reg)
			} else {
				r.intervalLoop(ctx, reg)
			}
		}(reg)
	}

	<-ctx.Done()
	r.cancelAllAdHoc()
	wg.Wait()
	r.logger.Info("Job runner stopped")
}

// intervalLoop drives a fixed-cadence trigger.
func (r *Runner) intervalLoop(ctx context.Context, reg registration) {
	ticker := time.NewTicker(reg.every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runTrigger(ctx, reg.trigger)
		case <-ctx.Done():
			return
		}
	}
}

// dailyLoop runs once soon after boot (covering downtime), then sleeps until
// the next wall-clock occurrence, recomputed from now on every cycle.
func (r *Runner) dailyLoop(ctx context.Context, reg registration) {
	boot := time.NewTimer(r.bootDelay)
	defer boot.Stop()
	select {
	case <-boot.C:
		r.runTrigger(ctx, reg.trigger)
	case <-ctx.Done():
		return
	}

	for {
		next := nextDailyRun(time.Now().UTC(), reg.atHour, reg.atMinute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			r.runTrigger(ctx, reg.trigger)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextDailyRun returns the first instant strictly after now whose UTC
// wall-clock time is hour:minute.
func nextDailyRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (r *Runner) runTrigger(ctx context.Context, t Trigger) {
	result := t.Run(ctx)

	r.mu.Lock()
	if st, ok := r.state[t.Name()]; ok {
		st.Runs++
		st.LastRun = time.Now().UTC()
		st.LastSummary = result.Summary()
	}
	r.mu.Unlock()

	for _, e := range result.Errors {
		r.logger.Warn("job error", "job", t.Name(), "error", e)
	}
}

// RunNow runs a registered trigger once, synchronously. Used by the manual
// trigger API and the CLI. Returns false for an unknown name.
func (r *Runner) RunNow(ctx context.Context, name string) (reminders.Result, bool) {
	r.mu.Lock()
	var t Trigger
	for _, reg := range r.regs {
		if reg.trigger.Name() == name {
			t = reg.trigger
			break
		}
	}
	r.mu.Unlock()

	if t == nil {
		return reminders.Result{}, false
	}
	result := t.Run(ctx)

	r.mu.Lock()
	if st, ok := r.state[name]; ok {
		st.Runs++
		st.LastRun = time.Now().UTC()
		st.LastSummary = result.Summary()
	}
	r.mu.Unlock()
	return result, true
}

// Status reports whether the runner has started, per-trigger run state, and
// the number of outstanding ad-hoc reminders.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Status{Initialized: r.started, AdHocPending: len(r.adhoc)}
	for _, reg := range r.regs {
		if st, ok := r.state[reg.trigger.Name()]; ok {
			s.Triggers = append(s.Triggers, *st)
		}
	}
	return s
}
