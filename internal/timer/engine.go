// Package timer implements the countdown timer engine: a registry of
// independent kitchen timers ticked through an injected scheduler, with
// per-timer callbacks and completion alerts.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platewise/cookalong/internal/clock"
	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Option configures the engine.
type Option func(*Engine)

// WithScheduler sets the scheduler driving the ticks. Tests pass
// clock.Manual to simulate time.
func WithScheduler(s domain.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log.Named("timer") }
}

// WithAlerter sets the completion alerter. Without one, completions are
// only reported through callbacks.
func WithAlerter(a domain.Alerter) Option {
	return func(e *Engine) { e.alerter = a }
}

// WithTickInterval sets the real-time length of one countdown second.
// Mostly useful for demos; the default is one second.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// runtime holds the live half of a started timer: its callbacks and
// the cancel for the next scheduled tick.
type runtime struct {
	onTick     func(domain.Timer)
	onComplete func(domain.Timer)
	cancelTick func()
}

// Engine owns every timer of a session. Each running timer schedules
// its next tick independently, so timers pause and resume without
// affecting each other. Safe for concurrent use; tick and completion
// callbacks are invoked without the engine lock held, so they may call
// back into the engine.
type Engine struct {
	mu      sync.Mutex
	timers  map[string]*domain.Timer
	running map[string]*runtime
	order   []string // creation order, for stable listings

	sched    domain.Scheduler
	alerter  domain.Alerter
	log      *logger.Logger
	interval time.Duration
}

// NewEngine creates a timer engine. Without options it runs on the
// system clock with no alerter.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timers:   make(map[string]*domain.Timer),
		running:  make(map[string]*runtime),
		sched:    clock.System(),
		log:      logger.New(logger.LevelOff, nil),
		interval: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create registers an idle timer. Seconds must be positive. StepIndex
// ties the timer to a recipe step; pass -1 for a free-standing timer.
func (e *Engine) Create(name string, seconds, stepIndex int) (domain.Timer, error) {
	if seconds <= 0 {
		return domain.Timer{}, fmt.Errorf("create timer %q: %w", name, domain.ErrBadDuration)
	}

	t := &domain.Timer{
		ID:        uuid.NewString(),
		Name:      name,
		StepIndex: stepIndex,
		Duration:  seconds,
		Remaining: seconds,
		State:     domain.TimerIdle,
		CreatedAt: e.sched.Now(),
	}

	e.mu.Lock()
	e.timers[t.ID] = t
	e.order = append(e.order, t.ID)
	e.mu.Unlock()

	e.log.Debug("created timer %s (%q, %ds, step %d)", t.ID, name, seconds, stepIndex)
	return *t, nil
}

// CreateQuick parses a duration phrase ("5 minutes", "1:30") and
// registers a free-standing timer for it.
func (e *Engine) CreateQuick(name, text string) (domain.Timer, error) {
	seconds := ParseTimeString(text)
	if seconds <= 0 {
		return domain.Timer{}, fmt.Errorf("quick timer %q from %q: %w", name, text, domain.ErrBadDuration)
	}
	return e.Create(name, seconds, -1)
}

// Start moves an idle or paused timer to running and begins ticking.
// onTick fires on every countdown second including the last; onComplete
// fires exactly once when the countdown reaches zero. Either callback
// may be nil. Returns false for unknown ids and for timers already
// running or completed.
func (e *Engine) Start(id string, onTick, onComplete func(domain.Timer)) bool {
	e.mu.Lock()
	t, ok := e.timers[id]
	if !ok || (t.State != domain.TimerIdle && t.State != domain.TimerPaused) {
		e.mu.Unlock()
		return false
	}

	t.State = domain.TimerRunning
	t.PausedAt = time.Time{}
	if t.StartedAt.IsZero() {
		t.StartedAt = e.sched.Now()
	}

	rt := &runtime{onTick: onTick, onComplete: onComplete}
	e.running[id] = rt
	rt.cancelTick = e.sched.AfterFunc(e.interval, func() { e.tick(id) })
	e.mu.Unlock()

	e.log.Debug("started timer %s (%ds remaining)", id, t.Remaining)
	return true
}

// tick handles one countdown second for a timer. A cancelled AfterFunc
// can still land here after a pause, stop, or delete; the state check
// makes such stale ticks no-ops.
func (e *Engine) tick(id string) {
	e.mu.Lock()
	t, ok := e.timers[id]
	rt := e.running[id]
	if !ok || rt == nil || t.State != domain.TimerRunning {
		e.mu.Unlock()
		return
	}

	t.Remaining--
	completed := t.Remaining <= 0
	if completed {
		t.Remaining = 0
		t.State = domain.TimerCompleted
		t.CompletedAt = e.sched.Now()
		delete(e.running, id)
	} else {
		rt.cancelTick = e.sched.AfterFunc(e.interval, func() { e.tick(id) })
	}
	snapshot := *t
	onTick, onComplete := rt.onTick, rt.onComplete
	e.mu.Unlock()

	if onTick != nil {
		onTick(snapshot)
	}
	if !completed {
		return
	}

	e.log.Info("timer %q done after %s", snapshot.Name, FormatTimeDisplay(snapshot.Duration))
	if onComplete != nil {
		onComplete(snapshot)
	}
	if e.alerter != nil {
		if err := e.alerter.TimerDone(context.Background(), snapshot); err != nil {
			e.log.Warn("timer alert failed: %v", err)
		}
	}
}

// Pause freezes a running timer. After Pause returns, no tick for this
// timer is observable until Resume.
func (e *Engine) Pause(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok || t.State != domain.TimerRunning {
		return false
	}

	t.State = domain.TimerPaused
	t.PausedAt = e.sched.Now()
	if rt := e.running[id]; rt != nil && rt.cancelTick != nil {
		rt.cancelTick()
		rt.cancelTick = nil
	}

	e.log.Debug("paused timer %s (%ds remaining)", id, t.Remaining)
	return true
}

// Resume continues a paused timer with the callbacks it was started with.
func (e *Engine) Resume(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	rt := e.running[id]
	if !ok || rt == nil || t.State != domain.TimerPaused {
		return false
	}

	t.State = domain.TimerRunning
	t.PausedAt = time.Time{}
	rt.cancelTick = e.sched.AfterFunc(e.interval, func() { e.tick(id) })

	e.log.Debug("resumed timer %s (%ds remaining)", id, t.Remaining)
	return true
}

// Stop resets a timer to idle from any state: the countdown is
// cancelled and Remaining snaps back to the full duration.
func (e *Engine) Stop(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok {
		return false
	}

	if rt := e.running[id]; rt != nil {
		if rt.cancelTick != nil {
			rt.cancelTick()
		}
		delete(e.running, id)
	}
	t.State = domain.TimerIdle
	t.Remaining = t.Duration
	t.StartedAt = time.Time{}
	t.PausedAt = time.Time{}
	t.CompletedAt = time.Time{}

	e.log.Debug("stopped timer %s", id)
	return true
}

// Delete removes a timer entirely. A deleted timer never ticks again.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.timers[id]; !ok {
		return false
	}

	if rt := e.running[id]; rt != nil {
		if rt.cancelTick != nil {
			rt.cancelTick()
		}
		delete(e.running, id)
	}
	delete(e.timers, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	e.log.Debug("deleted timer %s", id)
	return true
}

// AddTime extends a timer by the given number of seconds, growing both
// the remaining count and the full duration so the invariant
// Remaining <= Duration keeps holding. Works in any state.
func (e *Engine) AddTime(id string, seconds int) bool {
	if seconds <= 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok {
		return false
	}
	t.Remaining += seconds
	t.Duration += seconds

	e.log.Debug("added %ds to timer %s (%ds remaining)", seconds, id, t.Remaining)
	return true
}

// Get returns a copy of the timer with the given id.
func (e *Engine) Get(id string) (domain.Timer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok {
		return domain.Timer{}, false
	}
	return *t, true
}

// All returns copies of every timer in creation order.
func (e *Engine) All() []domain.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Timer, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.timers[id])
	}
	return out
}

// Active returns copies of the running and paused timers, in creation
// order.
func (e *Engine) Active() []domain.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.Timer
	for _, id := range e.order {
		if t := e.timers[id]; t.Active() {
			out = append(out, *t)
		}
	}
	return out
}

// ForStep returns copies of the timers tied to the given step index.
func (e *Engine) ForStep(stepIndex int) []domain.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.Timer
	for _, id := range e.order {
		if t := e.timers[id]; t.StepIndex == stepIndex {
			out = append(out, *t)
		}
	}
	return out
}

// StopAll resets every timer to idle. Registered timers survive; use
// Destroy to drop them.
func (e *Engine) StopAll() {
	for _, t := range e.All() {
		e.Stop(t.ID)
	}
	e.log.Debug("stopped all timers")
}

// Destroy cancels every pending tick and empties the registry. The
// engine stays usable; calling Destroy again is a no-op.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rt := range e.running {
		if rt.cancelTick != nil {
			rt.cancelTick()
		}
	}
	e.timers = make(map[string]*domain.Timer)
	e.running = make(map[string]*runtime)
	e.order = nil

	e.log.Debug("timer engine destroyed")
}
