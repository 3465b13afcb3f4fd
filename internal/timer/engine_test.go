package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/platewise/cookalong/internal/clock"
	"github.com/platewise/cookalong/internal/domain"
)

// setupEngine returns an engine driven by a manual clock, so tests
// advance time explicitly instead of sleeping.
func setupEngine(t *testing.T) (*Engine, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	return NewEngine(WithScheduler(clk)), clk
}

// tickCollector records callback invocations.
type tickCollector struct {
	mu        sync.Mutex
	remaining []int
	completes int
}

func (c *tickCollector) onTick(t domain.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = append(c.remaining, t.Remaining)
}

func (c *tickCollector) onComplete(domain.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completes++
}

func (c *tickCollector) tickCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.remaining)
}

func (c *tickCollector) completeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completes
}

// mockAlerter collects completion alerts.
type mockAlerter struct {
	mu   sync.Mutex
	done []domain.Timer
}

func (m *mockAlerter) TimerDone(_ context.Context, t domain.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, t)
	return nil
}

func TestTimerRunsToCompletion(t *testing.T) {
	e, clk := setupEngine(t)

	tm, err := e.Create("pasta", 10, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	col := &tickCollector{}
	if !e.Start(tm.ID, col.onTick, col.onComplete) {
		t.Fatal("start returned false")
	}

	clk.Advance(10 * time.Second)

	got, ok := e.Get(tm.ID)
	if !ok {
		t.Fatal("timer vanished")
	}
	if got.State != domain.TimerCompleted {
		t.Fatalf("state = %s, want completed", got.State)
	}
	if got.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", got.Remaining)
	}
	if got.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}
	if col.tickCount() != 10 {
		t.Errorf("onTick fired %d times, want 10", col.tickCount())
	}
	if col.completeCount() != 1 {
		t.Errorf("onComplete fired %d times, want exactly 1", col.completeCount())
	}

	// The countdown ended; further time changes nothing.
	clk.Advance(30 * time.Second)
	if col.tickCount() != 10 || col.completeCount() != 1 {
		t.Errorf("callbacks after completion: ticks=%d completes=%d", col.tickCount(), col.completeCount())
	}
}

func TestTimerTickValues(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("eggs", 3, -1)
	col := &tickCollector{}
	e.Start(tm.ID, col.onTick, col.onComplete)

	for i := 0; i < 3; i++ {
		clk.Advance(time.Second)
	}

	col.mu.Lock()
	defer col.mu.Unlock()
	want := []int{2, 1, 0}
	if len(col.remaining) != len(want) {
		t.Fatalf("remaining values = %v, want %v", col.remaining, want)
	}
	for i, r := range col.remaining {
		if r != want[i] {
			t.Fatalf("remaining values = %v, want %v", col.remaining, want)
		}
	}
}

func TestTimerCompletionAlert(t *testing.T) {
	clk := clock.NewManual()
	alerter := &mockAlerter{}
	e := NewEngine(WithScheduler(clk), WithAlerter(alerter))

	tm, _ := e.Create("toast", 2, -1)
	e.Start(tm.ID, nil, nil)
	clk.Advance(2 * time.Second)

	alerter.mu.Lock()
	defer alerter.mu.Unlock()
	if len(alerter.done) != 1 {
		t.Fatalf("alerter called %d times, want 1", len(alerter.done))
	}
	if alerter.done[0].ID != tm.ID {
		t.Errorf("alerted timer %s, want %s", alerter.done[0].ID, tm.ID)
	}
}

func TestTimerPauseFreezesCountdown(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("sauce", 10, 0)
	col := &tickCollector{}
	e.Start(tm.ID, col.onTick, col.onComplete)

	clk.Advance(3 * time.Second)
	if !e.Pause(tm.ID) {
		t.Fatal("pause returned false")
	}

	got, _ := e.Get(tm.ID)
	if got.State != domain.TimerPaused || got.Remaining != 7 {
		t.Fatalf("after pause: state=%s remaining=%d, want paused/7", got.State, got.Remaining)
	}

	// Time passes; the paused timer must not move.
	clk.Advance(5 * time.Second)
	got, _ = e.Get(tm.ID)
	if got.Remaining != 7 {
		t.Errorf("paused timer ticked: remaining = %d, want 7", got.Remaining)
	}
	if col.tickCount() != 3 {
		t.Errorf("onTick fired %d times while paused, want 3", col.tickCount())
	}

	if !e.Resume(tm.ID) {
		t.Fatal("resume returned false")
	}
	clk.Advance(7 * time.Second)

	got, _ = e.Get(tm.ID)
	if got.State != domain.TimerCompleted {
		t.Fatalf("after resume: state = %s, want completed", got.State)
	}
	if col.completeCount() != 1 {
		t.Errorf("onComplete fired %d times, want 1", col.completeCount())
	}
}

func TestTimerTransitionBoundaries(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("rest", 5, -1)

	if e.Pause(tm.ID) {
		t.Error("pause on idle timer succeeded")
	}
	if e.Resume(tm.ID) {
		t.Error("resume on idle timer succeeded")
	}

	e.Start(tm.ID, nil, nil)
	if e.Start(tm.ID, nil, nil) {
		t.Error("start on running timer succeeded")
	}
	if e.Resume(tm.ID) {
		t.Error("resume on running timer succeeded")
	}

	clk.Advance(5 * time.Second)
	if e.Start(tm.ID, nil, nil) {
		t.Error("start on completed timer succeeded")
	}
	if e.Pause(tm.ID) {
		t.Error("pause on completed timer succeeded")
	}

	if e.Start("no-such-id", nil, nil) || e.Pause("no-such-id") || e.Resume("no-such-id") ||
		e.Stop("no-such-id") || e.Delete("no-such-id") || e.AddTime("no-such-id", 5) {
		t.Error("operation on unknown id succeeded")
	}
}

func TestTimerStopResets(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("broil", 10, -1)
	col := &tickCollector{}
	e.Start(tm.ID, col.onTick, col.onComplete)
	clk.Advance(4 * time.Second)

	if !e.Stop(tm.ID) {
		t.Fatal("stop returned false")
	}
	got, _ := e.Get(tm.ID)
	if got.State != domain.TimerIdle {
		t.Errorf("state = %s, want idle", got.State)
	}
	if got.Remaining != 10 {
		t.Errorf("remaining = %d, want full 10", got.Remaining)
	}
	if !got.StartedAt.IsZero() || !got.PausedAt.IsZero() || !got.CompletedAt.IsZero() {
		t.Error("timestamps not cleared on stop")
	}

	clk.Advance(10 * time.Second)
	if col.tickCount() != 4 {
		t.Errorf("stopped timer kept ticking: %d ticks", col.tickCount())
	}
}

func TestTimerDeleteDuringCountdown(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("simmer", 20, 1)
	col := &tickCollector{}
	e.Start(tm.ID, col.onTick, col.onComplete)
	clk.Advance(2 * time.Second)

	if !e.Delete(tm.ID) {
		t.Fatal("delete returned false")
	}
	if _, ok := e.Get(tm.ID); ok {
		t.Error("deleted timer still retrievable")
	}
	if len(e.Active()) != 0 {
		t.Errorf("Active() = %d timers, want 0", len(e.Active()))
	}

	// A deleted timer never ticks again.
	clk.Advance(30 * time.Second)
	if col.tickCount() != 2 {
		t.Errorf("deleted timer ticked: %d ticks, want 2", col.tickCount())
	}
	if col.completeCount() != 0 {
		t.Error("deleted timer completed")
	}
}

func TestTimerAddTime(t *testing.T) {
	e, clk := setupEngine(t)

	tm, _ := e.Create("roast", 10, -1)

	if !e.AddTime(tm.ID, 5) {
		t.Fatal("add time on idle timer failed")
	}
	got, _ := e.Get(tm.ID)
	if got.Remaining != 15 || got.Duration != 15 {
		t.Fatalf("after add: remaining=%d duration=%d, want 15/15", got.Remaining, got.Duration)
	}

	e.Start(tm.ID, nil, nil)
	clk.Advance(3 * time.Second)
	if !e.AddTime(tm.ID, 5) {
		t.Fatal("add time on running timer failed")
	}
	got, _ = e.Get(tm.ID)
	if got.Remaining != 17 || got.Duration != 20 {
		t.Fatalf("after running add: remaining=%d duration=%d, want 17/20", got.Remaining, got.Duration)
	}

	if e.AddTime(tm.ID, 0) || e.AddTime(tm.ID, -3) {
		t.Error("non-positive add succeeded")
	}

	// Completed timers can be extended too; their state stays put.
	short, _ := e.Create("blanch", 2, -1)
	e.Start(short.ID, nil, nil)
	clk.Advance(2 * time.Second)
	if !e.AddTime(short.ID, 5) {
		t.Fatal("add time on completed timer failed")
	}
	got, _ = e.Get(short.ID)
	if got.Remaining != 5 || got.State != domain.TimerCompleted {
		t.Errorf("after completed add: remaining=%d state=%s", got.Remaining, got.State)
	}
}

func TestTimerAccessors(t *testing.T) {
	e, _ := setupEngine(t)

	a, _ := e.Create("a", 60, 0)
	b, _ := e.Create("b", 120, 0)
	c, _ := e.Create("c", 30, 2)

	e.Start(b.ID, nil, nil)

	all := e.All()
	if len(all) != 3 || all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Fatalf("All() out of creation order: %v", all)
	}

	active := e.Active()
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("Active() = %d timers, want just b", len(active))
	}

	if got := len(e.ForStep(0)); got != 2 {
		t.Errorf("ForStep(0) = %d timers, want 2", got)
	}
	if got := len(e.ForStep(5)); got != 0 {
		t.Errorf("ForStep(5) = %d timers, want 0", got)
	}
	if _, ok := e.Get("nope"); ok {
		t.Error("Get on unknown id succeeded")
	}
}

func TestTimerCreateValidation(t *testing.T) {
	e, _ := setupEngine(t)

	if _, err := e.Create("bad", 0, -1); !errors.Is(err, domain.ErrBadDuration) {
		t.Errorf("zero duration error = %v, want ErrBadDuration", err)
	}
	if _, err := e.Create("bad", -10, -1); !errors.Is(err, domain.ErrBadDuration) {
		t.Errorf("negative duration error = %v, want ErrBadDuration", err)
	}
}

func TestCreateQuick(t *testing.T) {
	e, _ := setupEngine(t)

	tm, err := e.CreateQuick("pasta", "5 minutes")
	if err != nil {
		t.Fatalf("quick create: %v", err)
	}
	if tm.Duration != 300 || tm.StepIndex != -1 || tm.State != domain.TimerIdle {
		t.Errorf("quick timer = %+v, want 300s idle unbound", tm)
	}

	if _, err := e.CreateQuick("bad", "no duration here"); !errors.Is(err, domain.ErrBadDuration) {
		t.Errorf("unparseable phrase error = %v, want ErrBadDuration", err)
	}
}

func TestStopAllAndDestroy(t *testing.T) {
	e, clk := setupEngine(t)

	a, _ := e.Create("a", 10, -1)
	b, _ := e.Create("b", 20, -1)
	e.Start(a.ID, nil, nil)
	e.Start(b.ID, nil, nil)
	clk.Advance(2 * time.Second)

	e.StopAll()
	for _, tm := range e.All() {
		if tm.State != domain.TimerIdle || tm.Remaining != tm.Duration {
			t.Errorf("timer %s after StopAll: state=%s remaining=%d", tm.Name, tm.State, tm.Remaining)
		}
	}

	e.Start(a.ID, nil, nil)
	e.Destroy()
	if len(e.All()) != 0 {
		t.Fatalf("registry not empty after destroy: %d timers", len(e.All()))
	}
	// Destroy twice is fine, and the engine stays usable.
	e.Destroy()
	if _, err := e.Create("fresh", 5, -1); err != nil {
		t.Fatalf("create after destroy: %v", err)
	}

	// Nothing left over fires.
	clk.Advance(time.Minute)
}

func TestTimerCallbacksMayReenter(t *testing.T) {
	e, clk := setupEngine(t)

	// onTick pauses its own timer mid-countdown.
	tm, _ := e.Create("self-pause", 10, -1)
	e.Start(tm.ID, func(t domain.Timer) {
		if t.Remaining == 5 {
			e.Pause(t.ID)
		}
	}, nil)
	clk.Advance(10 * time.Second)

	got, _ := e.Get(tm.ID)
	if got.State != domain.TimerPaused || got.Remaining != 5 {
		t.Errorf("self-pausing timer: state=%s remaining=%d, want paused/5", got.State, got.Remaining)
	}

	// onComplete deletes its own timer.
	tm2, _ := e.Create("self-delete", 3, -1)
	e.Start(tm2.ID, nil, func(t domain.Timer) {
		e.Delete(t.ID)
	})
	clk.Advance(3 * time.Second)

	if _, ok := e.Get(tm2.ID); ok {
		t.Error("self-deleting timer still present after completion")
	}
}
