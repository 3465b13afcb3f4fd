package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceRunsDueJobs(t *testing.T) {
	m := NewManual()

	var ran []string
	m.AfterFunc(1*time.Second, func() { ran = append(ran, "a") })
	m.AfterFunc(3*time.Second, func() { ran = append(ran, "b") })

	m.Advance(2 * time.Second)
	if len(ran) != 1 || ran[0] != "a" {
		t.Fatalf("after 2s ran = %v, want [a]", ran)
	}

	m.Advance(2 * time.Second)
	if len(ran) != 2 || ran[1] != "b" {
		t.Fatalf("after 4s ran = %v, want [a b]", ran)
	}
	if m.Pending() != 0 {
		t.Errorf("pending = %d, want 0", m.Pending())
	}
}

func TestManualSameDeadlineOrder(t *testing.T) {
	m := NewManual()

	var ran []int
	for i := 0; i < 3; i++ {
		i := i
		m.AfterFunc(time.Second, func() { ran = append(ran, i) })
	}

	m.Advance(time.Second)
	if len(ran) != 3 || ran[0] != 0 || ran[1] != 1 || ran[2] != 2 {
		t.Fatalf("ran = %v, want [0 1 2]", ran)
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()

	fired := false
	cancel := m.AfterFunc(time.Second, func() { fired = true })
	cancel()

	m.Advance(5 * time.Second)
	if fired {
		t.Error("cancelled job still fired")
	}
	if m.Pending() != 0 {
		t.Errorf("pending = %d, want 0", m.Pending())
	}

	// Cancelling twice is harmless.
	cancel()
}

func TestManualNestedScheduling(t *testing.T) {
	m := NewManual()

	// A job that reschedules itself every second, like a tick loop.
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(5 * time.Second)
	if ticks != 5 {
		t.Fatalf("ticks = %d, want 5", ticks)
	}

	// The next tick is scheduled but not yet due.
	if m.Pending() != 1 {
		t.Errorf("pending = %d, want 1", m.Pending())
	}
}

func TestManualNowAdvances(t *testing.T) {
	m := NewManual()

	start := m.Now()
	m.Advance(90 * time.Second)
	if got := m.Now().Sub(start); got != 90*time.Second {
		t.Errorf("clock moved %v, want 90s", got)
	}
}

func TestManualSetDoesNotFire(t *testing.T) {
	m := NewManual()

	fired := false
	m.AfterFunc(5*time.Second, func() { fired = true })

	// Jumping the clock past the deadline must not run the job.
	m.Set(m.Now().Add(10 * time.Second))
	if fired {
		t.Fatal("Set fired a job")
	}
	if m.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", m.Pending())
	}

	// Advance delivers it immediately, since it is overdue.
	m.Advance(0)
	if !fired {
		t.Error("overdue job did not fire on Advance")
	}
}
