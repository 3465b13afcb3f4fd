package domain

import "time"

// Timer is a countdown timer tracked by the timer engine. Duration and
// Remaining are whole seconds; 0 <= Remaining <= Duration always holds.
type Timer struct {
	ID          string
	Name        string
	StepIndex   int // -1 when not tied to a step
	Duration    int
	Remaining   int
	State       TimerState
	CreatedAt   time.Time
	StartedAt   time.Time
	PausedAt    time.Time
	CompletedAt time.Time // set exactly when State becomes TimerCompleted
}

// TimerState represents the lifecycle state of a timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
	TimerCompleted
)

// String returns a human-readable timer state.
func (t TimerState) String() string {
	switch t {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Active reports whether the timer is counting down or merely paused,
// as opposed to idle or completed.
func (t Timer) Active() bool {
	return t.State == TimerRunning || t.State == TimerPaused
}
