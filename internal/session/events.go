package session

import (
	"time"

	"github.com/platewise/cookalong/internal/domain"
)

// eventBuffer is how many unread events the controller holds before
// dropping new ones. Slow readers lose events, they never block the
// kitchen.
const eventBuffer = 64

// EventKind labels a session event.
type EventKind int

const (
	EventSessionStarted EventKind = iota
	EventStepChanged
	EventSessionPaused
	EventSessionResumed
	EventSessionEnded
	EventTimerStarted
	EventTimerDone
	EventInsightAdded
	EventInsightDismissed
	EventSuggestionAdded
	EventErrorSet
	EventAnnounce
)

// String returns a human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session-started"
	case EventStepChanged:
		return "step-changed"
	case EventSessionPaused:
		return "session-paused"
	case EventSessionResumed:
		return "session-resumed"
	case EventSessionEnded:
		return "session-ended"
	case EventTimerStarted:
		return "timer-started"
	case EventTimerDone:
		return "timer-done"
	case EventInsightAdded:
		return "insight-added"
	case EventInsightDismissed:
		return "insight-dismissed"
	case EventSuggestionAdded:
		return "suggestion-added"
	case EventErrorSet:
		return "error"
	case EventAnnounce:
		return "announce"
	default:
		return "unknown"
	}
}

// Event is one thing that happened during a session, suitable for a
// UI activity feed.
type Event struct {
	Kind EventKind
	Text string
	At   time.Time
}

// Events exposes the controller's event feed. The channel is never
// closed; it goes quiet when nothing is happening.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// emit queues an event without ever blocking the caller.
func (c *Controller) emit(kind EventKind, text string) {
	ev := Event{Kind: kind, Text: text, At: c.sched.Now()}
	select {
	case c.events <- ev:
	default:
		c.log.Debug("event feed full, dropped %s", kind)
	}
}

// Snapshot is a consistent copy of everything a front end renders.
type Snapshot struct {
	Session     *domain.CookingSession // nil when no session is loaded
	Steps       []domain.CookingStep
	Ingredients []domain.Ingredient // scaled to the session's servings
	Timers      []domain.Timer
	Insights    []domain.Insight
	Suggestions []domain.Suggestion
	LastError   *domain.SessionError
	Preferences domain.Preferences
}

// Snapshot copies the controller's state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Preferences: c.prefs,
		Insights:    append([]domain.Insight(nil), c.insights...),
		Suggestions: append([]domain.Suggestion(nil), c.suggestions...),
	}
	if c.lastErr != nil {
		cp := *c.lastErr
		snap.LastError = &cp
	}
	if c.sess == nil {
		return snap
	}
	snap.Session = c.sessionViewLocked()
	snap.Steps = snap.Session.Steps
	snap.Ingredients = append([]domain.Ingredient(nil), c.recipe.Ingredients...)
	snap.Timers = c.timers.All()
	return snap
}

// Session returns a copy of the current session, or nil.
func (c *Controller) Session() *domain.CookingSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return nil
	}
	return c.sessionViewLocked()
}
