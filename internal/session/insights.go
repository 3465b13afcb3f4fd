package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/timer"
)

// AddInsight surfaces a tip, warning or substitution note to the cook
// and returns its id. A positive AutoDismissAfter schedules removal.
func (c *Controller) AddInsight(ins domain.Insight) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addInsightLocked(ins)
}

func (c *Controller) addInsightLocked(ins domain.Insight) string {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = c.sched.Now()
	}
	c.insights = append(c.insights, ins)
	if ins.AutoDismissAfter > 0 {
		id := ins.ID
		c.dismissals[id] = c.sched.AfterFunc(time.Duration(ins.AutoDismissAfter)*time.Second, func() {
			c.DismissInsight(id)
		})
	}
	c.emit(EventInsightAdded, ins.Text)
	return ins.ID
}

// DismissInsight removes an insight, cancelling any pending
// auto-dismiss. Reports whether the id was present.
func (c *Controller) DismissInsight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.dismissals[id]; ok {
		cancel()
		delete(c.dismissals, id)
	}
	for i, ins := range c.insights {
		if ins.ID == id {
			c.insights = append(c.insights[:i], c.insights[i+1:]...)
			c.emit(EventInsightDismissed, ins.Text)
			return true
		}
	}
	return false
}

// Insights returns the visible insights, oldest first.
func (c *Controller) Insights() []domain.Insight {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Insight(nil), c.insights...)
}

// AddSuggestion queues a proactive suggestion and returns its id.
func (c *Controller) AddSuggestion(s domain.Suggestion) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = c.sched.Now()
	}
	c.suggestions = append(c.suggestions, s)
	c.emit(EventSuggestionAdded, s.Text)
	return s.ID
}

// DismissSuggestion removes a suggestion by id.
func (c *Controller) DismissSuggestion(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.suggestions {
		if s.ID == id {
			c.suggestions = append(c.suggestions[:i], c.suggestions[i+1:]...)
			return true
		}
	}
	return false
}

// Suggestions returns the pending suggestions, oldest first.
func (c *Controller) Suggestions() []domain.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Suggestion(nil), c.suggestions...)
}

// SetError records a non-fatal problem in the session's error slot.
// Later errors overwrite earlier ones.
func (c *Controller) SetError(kind domain.ErrorKind, message, details string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setErrorLocked(kind, message, details)
}

func (c *Controller) setErrorLocked(kind domain.ErrorKind, message, details string) {
	c.lastErr = &domain.SessionError{
		Kind:    kind,
		Message: message,
		Details: details,
		At:      c.sched.Now(),
	}
	c.log.Warn("%s: %s (%s)", kind, message, details)
	c.emit(EventErrorSet, message)
}

// LastError returns the most recent session error, or nil.
func (c *Controller) LastError() *domain.SessionError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastErr == nil {
		return nil
	}
	cp := *c.lastErr
	return &cp
}

// ClearError empties the error slot.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// scheduleNudgeLocked arms a pacing check for the step just entered:
// if the cook is still on it after twice the estimate, a warning
// insight appears. Untimed steps and review mode schedule nothing.
func (c *Controller) scheduleNudgeLocked(step domain.CookingStep) {
	c.cancelNudgeLocked()
	if step.EstimatedMinutes <= 0 || c.sess == nil || c.sess.Mode == domain.ModeReview {
		return
	}
	wait := 2 * time.Duration(step.EstimatedMinutes) * time.Minute
	index, number := step.Index, step.Number
	c.nudgeCancel = c.sched.AfterFunc(wait, func() {
		c.nudge(index, number, wait)
	})
}

func (c *Controller) cancelNudgeLocked() {
	if c.nudgeCancel != nil {
		c.nudgeCancel()
		c.nudgeCancel = nil
	}
}

// nudge fires from the scheduler; the step may have changed since it
// was armed, so it re-checks before saying anything.
func (c *Controller) nudge(index, number int, waited time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nudgeCancel = nil
	if c.sess == nil || !c.sess.CompletedAt.IsZero() || !c.sess.PausedAt.IsZero() {
		return
	}
	if c.sess.CurrentStepIndex != index {
		return
	}
	c.addInsightLocked(domain.Insight{
		Kind:             domain.InsightWarning,
		Text:             fmt.Sprintf("Still on step %d after %s -- everything okay?", number, timer.FormatTimeForSpeech(int(waited.Seconds()))),
		StepIndex:        index,
		AutoDismissAfter: 60,
	})
	c.log.Debug("pacing nudge for step %d", number)
}
