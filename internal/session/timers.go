package session

import (
	"fmt"
	"strings"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/timer"
)

// StartTimer starts a countdown bound to the current step. A zero or
// negative duration borrows the step's estimate; an empty name gets a
// "step N" default.
func (c *Controller) StartTimer(name string, seconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(true); err != nil {
		return err
	}
	step, idx := c.machine.Current()
	if seconds <= 0 {
		if step.EstimatedMinutes <= 0 {
			return fmt.Errorf("step %d has no time estimate: %w", step.Number, domain.ErrBadDuration)
		}
		seconds = step.EstimatedMinutes * 60
	}
	if name == "" {
		name = fmt.Sprintf("step %d", step.Number)
	}
	t, err := c.timers.Create(name, seconds, idx)
	if err != nil {
		return fmt.Errorf("creating timer: %w", err)
	}
	c.timers.Start(t.ID, nil, c.timerDone)
	msg := fmt.Sprintf("Timer %q started for %s", name, timer.FormatTimeForSpeech(seconds))
	c.announceLocked(msg)
	c.emit(EventTimerStarted, msg)
	return nil
}

// PauseTimer pauses the named timer, or the most plausible one when no
// name is given.
func (c *Controller) PauseTimer(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	t, err := c.findTimerLocked(name)
	if err != nil {
		return err
	}
	if !c.timers.Pause(t.ID) {
		return fmt.Errorf("timer %q is not running", t.Name)
	}
	c.announceLocked(fmt.Sprintf("Paused the %s timer with %s left", t.Name, timer.FormatTimeForSpeech(t.Remaining)))
	return nil
}

// ResumeTimer resumes a paused timer.
func (c *Controller) ResumeTimer(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	t, err := c.findTimerLocked(name)
	if err != nil {
		return err
	}
	if !c.timers.Resume(t.ID) {
		return fmt.Errorf("timer %q is not paused", t.Name)
	}
	c.announceLocked(fmt.Sprintf("Resumed the %s timer", t.Name))
	return nil
}

// StopTimer stops and resets a timer.
func (c *Controller) StopTimer(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	t, err := c.findTimerLocked(name)
	if err != nil {
		return err
	}
	c.timers.Stop(t.ID)
	c.announceLocked(fmt.Sprintf("Stopped the %s timer", t.Name))
	return nil
}

// Timers returns all of the session's timers in creation order.
func (c *Controller) Timers() []domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers.All()
}

// ActiveTimers returns only the timers that are running or paused.
func (c *Controller) ActiveTimers() []domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers.Active()
}

// findTimerLocked resolves which timer a command means. Name matches
// win (newest first), then the current step's running timer, then a
// sole active timer.
func (c *Controller) findTimerLocked(name string) (domain.Timer, error) {
	all := c.timers.All()
	if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
		for i := len(all) - 1; i >= 0; i-- {
			if strings.ToLower(all[i].Name) == n {
				return all[i], nil
			}
		}
		for i := len(all) - 1; i >= 0; i-- {
			if strings.Contains(strings.ToLower(all[i].Name), n) {
				return all[i], nil
			}
		}
		return domain.Timer{}, fmt.Errorf("timer %q: %w", name, domain.ErrNotFound)
	}

	_, idx := c.machine.Current()
	stepTimers := c.timers.ForStep(idx)
	for i := len(stepTimers) - 1; i >= 0; i-- {
		if stepTimers[i].Active() {
			return stepTimers[i], nil
		}
	}
	if active := c.timers.Active(); len(active) == 1 {
		return active[0], nil
	}
	return domain.Timer{}, fmt.Errorf("no obvious timer to pick: %w", domain.ErrNotFound)
}

// maybeAutoTimerLocked starts a countdown when the step carries an
// estimate and the preferences ask for it. Review and prep-only modes
// never auto-start.
func (c *Controller) maybeAutoTimerLocked(step domain.CookingStep) {
	if !c.prefs.AutoStartTimers || c.sess.Mode != domain.ModeCooking || step.EstimatedMinutes <= 0 {
		return
	}
	if len(c.timers.ForStep(step.Index)) > 0 {
		return
	}
	name := fmt.Sprintf("step %d", step.Number)
	t, err := c.timers.Create(name, step.EstimatedMinutes*60, step.Index)
	if err != nil {
		c.setErrorLocked(domain.ErrorTimer, "could not create step timer", err.Error())
		return
	}
	c.timers.Start(t.ID, nil, c.timerDone)
	c.emit(EventTimerStarted, fmt.Sprintf("Timer started: %s (%s)", name, timer.FormatTimeForSpeech(t.Duration)))
	c.log.Debug("auto timer for step %d (%ds)", step.Number, t.Duration)
}

// timerDone runs when any session timer completes. The timer engine
// calls it with its lock released.
func (c *Controller) timerDone(t domain.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return
	}
	msg := fmt.Sprintf("Timer %q is done", t.Name)
	c.announceLocked(msg)
	c.emit(EventTimerDone, msg)
}
