// Package steps tracks a cook's position in a recipe's instruction list.
//
// The machine holds one step per instruction and a history stack of
// visited indices, so "previous" returns to where the cook actually was
// rather than blindly decrementing. At most one step is active at a
// time; steps become completed or skipped only by explicit call, never
// as a side effect of navigation.
package steps

import (
	"fmt"
	"sync"
	"time"

	"github.com/platewise/cookalong/internal/domain"
)

// Option configures the machine.
type Option func(*Machine)

// WithNow overrides the time source used for step timestamps.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// Machine is the step state machine for a single recipe walk-through.
type Machine struct {
	mu      sync.Mutex
	steps   []domain.CookingStep
	current int
	history []int
	now     func() time.Time
}

// New builds a machine from a recipe's instructions. Step i gets
// number i+1 and starts pending, except the first step which is active.
func New(instructions []domain.Instruction, opts ...Option) *Machine {
	m := &Machine{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	m.steps = make([]domain.CookingStep, len(instructions))
	for i, ins := range instructions {
		m.steps[i] = domain.CookingStep{
			Index:            i,
			Number:           i + 1,
			Instruction:      ins.Text,
			EstimatedMinutes: ins.EstimatedMinutes,
			Status:           domain.StepPending,
		}
	}
	if len(m.steps) > 0 {
		m.activate(0)
	}
	return m
}

// activate marks step idx active if it is still pending. Completed and
// skipped steps keep their status when revisited. Caller holds the lock
// (or is the constructor).
func (m *Machine) activate(idx int) {
	s := &m.steps[idx]
	if s.Status != domain.StepPending {
		return
	}
	s.Status = domain.StepActive
	if s.StartedAt.IsZero() {
		s.StartedAt = m.now()
	}
}

// leave reverts the step being left to pending unless it was explicitly
// completed or skipped. Caller holds the lock.
func (m *Machine) leave(idx int) {
	if m.steps[idx].Status == domain.StepActive {
		m.steps[idx].Status = domain.StepPending
	}
}

// Next advances to the following step, pushing the current index onto
// the history stack. Returns false at the last step.
func (m *Machine) Next() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current >= len(m.steps)-1 {
		return false
	}
	m.history = append(m.history, m.current)
	m.leave(m.current)
	m.current++
	m.activate(m.current)
	return true
}

// Previous returns to the most recently visited step. Returns false
// when there is no history to pop.
func (m *Machine) Previous() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return false
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.leave(m.current)
	m.current = prev
	m.activate(m.current)
	return true
}

// Complete marks step index as completed with optional notes.
func (m *Machine) Complete(index int, notes string) error {
	return m.finish(index, domain.StepCompleted, notes)
}

// Skip marks step index as skipped with optional notes.
func (m *Machine) Skip(index int, notes string) error {
	return m.finish(index, domain.StepSkipped, notes)
}

func (m *Machine) finish(index int, status domain.StepStatus, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.steps) {
		return fmt.Errorf("step %d: %w", index, domain.ErrNotFound)
	}
	s := &m.steps[index]
	s.Status = status
	s.CompletedAt = m.now()
	if notes != "" {
		s.Notes = notes
	}
	return nil
}

// Current returns a copy of the current step and its index. An empty
// machine returns a zero step and index -1.
func (m *Machine) Current() (domain.CookingStep, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.steps) == 0 {
		return domain.CookingStep{}, -1
	}
	return m.steps[m.current], m.current
}

// Steps returns copies of all steps in order.
func (m *Machine) Steps() []domain.CookingStep {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.CookingStep, len(m.steps))
	copy(out, m.steps)
	return out
}

// Len returns the number of steps.
func (m *Machine) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Progress reports how many steps are resolved (completed or skipped)
// out of the total.
func (m *Machine) Progress() (done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.steps {
		if s.Status == domain.StepCompleted || s.Status == domain.StepSkipped {
			done++
		}
	}
	return done, len(m.steps)
}
