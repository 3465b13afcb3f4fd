package voice

import (
	"fmt"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// DefaultThreshold is the confidence below which commands are recorded
// but not acted on.
const DefaultThreshold = 0.55

// Actions is the closed set of session operations a voice command can
// trigger. The session controller implements it.
type Actions interface {
	NextStep() error
	PreviousStep() error
	RepeatStep() error
	ReadIngredients() error
	StartTimer(name string, seconds int) error
	PauseTimer(name string) error
	ResumeTimer(name string) error
	StopTimer(name string) error
	Status() error
	Help() error
	StopListening() error
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithThreshold sets the initial confidence threshold.
func WithThreshold(v float64) Option {
	return func(d *Dispatcher) {
		d.threshold = clamp01(v)
	}
}

// WithLogger attaches a logger to the dispatcher.
func WithLogger(log *logger.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log.Named("voice")
	}
}

// Dispatcher routes parsed commands to session actions, filtering out
// low-confidence recognitions.
type Dispatcher struct {
	actions Actions
	log     *logger.Logger

	mu        sync.Mutex
	threshold float64
	last      domain.VoiceCommand
	heardOne  bool
}

// NewDispatcher creates a dispatcher bound to the given actions.
func NewDispatcher(actions Actions, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		actions:   actions,
		log:       logger.New(logger.LevelOff, nil),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch routes one command. Every command is recorded as the last
// heard regardless of outcome. The boolean reports whether an action
// ran; low-confidence and unknown commands return (false, nil). Action
// errors come back wrapped with the command kind.
func (d *Dispatcher) Dispatch(cmd domain.VoiceCommand) (bool, error) {
	d.mu.Lock()
	d.last = cmd
	d.heardOne = true
	threshold := d.threshold
	d.mu.Unlock()

	if cmd.Kind == domain.CmdUnknown {
		d.log.Debug("ignoring unknown command: %q", cmd.Transcript)
		return false, nil
	}
	if cmd.Confidence < threshold {
		d.log.Debug("below threshold (%.2f < %.2f): %s %q", cmd.Confidence, threshold, cmd.Kind, cmd.Transcript)
		return false, nil
	}

	d.log.Debug("dispatching %s (confidence %.2f)", cmd.Kind, cmd.Confidence)

	var err error
	switch cmd.Kind {
	case domain.CmdNext:
		err = d.actions.NextStep()
	case domain.CmdPrevious:
		err = d.actions.PreviousStep()
	case domain.CmdRepeat:
		err = d.actions.RepeatStep()
	case domain.CmdReadIngredients:
		err = d.actions.ReadIngredients()
	case domain.CmdStartTimer:
		err = d.actions.StartTimer(cmd.TimerName, cmd.Duration)
	case domain.CmdPauseTimer:
		err = d.actions.PauseTimer(cmd.TimerName)
	case domain.CmdResumeTimer:
		err = d.actions.ResumeTimer(cmd.TimerName)
	case domain.CmdStopTimer:
		err = d.actions.StopTimer(cmd.TimerName)
	case domain.CmdStatus:
		err = d.actions.Status()
	case domain.CmdHelp:
		err = d.actions.Help()
	case domain.CmdStopListening:
		err = d.actions.StopListening()
	default:
		// A kind the switch does not know about is a bug in the
		// parser, not a reason to crash mid-cook.
		d.log.Warn("unhandled command kind %s", cmd.Kind)
		return false, nil
	}

	if err != nil {
		return true, fmt.Errorf("dispatching %s: %w", cmd.Kind, err)
	}
	return true, nil
}

// Last returns the most recently heard command, dispatched or not.
func (d *Dispatcher) Last() (domain.VoiceCommand, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.heardOne
}

// SetThreshold adjusts the confidence threshold at runtime.
func (d *Dispatcher) SetThreshold(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = clamp01(v)
}

// Threshold returns the current confidence threshold.
func (d *Dispatcher) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
