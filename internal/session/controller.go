// Package session orchestrates one guided cooking run: step flow,
// timers, voice commands, insights and preferences behind a single
// controller. The controller is the composition root the front end
// talks to; everything else is wired in through options.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platewise/cookalong/internal/clock"
	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/measure"
	"github.com/platewise/cookalong/internal/steps"
	"github.com/platewise/cookalong/internal/timer"
	"github.com/platewise/cookalong/internal/voice"
)

// Compile-time interface check.
var _ voice.Actions = (*Controller)(nil)

// Option configures the controller.
type Option func(*Controller)

// WithTimerEngine replaces the default timer engine.
func WithTimerEngine(e *timer.Engine) Option {
	return func(c *Controller) {
		c.timers = e
	}
}

// WithConverter replaces the default measurement converter.
func WithConverter(m *measure.Converter) Option {
	return func(c *Controller) {
		c.converter = m
	}
}

// WithVoice wires a voice engine. Without one, voice-enabled sessions
// degrade to manual mode.
func WithVoice(v domain.VoiceEngine) Option {
	return func(c *Controller) {
		c.engine = v
	}
}

// WithScheduler replaces the wall clock, so tests drive time.
func WithScheduler(s domain.Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// WithLogger attaches a logger to the controller.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		c.log = log.Named("session")
	}
}

// WithPreferenceStore wires preference persistence.
func WithPreferenceStore(s domain.PreferenceStore) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// WithNotifier wires a notifier used for announcements when no voice
// engine is speaking.
func WithNotifier(n domain.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// Controller runs one cooking session at a time.
type Controller struct {
	recipes   domain.RecipeSource
	timers    *timer.Engine
	converter *measure.Converter
	engine    domain.VoiceEngine
	sched     domain.Scheduler
	store     domain.PreferenceStore
	notifier  domain.Notifier
	log       *logger.Logger

	dispatcher *voice.Dispatcher
	events     chan Event

	mu          sync.Mutex
	sess        *domain.CookingSession
	machine     *steps.Machine
	recipe      *domain.Recipe // session's copy, ingredients scaled
	prefs       domain.Preferences
	insights    []domain.Insight
	suggestions []domain.Suggestion
	lastErr     *domain.SessionError
	dismissals  map[string]func() // insight id -> cancel auto-dismiss
	nudgeCancel func()
	voiceStop   chan struct{}
}

// NewController creates a controller over the given recipe source.
func NewController(recipes domain.RecipeSource, opts ...Option) *Controller {
	c := &Controller{
		recipes:    recipes,
		log:        logger.New(logger.LevelOff, nil),
		prefs:      domain.DefaultPreferences(),
		dismissals: make(map[string]func()),
		events:     make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sched == nil {
		c.sched = clock.System()
	}
	if c.timers == nil {
		c.timers = timer.NewEngine(timer.WithScheduler(c.sched), timer.WithLogger(c.log))
	}
	if c.converter == nil {
		c.converter = measure.New(measure.WithLogger(c.log))
	}
	c.dispatcher = voice.NewDispatcher(c,
		voice.WithThreshold(c.prefs.ConfidenceThreshold),
		voice.WithLogger(c.log),
	)
	return c
}

// Dispatcher returns the controller's command dispatcher. Typed input
// and speech both go through it.
func (c *Controller) Dispatcher() *voice.Dispatcher {
	return c.dispatcher
}

// StartConfig describes the session to begin.
type StartConfig struct {
	RecipeID     string
	Mode         domain.SessionMode
	Servings     int // 0 keeps the recipe's serving count
	VoiceEnabled bool
}

// Start begins a cooking session. Voice failures degrade the session
// to manual mode through the error slot; only recipe problems abort.
func (c *Controller) Start(ctx context.Context, cfg StartConfig) (*domain.CookingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && c.sess.CompletedAt.IsZero() {
		return nil, domain.ErrSessionActive
	}
	c.resetLocked()

	if c.store != nil {
		prefs, err := c.store.Load(ctx)
		if err != nil {
			c.log.Warn("loading preferences: %v (using defaults)", err)
		} else {
			c.prefs = prefs
			c.dispatcher.SetThreshold(prefs.ConfidenceThreshold)
		}
	}

	rec, err := c.recipes.Get(ctx, cfg.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}

	servings := cfg.Servings
	if servings <= 0 {
		servings = rec.Servings
	}
	if servings != rec.Servings {
		scaled, err := c.converter.ScaleRecipe(rec.Servings, servings, rec.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("scaling to %d servings: %w", servings, err)
		}
		rec.Ingredients = scaled
		c.log.Debug("scaled %q from %d to %d servings", rec.Name, rec.Servings, servings)
	}

	c.recipe = rec
	c.machine = steps.New(rec.Instructions, steps.WithNow(c.sched.Now))
	c.sess = &domain.CookingSession{
		ID:         uuid.NewString(),
		RecipeID:   rec.ID,
		RecipeName: rec.Name,
		Servings:   servings,
		Mode:       cfg.Mode,
		StartedAt:  c.sched.Now(),
	}

	if cfg.VoiceEnabled {
		c.startVoiceLocked(ctx)
	}

	first, _ := c.machine.Current()
	c.maybeAutoTimerLocked(first)
	c.scheduleNudgeLocked(first)

	c.log.Info("started session %s for %q (%d servings, mode=%s, voice=%v)",
		c.sess.ID, rec.Name, servings, cfg.Mode, c.sess.VoiceEnabled)
	c.emit(EventSessionStarted, fmt.Sprintf("Cooking %s", rec.Name))
	c.announceStepLocked(first)

	return c.sessionViewLocked(), nil
}

// NextStep advances to the following step. Walking past the last step
// completes the session and returns ErrNoMoreSteps.
func (c *Controller) NextStep() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(true); err != nil {
		return err
	}
	if !c.machine.Next() {
		c.completeLocked(fmt.Sprintf("That was the last step -- %s is done. Enjoy!", c.sess.RecipeName))
		return domain.ErrNoMoreSteps
	}
	c.enterStepLocked()
	return nil
}

// PreviousStep returns to the most recently visited step.
func (c *Controller) PreviousStep() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(true); err != nil {
		return err
	}
	if !c.machine.Previous() {
		return domain.ErrNoEarlierSteps
	}
	c.enterStepLocked()
	return nil
}

// enterStepLocked runs the shared step-entry path after navigation.
func (c *Controller) enterStepLocked() {
	step, idx := c.machine.Current()
	c.sess.CurrentStepIndex = idx
	c.maybeAutoTimerLocked(step)
	c.scheduleNudgeLocked(step)
	c.emit(EventStepChanged, fmt.Sprintf("Step %d of %d", step.Number, c.machine.Len()))
	c.announceStepLocked(step)
	c.log.Debug("on step %d/%d", step.Number, c.machine.Len())
}

// RepeatStep re-announces the current instruction without changing
// state.
func (c *Controller) RepeatStep() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	step, _ := c.machine.Current()
	c.announceStepLocked(step)
	return nil
}

// CompleteStep marks a step as completed.
func (c *Controller) CompleteStep(index int, notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	if err := c.machine.Complete(index, notes); err != nil {
		return err
	}
	c.emit(EventStepChanged, fmt.Sprintf("Step %d completed", index+1))
	return nil
}

// SkipStep marks a step as skipped.
func (c *Controller) SkipStep(index int, notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	if err := c.machine.Skip(index, notes); err != nil {
		return err
	}
	c.emit(EventStepChanged, fmt.Sprintf("Step %d skipped", index+1))
	return nil
}

// ReadIngredients announces the (scaled) ingredient list.
func (c *Controller) ReadIngredients() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	parts := make([]string, 0, len(c.recipe.Ingredients))
	for _, ing := range c.recipe.Ingredients {
		parts = append(parts, measure.FormatAmount(ing.Quantity, ing.Unit)+" "+ing.Name)
	}
	c.announceLocked("You need: " + strings.Join(parts, ", ") + ".")
	return nil
}

// CurrentStep returns the step the session is on.
func (c *Controller) CurrentStep() (domain.CookingStep, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return domain.CookingStep{}, domain.ErrNoSession
	}
	step, _ := c.machine.Current()
	return step, nil
}

// PauseSession marks the session paused. Steps and timers are left
// untouched; pots don't stop boiling because the cook stepped away.
func (c *Controller) PauseSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	if !c.sess.PausedAt.IsZero() {
		return nil
	}
	c.sess.PausedAt = c.sched.Now()
	c.emit(EventSessionPaused, "Session paused")
	c.log.Info("session %s paused", c.sess.ID)
	return nil
}

// ResumeSession clears the paused marker.
func (c *Controller) ResumeSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	if c.sess.PausedAt.IsZero() {
		return nil
	}
	c.sess.PausedAt = time.Time{}
	c.emit(EventSessionResumed, "Session resumed")
	c.log.Info("session %s resumed", c.sess.ID)
	return nil
}

// Status announces where the cook is: step, progress, timers, paused
// state.
func (c *Controller) Status() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	step, _ := c.machine.Current()
	parts := []string{fmt.Sprintf("Step %d of %d", step.Number, c.machine.Len())}
	if done, total := c.machine.Progress(); done > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d steps resolved", done, total))
	}
	switch active := c.timers.Active(); len(active) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("one timer going with %s left", timer.FormatTimeForSpeech(active[0].Remaining)))
	default:
		parts = append(parts, fmt.Sprintf("%d timers going", len(active)))
	}
	if !c.sess.PausedAt.IsZero() {
		parts = append(parts, "the session is paused")
	}
	c.announceLocked(strings.Join(parts, ". ") + ".")
	return nil
}

// Help announces the recognized command phrases.
func (c *Controller) Help() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	c.announceLocked("You can say: next, previous, repeat, ingredients, status, " +
		"start a timer for 5 minutes, pause the timer, resume the timer, " +
		"stop the timer, help, or stop listening.")
	return nil
}

// StopListening turns voice control off for the rest of the session.
func (c *Controller) StopListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(false); err != nil {
		return err
	}
	c.announceLocked("Okay, going quiet. Commands still work typed.")
	c.stopVoiceLocked()
	return nil
}

// End finishes the session: timers stop (they are not deleted), voice
// stops listening, CompletedAt is set. State stays visible until
// Cleanup or the next Start.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return domain.ErrNoSession
	}
	if !c.sess.CompletedAt.IsZero() {
		return domain.ErrSessionEnded
	}
	c.completeLocked("Session ended.")
	return nil
}

// completeLocked is the shared end-of-session path.
func (c *Controller) completeLocked(message string) {
	c.sess.CompletedAt = c.sched.Now()
	c.sess.PausedAt = time.Time{}
	c.cancelNudgeLocked()
	c.announceLocked(message)
	c.timers.StopAll()
	c.stopVoiceLocked()
	c.emit(EventSessionEnded, message)
	c.log.Info("session %s ended", c.sess.ID)
}

// Cleanup tears down all ephemeral state. Idempotent; safe without a
// session.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.log.Debug("session state cleared")
}

// resetLocked drops session state and cancels everything pending.
func (c *Controller) resetLocked() {
	for id, cancel := range c.dismissals {
		cancel()
		delete(c.dismissals, id)
	}
	c.cancelNudgeLocked()
	c.timers.Destroy()
	c.stopVoiceLocked()
	c.sess = nil
	c.machine = nil
	c.recipe = nil
	c.insights = nil
	c.suggestions = nil
	c.lastErr = nil
}

// Preferences returns the current preferences.
func (c *Controller) Preferences() domain.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// UpdatePreferences applies a mutation to the preferences, pushes the
// changes to the dispatcher and voice path, and persists them when a
// store is wired.
func (c *Controller) UpdatePreferences(ctx context.Context, mutate func(*domain.Preferences)) error {
	c.mu.Lock()
	cp := c.prefs
	mutate(&cp)
	if cp.ConfidenceThreshold < 0 {
		cp.ConfidenceThreshold = 0
	} else if cp.ConfidenceThreshold > 1 {
		cp.ConfidenceThreshold = 1
	}
	c.prefs = cp
	c.dispatcher.SetThreshold(cp.ConfidenceThreshold)
	if c.sess != nil && c.sess.VoiceEnabled && !cp.VoiceEnabled {
		c.stopVoiceLocked()
	}
	store := c.store
	c.mu.Unlock()

	if store != nil {
		if err := store.Save(ctx, cp); err != nil {
			return fmt.Errorf("saving preferences: %w", err)
		}
	}
	return nil
}

// ensureLocked gates operations on session state.
func (c *Controller) ensureLocked(requireUnpaused bool) error {
	if c.sess == nil {
		return domain.ErrNoSession
	}
	if !c.sess.CompletedAt.IsZero() {
		return domain.ErrSessionEnded
	}
	if requireUnpaused && !c.sess.PausedAt.IsZero() {
		return domain.ErrSessionPaused
	}
	return nil
}

// sessionViewLocked returns a copy of the session with fresh steps.
func (c *Controller) sessionViewLocked() *domain.CookingSession {
	cp := *c.sess
	cp.Steps = c.machine.Steps()
	return &cp
}

// announceStepLocked reads a step to the cook.
func (c *Controller) announceStepLocked(step domain.CookingStep) {
	text := fmt.Sprintf("Step %d: %s", step.Number, step.Instruction)
	if step.EstimatedMinutes > 0 {
		text += fmt.Sprintf(" (about %s)", timer.FormatTimeForSpeech(step.EstimatedMinutes*60))
	}
	c.announceLocked(text)
}

// announceLocked delivers text to the cook: spoken when voice is up,
// through the notifier otherwise, and always as an event. Speech and
// notification run off the lock.
func (c *Controller) announceLocked(text string) {
	c.emit(EventAnnounce, text)

	if c.sess != nil && c.sess.VoiceEnabled && c.engine != nil {
		opts := domain.SpeechOptions{Rate: c.prefs.VoiceRate, Pitch: c.prefs.VoicePitch, Lang: c.prefs.VoiceLang}
		engine := c.engine
		go func() {
			if err := engine.Speak(context.Background(), text, opts); err != nil {
				c.log.Warn("speak: %v", err)
			}
		}()
		return
	}
	if c.notifier != nil {
		notifier := c.notifier
		go func() {
			if err := notifier.Notify(context.Background(), text); err != nil {
				c.log.Warn("notify: %v", err)
			}
		}()
	}
}
