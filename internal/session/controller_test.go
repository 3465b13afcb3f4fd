package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/platewise/cookalong/internal/clock"
	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/recipe"
)

// The seeded garlic-butter-salmon recipe drives most tests: 6 steps
// with estimates 0, 4, 2, 5, 1 and 0 minutes, 2 servings.
const salmonID = "garlic-butter-salmon"

func setupController(t *testing.T, opts ...Option) (*Controller, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	log := logger.New(logger.LevelOff, nil)
	source := recipe.NewMemorySource(log)
	base := []Option{WithScheduler(clk), WithLogger(log)}
	c := NewController(source, append(base, opts...)...)
	return c, clk
}

func startSalmon(t *testing.T, c *Controller, cfg StartConfig) *domain.CookingSession {
	t.Helper()
	if cfg.RecipeID == "" {
		cfg.RecipeID = salmonID
	}
	sess, err := c.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return sess
}

func drainEvents(c *Controller) []Event {
	var evs []Event
	for {
		select {
		case ev := <-c.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func lastAnnounce(evs []Event) string {
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Kind == EventAnnounce {
			return evs[i].Text
		}
	}
	return ""
}

func hasEvent(evs []Event, kind EventKind) bool {
	for _, ev := range evs {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// mockVoice is a scriptable VoiceEngine.
type mockVoice struct {
	mu        sync.Mutex
	cmds      chan domain.VoiceCommand
	spoken    []string
	stops     int
	initErr   error
	permErr   error
	startErr  error
	listening bool
}

func newMockVoice() *mockVoice {
	return &mockVoice{cmds: make(chan domain.VoiceCommand, 8)}
}

func (m *mockVoice) Initialize(ctx context.Context) error { return m.initErr }

func (m *mockVoice) RequestPermission(ctx context.Context) error { return m.permErr }

func (m *mockVoice) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.mu.Lock()
	m.listening = true
	m.mu.Unlock()
	return nil
}

func (m *mockVoice) Stop() {
	m.mu.Lock()
	m.stops++
	m.listening = false
	m.mu.Unlock()
}

func (m *mockVoice) Speak(ctx context.Context, text string, opts domain.SpeechOptions) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.mu.Unlock()
	return nil
}

func (m *mockVoice) Commands() <-chan domain.VoiceCommand { return m.cmds }

func (m *mockVoice) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *mockVoice) spokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spoken)
}

// mockPrefStore is an in-memory PreferenceStore with scriptable
// failures.
type mockPrefStore struct {
	mu      sync.Mutex
	prefs   domain.Preferences
	hasLoad bool
	loadErr error
	saveErr error
	saved   []domain.Preferences
}

func (m *mockPrefStore) Load(ctx context.Context) (domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Preferences{}, m.loadErr
	}
	if !m.hasLoad {
		return domain.DefaultPreferences(), nil
	}
	return m.prefs, nil
}

func (m *mockPrefStore) Save(ctx context.Context, p domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockPrefStore) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func TestStartSession(t *testing.T) {
	c, _ := setupController(t)
	sess := startSalmon(t, c, StartConfig{})

	if sess.RecipeName != "Garlic Butter Salmon" {
		t.Errorf("RecipeName = %q", sess.RecipeName)
	}
	if sess.Servings != 2 {
		t.Errorf("Servings = %d, want recipe default 2", sess.Servings)
	}
	if sess.Mode != domain.ModeCooking {
		t.Errorf("Mode = %v, want ModeCooking", sess.Mode)
	}
	if sess.CurrentStepIndex != 0 {
		t.Errorf("CurrentStepIndex = %d", sess.CurrentStepIndex)
	}
	if len(sess.Steps) != 6 {
		t.Fatalf("len(Steps) = %d, want 6", len(sess.Steps))
	}
	if sess.Steps[0].Status != domain.StepActive {
		t.Errorf("first step status = %v, want active", sess.Steps[0].Status)
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
	if sess.ID == "" {
		t.Error("session has no id")
	}

	if _, err := c.Start(context.Background(), StartConfig{RecipeID: salmonID}); !errors.Is(err, domain.ErrSessionActive) {
		t.Errorf("second Start error = %v, want ErrSessionActive", err)
	}

	evs := drainEvents(c)
	if !hasEvent(evs, EventSessionStarted) {
		t.Error("no session-started event")
	}
	if got := lastAnnounce(evs); !strings.Contains(got, "Step 1") {
		t.Errorf("first announcement = %q, want the first step", got)
	}
}

func TestStartUnknownRecipe(t *testing.T) {
	c, _ := setupController(t)

	_, err := c.Start(context.Background(), StartConfig{RecipeID: "no-such-dish"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if c.Session() != nil {
		t.Error("failed start left a session behind")
	}
}

func TestStartScalesIngredients(t *testing.T) {
	c, _ := setupController(t)
	sess := startSalmon(t, c, StartConfig{Servings: 4})

	if sess.Servings != 4 {
		t.Fatalf("Servings = %d, want 4", sess.Servings)
	}
	snap := c.Snapshot()
	byName := map[string]float64{}
	for _, ing := range snap.Ingredients {
		byName[ing.Name] = ing.Quantity
	}
	if got := byName["asparagus"]; got != 900 {
		t.Errorf("asparagus = %v grams, want 900", got)
	}
	if got := byName["salmon fillets"]; got != 4 {
		t.Errorf("salmon fillets = %v, want 4", got)
	}

	drainEvents(c)
	if err := c.ReadIngredients(); err != nil {
		t.Fatalf("ReadIngredients: %v", err)
	}
	got := lastAnnounce(drainEvents(c))
	if !strings.Contains(got, "900 grams asparagus") {
		t.Errorf("announcement %q misses scaled asparagus", got)
	}
	if !strings.HasPrefix(got, "You need: ") {
		t.Errorf("announcement %q has the wrong shape", got)
	}
}

func TestStartVoiceDegradesGracefully(t *testing.T) {
	tests := []struct {
		name   string
		detail string
		rig    func(*mockVoice)
	}{
		{"init fails", "initializing", func(v *mockVoice) { v.initErr = errors.New("whisper binary missing") }},
		{"permission denied", "permission", func(v *mockVoice) { v.permErr = errors.New("microphone denied") }},
		{"start fails", "starting", func(v *mockVoice) { v.startErr = errors.New("device busy") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newMockVoice()
			tt.rig(v)
			c, _ := setupController(t, WithVoice(v))

			sess := startSalmon(t, c, StartConfig{VoiceEnabled: true})
			if sess.VoiceEnabled {
				t.Error("session claims voice is on after engine failure")
			}
			lastErr := c.LastError()
			if lastErr == nil {
				t.Fatal("no session error recorded")
			}
			if lastErr.Kind != domain.ErrorVoice {
				t.Errorf("error kind = %v, want ErrorVoice", lastErr.Kind)
			}
			if !strings.Contains(lastErr.Details, tt.detail) {
				t.Errorf("error details = %q, want mention of %q", lastErr.Details, tt.detail)
			}
		})
	}
}

func TestStartVoiceWithoutEngine(t *testing.T) {
	c, _ := setupController(t)
	sess := startSalmon(t, c, StartConfig{VoiceEnabled: true})

	if sess.VoiceEnabled {
		t.Error("voice reported enabled with no engine wired")
	}
	if lastErr := c.LastError(); lastErr == nil || lastErr.Kind != domain.ErrorVoice {
		t.Errorf("LastError = %+v, want a voice error", lastErr)
	}
}

func TestStepFlowToCompletion(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	if err := c.PreviousStep(); !errors.Is(err, domain.ErrNoEarlierSteps) {
		t.Errorf("PreviousStep at start = %v, want ErrNoEarlierSteps", err)
	}

	for i := 0; i < 5; i++ {
		if err := c.NextStep(); err != nil {
			t.Fatalf("NextStep %d: %v", i+1, err)
		}
	}
	step, err := c.CurrentStep()
	if err != nil {
		t.Fatalf("CurrentStep: %v", err)
	}
	if step.Number != 6 {
		t.Fatalf("on step %d, want 6", step.Number)
	}

	if err := c.NextStep(); !errors.Is(err, domain.ErrNoMoreSteps) {
		t.Fatalf("NextStep past end = %v, want ErrNoMoreSteps", err)
	}
	sess := c.Session()
	if sess.CompletedAt.IsZero() {
		t.Error("walking past the last step did not complete the session")
	}
	if err := c.NextStep(); !errors.Is(err, domain.ErrSessionEnded) {
		t.Errorf("NextStep after completion = %v, want ErrSessionEnded", err)
	}
	if !hasEvent(drainEvents(c), EventSessionEnded) {
		t.Error("no session-ended event")
	}
}

func TestStepNavigationWithoutSession(t *testing.T) {
	c, _ := setupController(t)

	if err := c.NextStep(); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("NextStep = %v, want ErrNoSession", err)
	}
	if _, err := c.CurrentStep(); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("CurrentStep = %v, want ErrNoSession", err)
	}
	if err := c.StartTimer("x", 60); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("StartTimer = %v, want ErrNoSession", err)
	}
}

func TestAutoTimersFollowEstimates(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	if got := len(c.Timers()); got != 0 {
		t.Fatalf("untimed first step spawned %d timers", got)
	}

	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	timers := c.Timers()
	if len(timers) != 1 {
		t.Fatalf("len(timers) = %d, want 1 after entering a timed step", len(timers))
	}
	tm := timers[0]
	if tm.Name != "step 2" {
		t.Errorf("timer name = %q", tm.Name)
	}
	if tm.Duration != 240 {
		t.Errorf("timer duration = %d, want 240", tm.Duration)
	}
	if tm.State != domain.TimerRunning {
		t.Errorf("timer state = %v, want running", tm.State)
	}
	if tm.StepIndex != 1 {
		t.Errorf("timer step index = %d, want 1", tm.StepIndex)
	}
	if got := len(c.ActiveTimers()); got != 1 {
		t.Errorf("len(ActiveTimers()) = %d, want 1", got)
	}

	// Coming back to a step must not stack a second timer on it.
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if err := c.PreviousStep(); err != nil {
		t.Fatalf("PreviousStep: %v", err)
	}
	count := 0
	for _, tm := range c.Timers() {
		if tm.StepIndex == 1 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("step 2 has %d timers after revisit, want 1", count)
	}
}

func TestAutoTimersRespectMode(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{Mode: domain.ModePrepOnly})

	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if got := len(c.Timers()); got != 0 {
		t.Errorf("prep-only session spawned %d timers", got)
	}
}

func TestTimerCompletionAnnounced(t *testing.T) {
	v := newMockVoice()
	c, clk := setupController(t, WithVoice(v))
	startSalmon(t, c, StartConfig{VoiceEnabled: true})

	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	drainEvents(c)
	clk.Advance(240 * time.Second)

	evs := drainEvents(c)
	if !hasEvent(evs, EventTimerDone) {
		t.Fatal("no timer-done event after the countdown")
	}
	if got := lastAnnounce(evs); !strings.Contains(got, "done") {
		t.Errorf("announcement = %q, want a completion line", got)
	}
}

func TestManualTimerDefaults(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	// First step has no estimate to borrow.
	if err := c.StartTimer("", 0); !errors.Is(err, domain.ErrBadDuration) {
		t.Fatalf("StartTimer on untimed step = %v, want ErrBadDuration", err)
	}

	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if err := c.StartTimer("sauce", 90); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	var sauce domain.Timer
	for _, tm := range c.Timers() {
		if tm.Name == "sauce" {
			sauce = tm
		}
	}
	if sauce.ID == "" {
		t.Fatal("named timer not found")
	}
	if sauce.Duration != 90 || sauce.State != domain.TimerRunning {
		t.Errorf("sauce timer = %ds %v, want 90s running", sauce.Duration, sauce.State)
	}
	if sauce.StepIndex != 1 {
		t.Errorf("sauce timer bound to step %d, want current step 1", sauce.StepIndex)
	}
}

func TestTimerTargeting(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil { // step 2, auto timer "step 2"
		t.Fatalf("NextStep: %v", err)
	}
	if err := c.StartTimer("sauce", 300); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}

	if err := c.PauseTimer("sauce"); err != nil {
		t.Fatalf("PauseTimer(sauce): %v", err)
	}
	states := map[string]domain.TimerState{}
	for _, tm := range c.Timers() {
		states[tm.Name] = tm.State
	}
	if states["sauce"] != domain.TimerPaused {
		t.Errorf("sauce state = %v, want paused", states["sauce"])
	}
	if states["step 2"] != domain.TimerRunning {
		t.Errorf("step 2 state = %v, want still running", states["step 2"])
	}

	if err := c.PauseTimer("sauce"); err == nil {
		t.Error("pausing a paused timer should fail")
	}
	if err := c.ResumeTimer("sauce"); err != nil {
		t.Fatalf("ResumeTimer(sauce): %v", err)
	}

	// No name targets the current step's timer.
	if err := c.PauseTimer(""); err != nil {
		t.Fatalf("PauseTimer(\"\"): %v", err)
	}
	for _, tm := range c.Timers() {
		if tm.Name == "step 2" && tm.State != domain.TimerPaused {
			t.Errorf("step 2 state = %v, want paused via unnamed command", tm.State)
		}
	}

	if err := c.StopTimer("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("StopTimer(nope) = %v, want ErrNotFound", err)
	}
}

func TestPauseResumeSession(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}

	if err := c.PauseSession(); err != nil {
		t.Fatalf("PauseSession: %v", err)
	}
	if c.Session().PausedAt.IsZero() {
		t.Fatal("PausedAt not set")
	}
	if err := c.PauseSession(); err != nil {
		t.Errorf("second PauseSession = %v, want nil", err)
	}

	if err := c.NextStep(); !errors.Is(err, domain.ErrSessionPaused) {
		t.Errorf("NextStep while paused = %v, want ErrSessionPaused", err)
	}
	if err := c.StartTimer("extra", 60); !errors.Is(err, domain.ErrSessionPaused) {
		t.Errorf("StartTimer while paused = %v, want ErrSessionPaused", err)
	}

	// Running timers are deliberately left alone: the pot does not
	// care that the cook stepped away.
	before := c.Timers()[0].Remaining
	clk.Advance(30 * time.Second)
	after := c.Timers()[0].Remaining
	if after != before-30 {
		t.Errorf("remaining went %d -> %d during pause, want countdown to continue", before, after)
	}
	// Individual timer control still works while paused.
	if err := c.PauseTimer(""); err != nil {
		t.Errorf("PauseTimer while session paused: %v", err)
	}

	if err := c.ResumeSession(); err != nil {
		t.Fatalf("ResumeSession: %v", err)
	}
	if !c.Session().PausedAt.IsZero() {
		t.Error("PausedAt survived resume")
	}
	if err := c.ResumeSession(); err != nil {
		t.Errorf("second ResumeSession = %v, want nil", err)
	}
	if err := c.NextStep(); err != nil {
		t.Errorf("NextStep after resume: %v", err)
	}
}

func TestInsightAutoDismiss(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})

	id := c.AddInsight(domain.Insight{
		Kind:             domain.InsightTip,
		Text:             "Salt the pan, not just the fish",
		AutoDismissAfter: 30,
	})
	keep := c.AddInsight(domain.Insight{
		Kind: domain.InsightSubstitution,
		Text: "No asparagus? Green beans behave the same here",
	})

	if got := len(c.Insights()); got != 2 {
		t.Fatalf("len(insights) = %d, want 2", got)
	}

	clk.Advance(29 * time.Second)
	if got := len(c.Insights()); got != 2 {
		t.Fatalf("insight dismissed early, %d left", got)
	}
	clk.Advance(1 * time.Second)

	left := c.Insights()
	if len(left) != 1 || left[0].ID != keep {
		t.Fatalf("after auto-dismiss want only the sticky insight, got %+v", left)
	}
	if c.DismissInsight(id) {
		t.Error("dismissing an auto-dismissed insight reported true")
	}
	if !c.DismissInsight(keep) {
		t.Error("dismissing a live insight reported false")
	}
	if got := len(c.Insights()); got != 0 {
		t.Errorf("len(insights) = %d, want 0", got)
	}
}

func TestInsightManualDismissCancelsAuto(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})

	id := c.AddInsight(domain.Insight{Kind: domain.InsightTip, Text: "tip", AutoDismissAfter: 10})
	if !c.DismissInsight(id) {
		t.Fatal("DismissInsight reported false")
	}
	if got := clk.Pending(); got != 0 {
		t.Errorf("%d scheduler jobs left after manual dismiss, want 0", got)
	}
	clk.Advance(time.Minute)
	if got := len(c.Insights()); got != 0 {
		t.Errorf("len(insights) = %d after advance, want 0", got)
	}
}

func TestPacingNudge(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil { // step 2, 4 minute estimate
		t.Fatalf("NextStep: %v", err)
	}

	clk.Advance(8*time.Minute - time.Second)
	if got := len(c.Insights()); got != 0 {
		t.Fatalf("nudge fired early, %d insights", got)
	}
	clk.Advance(time.Second)

	ins := c.Insights()
	if len(ins) != 1 {
		t.Fatalf("len(insights) = %d, want the pacing nudge", len(ins))
	}
	if ins[0].Kind != domain.InsightWarning {
		t.Errorf("nudge kind = %v, want warning", ins[0].Kind)
	}
	if ins[0].StepIndex != 1 {
		t.Errorf("nudge step index = %d, want 1", ins[0].StepIndex)
	}
	if !strings.Contains(ins[0].Text, "step 2") {
		t.Errorf("nudge text = %q, want mention of step 2", ins[0].Text)
	}

	// The nudge cleans itself up.
	clk.Advance(time.Minute)
	if got := len(c.Insights()); got != 0 {
		t.Errorf("nudge still visible after its auto-dismiss window, %d left", got)
	}
}

func TestPacingNudgeCancelledByMovingOn(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil { // step 2, nudge armed for +8m
		t.Fatalf("NextStep: %v", err)
	}

	clk.Advance(7 * time.Minute)
	if err := c.NextStep(); err != nil { // step 3, re-arms for +4m
		t.Fatalf("NextStep: %v", err)
	}
	clk.Advance(time.Minute) // old deadline passes quietly
	if got := len(c.Insights()); got != 0 {
		t.Fatalf("stale nudge fired, %d insights", got)
	}

	clk.Advance(3 * time.Minute) // step 3's own nudge
	ins := c.Insights()
	if len(ins) != 1 || !strings.Contains(ins[0].Text, "step 3") {
		t.Fatalf("insights = %+v, want one step 3 nudge", ins)
	}
}

func TestPacingNudgeSkippedWhilePaused(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if err := c.PauseSession(); err != nil {
		t.Fatalf("PauseSession: %v", err)
	}

	clk.Advance(10 * time.Minute)
	if got := len(c.Insights()); got != 0 {
		t.Errorf("nudge fired during pause, %d insights", got)
	}
}

func TestVoiceCommandsDriveSession(t *testing.T) {
	v := newMockVoice()
	c, _ := setupController(t, WithVoice(v))
	startSalmon(t, c, StartConfig{VoiceEnabled: true})

	v.cmds <- domain.VoiceCommand{Kind: domain.CmdNext, Transcript: "next", Confidence: 1}
	waitFor(t, "step advance", func() bool {
		step, err := c.CurrentStep()
		return err == nil && step.Number == 2
	})

	// A mumbled command is recorded but never dispatched.
	v.cmds <- domain.VoiceCommand{Kind: domain.CmdNext, Transcript: "necks", Confidence: 0.2}
	waitFor(t, "mumble recorded", func() bool {
		last, ok := c.Dispatcher().Last()
		return ok && last.Transcript == "necks"
	})
	if step, _ := c.CurrentStep(); step.Number != 2 {
		t.Fatalf("low-confidence command moved the session to step %d", step.Number)
	}

	v.cmds <- domain.VoiceCommand{Kind: domain.CmdStopListening, Transcript: "stop listening", Confidence: 1}
	waitFor(t, "engine stop", func() bool { return v.stopCount() >= 1 })
	if c.Session().VoiceEnabled {
		t.Error("session still claims voice after stop listening")
	}
}

func TestAnnouncementsAreSpoken(t *testing.T) {
	v := newMockVoice()
	c, _ := setupController(t, WithVoice(v))
	startSalmon(t, c, StartConfig{VoiceEnabled: true})

	waitFor(t, "step announcement", func() bool { return v.spokenCount() >= 1 })

	before := v.spokenCount()
	if err := c.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	waitFor(t, "status speech", func() bool { return v.spokenCount() >= before+1 })
}

func TestStatusSummary(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	drainEvents(c)

	if err := c.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	got := lastAnnounce(drainEvents(c))
	if !strings.Contains(got, "Step 2 of 6") {
		t.Errorf("status %q misses step position", got)
	}
	if !strings.Contains(got, "timer") {
		t.Errorf("status %q misses the running timer", got)
	}
}

func TestUpdatePreferencesThreshold(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	cmd := domain.VoiceCommand{Kind: domain.CmdNext, Transcript: "next", Confidence: 0.6}
	if ran, err := c.Dispatcher().Dispatch(cmd); err != nil || !ran {
		t.Fatalf("Dispatch at default threshold = (%v, %v), want it to run", ran, err)
	}

	err := c.UpdatePreferences(context.Background(), func(p *domain.Preferences) {
		p.ConfidenceThreshold = 0.9
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if ran, _ := c.Dispatcher().Dispatch(cmd); ran {
		t.Error("dispatch ran below the raised threshold")
	}

	err = c.UpdatePreferences(context.Background(), func(p *domain.Preferences) {
		p.ConfidenceThreshold = 7
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if got := c.Preferences().ConfidenceThreshold; got != 1 {
		t.Errorf("threshold = %v, want clamp to 1", got)
	}
}

func TestPreferencesLoadedFromStore(t *testing.T) {
	store := &mockPrefStore{hasLoad: true, prefs: domain.Preferences{
		Measurement:         domain.Imperial,
		VoiceRate:           1.2,
		VoicePitch:          1.0,
		VoiceLang:           "en-GB",
		AutoStartTimers:     false,
		ConfidenceThreshold: 0.8,
	}}
	c, _ := setupController(t, WithPreferenceStore(store))
	startSalmon(t, c, StartConfig{})

	if got := c.Preferences().Measurement; got != domain.Imperial {
		t.Errorf("Measurement = %v, want stored Imperial", got)
	}
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if got := len(c.Timers()); got != 0 {
		t.Errorf("auto timer started despite stored AutoStartTimers=false, %d timers", got)
	}

	err := c.UpdatePreferences(context.Background(), func(p *domain.Preferences) {
		p.AutoStartTimers = true
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if store.savedCount() != 1 {
		t.Errorf("store saw %d saves, want 1", store.savedCount())
	}
}

func TestUpdatePreferencesSaveFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := &mockPrefStore{saveErr: boom}
	c, _ := setupController(t, WithPreferenceStore(store))

	err := c.UpdatePreferences(context.Background(), func(p *domain.Preferences) {
		p.VoiceRate = 1.5
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdatePreferences = %v, want wrapped save error", err)
	}
	// The in-memory change still applies.
	if got := c.Preferences().VoiceRate; got != 1.5 {
		t.Errorf("VoiceRate = %v, want 1.5 despite save failure", got)
	}
}

func TestDisablingVoiceStopsEngine(t *testing.T) {
	v := newMockVoice()
	c, _ := setupController(t, WithVoice(v))
	startSalmon(t, c, StartConfig{VoiceEnabled: true})

	err := c.UpdatePreferences(context.Background(), func(p *domain.Preferences) {
		p.VoiceEnabled = false
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if v.stopCount() != 1 {
		t.Errorf("engine stops = %d, want 1", v.stopCount())
	}
	if c.Session().VoiceEnabled {
		t.Error("session still claims voice")
	}
}

func TestEndStopsEverything(t *testing.T) {
	v := newMockVoice()
	c, clk := setupController(t, WithVoice(v))
	startSalmon(t, c, StartConfig{VoiceEnabled: true})
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}

	if err := c.End(context.Background()); err != nil {
		t.Fatalf("End: %v", err)
	}
	sess := c.Session()
	if sess.CompletedAt.IsZero() {
		t.Fatal("CompletedAt not set")
	}
	for _, tm := range c.Timers() {
		if tm.State != domain.TimerIdle {
			t.Errorf("timer %q state = %v after End, want idle", tm.Name, tm.State)
		}
		if tm.Remaining != tm.Duration {
			t.Errorf("timer %q remaining = %d, want reset to %d", tm.Name, tm.Remaining, tm.Duration)
		}
	}
	if v.stopCount() == 0 {
		t.Error("voice engine never stopped")
	}
	clk.Advance(time.Hour) // nothing left to fire

	if err := c.End(context.Background()); !errors.Is(err, domain.ErrSessionEnded) {
		t.Errorf("second End = %v, want ErrSessionEnded", err)
	}
	if err := c.RepeatStep(); !errors.Is(err, domain.ErrSessionEnded) {
		t.Errorf("RepeatStep after End = %v, want ErrSessionEnded", err)
	}

	// A finished session no longer blocks a new one.
	startSalmon(t, c, StartConfig{})
	if got := c.Session(); got == nil || !got.CompletedAt.IsZero() {
		t.Error("restart after End did not produce a fresh session")
	}
}

func TestCleanup(t *testing.T) {
	c, clk := setupController(t)
	startSalmon(t, c, StartConfig{})
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	c.AddInsight(domain.Insight{Kind: domain.InsightTip, Text: "tip", AutoDismissAfter: 30})
	c.AddSuggestion(domain.Suggestion{Text: "prep the lemon now", Priority: domain.PriorityNormal})
	c.SetError(domain.ErrorInternal, "something odd", "")

	c.Cleanup()

	if c.Session() != nil {
		t.Error("session survived Cleanup")
	}
	snap := c.Snapshot()
	if snap.Session != nil || len(snap.Timers) != 0 || len(snap.Insights) != 0 || len(snap.Suggestions) != 0 {
		t.Errorf("snapshot not empty after Cleanup: %+v", snap)
	}
	if snap.LastError != nil {
		t.Error("error slot survived Cleanup")
	}
	if got := clk.Pending(); got != 0 {
		t.Errorf("%d scheduler jobs survived Cleanup", got)
	}

	c.Cleanup() // idempotent
	clk.Advance(time.Hour)
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	snap := c.Snapshot()
	snap.Session.RecipeName = "mutated"
	snap.Steps[0].Instruction = "mutated"
	snap.Ingredients[0].Quantity = -1

	fresh := c.Snapshot()
	if fresh.Session.RecipeName == "mutated" {
		t.Error("snapshot shares the session struct")
	}
	if fresh.Steps[0].Instruction == "mutated" {
		t.Error("snapshot shares the step slice")
	}
	if fresh.Ingredients[0].Quantity == -1 {
		t.Error("snapshot shares the ingredient slice")
	}
}

func TestErrorSlot(t *testing.T) {
	c, clk := setupController(t)

	if c.LastError() != nil {
		t.Fatal("fresh controller has an error")
	}
	c.SetError(domain.ErrorConversion, "cannot convert", "cups of lemon")
	first := c.LastError()
	if first == nil || first.Kind != domain.ErrorConversion {
		t.Fatalf("LastError = %+v", first)
	}
	if first.At.IsZero() {
		t.Error("error timestamp not set")
	}

	clk.Advance(time.Second)
	c.SetError(domain.ErrorTimer, "timer glitch", "")
	second := c.LastError()
	if second.Kind != domain.ErrorTimer {
		t.Errorf("error slot kept the older error: %+v", second)
	}

	c.ClearError()
	if c.LastError() != nil {
		t.Error("ClearError left the error in place")
	}
}

func TestSuggestions(t *testing.T) {
	c, _ := setupController(t)
	startSalmon(t, c, StartConfig{})

	id := c.AddSuggestion(domain.Suggestion{
		Text:     "Juice the lemon while the salmon rests",
		Priority: domain.PriorityLow,
	})
	if got := len(c.Suggestions()); got != 1 {
		t.Fatalf("len(suggestions) = %d", got)
	}
	if !c.DismissSuggestion(id) {
		t.Error("DismissSuggestion reported false")
	}
	if c.DismissSuggestion(id) {
		t.Error("second dismiss reported true")
	}
}
