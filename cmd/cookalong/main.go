// Cookalong — a hands-free cooking companion.
//
// Usage:
//
//	cookalong [-list] [-recipe ID] [-servings N] [-mode cooking|prep|review] [-voice]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/platewise/cookalong/internal/alert"
	"github.com/platewise/cookalong/internal/config"
	"github.com/platewise/cookalong/internal/display"
	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/measure"
	"github.com/platewise/cookalong/internal/prefs"
	"github.com/platewise/cookalong/internal/recipe"
	"github.com/platewise/cookalong/internal/session"
	"github.com/platewise/cookalong/internal/speech"
	"github.com/platewise/cookalong/internal/timer"
	"github.com/platewise/cookalong/internal/voice"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (default from COOKALONG_LOG_FILE; use \"stderr\" for console)")
	list := flag.Bool("list", false, "print the recipe catalog and exit")
	recipeID := flag.String("recipe", "", "start cooking this recipe immediately")
	servings := flag.Int("servings", 0, "scale the recipe to this many servings (0 keeps the recipe default)")
	mode := flag.String("mode", "cooking", "session mode: cooking, prep, or review")
	units := flag.String("units", "", "preferred units: metric or imperial (persisted)")
	voiceIn := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if speech keys are set")
	noChime := flag.Bool("no-chime", false, "disable the timer chime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Configure logger. Flags override the environment.
	logLevel := cfg.Level()
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	logPath := cfg.LogFile
	if *logFile != "" {
		logPath = *logFile
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if logPath != "" && logPath != "stderr" {
		dir := filepath.Dir(logPath)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", logPath, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recipes := recipe.NewMemorySource(log)

	if *list {
		printCatalog(ctx, recipes)
		return
	}

	// Preference persistence. A broken database is not fatal; settings
	// just stop surviving restarts.
	var store domain.PreferenceStore
	if dir := filepath.Dir(cfg.PrefsDB); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	sqlStore, err := prefs.NewSQLiteStore(cfg.PrefsDB, log)
	if err != nil {
		log.Warn("preferences database unavailable, settings will not persist: %v", err)
		store = prefs.NewMemoryStore(log)
	} else {
		defer sqlStore.Close()
		store = sqlStore
	}

	// Voice input (local Whisper STT), with TTS layered on when the
	// speech service is configured.
	ttsOn := false
	var engine domain.VoiceEngine
	if *voiceIn {
		micOpts := []speech.MicOption{
			speech.WithChunkDuration(time.Duration(cfg.RecordSecs) * time.Second),
		}
		if cfg.SpeechConfigured() && !*noSpeech {
			synth := speech.NewSynth(cfg.SpeechKey, cfg.SpeechRegion, log)
			micOpts = append(micOpts, speech.WithSynth(synth))
			if cfg.DiskCache {
				micOpts = append(micOpts, speech.WithSpeechCacheDir(cfg.SpeechCache))
			}
			ttsOn = true
			log.Info("TTS enabled (voice=%s, region=%s)", speech.DefaultVoice, cfg.SpeechRegion)
		} else if !*noSpeech {
			log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvSpeechKey, speech.EnvSpeechRegion)
		}
		engine = speech.NewMic(cfg.WhisperBin, cfg.WhisperModel, log, micOpts...)
	}

	// The UI is built after the controller (it renders controller
	// snapshots), so the alert notifier forwards through this
	// indirection.
	var ui *display.UI
	notifier := alert.NewTermNotifier(log, func(format string, a ...interface{}) {
		if ui != nil {
			ui.Printf(format, a...)
		} else {
			fmt.Printf(format+"\n", a...)
		}
	})

	// Timer alerts: chime first, urgent notification as fallback. The
	// audio device supports one context per process, and voice TTS
	// claims it, so the chime only loads when TTS is off.
	cascadeOpts := []alert.Option{
		alert.WithNotifier(notifier),
		alert.WithPermission(true),
		alert.WithLogger(log),
	}
	if cfg.Chime && !*noChime && !ttsOn {
		if chime, err := alert.NewChime(log); err != nil {
			log.Warn("audio chime unavailable: %v", err)
		} else {
			cascadeOpts = append(cascadeOpts, alert.WithRinger(chime))
		}
	}

	timers := timer.NewEngine(
		timer.WithLogger(log),
		timer.WithAlerter(alert.NewCascade(cascadeOpts...)),
	)

	converter := measure.New(measure.WithLogger(log))

	ctrlOpts := []session.Option{
		session.WithTimerEngine(timers),
		session.WithConverter(converter),
		session.WithPreferenceStore(store),
		session.WithLogger(log),
	}
	if engine != nil {
		ctrlOpts = append(ctrlOpts, session.WithVoice(engine))
	}
	ctrl := session.NewController(recipes, ctrlOpts...)

	if *units != "" {
		system := domain.SystemFromString(*units)
		if err := ctrl.UpdatePreferences(ctx, func(p *domain.Preferences) {
			p.Measurement = system
		}); err != nil {
			log.Warn("saving units preference: %v", err)
		}
	}

	ui = display.NewUI(ctrl)

	app := &cliApp{
		ctrl:      ctrl,
		recipes:   recipes,
		converter: converter,
		parser:    voice.NewParser(voice.WithParserLogger(log)),
		log:       log,
		ui:        ui,
		selected:  *recipeID,
		servings:  *servings,
		mode:      domain.ModeFromString(*mode),
		voiceOn:   *voiceIn,
		startNow:  *recipeID != "",
	}

	fmt.Println(display.RenderBanner())
	if engine != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON -- speak or type: next, repeat, start a timer, status..."))
		fmt.Println(display.BannerStyle.Render("  Type 'quit' to exit."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Type 'list' to see recipes, 'help' for commands, 'quit' to exit."))
	}
	fmt.Println()

	// Session events render above the prompt as they happen.
	go func() {
		ui.WaitReady()
		app.renderEvents(ctx)
	}()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	ctrl.Cleanup()
}

// printCatalog lists recipes on plain stdout, for -list.
func printCatalog(ctx context.Context, recipes domain.RecipeSource) {
	sums, err := recipes.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, s := range sums {
		fmt.Printf("%-22s %s (%d min)\n", s.ID, s.Name, s.TotalMinutes)
	}
}

type cliApp struct {
	ctrl      *session.Controller
	recipes   domain.RecipeSource
	converter *measure.Converter
	parser    *voice.Parser
	log       *logger.Logger
	ui        *display.UI

	selected string // recipe chosen before typing 'start'
	servings int
	mode     domain.SessionMode
	voiceOn  bool
	startNow bool // -recipe flag skips the pick step
}

// renderEvents prints the session's event feed above the prompt. Lines
// that duplicate an announcement (timer done, session ended) stay
// silent here; the announcement carries the text.
func (a *cliApp) renderEvents(ctx context.Context) {
	events := a.ctrl.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Kind {
			case session.EventAnnounce:
				a.ui.PrintChat(ev.Text)
			case session.EventSessionStarted, session.EventStepChanged:
				a.ui.PrintStep(ev.Text)
			case session.EventSessionPaused, session.EventSessionResumed,
				session.EventTimerStarted, session.EventInsightAdded,
				session.EventSuggestionAdded:
				a.ui.PrintHint(ev.Text)
			case session.EventErrorSet:
				a.ui.PrintUrgent(ev.Text)
			}
		}
	}
}

func (a *cliApp) run(ctx context.Context) {
	a.showRecipes(ctx)

	if a.startNow {
		a.startCooking(ctx)
	}

	uiCh := a.ui.InputChan()
	for {
		select {
		case <-ctx.Done():
			return
		case input, ok := <-uiCh:
			if !ok {
				return
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			if quit := a.handleLine(ctx, input); quit {
				return
			}
		}
	}
}

var convertRe = regexp.MustCompile(`(?i)^convert\s+([0-9][\w./]*)\s+(\w+)\s+(?:of\s+)?(.*?)\s*to\s+(\w+)\s*$`)

// handleLine interprets one typed line. App-level verbs are matched
// here; everything else goes through the same parser and dispatcher
// the voice path uses. Returns true when the app should exit.
func (a *cliApp) handleLine(ctx context.Context, input string) bool {
	lower := strings.ToLower(input)
	fields := strings.Fields(lower)

	switch fields[0] {
	case "quit", "exit":
		a.quit(ctx)
		return true

	case "help", "?":
		a.showHelp()
		return false

	case "list", "recipes":
		a.showRecipes(ctx)
		return false

	case "find", "search":
		a.searchRecipes(ctx, strings.TrimSpace(strings.TrimPrefix(lower, fields[0])))
		return false

	case "servings":
		if len(fields) == 2 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				a.servings = n
				a.ui.PrintHint(fmt.Sprintf("Will cook for %d servings.", n))
				return false
			}
		}
		a.ui.PrintHint("Usage: servings <number>")
		return false

	case "mode":
		if len(fields) == 2 {
			a.mode = domain.ModeFromString(fields[1])
			a.ui.PrintHint(fmt.Sprintf("Session mode: %s.", a.mode))
		} else {
			a.ui.PrintHint("Usage: mode cooking|prep|review")
		}
		return false

	case "units":
		if len(fields) == 2 && (fields[1] == "metric" || fields[1] == "imperial") {
			a.setUnits(ctx, fields[1])
		} else {
			a.ui.PrintHint("Usage: units metric|imperial")
		}
		return false

	case "threshold":
		if len(fields) == 2 {
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				a.setThreshold(ctx, v)
				return false
			}
		}
		a.ui.PrintHint("Usage: threshold <0..1>")
		return false

	case "convert":
		a.convert(lower)
		return false

	case "start", "cook", "begin":
		a.startCooking(ctx)
		return false

	case "end", "finish":
		a.endCooking(ctx)
		return false
	}

	// Session pause/resume are app phrases, not timer commands.
	switch lower {
	case "pause session", "break", "brb":
		a.reportCommandError(a.ctrl.PauseSession())
		return false
	case "resume session", "continue session":
		a.reportCommandError(a.ctrl.ResumeSession())
		return false
	}

	// A bare number selects a recipe from the last listing.
	if n, err := strconv.Atoi(lower); err == nil {
		a.selectRecipe(ctx, n)
		return false
	}

	// Everything else is a session command, same path as speech.
	if a.ctrl.Session() == nil {
		a.ui.PrintHint("No active session. Pick a recipe by number, then type 'start'.")
		return false
	}
	cmd := a.parser.Parse(input)
	if cmd.Kind == domain.CmdUnknown {
		a.ui.PrintHint("Didn't catch that. Type 'help' for what I understand.")
		return false
	}
	ran, err := a.ctrl.Dispatcher().Dispatch(cmd)
	if err != nil {
		a.reportCommandError(err)
	} else if !ran {
		a.ui.PrintHint("Didn't catch that. Type 'help' for what I understand.")
	}
	return false
}

// reportCommandError turns session errors into gentle hints. Flow
// errors (last step, paused) have either been announced already or
// just need a nudge; anything else prints loud.
func (a *cliApp) reportCommandError(err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNoMoreSteps), errors.Is(err, domain.ErrSessionEnded):
		// The completion announcement covers these.
	case errors.Is(err, domain.ErrNoEarlierSteps):
		a.ui.PrintHint("Already on the first step.")
	case errors.Is(err, domain.ErrSessionPaused):
		a.ui.PrintHint("The session is paused -- type 'resume session' first.")
	case errors.Is(err, domain.ErrNoSession):
		a.ui.PrintHint("No active session. Pick a recipe by number, then type 'start'.")
	case errors.Is(err, domain.ErrBadDuration):
		a.ui.PrintHint("That step has no time estimate. Give a duration, like 'start a timer for 5 minutes'.")
	case errors.Is(err, domain.ErrNotFound):
		a.ui.PrintHint(err.Error())
	default:
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
	}
}

func (a *cliApp) showRecipes(ctx context.Context) {
	sums, err := a.recipes.List(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error loading recipes: %v", err))
		return
	}

	a.ui.PrintStep("Available recipes:")
	a.ui.Println("")
	for i, s := range sums {
		a.ui.PrintInstruction(fmt.Sprintf("[%d] %s (%d min)", i+1, s.Name, s.TotalMinutes))
		a.ui.PrintHint(s.Description)
		if len(s.Tags) > 0 {
			a.ui.PrintHint("Tags: " + strings.Join(s.Tags, ", "))
		}
		a.ui.Println("")
	}
	a.ui.PrintChat("Pick a recipe by number, or type 'help' for commands.")
}

func (a *cliApp) searchRecipes(ctx context.Context, query string) {
	if query == "" {
		a.ui.PrintHint("Usage: find <name, ingredient, or tag>")
		return
	}
	sums, err := a.recipes.Search(ctx, query)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	if len(sums) == 0 {
		a.ui.PrintHint(fmt.Sprintf("Nothing matches %q.", query))
		return
	}
	a.ui.PrintStep(fmt.Sprintf("Matches for %q:", query))
	for _, s := range sums {
		a.ui.PrintInstruction(fmt.Sprintf("  %s -- %s", s.ID, s.Name))
	}
	a.ui.PrintHint("Select with 'list' and a number, or -recipe <id> next time.")
}

func (a *cliApp) selectRecipe(ctx context.Context, n int) {
	sums, err := a.recipes.List(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	if n < 1 || n > len(sums) {
		a.ui.PrintHint(fmt.Sprintf("No recipe number %d. Type 'list' to see them.", n))
		return
	}

	rec, err := a.recipes.Get(ctx, sums[n-1].ID)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.selected = rec.ID
	a.showRecipeDetail(rec)
	a.ui.PrintChat("Type 'start' when you're ready, or 'servings N' to scale first.")
}

func (a *cliApp) showRecipeDetail(r *domain.Recipe) {
	a.ui.PrintStep(fmt.Sprintf("=== %s ===", r.Name))
	a.ui.PrintInstruction(r.Description)
	a.ui.PrintHint(fmt.Sprintf("Serves %d, about %d minutes", r.Servings, r.TotalMinutes))

	a.ui.Println("")
	a.ui.PrintStep("Ingredients:")
	for _, ing := range r.Ingredients {
		a.ui.PrintInstruction("  - " + measure.FormatAmount(ing.Quantity, ing.Unit) + " " + ing.Name)
	}
	a.ui.PrintHint(fmt.Sprintf("Steps: %d", len(r.Instructions)))
}

func (a *cliApp) startCooking(ctx context.Context) {
	if a.selected == "" {
		a.ui.PrintHint("Pick a recipe first -- type 'list' and choose a number.")
		return
	}

	_, err := a.ctrl.Start(ctx, session.StartConfig{
		RecipeID:     a.selected,
		Mode:         a.mode,
		Servings:     a.servings,
		VoiceEnabled: a.voiceOn,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionActive) {
			a.ui.PrintHint("Already cooking -- type 'end' to finish first.")
			return
		}
		a.ui.PrintUrgent(fmt.Sprintf("Error starting session: %v", err))
	}
	// The event feed renders the session intro and first step.
}

func (a *cliApp) endCooking(ctx context.Context) {
	a.reportCommandError(a.ctrl.End(ctx))
}

func (a *cliApp) setUnits(ctx context.Context, name string) {
	system := domain.SystemFromString(name)
	if err := a.ctrl.UpdatePreferences(ctx, func(p *domain.Preferences) {
		p.Measurement = system
	}); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error saving preference: %v", err))
		return
	}
	a.ui.PrintHint(fmt.Sprintf("Showing %s units from now on.", system))
}

func (a *cliApp) setThreshold(ctx context.Context, v float64) {
	if err := a.ctrl.UpdatePreferences(ctx, func(p *domain.Preferences) {
		p.ConfidenceThreshold = v
	}); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error saving preference: %v", err))
		return
	}
	a.ui.PrintHint(fmt.Sprintf("Voice confidence threshold is now %.2f.", a.ctrl.Preferences().ConfidenceThreshold))
}

// convert answers unit questions like "convert 2 cups of flour to
// grams" or "convert 350 fahrenheit to celsius".
func (a *cliApp) convert(input string) {
	m := convertRe.FindStringSubmatch(input)
	if m == nil {
		a.ui.PrintHint("Usage: convert <amount> <unit> [of <ingredient>] to <unit>")
		return
	}

	amount, err := parseAmount(m[1])
	if err != nil {
		a.ui.PrintHint(fmt.Sprintf("Can't read %q as an amount.", m[1]))
		return
	}
	from, ingredient, to := m[2], strings.TrimSpace(m[3]), m[4]

	if measure.IsTemperatureUnit(from) {
		result, err := a.converter.ConvertTemperature(amount, from, to)
		if err != nil {
			a.ui.PrintHint(fmt.Sprintf("Can't convert that: %v", err))
			return
		}
		a.ui.PrintChat(fmt.Sprintf("%s is %s.",
			measure.FormatAmount(amount, from), measure.FormatAmount(result, to)))
		return
	}

	conv, err := a.converter.Convert(amount, from, to, ingredient)
	if err != nil {
		a.ui.PrintHint(fmt.Sprintf("Can't convert that: %v", err))
		return
	}
	line := fmt.Sprintf("%s is %s.",
		measure.FormatAmount(conv.Amount, conv.FromUnit), measure.FormatAmount(conv.Result, conv.ToUnit))
	if ingredient != "" && conv.Density > 0 {
		line += fmt.Sprintf(" (density of %s: %.2f g/ml)", ingredient, conv.Density)
	}
	a.ui.PrintChat(line)
}

// parseAmount reads "2", "1.5", or "1/2".
func parseAmount(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, fmt.Errorf("bad fraction %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (a *cliApp) quit(ctx context.Context) {
	if a.ctrl.Session() != nil {
		if err := a.ctrl.End(ctx); err != nil && !errors.Is(err, domain.ErrSessionEnded) {
			a.log.Error("ending session: %v", err)
		}
	}
	// Brief pause so the goodbye announcement lands before teardown.
	time.Sleep(300 * time.Millisecond)
	a.ui.Quit()
}

func (a *cliApp) showHelp() {
	a.ui.PrintStep("Getting started:")
	a.ui.PrintInstruction("  list / recipes      Show available recipes")
	a.ui.PrintInstruction("  find <text>         Search by name, ingredient, or tag")
	a.ui.PrintInstruction("  1, 2, 3...          Select a recipe by number")
	a.ui.PrintInstruction("  servings N          Scale the recipe before starting")
	a.ui.PrintInstruction("  mode cooking|prep|review")
	a.ui.PrintInstruction("  start / cook        Start the selected recipe")
	a.ui.Println("")
	a.ui.PrintStep("While cooking (type or say):")
	a.ui.PrintInstruction("  next / done         Move to the next step")
	a.ui.PrintInstruction("  previous / back     Return to the last step")
	a.ui.PrintInstruction("  repeat / again      Hear the current step again")
	a.ui.PrintInstruction("  ingredients         Read the (scaled) ingredient list")
	a.ui.PrintInstruction("  status              Where am I, what's running")
	a.ui.PrintInstruction("  start a timer for 5 minutes")
	a.ui.PrintInstruction("  pause / resume / stop the <name> timer")
	a.ui.PrintInstruction("  stop listening      Turn voice control off")
	a.ui.Println("")
	a.ui.PrintStep("Housekeeping:")
	a.ui.PrintInstruction("  pause session / resume session")
	a.ui.PrintInstruction("  convert 2 cups of flour to grams")
	a.ui.PrintInstruction("  units metric|imperial")
	a.ui.PrintInstruction("  threshold 0.7       Voice confidence cutoff")
	a.ui.PrintInstruction("  end                 Finish the session")
	a.ui.PrintInstruction("  quit / exit         Leave")
}
