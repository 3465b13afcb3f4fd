package domain

import (
	"context"
	"time"
)

// RecipeSource provides recipes. Implementations can be in-memory
// (hardcoded), file-based, or API-backed.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
	Search(ctx context.Context, query string) ([]RecipeSummary, error)
}

// SpeechOptions tunes synthesized speech output.
type SpeechOptions struct {
	Rate  float64 // 1.0 = normal speed
	Pitch float64 // 1.0 = normal pitch
	Lang  string  // BCP 47 tag, e.g. "en-US"
}

// VoiceEngine is the contract for speech recognition and synthesis.
// The core never implements recognition itself; it consumes recognized
// commands from the Commands channel and requests speech via Speak.
// Implementations must close the Commands channel when stopped.
type VoiceEngine interface {
	// Initialize prepares the engine (model loading, device checks).
	Initialize(ctx context.Context) error
	// RequestPermission asks for microphone access where that applies.
	RequestPermission(ctx context.Context) error
	// Start begins emitting commands on the Commands channel.
	Start(ctx context.Context) error
	// Stop ends recognition and closes the Commands channel. Safe to
	// call more than once.
	Stop()
	// Speak synthesizes the given text.
	Speak(ctx context.Context, text string, opts SpeechOptions) error
	// Commands yields recognized commands with their transcripts.
	Commands() <-chan VoiceCommand
}

// Alerter signals a completed timer to the user: an audible tone where
// available, falling back to a notification.
type Alerter interface {
	TimerDone(ctx context.Context, t Timer) error
}

// Notifier delivers messages to the user. Implementations can write to
// stdout, push notifications, or use text-to-speech.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// PreferenceStore persists user preferences. The session only needs
// load/save; storage belongs to the surrounding application.
type PreferenceStore interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// Scheduler abstracts time so time-driven behavior (timer ticks,
// insight auto-dismiss) can be simulated in tests. AfterFunc runs f
// once after d on its own goroutine and returns a cancel function;
// cancelling after f has started is a no-op.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (cancel func())
}
