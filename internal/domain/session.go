package domain

import "time"

// CookingSession represents one active guided cooking run. Sessions are
// ephemeral: they live in memory for the duration of the cook and are
// never persisted.
type CookingSession struct {
	ID               string
	RecipeID         string
	RecipeName       string
	Servings         int
	Mode             SessionMode
	VoiceEnabled     bool
	CurrentStepIndex int
	Steps            []CookingStep
	StartedAt        time.Time
	CompletedAt      time.Time // zero until the session ends
	PausedAt         time.Time // zero unless the session is paused
}

// SessionMode selects how much of the guided flow is active.
type SessionMode int

const (
	// ModeCooking runs the full guided flow with timers and voice.
	ModeCooking SessionMode = iota
	// ModePrepOnly walks ingredients and prep steps without timers.
	ModePrepOnly
	// ModeReview steps through instructions read-only.
	ModeReview
)

// String returns a human-readable session mode.
func (m SessionMode) String() string {
	switch m {
	case ModeCooking:
		return "cooking"
	case ModePrepOnly:
		return "prep_only"
	case ModeReview:
		return "review"
	default:
		return "unknown"
	}
}

// ModeFromString parses a session mode name. Unknown names fall back
// to ModeCooking.
func ModeFromString(s string) SessionMode {
	switch s {
	case "prep_only", "prep":
		return ModePrepOnly
	case "review":
		return ModeReview
	default:
		return ModeCooking
	}
}

// CookingStep tracks progress of a single instruction within a session.
type CookingStep struct {
	Index            int // 0-based position
	Number           int // 1-based, what the user sees
	Instruction      string
	EstimatedMinutes int
	Status           StepStatus
	StartedAt        time.Time
	CompletedAt      time.Time
	Notes            string
}

// StepStatus tracks the state of a single step. At most one step in a
// session is StepActive at any time.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepActive
	StepCompleted
	StepSkipped
)

// String returns a human-readable step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepActive:
		return "active"
	case StepCompleted:
		return "completed"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// InsightKind classifies a contextual insight shown during cooking.
type InsightKind int

const (
	InsightTip InsightKind = iota
	InsightWarning
	InsightSubstitution
)

// String returns a human-readable insight kind.
func (k InsightKind) String() string {
	switch k {
	case InsightTip:
		return "tip"
	case InsightWarning:
		return "warning"
	case InsightSubstitution:
		return "substitution"
	default:
		return "unknown"
	}
}

// Insight is a contextual note attached to the session, optionally
// tied to a step. Insights with AutoDismissAfter > 0 remove themselves
// once the interval elapses.
type Insight struct {
	ID               string
	Kind             InsightKind
	Text             string
	StepIndex        int // -1 when not tied to a step
	AutoDismissAfter int // seconds; 0 keeps the insight until dismissed
	CreatedAt        time.Time
}

// SuggestionPriority orders suggestions for display.
type SuggestionPriority int

const (
	PriorityLow SuggestionPriority = iota
	PriorityNormal
	PriorityHigh
)

// String returns a human-readable suggestion priority.
func (p SuggestionPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Suggestion is a dismissible recommendation produced during a session.
type Suggestion struct {
	ID        string
	Text      string
	Priority  SuggestionPriority
	CreatedAt time.Time
}

// ErrorKind classifies the origin of a session error.
type ErrorKind int

const (
	ErrorVoice ErrorKind = iota
	ErrorTimer
	ErrorConversion
	ErrorRecipe
	ErrorInternal
)

// String returns a human-readable error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorVoice:
		return "voice"
	case ErrorTimer:
		return "timer"
	case ErrorConversion:
		return "conversion"
	case ErrorRecipe:
		return "recipe"
	default:
		return "internal"
	}
}

// SessionError is the single current error slot of a session. A new
// error replaces the previous one; collaborator failures land here
// instead of aborting the session.
type SessionError struct {
	Kind    ErrorKind
	Message string
	Details string
	At      time.Time
}

// MeasurementSystem selects the default display units.
type MeasurementSystem int

const (
	Metric MeasurementSystem = iota
	Imperial
)

// String returns a human-readable measurement system.
func (m MeasurementSystem) String() string {
	if m == Imperial {
		return "imperial"
	}
	return "metric"
}

// SystemFromString parses a measurement system name, defaulting to metric.
func SystemFromString(s string) MeasurementSystem {
	if s == "imperial" {
		return Imperial
	}
	return Metric
}

// Preferences holds the per-user settings the session consults.
type Preferences struct {
	Measurement         MeasurementSystem
	VoiceEnabled        bool
	VoiceRate           float64 // speech rate multiplier, 1.0 = normal
	VoicePitch          float64 // speech pitch multiplier, 1.0 = normal
	VoiceLang           string  // BCP 47 tag, e.g. "en-US"
	AutoStartTimers     bool
	ConfidenceThreshold float64 // voice commands below this are ignored
}

// DefaultPreferences returns the settings used when no store is wired.
func DefaultPreferences() Preferences {
	return Preferences{
		Measurement:         Metric,
		VoiceEnabled:        false,
		VoiceRate:           1.0,
		VoicePitch:          1.0,
		VoiceLang:           "en-US",
		AutoStartTimers:     true,
		ConfidenceThreshold: 0.55,
	}
}
