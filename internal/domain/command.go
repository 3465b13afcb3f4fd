package domain

import "time"

// CommandKind classifies what the user asked for. The set is closed:
// recognizers map anything else to CmdUnknown rather than inventing
// new kinds.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdNext
	CmdPrevious
	CmdRepeat
	CmdStartTimer
	CmdPauseTimer
	CmdResumeTimer
	CmdStopTimer
	CmdStatus
	CmdReadIngredients
	CmdHelp
	CmdStopListening
)

// String returns a human-readable command kind.
func (k CommandKind) String() string {
	switch k {
	case CmdNext:
		return "next"
	case CmdPrevious:
		return "previous"
	case CmdRepeat:
		return "repeat"
	case CmdStartTimer:
		return "start_timer"
	case CmdPauseTimer:
		return "pause_timer"
	case CmdResumeTimer:
		return "resume_timer"
	case CmdStopTimer:
		return "stop_timer"
	case CmdStatus:
		return "status"
	case CmdReadIngredients:
		return "read_ingredients"
	case CmdHelp:
		return "help"
	case CmdStopListening:
		return "stop_listening"
	default:
		return "unknown"
	}
}

// kindNames maps snake_case names to CommandKind values.
var kindNames = map[string]CommandKind{
	"next":             CmdNext,
	"previous":         CmdPrevious,
	"repeat":           CmdRepeat,
	"start_timer":      CmdStartTimer,
	"pause_timer":      CmdPauseTimer,
	"resume_timer":     CmdResumeTimer,
	"stop_timer":       CmdStopTimer,
	"status":           CmdStatus,
	"read_ingredients": CmdReadIngredients,
	"help":             CmdHelp,
	"stop_listening":   CmdStopListening,
	"unknown":          CmdUnknown,
}

// KindFromString converts a snake_case command name to a CommandKind.
// Returns CmdUnknown for unrecognized names.
func KindFromString(name string) CommandKind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	return CmdUnknown
}

// VoiceCommand is one recognized user command, whether it arrived by
// microphone or was typed. Payload fields are only meaningful for the
// kinds that need them: Duration and TimerName for the timer commands.
type VoiceCommand struct {
	Kind       CommandKind
	Transcript string  // raw text the command was recognized from
	Confidence float64 // recognizer confidence in [0, 1]
	Duration   int     // seconds, CmdStartTimer payload
	TimerName  string  // optional timer label for timer commands
	Heard      time.Time
}
