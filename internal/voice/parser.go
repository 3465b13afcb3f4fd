// Package voice turns transcripts into cooking commands and dispatches
// them against a session. The parser works on plain text, so typed
// input and speech recognition share one command path.
package voice

import (
	"regexp"
	"strings"
	"time"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/timer"
)

// ParserOption configures the parser.
type ParserOption func(*Parser)

// WithParserLogger attaches a logger to the parser.
func WithParserLogger(log *logger.Logger) ParserOption {
	return func(p *Parser) {
		p.log = log.Named("voice")
	}
}

// Parser matches transcripts to commands using compiled patterns.
type Parser struct {
	log   *logger.Logger
	rules []patternRule
	now   func() time.Time
}

type patternRule struct {
	regex *regexp.Regexp
	kind  domain.CommandKind
}

// NewParser creates a transcript parser with the built-in phrase set.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		log: logger.New(logger.LevelOff, nil),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.rules = []patternRule{
		{regexp.MustCompile(`(?i)^(next( step)?|done|continue|go on|moving on|advance|what'?s next)$`), domain.CmdNext},
		{regexp.MustCompile(`(?i)^(previous( step)?|go back|back|last step)$`), domain.CmdPrevious},
		{regexp.MustCompile(`(?i)^(repeat( that)?|again|say that again|come again)$`), domain.CmdRepeat},
		{regexp.MustCompile(`(?i)^((read|list)( the)? ingredients|ingredients|what do i need)$`), domain.CmdReadIngredients},
		{regexp.MustCompile(`(?i)^(status|progress|where am i|what step( am i on)?|how am i doing)$`), domain.CmdStatus},
		{regexp.MustCompile(`(?i)^(help|\?|commands|what can i say)$`), domain.CmdHelp},
		{regexp.MustCompile(`(?i)^(stop listening|stop voice|voice off|mute)$`), domain.CmdStopListening},
		// Timer phrases. The name group is optional; "start timer" alone
		// asks the session for the current step's timer.
		{regexp.MustCompile(`(?i)^(?:set|start)(?: (?:a|the))?(?: (?P<name>[\w ]+?))? ?timer(?: for)?(?: (?P<dur>.+))?$`), domain.CmdStartTimer},
		{regexp.MustCompile(`(?i)^timer for (?P<dur>.+)$`), domain.CmdStartTimer},
		{regexp.MustCompile(`(?i)^pause(?: (?:the|my))?(?: (?P<name>[\w ]+?))? ?timer$`), domain.CmdPauseTimer},
		{regexp.MustCompile(`(?i)^(?:resume|unpause)(?: (?:the|my))?(?: (?P<name>[\w ]+?))? ?timer$`), domain.CmdResumeTimer},
		{regexp.MustCompile(`(?i)^(?:stop|cancel)(?: (?:the|my))?(?: (?P<name>[\w ]+?))? ?timer$`), domain.CmdStopTimer},
		// Bare verbs fall back to the timer commands.
		{regexp.MustCompile(`(?i)^pause$`), domain.CmdPauseTimer},
		{regexp.MustCompile(`(?i)^resume$`), domain.CmdResumeTimer},
		{regexp.MustCompile(`(?i)^stop$`), domain.CmdStopTimer},
	}
	return p
}

// Parse converts a transcript into a command. Unmatched text yields
// CmdUnknown with the transcript attached. Confidence defaults to 1;
// speech engines overwrite it with the recognizer's score.
func (p *Parser) Parse(transcript string) domain.VoiceCommand {
	cmd := domain.VoiceCommand{
		Kind:       domain.CmdUnknown,
		Transcript: transcript,
		Confidence: 1,
		Heard:      p.now(),
	}

	// Speech transcripts tend to arrive with trailing punctuation.
	text := strings.TrimSpace(transcript)
	text = strings.TrimRight(text, ".!,")
	text = strings.TrimSpace(text)
	if text == "" {
		return cmd
	}

	for _, rule := range p.rules {
		m := rule.regex.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cmd.Kind = rule.kind
		switch rule.kind {
		case domain.CmdStartTimer:
			cmd.TimerName = group(rule.regex, m, "name")
			cmd.Duration = timer.ParseTimeString(group(rule.regex, m, "dur"))
		case domain.CmdPauseTimer, domain.CmdResumeTimer, domain.CmdStopTimer:
			cmd.TimerName = group(rule.regex, m, "name")
		}
		p.log.Debug("parsed %q as %s", text, cmd.Kind)
		return cmd
	}

	p.log.Debug("no match for %q", text)
	return cmd
}

// group returns the named capture from a match, or "" when the pattern
// has no such group or it did not participate.
func group(re *regexp.Regexp, m []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return strings.TrimSpace(m[idx])
}
