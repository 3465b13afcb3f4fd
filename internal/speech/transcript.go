package speech

import (
	"regexp"
	"strings"
)

// annotation matches whisper's environmental tags, "(keyboard
// clicking)", "[BLANK_AUDIO]", "(speaking French)" and the like.
var annotation = regexp.MustCompile(`[\(\[][A-Za-z_][A-Za-z_ ]*[\)\]]`)

// timestampPrefix matches whisper's segment prefixes such as
// "[00:00:00.000 --> 00:00:05.000]".
var timestampPrefix = regexp.MustCompile(`^\[[0-9:. >-]+\]\s*`)

// multiSpace collapses whitespace runs left behind by the removals.
var multiSpace = regexp.MustCompile(`\s+`)

// hallucinations are phrases whisper invents from silence. A
// transcript that is nothing but one of these is discarded.
var hallucinations = map[string]struct{}{
	"...":                     {},
	"you":                     {},
	"thank you.":              {},
	"thanks for watching!":    {},
	"thank you for watching.": {},
	"bye.":                    {},
	"bye!":                    {},
	"the end.":                {},
}

// CleanTranscript normalizes raw whisper output to the bare spoken
// words: annotations and timestamps stripped, whitespace collapsed,
// silence hallucinations discarded entirely.
func CleanTranscript(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	s = timestampPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	s = annotation.ReplaceAllString(s, "")
	s = strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))

	if _, junk := hallucinations[strings.ToLower(s)]; junk {
		return ""
	}
	return s
}
