package timer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// colonPattern matches "MM:SS" and "HH:MM:SS".
	colonPattern = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}))?$`)
	// unitPattern matches "<number> <unit>" phrases anywhere in the text.
	unitPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(hours?|hrs?|h\b|minutes?|mins?|m\b|seconds?|secs?|s\b)`)
	// barePattern matches a lone number, read as minutes.
	barePattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// FormatTimeDisplay renders a second count as a zero-padded clock:
// MM:SS below one hour, HH:MM:SS from one hour up. Negative values
// clamp to zero.
func FormatTimeDisplay(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatTimeForSpeech renders a second count as a spoken phrase:
// non-zero components with correct plurals, joined with "and".
// Zero (and anything negative) comes out as "0 seconds".
func FormatTimeForSpeech(seconds int) string {
	if seconds <= 0 {
		return "0 seconds"
	}

	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60

	var parts []string
	if h > 0 {
		parts = append(parts, pluralize(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, pluralize(m, "minute"))
	}
	if s > 0 {
		parts = append(parts, pluralize(s, "second"))
	}
	return strings.Join(parts, " and ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ParseTimeString extracts a duration in seconds from free text:
// colon notation ("5:30", "1:01:01"), unit phrases ("1 hour 30
// minutes", "90 sec", "2.5 min"), or a bare number read as minutes.
// Anything unparseable yields 0 rather than an error, so callers can
// treat 0 as "no duration found".
func ParseTimeString(text string) int {
	s := strings.TrimSpace(strings.ToLower(text))
	if s == "" {
		return 0
	}

	if m := colonPattern.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			third, _ := strconv.Atoi(m[3])
			return first*3600 + second*60 + third
		}
		return first*60 + second
	}

	if barePattern.MatchString(s) {
		minutes, _ := strconv.ParseFloat(s, 64)
		return int(math.Round(minutes * 60))
	}

	total := 0.0
	for _, m := range unitPattern.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch m[2][0] {
		case 'h':
			total += n * 3600
		case 'm':
			total += n * 60
		case 's':
			total += n
		}
	}
	return int(math.Round(total))
}
