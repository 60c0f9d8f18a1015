package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseFunc turns one user reply into a slot value. A false result means the
// reply could not be understood and the step must be re-prompted. Parsers are
// pure functions of their input text.
type ParseFunc func(text string) (any, bool)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// parseText accepts any non-empty reply.
func parseText(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	return text, true
}

// parseName accepts replies made of letters, spaces, hyphens and apostrophes.
func parseName(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' {
			return nil, false
		}
	}
	return text, true
}

// parseEmail accepts a minimally well-formed email address.
func parseEmail(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if !emailPattern.MatchString(text) {
		return nil, false
	}
	return strings.ToLower(text), true
}

// parsePhone accepts a reply containing at least 7 digits, keeping digits and
// a leading plus sign only.
func parsePhone(text string) (any, bool) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(text) {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '/' {
			continue
		}
		return nil, false
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return nil, false
	}
	return b.String(), true
}

// parseYesNo maps affirmative / negative replies to a boolean.
func parseYesNo(text string) (any, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yeah", "yep", "sure", "ok", "true", "1":
		return true, true
	case "no", "n", "nope", "false", "0":
		return false, true
	default:
		return nil, false
	}
}

// newChoiceParser accepts either a 1-based number into options or a literal
// (case-insensitive) option string.
func newChoiceParser(options []string) ParseFunc {
	return func(text string) (any, bool) {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, false
		}
		if n, err := strconv.Atoi(text); err == nil {
			if n < 1 || n > len(options) {
				return nil, false
			}
			return options[n-1], true
		}
		for _, opt := range options {
			if strings.EqualFold(text, opt) {
				return opt, true
			}
		}
		return nil, false
	}
}

// SchoolYearOptions computes the enrollable school years: the year currently
// in progress plus the next two. A school year runs August through July and
// renders as "2025-26".
func SchoolYearOptions(now time.Time) []string {
	start := now.Year()
	if now.Month() < time.August {
		start--
	}
	options := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		y := start + i
		options = append(options, formatSchoolYear(y))
	}
	return options
}

func formatSchoolYear(start int) string {
	return strconv.Itoa(start) + "-" + twoDigits((start+1)%100)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// builtinParsers returns the named parser table for an engine. The
// school-year choice parser is bound to the engine's clock so the menu and
// the parser always agree on the offered options.
func builtinParsers(schoolYears func() []string) map[string]ParseFunc {
	return map[string]ParseFunc{
		"text":   parseText,
		"name":   parseName,
		"email":  parseEmail,
		"phone":  parsePhone,
		"yes_no": parseYesNo,
		"school_year_choice": func(text string) (any, bool) {
			return newChoiceParser(schoolYears())(text)
		},
	}
}
