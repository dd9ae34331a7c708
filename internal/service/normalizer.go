package service

import "strings"

// Scores awarded when matching a suggestion against an option.
const (
	scoreExact     = 100
	scoreSubstring = 10
	scorePrefix    = 5
	scoreLetters   = 5
)

// NormalizeToOption maps free-form text onto the closest member of options.
// The result is always a member of options; an empty candidate yields options[0].
// Ties go to the option declared first.
func NormalizeToOption(candidate string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if candidate == "" {
		return options[0]
	}

	t := strings.ToLower(strings.TrimSpace(candidate))
	tLetters := lettersOnly(t)

	best := options[0]
	bestScore := -1
	for _, opt := range options {
		o := strings.ToLower(opt)
		score := 0
		if o == t {
			score += scoreExact
		}
		if strings.Contains(t, o) || strings.Contains(o, t) {
			score += scoreSubstring
		}
		if strings.HasPrefix(o, t) || strings.HasPrefix(t, o) {
			score += scorePrefix
		}
		if lettersOnly(o) == tLetters {
			score += scoreLetters
		}
		if score > bestScore {
			bestScore = score
			best = opt
		}
	}
	return best
}

// lettersOnly drops everything except a-z from an already lower-cased string.
func lettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
