package prompt

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxFieldLength caps region and subject values, in runes
const MaxFieldLength = 80

// injectionPatterns catch attempts to smuggle instructions through the
// region or subject fields. Matching values are discarded.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|your)\s+(instructions|rules|training)`),
	regexp.MustCompile(`(?i)(system|assistant)\s*:`),
	regexp.MustCompile(`(?i)\[/?(INST|SYS)\]`),
	regexp.MustCompile(`(?i)<\|?(im_start|im_end|system|endoftext)\|?>`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\b`),
	regexp.MustCompile(`(?i)(reveal|show|print)\s+(your|the)\s+(system\s+)?(prompt|instructions)`),
	regexp.MustCompile("```"),
}

// SanitizeField normalizes a free-text request field before it is placed
// in a prompt. Control characters are dropped, whitespace is collapsed and
// the value is truncated. Values that look like injected instructions come
// back empty so the caller's default applies.
func SanitizeField(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if IsInjectionAttempt(cleaned) {
		return ""
	}

	runes := []rune(cleaned)
	if len(runes) > MaxFieldLength {
		cleaned = strings.TrimSpace(string(runes[:MaxFieldLength]))
	}
	return cleaned
}

// IsInjectionAttempt reports whether a value matches a known injection pattern
func IsInjectionAttempt(value string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}
