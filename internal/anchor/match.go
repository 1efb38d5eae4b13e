package anchor

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and collapses every run of non-alphanumeric runes
// into a single space, trimming the ends. Two strings match for grounding
// purposes when one's normalized form contains the other's.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// FindMatch returns the first anchor whose normalized form occurs in text's
// normalized form. Anchors that normalize to the empty string never match.
func FindMatch(text string, anchors []string) (string, bool) {
	normalizedText := Normalize(text)
	for _, a := range anchors {
		na := Normalize(a)
		if na != "" && strings.Contains(normalizedText, na) {
			return a, true
		}
	}
	return "", false
}

// Contains reports whether text is grounded on at least one anchor.
func Contains(text string, anchors []string) bool {
	_, ok := FindMatch(text, anchors)
	return ok
}
