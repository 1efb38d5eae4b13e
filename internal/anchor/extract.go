// Package anchor extracts grounding phrases from post text and matches reply
// text against them.
package anchor

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxAnchors is the most anchors a single post yields.
	MaxAnchors = 3
	// MaxWords caps the length of an anchor taken from a segment.
	MaxWords = 10
	// FallbackWords is the length of the whole-text fallback anchor.
	FallbackWords = 8
	// minChars drops fragments too short to be meaningful.
	minChars = 4
)

var (
	lineSplit     = regexp.MustCompile(`\n+`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
)

// Extract returns between one and three anchors for non-blank text, in the
// order they appear. Blank text yields nil.
func Extract(text string) []string {
	segments := usable(lineSplit.Split(text, -1))
	if len(segments) == 0 {
		segments = usable(sentenceSplit.Split(text, -1))
	}

	anchors := make([]string, 0, MaxAnchors)
	seen := make(map[string]struct{}, MaxAnchors)

	for _, seg := range segments {
		candidate := candidateFrom(seg)
		if len([]rune(candidate)) < minChars {
			continue
		}
		key := Normalize(candidate)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		anchors = append(anchors, candidate)
		if len(anchors) == MaxAnchors {
			break
		}
	}

	if len(anchors) > 0 {
		return anchors
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) > FallbackWords {
		words = words[:FallbackWords]
	}
	return []string{strings.Join(words, " ")}
}

// usable keeps the segments that still contain something after trimming.
func usable(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// candidateFrom collapses whitespace, keeps the first MaxWords words and
// strips trailing punctuation.
func candidateFrom(segment string) string {
	words := strings.Fields(segment)
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}
	candidate := strings.Join(words, " ")
	candidate = strings.TrimRightFunc(candidate, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return candidate
}
