// Package reply holds the reply-ladder pipeline: backend output parsing,
// anchor enforcement, normalization and category redistribution.
package reply

import "strings"

// Category is a rung of the ladder.
type Category string

const (
	CategorySafe        Category = "SAFE"
	CategoryInteresting Category = "INTERESTING"
	CategoryBold        Category = "BOLD"
)

// Valid reports whether c is one of the three ladder categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySafe, CategoryInteresting, CategoryBold:
		return true
	}
	return false
}

// Length labels.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// RawReply is a backend-proposed reply. Everything except Text is optional
// and untrusted. Anchor is filled in by Enforce.
type RawReply struct {
	Category    string   `json:"category,omitempty"`
	Text        string   `json:"text"`
	Tags        []string `json:"tags,omitempty"`
	LengthLabel string   `json:"lengthLabel,omitempty"`
	Score       *float64 `json:"score,omitempty"`

	Anchor string `json:"-"`
}

// Reply is a normalized, grounded reply returned to callers.
type Reply struct {
	ID          string   `json:"id,omitempty"`
	Category    Category `json:"category"`
	Text        string   `json:"text"`
	Tags        []string `json:"tags"`
	LengthLabel string   `json:"lengthLabel"`
	Score       float64  `json:"score"`
	Anchor      string   `json:"anchor"`
}

// LengthLabelFor buckets text by whitespace-delimited word count.
func LengthLabelFor(text string) string {
	words := len(strings.Fields(text))
	switch {
	case words <= 12:
		return LengthShort
	case words <= 35:
		return LengthMedium
	default:
		return LengthLong
	}
}
