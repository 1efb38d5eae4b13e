package reply

import (
	"strings"

	"notcringe/internal/anchor"
)

// Enforce grounds every reply on an anchor. A reply that already quotes an
// anchor keeps its text and records the match; one that doesn't is assigned
// anchors[i%len(anchors)] and gets a sentence citing it appended. The second
// return value counts repaired replies.
func Enforce(replies []RawReply, anchors []string) ([]RawReply, int) {
	out := make([]RawReply, len(replies))
	copy(out, replies)
	if len(anchors) == 0 {
		return out, 0
	}

	repaired := 0
	for i := range out {
		if match, ok := anchor.FindMatch(out[i].Text, anchors); ok {
			out[i].Anchor = match
			continue
		}
		a := anchors[i%len(anchors)]
		out[i].Text = appendCitation(out[i].Text, "That part about "+a+" is the key.")
		out[i].Anchor = a
		repaired++
	}
	return out, repaired
}

// Guard reapplies grounding to a single edited reply. Without a position to
// rotate on, the first anchor is always used.
func Guard(text string, anchors []string) string {
	text = strings.TrimSpace(text)
	if len(anchors) == 0 || anchor.Contains(text, anchors) {
		return text
	}
	return appendCitation(text, "That part about "+anchors[0]+" stands out.")
}

func appendCitation(text, sentence string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return sentence
	}
	// only a trailing period counts; "Nice!" becomes "Nice!."
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text + " " + sentence
}
