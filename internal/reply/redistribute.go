package reply

import (
	"math"
	"strings"
)

// Ladder quotas and cap.
const (
	SafeQuota        = 3
	InterestingQuota = 5
	BoldQuota        = 2
	MaxReplies       = 20
)

var (
	defaultTags = []string{"specific", "tone-fit"}
	padTag      = "value-add"
)

// Normalize turns an enforced RawReply into a Reply. index is the reply's
// position in the backend output and only feeds the derived score.
func Normalize(r RawReply, index int, fallback Category) Reply {
	text := strings.TrimSpace(r.Text)

	// categories are matched exactly; "safe" is as unknown as "spicy"
	category := Category(r.Category)
	if !category.Valid() {
		category = fallback
	}

	// any non-blank backend label is kept as given
	label := strings.TrimSpace(r.LengthLabel)
	if label == "" {
		label = LengthLabelFor(text)
	}

	score := math.Max(0.1, 1-0.04*float64(index))
	if r.Score != nil {
		score = *r.Score
	}

	return Reply{
		Category:    category,
		Text:        text,
		Tags:        normalizeTags(r.Tags),
		LengthLabel: label,
		Score:       score,
		Anchor:      r.Anchor,
	}
}

func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	switch {
	case len(cleaned) == 0:
		return append([]string(nil), defaultTags...)
	case len(cleaned) == 1:
		return []string{cleaned[0], padTag}
	case len(cleaned) > 3:
		return cleaned[:3]
	default:
		return cleaned
	}
}

// Redistribute normalizes replies and arranges them into the
// SAFE → INTERESTING → BOLD ladder. Each category first takes its own
// replies up to quota; short categories are then backfilled, in the same
// order, from a shared queue of leftovers regardless of their label.
// Nothing is dropped except beyond MaxReplies.
func Redistribute(replies []RawReply, fallback Category) []Reply {
	var safe, interesting, bold []Reply
	for i, r := range replies {
		n := Normalize(r, i, fallback)
		switch n.Category {
		case CategorySafe:
			safe = append(safe, n)
		case CategoryInteresting:
			interesting = append(interesting, n)
		default:
			bold = append(bold, n)
		}
	}

	safe, restSafe := split(safe, SafeQuota)
	interesting, restInteresting := split(interesting, InterestingQuota)
	bold, restBold := split(bold, BoldQuota)

	leftovers := make([]Reply, 0, len(restSafe)+len(restInteresting)+len(restBold))
	leftovers = append(leftovers, restSafe...)
	leftovers = append(leftovers, restInteresting...)
	leftovers = append(leftovers, restBold...)

	safe, leftovers = backfill(safe, SafeQuota, leftovers)
	interesting, leftovers = backfill(interesting, InterestingQuota, leftovers)
	bold, leftovers = backfill(bold, BoldQuota, leftovers)

	out := make([]Reply, 0, len(replies))
	out = append(out, safe...)
	out = append(out, interesting...)
	out = append(out, bold...)
	out = append(out, leftovers...)
	if len(out) > MaxReplies {
		out = out[:MaxReplies]
	}
	return out
}

// split returns the first n items and the rest, without sharing backing arrays.
func split(items []Reply, n int) (head, rest []Reply) {
	if len(items) <= n {
		return append([]Reply(nil), items...), nil
	}
	return append([]Reply(nil), items[:n]...), append([]Reply(nil), items[n:]...)
}

// backfill tops dst up to target from the front of queue and returns the
// remaining queue.
func backfill(dst []Reply, target int, queue []Reply) ([]Reply, []Reply) {
	for len(dst) < target && len(queue) > 0 {
		dst = append(dst, queue[0])
		queue = queue[1:]
	}
	return dst, queue
}
