package reply

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raws(categories ...string) []RawReply {
	out := make([]RawReply, len(categories))
	for i, c := range categories {
		out[i] = RawReply{Category: c, Text: fmt.Sprintf("%s reply %d", c, i)}
	}
	return out
}

func categoriesOf(replies []Reply) []Category {
	out := make([]Category, len(replies))
	for i, r := range replies {
		out[i] = r.Category
	}
	return out
}

func TestRedistribute_QuotaShape(t *testing.T) {
	in := raws(
		"BOLD", "SAFE", "INTERESTING", "SAFE", "BOLD",
		"INTERESTING", "SAFE", "SAFE", "INTERESTING", "INTERESTING",
		"BOLD", "INTERESTING", "INTERESTING", "SAFE", "BOLD",
		"INTERESTING", "SAFE", "BOLD", "INTERESTING", "SAFE",
	)
	require.Len(t, in, 20)

	got := Redistribute(in, CategoryInteresting)
	require.Len(t, got, 20)

	for i := 0; i < 3; i++ {
		assert.Equal(t, CategorySafe, got[i].Category)
	}
	for i := 3; i < 8; i++ {
		assert.Equal(t, CategoryInteresting, got[i].Category)
	}
	for i := 8; i < 10; i++ {
		assert.Equal(t, CategoryBold, got[i].Category)
	}

	// order within a bucket is preserved
	assert.Equal(t, "SAFE reply 1", got[0].Text)
	assert.Equal(t, "SAFE reply 3", got[1].Text)
	assert.Equal(t, "SAFE reply 6", got[2].Text)

	// remaining 10: leftover SAFE, then INTERESTING, then BOLD
	assert.Equal(t, []Category{
		CategorySafe, CategorySafe, CategorySafe, CategorySafe,
		CategoryInteresting, CategoryInteresting, CategoryInteresting,
		CategoryBold, CategoryBold, CategoryBold,
	}, categoriesOf(got[10:]))
}

func TestRedistribute_BackfillsFromLeftovers(t *testing.T) {
	// no BOLD and only one SAFE; all unlabelled replies fall back to INTERESTING
	in := raws("SAFE", "", "", "", "", "", "", "", "")
	got := Redistribute(in, CategoryInteresting)
	require.Len(t, got, 9)

	// SAFE: its own 1 + 2 leftover INTERESTING; INTERESTING: first 5;
	// BOLD: the last leftover, which keeps its INTERESTING label.
	assert.Equal(t, []Category{
		CategorySafe, CategoryInteresting, CategoryInteresting,
		CategoryInteresting, CategoryInteresting, CategoryInteresting, CategoryInteresting, CategoryInteresting,
		CategoryInteresting,
	}, categoriesOf(got))

	assert.Equal(t, " reply 6", got[1].Text)
	assert.Equal(t, " reply 7", got[2].Text)
	assert.Equal(t, " reply 1", got[3].Text)
	assert.Equal(t, " reply 8", got[8].Text)
}

func TestRedistribute_FallbackCategory(t *testing.T) {
	in := raws("", "nonsense", "bold", "BOLD")
	got := Redistribute(in, CategorySafe)
	require.Len(t, got, 4)

	// only exact upper-case names are known; the rest fall back to SAFE
	assert.Equal(t, []Category{CategorySafe, CategorySafe, CategorySafe, CategoryBold}, categoriesOf(got))

	got = Redistribute(raws("safe"), CategoryBold)
	assert.Equal(t, []Category{CategoryBold}, categoriesOf(got))
}

func TestRedistribute_CapsAtTwenty(t *testing.T) {
	cats := make([]string, 30)
	for i := range cats {
		cats[i] = "INTERESTING"
	}
	got := Redistribute(raws(cats...), CategoryInteresting)
	assert.Len(t, got, MaxReplies)
}

func TestRedistribute_Empty(t *testing.T) {
	assert.Empty(t, Redistribute(nil, CategorySafe))
}

func TestNormalize_Fields(t *testing.T) {
	score := 0.42
	r := Normalize(RawReply{
		Category:    "SAFE",
		Text:        "  padded text  ",
		Tags:        []string{"one"},
		LengthLabel: " long ",
		Score:       &score,
		Anchor:      "padded",
	}, 7, CategoryBold)

	assert.Equal(t, CategorySafe, r.Category)
	assert.Equal(t, "padded text", r.Text)
	assert.Equal(t, []string{"one", "value-add"}, r.Tags)
	assert.Equal(t, LengthLong, r.LengthLabel)
	assert.InDelta(t, 0.42, r.Score, 1e-9)
	assert.Equal(t, "padded", r.Anchor)
}

func TestNormalize_KeepsBackendLengthLabel(t *testing.T) {
	r := Normalize(RawReply{Text: "short and sweet", LengthLabel: "tweet-sized"}, 0, CategorySafe)
	assert.Equal(t, "tweet-sized", r.LengthLabel)

	r = Normalize(RawReply{Text: "short and sweet", LengthLabel: "   "}, 0, CategorySafe)
	assert.Equal(t, LengthShort, r.LengthLabel)
}

func TestNormalize_Derived(t *testing.T) {
	r := Normalize(RawReply{Text: "short and sweet"}, 0, CategoryInteresting)
	assert.Equal(t, []string{"specific", "tone-fit"}, r.Tags)
	assert.Equal(t, LengthShort, r.LengthLabel)
	assert.InDelta(t, 1.0, r.Score, 1e-9)

	r = Normalize(RawReply{Text: "x", Tags: []string{"a", "b", "c", "d"}}, 5, CategoryInteresting)
	assert.Equal(t, []string{"a", "b", "c"}, r.Tags)
	assert.InDelta(t, 0.8, r.Score, 1e-9)

	r = Normalize(RawReply{Text: "x"}, 40, CategoryInteresting)
	assert.InDelta(t, 0.1, r.Score, 1e-9, "score floors at 0.1")
}

func TestLengthLabelFor(t *testing.T) {
	words := func(n int) string {
		s := ""
		for i := 0; i < n; i++ {
			s += "w "
		}
		return s
	}
	assert.Equal(t, LengthShort, LengthLabelFor(words(12)))
	assert.Equal(t, LengthMedium, LengthLabelFor(words(13)))
	assert.Equal(t, LengthMedium, LengthLabelFor(words(35)))
	assert.Equal(t, LengthLong, LengthLabelFor(words(36)))
}
