package anchor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleSentence(t *testing.T) {
	got := Extract("Shipping fast removes hidden approval steps.")
	require.Equal(t, []string{"Shipping fast removes hidden approval steps"}, got)
}

func TestExtract_LinesFirstFoundFirstKept(t *testing.T) {
	text := "We cut our deploy time in half\n\nBy deleting two review gates\nNobody noticed the difference\nFourth line is ignored"
	got := Extract(text)
	require.Equal(t, []string{
		"We cut our deploy time in half",
		"By deleting two review gates",
		"Nobody noticed the difference",
	}, got)
}

func TestExtract_TruncatesToTenWords(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve"
	got := Extract(text)
	require.Len(t, got, 1)
	assert.Equal(t, "one two three four five six seven eight nine ten", got[0])
}

func TestExtract_CollapsesWhitespaceAndStripsPunctuation(t *testing.T) {
	got := Extract("  Hiring   is   a\tsales job!!!  ")
	require.Equal(t, []string{"Hiring is a sales job"}, got)
}

func TestExtract_SkipsShortAndDuplicateLines(t *testing.T) {
	text := "ok\nBuild in public\nbuild in PUBLIC!\nShip weekly"
	got := Extract(text)
	require.Equal(t, []string{"Build in public", "Ship weekly"}, got)
}

func TestExtract_FallbackToFirstEightWords(t *testing.T) {
	// every line is shorter than four characters once trimmed
	text := "a b\nc d\ne f"
	got := Extract(text)
	require.Equal(t, []string{"a b c d e f"}, got)
}

func TestExtract_BlankInput(t *testing.T) {
	assert.Nil(t, Extract(""))
	assert.Nil(t, Extract("  \n\t "))
}

func TestExtract_Bounds(t *testing.T) {
	inputs := []string{
		"x",
		"!!!",
		"Short.",
		"Line one is here\nLine two is here\nLine three is here\nLine four is here\nLine five",
		strings.Repeat("word ", 200),
		"Ünïcödé lines work too\nСлова тоже работают",
	}

	for _, in := range inputs {
		got := Extract(in)
		require.NotEmpty(t, got, "input %q", in)
		require.LessOrEqual(t, len(got), MaxAnchors, "input %q", in)
		for _, a := range got {
			assert.NotEmpty(t, a)
			assert.LessOrEqual(t, len(strings.Fields(a)), MaxWords)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "shipping fast removes hidden approval steps", Normalize("  Shipping fast -- removes hidden, approval steps!"))
	assert.Equal(t, "", Normalize("...!!"))
	assert.Equal(t, "v1 2 is out", Normalize("v1.2 is OUT"))
}

func TestFindMatch(t *testing.T) {
	anchors := []string{"hidden approval steps", "Shipping fast"}

	got, ok := FindMatch("Honestly, SHIPPING-fast is underrated.", anchors)
	require.True(t, ok)
	assert.Equal(t, "Shipping fast", got)

	got, ok = FindMatch("Those hidden approval steps add up", anchors)
	require.True(t, ok)
	assert.Equal(t, "hidden approval steps", got)

	_, ok = FindMatch("Nothing relevant here", anchors)
	assert.False(t, ok)

	_, ok = FindMatch("anything", []string{"!!!"})
	assert.False(t, ok, "empty normalized anchors never match")
}
