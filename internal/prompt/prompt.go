// Package prompt builds the instruction text sent to the generation backend.
// Builders are pure: identical inputs always produce identical prompts, which
// is what makes generation results cacheable by settings.
package prompt

import (
	"fmt"
	"strings"

	"notcringe/internal/reply"
)

// SystemMessage is the fixed system role content for every backend call.
const SystemMessage = "You are a precise JSON generator."

var vibeHints = map[string]string{
	"diplomatic": "Diplomatic: acknowledge the author's point before adding your own.",
	"direct":     "Direct: lead with the point, no warm-up.",
	"playful":    "Playful: light humor is welcome, never at the author's expense.",
	"nerdy":      "Nerdy: bring a precise detail, number, or mechanism.",
	"contrarian": "Contrarian: respectfully push back on one specific claim.",
}

var riskHints = map[string]string{
	"safe":   "Risk: safe. Favor agreement and low-controversy angles.",
	"medium": "Risk: medium. Mix agreement with one fresh angle.",
	"bold":   "Risk: bold. Take a clear stance; disagreement is fine if it stays respectful.",
}

var lengthHints = map[string]string{
	"one-liner": "Length: one-liner. One sentence per reply.",
	"two-three": "Length: two-three. Two or three sentences per reply.",
	"paragraph": "Length: paragraph. A short paragraph per reply.",
}

var ctaHints = map[string]string{
	"none":     "No CTA.",
	"question": "End with a light question when possible.",
	"invite":   "Invite a response without sounding salesy.",
	"resource": "Mention a resource generically (no links) only if it adds value.",
}

var personaHints = map[string]string{
	"builder":   "Persona: builder. Speak from hands-on shipping experience.",
	"designer":  "Persona: designer. Speak from user-experience and craft.",
	"pm":        "Persona: pm. Speak from prioritization and user outcomes.",
	"founder":   "Persona: founder. Speak from company-building trade-offs.",
	"recruiter": "Persona: recruiter. Speak from hiring and career signals.",
}

var actionHints = map[string]string{
	"shorten": "Shorten to one crisp sentence (<= 20 words) while keeping meaning.",
	"spice":   "Make it bolder and more interesting, still respectful and professional.",
	"safer":   "Make it more cautious, diplomatic, and low-risk.",
}

const (
	noCringeOn  = "No cringe mode: avoid exclamation spam, forced hype, and thought-leader cliches."
	noCringeOff = "Allow more playful energy, but stay respectful."
)

// Generate builds the ladder prompt for settings and anchors.
func Generate(s reply.Settings, anchors []string) string {
	lines := []string{
		"You are notCringe, an assistant that writes high-quality replies to social posts.",
		"Output must be a JSON object only.",
		fmt.Sprintf("Generate 10-20 reply options across %s, %s, and %s categories.",
			reply.CategorySafe, reply.CategoryInteresting, reply.CategoryBold),
		"Avoid empty praise. Every reply must quote at least one anchor phrase verbatim.",
		"Keep replies professional, warm, and concise.",
		noCringeLine(s.NoCringe, noCringeOff),
		personaHints[s.Persona],
		vibeHints[s.Vibe],
		riskHints[s.Risk],
		lengthHints[s.Length],
		ctaHints[s.CTA],
		`Return JSON in this shape: { "replies": [{ "category": "SAFE|INTERESTING|BOLD", "text": "...", "tags": ["..."], "lengthLabel": "short|medium|long", "score": 0.0 }] }`,
		"Tags should be 2-3 short reasons like: specific, framework, hook, respectful, value-add.",
		"Anchors (quote at least one verbatim in every reply):",
	}
	for _, a := range anchors {
		lines = append(lines, "- "+a)
	}
	lines = append(lines, "Post text:", s.PostText)
	return strings.Join(lines, "\n")
}

// Rewrite builds the single-reply edit prompt. Optional style fields are only
// included when set on the request.
func Rewrite(req reply.RewriteRequest) string {
	noCringe := true
	if req.NoCringe != nil {
		noCringe = *req.NoCringe
	}

	lines := []string{
		"You are notCringe, an assistant that rewrites replies for social posts.",
		"Output must be a JSON object only.",
		actionHints[req.Action],
		noCringeLine(noCringe, "Allow a bit more playful energy, but stay respectful."),
	}
	optional := []struct{ label, value string }{
		{"Persona", req.Persona},
		{"Vibe", req.Vibe},
		{"Risk", req.Risk},
		{"Target length", req.Length},
		{"CTA", req.CTA},
	}
	for _, o := range optional {
		if o.value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s.", o.label, o.value))
		}
	}

	lines = append(lines,
		"Keep at least one anchor phrase verbatim in the rewrite.",
		"Anchors (must appear verbatim):",
	)
	for _, a := range req.Anchors {
		lines = append(lines, "- "+a)
	}
	lines = append(lines,
		"Reply to rewrite:",
		strings.TrimSpace(req.Text),
		`Return JSON in this shape: { "text": "..." }`,
	)
	return strings.Join(lines, "\n")
}

func noCringeLine(on bool, off string) string {
	if on {
		return noCringeOn
	}
	return off
}
