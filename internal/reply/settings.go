package reply

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"notcringe/internal/apperr"
)

const (
	MaxPostChars    = 5000
	MaxRewriteChars = 2000

	defaultVibe     = "diplomatic"
	defaultRisk     = "medium"
	defaultLength   = "two-three"
	defaultCTA      = "none"
	defaultPersona  = "builder"
	defaultNoCringe = true
)

var (
	Vibes    = []string{"diplomatic", "direct", "playful", "nerdy", "contrarian"}
	Risks    = []string{"safe", "medium", "bold"}
	Lengths  = []string{"one-liner", "two-three", "paragraph"}
	CTAs     = []string{"none", "question", "invite", "resource"}
	Personas = []string{"builder", "designer", "pm", "founder", "recruiter"}
	Actions  = []string{"shorten", "spice", "safer"}
)

// Settings is the fully defaulted, validated generation input. Field order
// is part of the cache key encoding; do not reorder.
type Settings struct {
	PostText string `json:"postText"`
	Vibe     string `json:"vibe"`
	Risk     string `json:"risk"`
	Length   string `json:"length"`
	CTA      string `json:"cta"`
	Persona  string `json:"persona"`
	NoCringe bool   `json:"noCringe"`
}

// FallbackCategory is the category given to replies the backend left
// unlabelled, derived from the requested risk.
func (s Settings) FallbackCategory() Category {
	switch s.Risk {
	case "safe":
		return CategorySafe
	case "bold":
		return CategoryBold
	default:
		return CategoryInteresting
	}
}

// GenerateRequest is the caller-facing generate payload.
type GenerateRequest struct {
	PostText string `json:"postText"`
	Vibe     string `json:"vibe,omitempty"`
	Risk     string `json:"risk,omitempty"`
	Length   string `json:"length,omitempty"`
	CTA      string `json:"cta,omitempty"`
	Persona  string `json:"persona,omitempty"`
	NoCringe *bool  `json:"noCringe,omitempty"`
	AnonID   string `json:"anonId,omitempty"`
}

// Settings validates the request and fills defaults for omitted fields.
func (r GenerateRequest) Settings() (Settings, error) {
	post := strings.TrimSpace(r.PostText)
	if post == "" {
		return Settings{}, apperr.Validation("Invalid request payload.", fmt.Errorf("postText is required"))
	}
	if utf8.RuneCountInString(post) > MaxPostChars {
		return Settings{}, apperr.Validation("Invalid request payload.",
			fmt.Errorf("postText exceeds %d characters", MaxPostChars))
	}

	s := Settings{
		PostText: post,
		Vibe:     orDefault(r.Vibe, defaultVibe),
		Risk:     orDefault(r.Risk, defaultRisk),
		Length:   orDefault(r.Length, defaultLength),
		CTA:      orDefault(r.CTA, defaultCTA),
		Persona:  orDefault(r.Persona, defaultPersona),
		NoCringe: defaultNoCringe,
	}
	if r.NoCringe != nil {
		s.NoCringe = *r.NoCringe
	}

	if err := s.validateEnums(); err != nil {
		return Settings{}, apperr.Validation("Invalid request payload.", err)
	}
	return s, nil
}

func (s Settings) validateEnums() error {
	checks := []struct {
		field string
		value string
		allow []string
	}{
		{"vibe", s.Vibe, Vibes},
		{"risk", s.Risk, Risks},
		{"length", s.Length, Lengths},
		{"cta", s.CTA, CTAs},
		{"persona", s.Persona, Personas},
	}
	for _, c := range checks {
		if !oneOf(c.value, c.allow) {
			return fmt.Errorf("%s %q is not one of %v", c.field, c.value, c.allow)
		}
	}
	return nil
}

// RewriteRequest is the caller-facing rewrite payload. Style fields are
// optional and only echoed into the prompt when present.
type RewriteRequest struct {
	Text     string   `json:"text"`
	Action   string   `json:"action"`
	Anchors  []string `json:"anchors"`
	Vibe     string   `json:"vibe,omitempty"`
	Risk     string   `json:"risk,omitempty"`
	Length   string   `json:"length,omitempty"`
	CTA      string   `json:"cta,omitempty"`
	Persona  string   `json:"persona,omitempty"`
	NoCringe *bool    `json:"noCringe,omitempty"`
}

func (r RewriteRequest) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(r.Text))
	switch {
	case n == 0:
		return apperr.Validation("Invalid request payload.", fmt.Errorf("text is required"))
	case n > MaxRewriteChars:
		return apperr.Validation("Invalid request payload.", fmt.Errorf("text exceeds %d characters", MaxRewriteChars))
	case !oneOf(r.Action, Actions):
		return apperr.Validation("Invalid request payload.", fmt.Errorf("action %q is not one of %v", r.Action, Actions))
	case len(r.Anchors) == 0:
		return apperr.Validation("Invalid request payload.", fmt.Errorf("at least one anchor is required"))
	}
	for i, a := range r.Anchors {
		if strings.TrimSpace(a) == "" {
			return apperr.Validation("Invalid request payload.", fmt.Errorf("anchors[%d] is blank", i))
		}
	}

	optional := []struct {
		field string
		value string
		allow []string
	}{
		{"vibe", r.Vibe, Vibes},
		{"risk", r.Risk, Risks},
		{"length", r.Length, Lengths},
		{"cta", r.CTA, CTAs},
		{"persona", r.Persona, Personas},
	}
	for _, o := range optional {
		if o.value != "" && !oneOf(o.value, o.allow) {
			return apperr.Validation("Invalid request payload.",
				fmt.Errorf("%s %q is not one of %v", o.field, o.value, o.allow))
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func oneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, v)
}
