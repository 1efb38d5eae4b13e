package reply

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseFailure means the backend answered but its output could not be
// recovered as the expected structured payload.
type ParseFailure struct {
	Reason string
	Err    error
}

func (e *ParseFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse backend output: %s: %v", e.Reason, e.Err)
	}
	return "parse backend output: " + e.Reason
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

type repliesEnvelope struct {
	Replies []RawReply `json:"replies"`
}

// ParseReplies recovers the replies payload from raw backend output. The
// whole text is tried first; if it is not JSON, the span from the first '{'
// to the last '}' is tried instead. Any failure is a *ParseFailure.
func ParseReplies(content string) ([]RawReply, error) {
	doc, err := locateObject(content)
	if err != nil {
		return nil, err
	}

	var env repliesEnvelope
	if err := json.Unmarshal([]byte(doc), &env); err != nil {
		return nil, &ParseFailure{Reason: "payload does not match schema", Err: err}
	}
	if len(env.Replies) == 0 {
		return nil, &ParseFailure{Reason: "replies array is missing or empty"}
	}
	for i, r := range env.Replies {
		if strings.TrimSpace(r.Text) == "" {
			return nil, &ParseFailure{Reason: fmt.Sprintf("replies[%d].text is empty", i)}
		}
	}
	return env.Replies, nil
}

// ParseRewrite recovers the single rewritten text from raw backend output.
func ParseRewrite(content string) (string, error) {
	doc, err := locateObject(content)
	if err != nil {
		return "", err
	}

	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return "", &ParseFailure{Reason: "payload is not an object"}
	}
	text := parsed.Get("text")
	if text.Type != gjson.String {
		return "", &ParseFailure{Reason: "text is missing or not a string"}
	}
	if strings.TrimSpace(text.Str) == "" {
		return "", &ParseFailure{Reason: "text is empty"}
	}
	return text.Str, nil
}

func locateObject(content string) (string, error) {
	if gjson.Valid(content) {
		return content, nil
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start == -1 || end == -1 || end < start {
		return "", &ParseFailure{Reason: "no JSON object found"}
	}

	slice := content[start : end+1]
	if !gjson.Valid(slice) {
		return "", &ParseFailure{Reason: "embedded JSON object is malformed"}
	}
	return slice, nil
}
