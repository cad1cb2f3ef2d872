package core

import (
	"regexp"
	"strings"
)

// Detector decides whether a message summons the model. It is a pure
// predicate over the body text: the marker matches case-insensitively
// anywhere in the message.
type Detector struct {
	marker *regexp.Regexp
}

// NewDetector builds a detector for the given marker token, e.g. "@ai".
// An empty marker never triggers.
func NewDetector(marker string) Detector {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return Detector{}
	}
	// Case-insensitive matching over the original body. Byte offsets from
	// a lowercased copy must not be used to slice the original: case
	// folding can change rune lengths.
	return Detector{marker: regexp.MustCompile("(?i)" + regexp.QuoteMeta(marker))}
}

// Detect reports whether body addresses the model and, if so, the prompt to
// send. The prompt is the body with every marker occurrence stripped and
// trimmed; when stripping leaves nothing (the message was just the marker),
// the full body is used so the request still carries text.
func (d Detector) Detect(body string) (string, bool) {
	if d.marker == nil || !d.marker.MatchString(body) {
		return "", false
	}
	prompt := strings.TrimSpace(d.marker.ReplaceAllString(body, ""))
	if prompt == "" {
		prompt = strings.TrimSpace(body)
	}
	return prompt, true
}
