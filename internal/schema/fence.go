package schema

import (
	"regexp"
	"strings"
)

var (
	openFenceRx  = regexp.MustCompile("(?i)^```(?:json)?[ \t]*\r?\n?")
	closeFenceRx = regexp.MustCompile("\\s*```$")
)

// StripCodeFence removes a markdown code fence wrapped around a payload.
// Text without a fence is returned trimmed and otherwise untouched.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = openFenceRx.ReplaceAllString(s, "")
	s = closeFenceRx.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
