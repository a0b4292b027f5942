package guardrail

import "regexp"

// SafetyMessage is returned verbatim whenever a forbidden phrase is matched.
const SafetyMessage = "We only teach official ways to get Robux. Learn more at help.roblox.com."

const replacement = "[removed]"

// Patterns are precise to avoid hitting brand strings like "RobuxMinerPro".
var forbidden = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfree\s+robux\b`),
	regexp.MustCompile(`(?i)\brobux[\W_]*generator\b`),
	regexp.MustCompile(`(?i)\brobux[\W_]*min(e|ing)\b`),
	regexp.MustCompile(`(?i)\boff(?:[-\s])?platform\b.*\b(trade|payout|cash|casino|gambl\w*)\b`),
}

// Match reports whether text contains a forbidden phrase, returning the
// pattern that hit so callers can log it.
func Match(text string) (string, bool) {
	for _, rx := range forbidden {
		if rx.MatchString(text) {
			return rx.String(), true
		}
	}
	return "", false
}

// Sanitize rewrites every forbidden phrase in text with a fixed marker.
// Used for scrubbing outbound content; inbound requests should use Match
// and short-circuit instead.
func Sanitize(text string) string {
	for _, rx := range forbidden {
		text = rx.ReplaceAllString(text, replacement)
	}
	return text
}
