package generator

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")

// PostProcess trims model output and unwraps a code fence around the whole answer.
func PostProcess(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); len(m) == 2 {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return fallbackContent
	}
	return text
}

// extractJSONObject cuts the outermost {...} out of a chatty answer.
func extractJSONObject(raw string) string {
	text := PostProcess(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

// Digest returns a whitespace-compacted prefix of at most limit runes, for logs.
func Digest(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
