package openai

import (
	"regexp"
	"strings"
)

var doubledQuoteFix = regexp.MustCompile(`""([,}\]])`)

// ExtractJSONObject pulls the first {...} span out of a model response,
// stripping code fences first. Returns the trimmed input when no braces are
// present so callers can attempt a parse anyway.
func ExtractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// RepairJSON fixes the trailing-quote artifact some models emit inside JSON
// strings (e.g. `"text""` before a comma or closing brace).
func RepairJSON(raw string) string {
	return doubledQuoteFix.ReplaceAllString(raw, `"$1`)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
