package gen

import "strings"

// extractJSONObject pulls the JSON object out of a model response that may
// be wrapped in markdown fences or surrounded by prose. Falls back to "{}"
// so callers decode into an empty envelope instead of erroring on garbage.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return "{}"
}
