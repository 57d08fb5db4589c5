package scanning

import "strings"

// extractJSON strips markdown fences and surrounding chatter from a model
// response. When the text contains an object, only the outermost object is
// kept; otherwise the trimmed text is returned unchanged so that callers can
// report it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
