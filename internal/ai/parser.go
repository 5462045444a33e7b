package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSONContent pulls the first JSON object out of a model reply.
// Models wrap their output in markdown fences or chat around it; the
// fenced block is tried first, then the widest {...} span. Returns ""
// when nothing valid is found.
func ExtractJSONContent(rawText string) string {
	rawText = strings.TrimSpace(rawText)

	if matches := jsonBlockRegex.FindStringSubmatch(rawText); len(matches) > 1 {
		candidate := strings.TrimSpace(matches[1])
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	firstBrace := strings.Index(rawText, "{")
	lastBrace := strings.LastIndex(rawText, "}")
	if firstBrace != -1 && lastBrace > firstBrace {
		candidate := rawText[firstBrace : lastBrace+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	if json.Valid([]byte(rawText)) {
		return rawText
	}

	return ""
}
