package llm

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// StripCodeFences returns the body of the first fenced block in content,
// or the trimmed content when it has no fences. An unterminated opening
// fence is dropped.
func StripCodeFences(content string) string {
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if nl := strings.IndexByte(trimmed, '\n'); nl != -1 {
			trimmed = trimmed[nl+1:]
		}
	}
	return strings.TrimSpace(trimmed)
}

// ExtractJSON pulls a JSON object or array out of a model response.
// Markdown fences and leading prose are tolerated.
func ExtractJSON(content string) string {
	if strings.Contains(content, "```json") {
		start := strings.Index(content, "```json") + len("```json")
		if end := strings.Index(content[start:], "```"); end != -1 {
			return strings.TrimSpace(content[start : start+end])
		}
	}

	if strings.Contains(content, "```") {
		extracted := StripCodeFences(content)
		if strings.HasPrefix(extracted, "{") || strings.HasPrefix(extracted, "[") {
			return extracted
		}
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return trimmed
	}

	// prose around a bare object
	if start := strings.IndexAny(trimmed, "{["); start != -1 {
		closer := byte('}')
		if trimmed[start] == '[' {
			closer = ']'
		}
		if end := strings.LastIndexByte(trimmed, closer); end > start {
			return trimmed[start : end+1]
		}
	}
	return trimmed
}

// Truncate cuts s to at most maxRunes runes
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes])
}
