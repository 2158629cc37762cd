package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 160

// ErrEmptyPayload is returned when a model response carries no text at all.
var ErrEmptyPayload = errors.New("empty payload")

// DecodeJSON decodes the JSON value in a model response. Responses that wrap
// the value in a code fence or surround it with prose are accepted; the first
// balanced object or array is used.
func DecodeJSON[T any](content string) (T, error) {
	var out T
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return out, ErrEmptyPayload
	}
	directErr := json.Unmarshal([]byte(trimmed), &out)
	if directErr == nil {
		return out, nil
	}

	candidate, ok := extractJSON(unfence(trimmed))
	if !ok || candidate == trimmed {
		return out, fmt.Errorf("%w (payload: %s)", directErr, SummarizeSnippet(trimmed))
	}
	out = *new(T)
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return out, fmt.Errorf("%w (extracted payload: %s)", err, SummarizeSnippet(candidate))
	}
	return out, nil
}

// unfence drops a leading ``` or ```json fence and its closing fence.
func unfence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimPrefix(content, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 && !strings.ContainsAny(body[:newline], "{[") {
		body = body[newline+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// extractJSON returns the first balanced {...} or [...] span, honouring
// string literals so braces inside strings do not count.
func extractJSON(content string) (string, bool) {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

// SummarizeSnippet collapses whitespace and truncates content for log lines.
func SummarizeSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		clean = string(runes[:snippetLimit]) + "..."
	}
	return clean
}
