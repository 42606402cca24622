// Package llmutils holds small text helpers for the sub-agent loop.
package llmutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n bytes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return strings.TrimSpace(reThink.ReplaceAllString(s, ""))
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint renders tool calls for a log line, e.g. `web_fetch("https://go.dev")`.
func ToolHint(calls []schema.ToolCall) string {
	parts := make([]string, 0, len(calls))
	for _, tc := range calls {
		var first string
		for _, v := range tc.Arguments {
			if s, ok := v.(string); ok {
				first = s
				break
			}
		}
		if first == "" {
			parts = append(parts, tc.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%q)", tc.Name, Truncate(first, 40)))
	}
	return strings.Join(parts, ", ")
}
