// Package cmdutils holds terminal output helpers shared by CLI commands.
package cmdutils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const logo = "🐬"

// PrintResponse prints text under the crystaldolphin banner.
func PrintResponse(text string) {
	if text == "" {
		return
	}

	fmt.Printf("\n%s crystaldolphin\n%s\n\n", logo, text)
}

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v any) error {
	return WriteJSON(os.Stdout, v)
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Fit shortens s to max runes for a table column, marking the cut with an
// ellipsis.
func Fit(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// Rule returns a horizontal rule n characters wide.
func Rule(n int) string { return strings.Repeat("-", n) }

// Mark renders a boolean as a check or a cross.
func Mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
