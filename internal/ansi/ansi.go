// Package ansi provides ANSI escape code constants and helpers for plain
// terminal output. Styled full-screen output goes through lipgloss instead.
package ansi

import (
	"fmt"
	"regexp"
)

// ANSI SGR (Select Graphic Rendition) codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Blue    = "\033[34m"
	Yellow  = "\033[33m"
	Green   = "\033[32m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"
)

// ClearLine clears the entire current line.
const ClearLine = "\033[2K"

var sgr = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Wrap surrounds s with codes and a trailing Reset when on is true, and
// returns s unchanged otherwise.
func Wrap(on bool, s string, codes ...string) string {
	if !on || len(codes) == 0 {
		return s
	}
	var prefix string
	for _, c := range codes {
		prefix += c
	}
	return prefix + s + Reset
}

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return sgr.ReplaceAllString(s, "")
}

// CursorUp returns an escape sequence moving the cursor up n lines.
func CursorUp(n int) string {
	return fmt.Sprintf("\033[%dA", n)
}
