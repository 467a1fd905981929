package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

var widthCond = func() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true
	return cond
}()

// Width returns the display width of s in terminal columns. Escape
// sequences take no columns.
func Width(s string) int {
	return widthCond.StringWidth(ansi.Strip(s))
}

// Truncate shortens s to at most width columns, marking the cut with an
// ellipsis. Styled text is cut between escape sequences, which are all
// kept. Non-positive widths disable truncation.
func Truncate(s string, width int) string {
	if width <= 0 || Width(s) <= width {
		return s
	}
	if strings.IndexByte(s, '\x1b') < 0 {
		return widthCond.Truncate(s, width, ellipsis)
	}
	return ansi.Truncate(s, width, ellipsis)
}

// TruncateLines truncates every line of s
func TruncateLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = Truncate(line, width)
	}
	return strings.Join(lines, "\n")
}

// FirstLine returns the first line of s, with an ellipsis if more follow
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], " \r") + ellipsis
	}
	return s
}

// HeadLines keeps the first n lines and reports how many were dropped
func HeadLines(s string, n int) (string, int) {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n <= 0 || len(lines) <= n {
		return strings.Join(lines, "\n"), 0
	}
	return strings.Join(lines[:n], "\n"), len(lines) - n
}

// Indent prefixes every non-empty line of s
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
