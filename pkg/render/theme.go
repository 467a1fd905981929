package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Base16 palette with warm earth tones
var (
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase04 = lipgloss.Color("#83715f") // Dark foreground
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground
	ColorBase06 = lipgloss.Color("#d3b597") // Light foreground

	ColorRed    = lipgloss.Color("#d95f5f") // Errors
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761") // Running
	ColorGreen  = lipgloss.Color("#93b56b") // Success
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorBlue   = lipgloss.Color("#6b93b5")
	ColorPurple = lipgloss.Color("#976bb5") // Thinking

	ColorMuted   = ColorBase03
	ColorSuccess = ColorGreen
	ColorWarning = ColorYellow
	ColorError   = ColorRed
	ColorInfo    = ColorCyan
)

// Styles defines the Lipgloss styles for every card kind
type Styles struct {
	// Text cards
	Text lipgloss.Style

	// Thinking cards
	ThinkingHeader lipgloss.Style
	ThinkingBody   lipgloss.Style

	// Tool cards
	ToolIndicator    lipgloss.Style
	ToolName         lipgloss.Style
	ToolArgs         lipgloss.Style
	ToolOutputPrefix lipgloss.Style
	ToolRunning      lipgloss.Style
	ToolSuccess      lipgloss.Style
	ToolError        lipgloss.Style
	Elapsed          lipgloss.Style

	// Aggregate summary rows
	GroupHeader   lipgloss.Style
	GroupIcons    lipgloss.Style
	GroupOverflow lipgloss.Style

	// Error cards
	ErrorTitle  lipgloss.Style
	ErrorDetail lipgloss.Style
	RetryHint   lipgloss.Style

	// Code previews
	CodeBlock lipgloss.Style
}

// DefaultStyles returns the default Lipgloss styles
func DefaultStyles() *Styles {
	return &Styles{
		Text: lipgloss.NewStyle().
			Foreground(ColorBase06),

		ThinkingHeader: lipgloss.NewStyle().
			Foreground(ColorPurple).
			Italic(true),
		ThinkingBody: lipgloss.NewStyle().
			Foreground(ColorBase04).
			Italic(true),

		ToolIndicator: lipgloss.NewStyle().
			Foreground(ColorOrange),
		ToolName: lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true),
		ToolArgs: lipgloss.NewStyle().
			Foreground(ColorBase05),
		ToolOutputPrefix: lipgloss.NewStyle().
			Foreground(ColorMuted),
		ToolRunning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		ToolSuccess: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		ToolError: lipgloss.NewStyle().
			Foreground(ColorError),
		Elapsed: lipgloss.NewStyle().
			Foreground(ColorMuted),

		GroupHeader: lipgloss.NewStyle().
			Foreground(ColorInfo).
			Bold(true),
		GroupIcons: lipgloss.NewStyle().
			Foreground(ColorBase05),
		GroupOverflow: lipgloss.NewStyle().
			Foreground(ColorMuted),

		ErrorTitle: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		ErrorDetail: lipgloss.NewStyle().
			Foreground(ColorBase04),
		RetryHint: lipgloss.NewStyle().
			Foreground(ColorYellow).
			Underline(true),

		CodeBlock: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorMuted).
			PaddingLeft(1),
	}
}

// PlainStyles returns styles that add no escape codes or padding. Output is
// stable across terminals, which the CLI's --plain flag and tests rely on.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Text:             plain,
		ThinkingHeader:   plain,
		ThinkingBody:     plain,
		ToolIndicator:    plain,
		ToolName:         plain,
		ToolArgs:         plain,
		ToolOutputPrefix: plain,
		ToolRunning:      plain,
		ToolSuccess:      plain,
		ToolError:        plain,
		Elapsed:          plain,
		GroupHeader:      plain,
		GroupIcons:       plain,
		GroupOverflow:    plain,
		ErrorTitle:       plain,
		ErrorDetail:      plain,
		RetryHint:        plain,
		CodeBlock:        plain,
	}
}
