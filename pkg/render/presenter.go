// Package render turns parts, card state and group metrics into terminal
// text. It holds no per-part state; everything it needs arrives with the
// call.
package render

import (
	"fmt"
	"strings"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/gate"
	"github.com/killallgit/partstream/pkg/icons"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/partstate"
)

const (
	// ModeChat renders full cards
	ModeChat = "chat"
	// ModeCompact renders one line per entry
	ModeCompact = "compact"

	defaultPreviewLines = 8
	outputLimit         = 200
)

// Terminal renders entries as styled terminal text
type Terminal struct {
	styles       *Styles
	icons        icons.Resolver
	highlighter  *Highlighter
	width        int
	maxVisible   int
	previewLines int
}

// Option configures a Terminal
type Option func(*Terminal)

// WithStyles replaces the default styles
func WithStyles(s *Styles) Option {
	return func(t *Terminal) {
		if s != nil {
			t.styles = s
		}
	}
}

// WithIcons sets the icon registry
func WithIcons(r icons.Resolver) Option {
	return func(t *Terminal) {
		if r != nil {
			t.icons = r
		}
	}
}

// WithHighlighter sets the code highlighter
func WithHighlighter(h *Highlighter) Option {
	return func(t *Terminal) {
		if h != nil {
			t.highlighter = h
		}
	}
}

// WithWidth sets the line width; 0 disables truncation
func WithWidth(width int) Option {
	return func(t *Terminal) { t.width = width }
}

// WithMaxVisibleIcons caps the icon strip of group rows
func WithMaxVisibleIcons(n int) Option {
	return func(t *Terminal) { t.maxVisible = n }
}

// WithPreviewLines sets how many lines of file content are previewed
func WithPreviewLines(n int) Option {
	return func(t *Terminal) { t.previewLines = n }
}

// NewTerminal creates a terminal presenter
func NewTerminal(opts ...Option) *Terminal {
	t := &Terminal{
		styles:       DefaultStyles(),
		icons:        icons.Default(),
		highlighter:  NewHighlighter("terminal16m", "monokai"),
		maxVisible:   aggregate.DefaultMaxVisible,
		previewLines: defaultPreviewLines,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Icons returns the registry used for tool lookups
func (t *Terminal) Icons() icons.Resolver {
	return t.icons
}

// PresentPart renders one standalone part
func (t *Terminal) PresentPart(p *parts.Part, view partstate.View, ctx gate.Context) string {
	if p == nil {
		return ""
	}
	compact := ctx.Mode == ModeCompact

	var out string
	switch view.Variant {
	case parts.VariantThinking:
		out = t.thinking(p, view.Thinking, compact)
	case parts.VariantTool:
		out = t.tool(p, view.Tool, compact)
	case parts.VariantError:
		out = t.errorCard(p, view.Error, compact)
	default:
		out = t.text(p, compact)
	}
	return TruncateLines(out, t.width)
}

// PresentGroup renders the summary row of an aggregate group
func (t *Terminal) PresentGroup(g *aggregate.Group, m aggregate.Metrics, ctx gate.Context) string {
	if g == nil {
		return ""
	}
	s := t.styles

	var b strings.Builder
	b.WriteString("▸ ")
	b.WriteString(s.GroupHeader.Render(m.DisplayText()))

	if len(m.ToolIcons.Visible) > 0 {
		glyphList := make([]string, len(m.ToolIcons.Visible))
		for i, icon := range m.ToolIcons.Visible {
			glyphList[i] = Glyph(icon)
		}
		b.WriteString("  ")
		b.WriteString(s.GroupIcons.Render(strings.Join(glyphList, " ")))
	}
	if m.ToolIcons.OverflowCount > 0 {
		b.WriteString(" ")
		b.WriteString(s.GroupOverflow.Render(fmt.Sprintf("+%d", m.ToolIcons.OverflowCount)))
	}
	if m.ErrorCount > 0 {
		b.WriteString(" ")
		b.WriteString(s.ToolError.Render(fmt.Sprintf("(%d failed)", m.ErrorCount)))
	}
	if ctx.Mode != ModeCompact && m.ThinkingTimeSeconds > 0 && m.ToolCount > 0 {
		b.WriteString(" ")
		b.WriteString(s.Elapsed.Render(executed(m.ToolCount)))
	}
	return Truncate(b.String(), t.width)
}

// MetricsOptions returns the metric options matching this presenter
func (t *Terminal) MetricsOptions() aggregate.Options {
	return aggregate.Options{MaxVisible: t.maxVisible, Icons: t.icons}
}

func executed(n int) string {
	if n == 1 {
		return "· 1 tool"
	}
	return fmt.Sprintf("· %d tools", n)
}

func (t *Terminal) text(p *parts.Part, compact bool) string {
	body := p.AsText()
	if body == nil {
		return ""
	}
	text := body.Text
	if compact {
		text = FirstLine(text)
	}
	out := t.styles.Text.Render(text)
	if !compact && len(body.Annotations) > 0 {
		var refs []string
		for i, c := range body.Annotations {
			label := c.Title
			if label == "" {
				label = c.URL
			}
			refs = append(refs, fmt.Sprintf("[%d] %s", i+1, label))
		}
		out += "\n" + t.styles.Elapsed.Render(strings.Join(refs, "\n"))
	}
	return out
}

func (t *Terminal) thinking(p *parts.Part, view partstate.ThinkingView, compact bool) string {
	s := t.styles
	marker := "▾"
	if view.Collapsed {
		marker = "▸"
	}

	title := "Thinking…"
	if view.Phase == partstate.ThinkingCompleted {
		title = "Thought"
		if d := view.DurationText(); d != "" {
			title = "Thought for " + d
		}
	}
	header := fmt.Sprintf("%s %s %s", marker, Glyph(icons.IconThinking), s.ThinkingHeader.Render(title))

	body := p.AsThinking()
	if compact || view.Collapsed || body == nil || strings.TrimSpace(body.Text) == "" {
		return header
	}
	return header + "\n" + Indent(s.ThinkingBody.Render(strings.TrimSpace(body.Text)), "  ")
}

func (t *Terminal) errorCard(p *parts.Part, view partstate.ErrorView, compact bool) string {
	s := t.styles
	body := p.AsError()
	if body == nil {
		return ""
	}

	message := body.Message
	if message == "" {
		message = "Something went wrong"
	}
	marker := "▾"
	if view.Collapsed {
		marker = "▸"
	}
	header := fmt.Sprintf("%s %s", marker, s.ErrorTitle.Render("✗ "+FirstLine(message)))
	if view.Retry != nil {
		header += " " + s.RetryHint.Render("[retry]")
	}
	if compact || view.Collapsed {
		return header
	}

	var details []string
	if body.Code != "" {
		details = append(details, "code: "+body.Code)
	}
	if body.Type != "" {
		details = append(details, "type: "+body.Type)
	}
	if body.FailedIn != "" {
		details = append(details, "failed in: "+body.FailedIn)
	}
	if body.TotalAttempts > 0 {
		details = append(details, fmt.Sprintf("attempts: %d", body.TotalAttempts))
	}
	if strings.Contains(strings.TrimSpace(message), "\n") {
		details = append(details, message)
	}
	if len(details) == 0 {
		return header
	}
	return header + "\n" + Indent(s.ErrorDetail.Render(strings.Join(details, "\n")), "  ")
}
