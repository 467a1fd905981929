package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/icons"
	"github.com/killallgit/partstream/pkg/partial"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/partstate"
	"github.com/tidwall/gjson"
)

// toolCard is the renderer-specific part of a tool card
type toolCard struct {
	title   string
	args    string
	preview string
}

func (t *Terminal) tool(p *parts.Part, view partstate.ToolView, compact bool) string {
	s := t.styles
	body := p.AsTool()
	if body == nil {
		return ""
	}

	var card toolCard
	switch t.rendererFor(body) {
	case icons.RendererFileWrite:
		card = t.fileWriteCard(body, compact)
	case icons.RendererShell:
		card = shellCard(body)
	case icons.RendererWebSearch:
		card = webSearchCard(body)
	default:
		card = toolCard{title: body.Name, args: formatArguments(argumentSource(body))}
	}
	if card.title == "" {
		card.title = "tool"
	}

	icon := icons.IconWebSearch
	if !body.WebSearch {
		icon = t.icons.ResolveIcon(body.Name, icons.IconTool)
	}

	// Format: ● ToolName(args...) (1.2s)
	header := fmt.Sprintf("%s %s %s(%s)",
		t.indicator(view),
		Glyph(icon),
		s.ToolName.Render(card.title),
		s.ToolArgs.Render(card.args))
	if view.Streaming {
		header += s.ToolRunning.Render("…")
	}
	if view.Elapsed > 0 {
		header += " " + s.Elapsed.Render("("+aggregate.FormatDuration(view.Elapsed.Seconds())+")")
	}
	if compact {
		return header
	}

	var lines []string
	lines = append(lines, header)
	if card.preview != "" {
		lines = append(lines, Indent(s.CodeBlock.Render(card.preview), "    "))
	}
	switch view.Phase {
	case partstate.ToolError:
		lines = append(lines, t.outputLine(s.ToolError.Render("✗ "+FirstLine(body.ErrorText()))))
	case partstate.ToolSuccess:
		if out := resultText(body.Result); out != "" {
			lines = append(lines, t.outputLine(truncateOutput(out, outputLimit)))
		} else {
			lines = append(lines, t.outputLine(s.ToolSuccess.Render("✓ Complete")))
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) rendererFor(body *parts.ToolBody) icons.RendererRef {
	if body.WebSearch {
		return icons.RendererWebSearch
	}
	ref, _ := t.icons.ResolveRenderer(body.Name)
	return ref
}

func (t *Terminal) indicator(view partstate.ToolView) string {
	s := t.styles
	switch view.Phase {
	case partstate.ToolSuccess:
		return s.ToolSuccess.Render("✓")
	case partstate.ToolError:
		return s.ToolError.Render("✗")
	case partstate.ToolRunning:
		return s.ToolRunning.Render("●")
	default:
		return s.ToolIndicator.Render("○")
	}
}

// outputLine formats tool output. Format: ⎿ first line, then indented rest
func (t *Terminal) outputLine(output string) string {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = fmt.Sprintf("  %s %s", t.styles.ToolOutputPrefix.Render("⎿"), line)
		} else {
			lines[i] = "    " + line
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) fileWriteCard(body *parts.ToolBody, compact bool) toolCard {
	card := toolCard{title: "Write"}
	ex := partial.TryExtractPartial(argumentSource(body))
	if ex == nil {
		return card
	}
	if ex.HasFilename {
		card.args = ex.Filename
	}
	if ex.HasContent && !compact && ex.Content != "" {
		head, dropped := HeadLines(ex.Content, t.previewLines)
		card.preview = strings.TrimRight(t.highlighter.Highlight(head, ex.Filename), "\n")
		if dropped > 0 {
			card.preview += fmt.Sprintf("\n… +%d lines", dropped)
		}
	}
	return card
}

func shellCard(body *parts.ToolBody) toolCard {
	card := toolCard{title: "Shell"}
	args := argumentSource(body)
	for _, key := range []string{"command", "cmd"} {
		if v := gjson.Get(args, key); v.Type == gjson.String {
			card.args = Truncate(FirstLine(v.Str), 60)
			return card
		}
	}
	if ex := partial.TryExtractPartial(args); ex != nil && ex.HasContent {
		card.args = Truncate(FirstLine(ex.Content), 60)
	}
	return card
}

func webSearchCard(body *parts.ToolBody) toolCard {
	card := toolCard{title: "Search"}
	args := argumentSource(body)
	if v := gjson.Get(args, "query"); v.Type == gjson.String {
		card.args = fmt.Sprintf("%q", v.Str)
	}
	return card
}

// argumentSource prefers streamed arguments and falls back to the input
func argumentSource(body *parts.ToolBody) string {
	if args := body.ArgumentsText(); args != "" {
		return args
	}
	if len(body.Input) > 0 {
		return string(body.Input)
	}
	return ""
}

// formatArguments formats a JSON argument object as key=value pairs, in
// document order. Incomplete JSON is shown raw and shortened.
func formatArguments(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !gjson.Valid(raw) {
		return Truncate(FirstLine(raw), 50)
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return Truncate(root.Raw, 50)
	}

	var pairs []string
	root.ForEach(func(key, value gjson.Result) bool {
		var valueStr string
		switch value.Type {
		case gjson.String:
			// Truncate long strings
			valueStr = fmt.Sprintf("%q", Truncate(FirstLine(value.Str), 50))
		default:
			valueStr = Truncate(value.Raw, 50)
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", key.Str, valueStr))
		return true
	})
	return strings.Join(pairs, ", ")
}

// resultText returns a tool result as display text
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	res := gjson.ParseBytes(raw)
	switch {
	case res.Type == gjson.Null:
		return ""
	case res.Type == gjson.String:
		return strings.TrimRight(res.Str, "\n")
	case res.IsArray():
		return fmt.Sprintf("%d results", len(res.Array()))
	default:
		return strings.TrimSpace(string(raw))
	}
}

// truncateOutput truncates output for display
func truncateOutput(output string, maxLen int) string {
	if len(output) <= maxLen {
		return output
	}

	for maxLen > 0 && !utf8.RuneStart(output[maxLen]) {
		maxLen--
	}

	// Try to truncate at a newline if possible
	truncated := output[:maxLen]
	if idx := strings.LastIndex(truncated, "\n"); idx > maxLen/2 {
		truncated = truncated[:idx]
	}

	lines := strings.Split(truncated, "\n")
	if len(lines) > 3 {
		// Keep first 2 lines and last line
		result := append(lines[:2], "...", lines[len(lines)-1])
		return strings.Join(result, "\n")
	}

	return truncated + "..."
}
