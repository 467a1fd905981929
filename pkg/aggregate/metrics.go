package aggregate

import (
	"fmt"

	"github.com/killallgit/partstream/pkg/icons"
	"github.com/killallgit/partstream/pkg/parts"
)

// DefaultMaxVisible is the number of icons shown before overflow
const DefaultMaxVisible = 6

// Options tunes ComputeGroupMetrics
type Options struct {
	// MaxVisible caps the icon list; values <= 0 use DefaultMaxVisible
	MaxVisible int

	// Icons resolves tool icons; nil uses icons.Default()
	Icons icons.Resolver

	// FallbackIcon is used for tools the resolver does not know
	FallbackIcon icons.Icon
}

// IconSet is the deduplicated, truncated icon strip of a group
type IconSet struct {
	Visible       []icons.Icon
	OverflowCount int
}

// Metrics summarises an aggregate group
type Metrics struct {
	ThinkingTimeSeconds float64
	ToolCount           int
	SuccessCount        int
	ErrorCount          int
	ToolIcons           IconSet
}

// ComputeGroupMetrics reduces a group to its summary metrics
func ComputeGroupMetrics(g *Group, opts Options) Metrics {
	var m Metrics
	if g == nil {
		return m
	}

	resolver := opts.Icons
	if resolver == nil {
		resolver = icons.Default()
	}
	fallback := opts.FallbackIcon
	if fallback == "" {
		fallback = icons.IconTool
	}

	var toolIcons []icons.Icon
	for _, p := range g.Members {
		switch p.Variant() {
		case parts.VariantThinking:
			if secs, ok := parts.ElapsedSeconds(p); ok {
				m.ThinkingTimeSeconds += secs
			}
		case parts.VariantTool:
			tool := p.AsTool()
			m.ToolCount++
			if tool.HasError() {
				m.ErrorCount++
			} else if p.IsDone {
				m.SuccessCount++
			}
			if tool.WebSearch {
				toolIcons = append(toolIcons, icons.IconWebSearch)
			} else {
				toolIcons = append(toolIcons, resolver.ResolveIcon(tool.Name, fallback))
			}
		}
	}

	m.ToolIcons = DedupIcons(toolIcons, opts.MaxVisible)
	return m
}

// DedupIcons collapses consecutive duplicates only and truncates the result
// to maxVisible entries
func DedupIcons(list []icons.Icon, maxVisible int) IconSet {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}

	deduped := make([]icons.Icon, 0, len(list))
	for i, icon := range list {
		if i > 0 && icon == list[i-1] {
			continue
		}
		deduped = append(deduped, icon)
	}

	set := IconSet{Visible: deduped}
	if len(deduped) > maxVisible {
		set.Visible = deduped[:maxVisible]
		set.OverflowCount = len(deduped) - maxVisible
	}
	return set
}

// DisplayText is the summary label of the group
func (m Metrics) DisplayText() string {
	if m.ThinkingTimeSeconds > 0 {
		return "Thought for " + FormatDuration(m.ThinkingTimeSeconds)
	}
	if m.ToolCount == 1 {
		return "Executed 1 tool"
	}
	return fmt.Sprintf("Executed %d tools", m.ToolCount)
}
