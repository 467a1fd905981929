package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/killallgit/partstream/pkg/icons"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func thinkingFor(id string, d time.Duration) *parts.Part {
	p := parts.NewThinking(id, "...")
	p.CreatedAt = epoch
	p.FinishedAt = epoch.Add(d)
	p.IsDone = true
	return p
}

func finishedTool(id, name string) *parts.Part {
	p := parts.NewTool(id, name)
	p.IsDone = true
	p.AsTool().Result = json.RawMessage(`"ok"`)
	return p
}

func failedTool(id, name string) *parts.Part {
	p := parts.NewTool(id, name)
	p.IsDone = true
	p.AsTool().Error = json.RawMessage(`"exit status 1"`)
	return p
}

func TestComputeGroupMetrics(t *testing.T) {
	t.Run("thinking time and tool counts", func(t *testing.T) {
		broken := parts.NewThinking("T3", "")
		broken.CreatedAt = epoch

		backwards := parts.NewThinking("T4", "")
		backwards.CreatedAt = epoch.Add(time.Minute)
		backwards.FinishedAt = epoch

		running := parts.NewTool("R", "bash")

		g := &Group{Members: []*parts.Part{
			thinkingFor("T1", 2500*time.Millisecond),
			finishedTool("A", "read_file"),
			failedTool("B", "bash"),
			thinkingFor("T2", 5*time.Second),
			broken,
			backwards,
			running,
		}}

		m := ComputeGroupMetrics(g, Options{})
		assert.InDelta(t, 7.5, m.ThinkingTimeSeconds, 1e-9)
		assert.Equal(t, 3, m.ToolCount)
		assert.Equal(t, 1, m.SuccessCount)
		assert.Equal(t, 1, m.ErrorCount)
		assert.Equal(t, []icons.Icon{icons.IconFile, icons.IconTerminal}, m.ToolIcons.Visible)
		assert.Equal(t, "Thought for 7.5s", m.DisplayText())
	})

	t.Run("tools only", func(t *testing.T) {
		g := &Group{Members: []*parts.Part{finishedTool("A", "grep"), finishedTool("B", "glob")}}
		m := ComputeGroupMetrics(g, Options{})
		assert.Zero(t, m.ThinkingTimeSeconds)
		assert.Equal(t, "Executed 2 tools", m.DisplayText())
		assert.Equal(t, []icons.Icon{icons.IconSearch}, m.ToolIcons.Visible, "consecutive duplicates collapse")
	})

	t.Run("single tool label", func(t *testing.T) {
		m := Metrics{ToolCount: 1}
		assert.Equal(t, "Executed 1 tool", m.DisplayText())
	})

	t.Run("web search flag overrides the tool name", func(t *testing.T) {
		search := parts.NewTool("A", "provider_call")
		search.AsTool().WebSearch = true
		g := &Group{Members: []*parts.Part{search, parts.NewTool("B", "bash")}}

		m := ComputeGroupMetrics(g, Options{})
		assert.Equal(t, []icons.Icon{icons.IconWebSearch, icons.IconTerminal}, m.ToolIcons.Visible)
	})

	t.Run("unknown tools use the fallback icon", func(t *testing.T) {
		g := &Group{Members: []*parts.Part{parts.NewTool("A", "mystery")}}
		assert.Equal(t, []icons.Icon{icons.IconTool}, ComputeGroupMetrics(g, Options{}).ToolIcons.Visible)
		assert.Equal(t, []icons.Icon{"wrench"}, ComputeGroupMetrics(g, Options{FallbackIcon: "wrench"}).ToolIcons.Visible)
	})

	t.Run("overflow", func(t *testing.T) {
		names := []string{"read_file", "bash", "grep", "ls", "web_fetch", "git_diff", "mcp__x__y", "read_file"}
		var members []*parts.Part
		for i, n := range names {
			members = append(members, parts.NewTool(string(rune('a'+i)), n))
		}
		m := ComputeGroupMetrics(&Group{Members: members}, Options{MaxVisible: 3})
		assert.Len(t, m.ToolIcons.Visible, 3)
		assert.Equal(t, 5, m.ToolIcons.OverflowCount)
	})

	t.Run("nil group", func(t *testing.T) {
		assert.Equal(t, Metrics{}, ComputeGroupMetrics(nil, Options{}))
	})
}

func TestDedupIcons(t *testing.T) {
	a, b, c := icons.IconFile, icons.IconTerminal, icons.IconSearch

	set := DedupIcons([]icons.Icon{a, a, b, a, c, c, c}, 0)
	assert.Equal(t, []icons.Icon{a, b, a, c}, set.Visible, "non-consecutive repeats are preserved")
	assert.Zero(t, set.OverflowCount)

	set = DedupIcons([]icons.Icon{a, b, a, b, a, b, a, b}, 6)
	assert.Len(t, set.Visible, 6)
	assert.Equal(t, 2, set.OverflowCount)

	set = DedupIcons(nil, 6)
	assert.Empty(t, set.Visible)
	assert.Zero(t, set.OverflowCount)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0.0s"},
		{7.5, "7.5s"},
		{9.94, "9.9s"},
		{10, "10s"},
		{42.4, "42s"},
		{42.5, "43s"},
		{60, "1m"},
		{125, "2m 5s"},
		{120.4, "2m"},
		{3599.6, "60m"},
		{-3, "0.0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%v", tt.seconds)
	}
}
