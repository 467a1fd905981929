// Package classify tags conversation parts and decides which of them may be
// folded into an aggregate summary.
package classify

import (
	"strings"

	"github.com/killallgit/partstream/pkg/parts"
)

// DefaultExcludedTools are checkpoint-like tools that always render on
// their own so the user can act on them independently.
var DefaultExcludedTools = []string{"commit", "git_commit", "create_checkpoint"}

// Classifier holds the exclusion set. The zero value excludes nothing.
type Classifier struct {
	excluded map[string]struct{}
}

// New creates a classifier excluding the given tool names
func New(excludedTools ...string) *Classifier {
	c := &Classifier{excluded: make(map[string]struct{}, len(excludedTools))}
	for _, name := range excludedTools {
		if n := normalize(name); n != "" {
			c.excluded[n] = struct{}{}
		}
	}
	return c
}

// Default creates a classifier with DefaultExcludedTools
func Default() *Classifier {
	return New(DefaultExcludedTools...)
}

// Classify returns the part's variant, text for nil or untagged parts
func (c *Classifier) Classify(p *parts.Part) parts.Variant {
	return p.Variant()
}

// IsExcluded reports whether the tool name is in the exclusion set
func (c *Classifier) IsExcluded(toolName string) bool {
	if c == nil || len(c.excluded) == 0 {
		return false
	}
	_, ok := c.excluded[normalize(toolName)]
	return ok
}

// IsAggregatable reports whether p is a tool or thinking part that is not
// an excluded tool
func (c *Classifier) IsAggregatable(p *parts.Part) bool {
	switch c.Classify(p) {
	case parts.VariantThinking:
		return true
	case parts.VariantTool:
		return !c.IsExcluded(p.AsTool().Name)
	default:
		return false
	}
}

// IsText reports whether p classifies as text. A nil part is not text.
func (c *Classifier) IsText(p *parts.Part) bool {
	return p != nil && c.Classify(p) == parts.VariantText
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
