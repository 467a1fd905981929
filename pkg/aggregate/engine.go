// Package aggregate folds runs of tool and thinking parts into summary
// groups and computes the metrics shown on a group's summary row.
package aggregate

import (
	"strings"

	"github.com/google/uuid"
	"github.com/killallgit/partstream/pkg/classify"
	"github.com/killallgit/partstream/pkg/parts"
)

// Kind discriminates RenderItem
type Kind int

const (
	KindPart Kind = iota
	KindAggregate
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindPart:
		return "part"
	case KindAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// Group is a run of consecutive aggregatable parts. It lives for one
// render pass.
type Group struct {
	ID      string
	Members []*parts.Part
}

// RenderItem is either a standalone part or an aggregate group
type RenderItem struct {
	Kind  Kind
	Part  *parts.Part
	Group *Group
}

// ID returns the part id or the group id
func (it RenderItem) ID() string {
	if it.Kind == KindAggregate && it.Group != nil {
		return it.Group.ID
	}
	if it.Part != nil {
		return it.Part.ID
	}
	return ""
}

var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("partstream/aggregate-group"))

// GroupID derives a stable id from the member ids, in order
func GroupID(members []*parts.Part) string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m != nil {
			ids = append(ids, m.ID)
		}
	}
	return uuid.NewSHA1(groupNamespace, []byte(strings.Join(ids, "\x00"))).String()
}

// Engine builds render lists
type Engine struct {
	classifier *classify.Classifier
}

// NewEngine creates an engine using the given classifier. A nil classifier
// excludes no tools.
func NewEngine(c *classify.Classifier) *Engine {
	return &Engine{classifier: c}
}

// BuildRenderList groups parts with the default classifier
func BuildRenderList(list []*parts.Part) []RenderItem {
	return NewEngine(classify.Default()).BuildRenderList(list)
}

// BuildRenderList walks the parts once, left to right. A run of
// aggregatable parts becomes one aggregate item only when it has at least
// two members and the part right after it is text; otherwise its members
// are emitted one by one. Nil entries are dropped. A run at the end of the
// list is never aggregated because no text has closed it yet.
func (e *Engine) BuildRenderList(list []*parts.Part) []RenderItem {
	items := make([]RenderItem, 0, len(list))
	var current []*parts.Part

	flush := func(trailingText bool) {
		if len(current) == 0 {
			return
		}
		if len(current) >= 2 && trailingText {
			members := append([]*parts.Part(nil), current...)
			items = append(items, RenderItem{
				Kind:  KindAggregate,
				Group: &Group{ID: GroupID(members), Members: members},
			})
		} else {
			for _, p := range current {
				items = append(items, RenderItem{Kind: KindPart, Part: p})
			}
		}
		current = current[:0]
	}

	for i, p := range list {
		if p == nil {
			continue
		}
		if e.classifier.IsAggregatable(p) {
			current = append(current, p)

			var next *parts.Part
			if i+1 < len(list) {
				next = list[i+1]
			}
			if next != nil && e.classifier.IsAggregatable(next) {
				continue
			}
			flush(e.classifier.IsText(next))
			continue
		}

		flush(e.classifier.IsText(p))
		items = append(items, RenderItem{Kind: KindPart, Part: p})
	}
	flush(false)

	return items
}
