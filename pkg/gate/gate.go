// Package gate decides whether a part's presentation can be reused across
// an update. It answers "skip" only when it can prove nothing visible
// changed; any doubt means recompute.
package gate

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/killallgit/partstream/pkg/parts"
)

// Context is the ambient state a presentation depends on besides the part
type Context struct {
	ThreadID string
	Mode     string
}

var annotationOpts = cmp.Options{cmpopts.EquateEmpty()}

// ShouldSkipUpdate reports whether next renders identically to prev
func ShouldSkipUpdate(prev, next *parts.Part, prevCtx, nextCtx Context) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.ID == "" || next.ID == "" || prev.ID != next.ID {
		return false
	}
	if prevCtx != nextCtx {
		return false
	}
	if prev.Variant() != next.Variant() {
		return false
	}

	switch prev.Variant() {
	case parts.VariantText:
		return sameText(prev, next)
	case parts.VariantThinking:
		return sameThinking(prev, next)
	case parts.VariantError:
		return sameError(prev.AsError(), next.AsError())
	default:
		// tool cards carry live timers
		return false
	}
}

func sameText(prev, next *parts.Part) bool {
	a, b := prev.AsText(), next.AsText()
	if a == nil || b == nil {
		// untyped bodies decode as text; only two empty ones match
		return a == nil && b == nil && prev.IsDone == next.IsDone
	}
	return len(a.Text) == len(b.Text) &&
		a.Text == b.Text &&
		prev.IsDone == next.IsDone &&
		cmp.Equal(a.Annotations, b.Annotations, annotationOpts)
}

func sameThinking(prev, next *parts.Part) bool {
	a, b := prev.AsThinking(), next.AsThinking()
	if a == nil || b == nil {
		return false
	}
	return a.Text == b.Text &&
		prev.Status == next.Status &&
		prev.FinishedAt.Equal(next.FinishedAt) &&
		prev.IsDone == next.IsDone
}

func sameError(a, b *parts.ErrorBody) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Message == b.Message && a.Code == b.Code && a.Type == b.Type
}
