package partstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/store"
)

// ErrNotRetryable is returned when a retry is requested for an error part
// that cannot be resubmitted
var ErrNotRetryable = errors.New("error part is not retryable")

// ThinkingView is what a thinking card shows
type ThinkingView struct {
	Phase     ThinkingPhase
	Collapsed bool
	// Duration is set only once completed with both timestamps present
	Duration    time.Duration
	HasDuration bool
}

// DurationText formats the duration, or returns "" when there is none
func (v ThinkingView) DurationText() string {
	if !v.HasDuration {
		return ""
	}
	return aggregate.FormatDuration(v.Duration.Seconds())
}

// ToolView is what a tool card shows
type ToolView struct {
	Phase     ToolPhase
	Streaming bool
	// Busy is true while streaming or not yet terminal
	Busy    bool
	Elapsed time.Duration
	// Frozen is true once Elapsed no longer advances
	Frozen bool
}

// ErrorView is what an error card shows
type ErrorView struct {
	Collapsed bool
	Retry     *RetryAction
}

// RetryAction resubmits the owning thread. The card only exposes the
// command; retry semantics belong to the dispatcher.
type RetryAction struct {
	ThreadID string
	PartID   string
}

// Dispatch forwards the retry to the store collaborator
func (a *RetryAction) Dispatch(ctx context.Context, d store.RetryDispatcher) error {
	if a == nil {
		return ErrNotRetryable
	}
	return d.DispatchRetry(ctx, a.ThreadID)
}

type card struct {
	variant       parts.Variant
	thinkingPhase ThinkingPhase
	collapsed     bool
	terminalAt    time.Time
}

// Tracker holds per-part card state for one session, keyed by part id.
// Nothing in it outlives the session; call Reset when the thread ends.
type Tracker struct {
	mu    sync.RWMutex
	cards map[string]*card
	now   func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates an empty tracker
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		cards: make(map[string]*card),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe feeds the latest snapshot of a part into its state machine
func (t *Tracker) Observe(p *parts.Part) {
	if p == nil || p.ID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observeLocked(p)
}

func (t *Tracker) observeLocked(p *parts.Part) *card {
	variant := p.Variant()
	c, exists := t.cards[p.ID]
	if !exists || c.variant != variant {
		c = &card{variant: variant}
		t.cards[p.ID] = c
		switch variant {
		case parts.VariantThinking:
			c.thinkingPhase = ThinkingPhaseOf(p)
			c.collapsed = c.thinkingPhase == ThinkingCompleted
		case parts.VariantError:
			c.collapsed = true
		}
	}

	switch variant {
	case parts.VariantThinking:
		// entering a phase forces its collapse state
		if phase := ThinkingPhaseOf(p); phase != c.thinkingPhase {
			c.thinkingPhase = phase
			c.collapsed = phase == ThinkingCompleted
		}
	case parts.VariantTool:
		if ToolPhaseOf(p).Terminal() {
			if c.terminalAt.IsZero() {
				c.terminalAt = t.now()
			}
		} else {
			c.terminalAt = time.Time{}
		}
	}
	return c
}

// Toggle flips the collapse flag of a card. Thinking cards only toggle once
// completed, error cards always, tool cards never. It reports whether the
// flag changed.
func (t *Tracker) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cards[id]
	if !ok {
		return false
	}
	switch c.variant {
	case parts.VariantThinking:
		if c.thinkingPhase != ThinkingCompleted {
			return false
		}
	case parts.VariantError:
	default:
		return false
	}
	c.collapsed = !c.collapsed
	return true
}

// ThinkingState observes p and returns its card view
func (t *Tracker) ThinkingState(p *parts.Part) ThinkingView {
	if p == nil || p.ID == "" {
		return ThinkingView{Phase: ThinkingPhaseOf(p)}
	}
	t.mu.Lock()
	c := t.observeLocked(p)
	view := ThinkingView{Phase: c.thinkingPhase, Collapsed: c.collapsed}
	t.mu.Unlock()

	if view.Phase == ThinkingCompleted {
		if secs, ok := parts.ElapsedSeconds(p); ok {
			view.Duration = time.Duration(secs * float64(time.Second))
			view.HasDuration = true
		}
	}
	return view
}

// ToolState observes p and returns its card view
func (t *Tracker) ToolState(p *parts.Part) ToolView {
	phase := ToolPhaseOf(p)
	view := ToolView{
		Phase:     phase,
		Streaming: IsStreaming(p),
	}
	view.Busy = view.Streaming || !phase.Terminal()
	if p == nil || p.ID == "" {
		return view
	}

	t.mu.Lock()
	c := t.observeLocked(p)
	terminalAt := c.terminalAt
	now := t.now()
	t.mu.Unlock()

	if p.CreatedAt.IsZero() {
		return view
	}
	end := now
	if phase.Terminal() {
		view.Frozen = true
		end = terminalAt
		if !p.FinishedAt.IsZero() {
			end = p.FinishedAt
		}
	}
	if d := end.Sub(p.CreatedAt); d > 0 {
		view.Elapsed = d
	}
	return view
}

// ErrorState observes p and returns its card view
func (t *Tracker) ErrorState(p *parts.Part) ErrorView {
	body := p.AsError()
	view := ErrorView{Collapsed: true}
	if body == nil || p.ID == "" {
		return view
	}

	t.mu.Lock()
	c := t.observeLocked(p)
	view.Collapsed = c.collapsed
	t.mu.Unlock()

	if body.IsRetryable() && p.ThreadID != "" {
		view.Retry = &RetryAction{ThreadID: p.ThreadID, PartID: p.ID}
	}
	return view
}

// View is the card state of any part, filled in for its variant only
type View struct {
	Variant  parts.Variant
	Thinking ThinkingView
	Tool     ToolView
	Error    ErrorView
}

// View observes p and returns the state of its card
func (t *Tracker) View(p *parts.Part) View {
	v := View{Variant: p.Variant()}
	switch v.Variant {
	case parts.VariantThinking:
		v.Thinking = t.ThinkingState(p)
	case parts.VariantTool:
		v.Tool = t.ToolState(p)
	case parts.VariantError:
		v.Error = t.ErrorState(p)
	default:
		t.Observe(p)
	}
	return v
}

// Collapsed reports the collapse flag of a tracked card
func (t *Tracker) Collapsed(id string) (bool, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.cards[id]
	if !ok {
		return false, false
	}
	return c.collapsed, true
}

// Len returns the number of tracked cards
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cards)
}

// Retain drops the cards of every id not in keep and returns how many
// were dropped
func (t *Tracker) Retain(keep map[string]struct{}) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	dropped := 0
	for id := range t.cards {
		if _, ok := keep[id]; !ok {
			delete(t.cards, id)
			dropped++
		}
	}
	return dropped
}

// Reset discards all card state
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cards = make(map[string]*card)
}
