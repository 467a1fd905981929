// Package timeline is the view model of one conversation thread. A Session
// reads snapshots from the store, groups them, drives the card state
// machines, and re-renders only the entries whose inputs changed.
package timeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/classify"
	"github.com/killallgit/partstream/pkg/gate"
	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/partstate"
	"github.com/killallgit/partstream/pkg/render"
	"github.com/killallgit/partstream/pkg/store"
)

// ErrSessionClosed is returned by operations on a closed session
var ErrSessionClosed = errors.New("session closed")

// Presenter turns entries into display text
type Presenter interface {
	PresentPart(p *parts.Part, view partstate.View, ctx gate.Context) string
	PresentGroup(g *aggregate.Group, m aggregate.Metrics, ctx gate.Context) string
}

// Entry is one rendered row of the timeline
type Entry struct {
	Item aggregate.RenderItem
	Text string

	// View is set for standalone parts
	View partstate.View

	// Metrics is set for aggregate groups
	Metrics aggregate.Metrics
}

// ID returns the part or group id of the entry
func (e Entry) ID() string {
	return e.Item.ID()
}

// Stats counts what the last Refresh did
type Stats struct {
	Recomputed int
	Reused     int
}

type cachedPart struct {
	snapshot *parts.Part
	ctx      gate.Context
	entry    Entry
}

type cachedGroup struct {
	members []*parts.Part
	ctx     gate.Context
	entry   Entry
}

// Session holds all derived state of one thread
type Session struct {
	mu        sync.Mutex
	threadID  string
	reader    store.PartReader
	engine    *aggregate.Engine
	tracker   *partstate.Tracker
	presenter Presenter
	metrics   aggregate.Options
	ctx       gate.Context
	clock     func() time.Time

	partCache  map[string]cachedPart
	groupCache map[string]cachedGroup
	dirty      map[string]bool
	stats      Stats
	closed     bool
	log        *logger.ComponentLogger
}

// Option configures a Session
type Option func(*Session)

// WithEngine sets the aggregation engine
func WithEngine(e *aggregate.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithPresenter sets the presenter
func WithPresenter(p Presenter) Option {
	return func(s *Session) {
		if p != nil {
			s.presenter = p
		}
	}
}

// WithMetricsOptions sets the options used for group metrics
func WithMetricsOptions(o aggregate.Options) Option {
	return func(s *Session) { s.metrics = o }
}

// WithMode sets the initial display mode
func WithMode(mode string) Option {
	return func(s *Session) { s.ctx.Mode = mode }
}

// WithClock drives live tool timers from now instead of time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// NewSession creates a session for threadID reading from reader
func NewSession(threadID string, reader store.PartReader, opts ...Option) *Session {
	s := &Session{
		threadID:   threadID,
		reader:     reader,
		engine:     aggregate.NewEngine(classify.Default()),
		presenter:  render.NewTerminal(),
		ctx:        gate.Context{ThreadID: threadID},
		partCache:  make(map[string]cachedPart),
		groupCache: make(map[string]cachedGroup),
		dirty:      make(map[string]bool),
		log:        logger.WithComponent("timeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = partstate.NewTracker(partstate.WithClock(s.clock))
	return s
}

// ThreadID returns the thread the session renders
func (s *Session) ThreadID() string {
	return s.threadID
}

// Refresh rebuilds the timeline from the current store snapshot
func (s *Session) Refresh() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	snapshot := s.reader.PartsForThread(s.threadID)
	items := s.engine.BuildRenderList(snapshot)

	stats := Stats{}
	entries := make([]Entry, 0, len(items))
	partCache := make(map[string]cachedPart, len(s.partCache))
	groupCache := make(map[string]cachedGroup, len(s.groupCache))

	for _, item := range items {
		var entry Entry
		var reused bool
		switch item.Kind {
		case aggregate.KindAggregate:
			entry, reused = s.groupEntry(item)
			groupCache[item.Group.ID] = cachedGroup{members: item.Group.Members, ctx: s.ctx, entry: entry}
		default:
			entry, reused = s.partEntry(item)
			partCache[item.Part.ID] = cachedPart{snapshot: item.Part, ctx: s.ctx, entry: entry}
		}
		if reused {
			stats.Reused++
		} else {
			stats.Recomputed++
		}
		entries = append(entries, entry)
	}

	// cards of parts that left the thread (reset) must not leak into a
	// reused id
	live := make(map[string]struct{}, len(snapshot))
	for _, p := range snapshot {
		if p != nil {
			live[p.ID] = struct{}{}
		}
	}
	pruned := s.tracker.Retain(live)

	s.partCache = partCache
	s.groupCache = groupCache
	s.dirty = make(map[string]bool)
	s.stats = stats
	s.log.Debug("refresh", "thread", s.threadID, "entries", len(entries), "recomputed", stats.Recomputed, "reused", stats.Reused, "pruned", pruned)
	return entries
}

func (s *Session) partEntry(item aggregate.RenderItem) (Entry, bool) {
	p := item.Part
	view := s.tracker.View(p)

	if cached, ok := s.partCache[p.ID]; ok && !s.dirty[p.ID] &&
		gate.ShouldSkipUpdate(cached.snapshot, p, cached.ctx, s.ctx) {
		entry := cached.entry
		entry.Item = item
		return entry, true
	}

	return Entry{
		Item: item,
		View: view,
		Text: s.presenter.PresentPart(p, view, s.ctx),
	}, false
}

func (s *Session) groupEntry(item aggregate.RenderItem) (Entry, bool) {
	g := item.Group
	for _, m := range g.Members {
		s.tracker.Observe(m)
	}

	if cached, ok := s.groupCache[g.ID]; ok && cached.ctx == s.ctx && sameSnapshots(cached.members, g.Members) {
		entry := cached.entry
		entry.Item = item
		return entry, true
	}

	m := aggregate.ComputeGroupMetrics(g, s.metrics)
	return Entry{
		Item:    item,
		Metrics: m,
		Text:    s.presenter.PresentGroup(g, m, s.ctx),
	}, false
}

// sameSnapshots reports whether both lists hold the same part values.
// Updates replace parts rather than mutate them, so identity is enough.
func sameSnapshots(a, b []*parts.Part) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stats returns the counters of the last Refresh
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Context returns the current ambient context
func (s *Session) Context() gate.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// SetContext changes the ambient context. The thread id is fixed for the
// session; only the other fields are taken from ctx.
func (s *Session) SetContext(ctx gate.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx.ThreadID = s.threadID
	s.ctx = ctx
}

// Toggle flips the collapse state of a card and reports whether it changed
func (s *Session) Toggle(partID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.tracker.Toggle(partID) {
		return false
	}
	s.dirty[partID] = true
	return true
}

// Retry asks the dispatcher to resubmit the thread
func (s *Session) Retry(ctx context.Context, d store.RetryDispatcher) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	return d.DispatchRetry(ctx, s.threadID)
}

// RetryPart retries through the retry action of an error card
func (s *Session) RetryPart(ctx context.Context, partID string, d store.RetryDispatcher) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	p, ok := s.reader.PartByID(partID)
	var action *partstate.RetryAction
	if ok && p.ThreadID == s.threadID {
		action = s.tracker.ErrorState(p).Retry
	}
	s.mu.Unlock()
	return action.Dispatch(ctx, d)
}

// Close discards every piece of derived state. The session cannot be
// reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.partCache = make(map[string]cachedPart)
	s.groupCache = make(map[string]cachedGroup)
	s.dirty = make(map[string]bool)
	s.tracker.Reset()
	s.stats = Stats{}
}

// Tracked returns the number of cards with live state
func (s *Session) Tracked() int {
	return s.tracker.Len()
}
