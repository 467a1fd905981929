package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/parts"
)

// RetryRequest records one dispatched retry
type RetryRequest struct {
	ThreadID string
	At       time.Time
}

type thread struct {
	order []*parts.Part
	index map[string]int
}

// Memory is an in-memory part store. Updates are applied in arrival order:
// the first update for an id appends, later ones replace the part in place.
// Readers get copies of the thread slice, so a render pass never observes a
// half-applied batch.
type Memory struct {
	mu       sync.RWMutex
	threads  map[string]*thread
	byID     map[string]*parts.Part
	threadOf map[string]string
	retries  []RetryRequest
	onChange []func(threadID string)
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		threads:  make(map[string]*thread),
		byID:     make(map[string]*parts.Part),
		threadOf: make(map[string]string),
	}
}

// Apply upserts a part snapshot. Parts without an id are dropped. A part
// that moves to another thread keeps its original slot; ids are unique per
// thread, so the update is ignored.
func (m *Memory) Apply(p *parts.Part) {
	if p == nil || p.ID == "" {
		logger.Debug("store: dropping part without id")
		return
	}

	m.mu.Lock()
	if owner, ok := m.threadOf[p.ID]; ok && owner != p.ThreadID {
		m.mu.Unlock()
		logger.Debug("store: part %s moved from thread %q to %q, ignoring", p.ID, owner, p.ThreadID)
		return
	}

	t, ok := m.threads[p.ThreadID]
	if !ok {
		t = &thread{index: make(map[string]int)}
		m.threads[p.ThreadID] = t
	}
	if i, seen := t.index[p.ID]; seen {
		t.order[i] = p
	} else {
		t.index[p.ID] = len(t.order)
		t.order = append(t.order, p)
	}
	m.byID[p.ID] = p
	m.threadOf[p.ID] = p.ThreadID
	listeners := append([]func(string){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(p.ThreadID)
	}
}

// OnChange registers a callback invoked after every applied update
func (m *Memory) OnChange(fn func(threadID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// PartByID implements PartReader
func (m *Memory) PartByID(id string) (*parts.Part, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	return p, ok
}

// PartsForThread implements PartReader
func (m *Memory) PartsForThread(threadID string) []*parts.Part {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[threadID]
	if !ok {
		return nil
	}
	return append([]*parts.Part(nil), t.order...)
}

// Threads returns the ids of all known threads, sorted
func (m *Memory) Threads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.threads))
	for id := range m.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetThread drops every part of a thread
func (m *Memory) ResetThread(threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("reset %q: %w", threadID, ErrUnknownThread)
	}
	for _, p := range t.order {
		delete(m.byID, p.ID)
		delete(m.threadOf, p.ID)
	}
	delete(m.threads, threadID)
	return nil
}

// DispatchRetry implements RetryDispatcher by recording the request
func (m *Memory) DispatchRetry(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[threadID]; !ok {
		return fmt.Errorf("retry %q: %w", threadID, ErrUnknownThread)
	}
	m.retries = append(m.retries, RetryRequest{ThreadID: threadID, At: time.Now()})
	logger.Debug("store: retry requested for thread %s", threadID)
	return nil
}

// Retries returns the recorded retry requests
func (m *Memory) Retries() []RetryRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RetryRequest(nil), m.retries...)
}
