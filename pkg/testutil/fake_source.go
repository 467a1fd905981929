package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/stream"
)

// FakeSource implements stream.Source by replaying a scripted turn as the
// snapshots a live transport would send: text grows chunk by chunk and
// tools move through preparing, running and done.
type FakeSource struct {
	threadID     string
	script       []func() []*parts.Part
	chunkDelay   time.Duration // Delay between frames
	chunkSize    int           // Characters per text chunk
	failAfter    int           // Fail after N frames (0 = no failure)
	errorMessage string
	now          func() time.Time
}

// NewFakeSource creates a fake source for one thread
func NewFakeSource(threadID string) *FakeSource {
	return &FakeSource{
		threadID:  threadID,
		chunkSize: 5,
		now:       time.Now,
	}
}

// Text streams a text part in chunks; the last snapshot is done
func (s *FakeSource) Text(id, text string) *FakeSource {
	s.script = append(s.script, func() []*parts.Part {
		var out []*parts.Part
		for end := s.chunkSize; ; end += s.chunkSize {
			if end > len(text) {
				end = len(text)
			}
			p := s.stamp(parts.NewText(id, text[:end]))
			p.IsDone = end == len(text)
			out = append(out, p)
			if p.IsDone {
				return out
			}
		}
	})
	return s
}

// Thinking emits a reasoning trace in progress, then completed
func (s *FakeSource) Thinking(id, text string) *FakeSource {
	s.script = append(s.script, func() []*parts.Part {
		started := s.now()
		live := s.stamp(parts.NewThinking(id, text))
		live.CreatedAt = started

		done := s.stamp(parts.NewThinking(id, text))
		done.CreatedAt = started
		done.IsDone = true
		done.Status = parts.StatusCompleted
		done.FinishedAt = s.now()
		return []*parts.Part{live, done}
	})
	return s
}

// Tool emits a tool call through its phases. A non-empty errText finishes
// it with an error instead of result.
func (s *FakeSource) Tool(id, name, args, result, errText string) *FakeSource {
	s.script = append(s.script, func() []*parts.Part {
		started := s.now()
		mk := func() *parts.Part {
			p := s.stamp(parts.NewTool(id, name))
			p.CreatedAt = started
			return p
		}

		preparing := mk()
		preparing.Status = parts.StatusPreparing

		running := mk()
		running.Status = parts.StatusRunning
		if args != "" {
			a := args
			running.AsTool().Arguments = &a
		}

		done := mk()
		done.IsDone = true
		done.FinishedAt = s.now()
		if args != "" {
			a := args
			done.AsTool().Arguments = &a
		}
		if errText != "" {
			done.Status = parts.StatusError
			done.AsTool().Error = quote(errText)
		} else {
			done.Status = parts.StatusSuccess
			done.AsTool().Result = quote(result)
		}
		return []*parts.Part{preparing, running, done}
	})
	return s
}

// Error emits an upstream failure
func (s *FakeSource) Error(id, message string) *FakeSource {
	s.script = append(s.script, func() []*parts.Part {
		p := s.stamp(parts.NewError(id, message))
		p.IsDone = true
		return []*parts.Part{p}
	})
	return s
}

// Frames returns every snapshot the source would send, in order
func (s *FakeSource) Frames() []*parts.Part {
	var out []*parts.Part
	for _, step := range s.script {
		out = append(out, step()...)
	}
	return out
}

// Run implements stream.Source
func (s *FakeSource) Run(ctx context.Context, sink stream.Sink) error {
	for i, p := range s.Frames() {
		if s.failAfter > 0 && i >= s.failAfter {
			msg := s.errorMessage
			if msg == "" {
				msg = "simulated stream failure"
			}
			return fmt.Errorf("%w: %s", stream.ErrClosed, msg)
		}

		if s.chunkDelay > 0 {
			select {
			case <-time.After(s.chunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		sink.Apply(p)
	}
	return nil
}

// SetChunkDelay sets the delay between frames
func (s *FakeSource) SetChunkDelay(delay time.Duration) {
	s.chunkDelay = delay
}

// SetChunkSize sets the number of characters per text chunk
func (s *FakeSource) SetChunkSize(size int) {
	if size > 0 {
		s.chunkSize = size
	}
}

// SetFailAfter configures the source to fail after N frames
func (s *FakeSource) SetFailAfter(frames int, errorMessage string) {
	s.failAfter = frames
	s.errorMessage = errorMessage
}

// SetClock overrides the clock used for timestamps
func (s *FakeSource) SetClock(now func() time.Time) {
	s.now = now
}

func (s *FakeSource) stamp(p *parts.Part) *parts.Part {
	p.ThreadID = s.threadID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	return p
}

func quote(v string) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
