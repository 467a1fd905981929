package timeline_test

import (
	"context"
	"fmt"
	"time"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/gate"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/partstate"
	"github.com/killallgit/partstream/pkg/render"
	"github.com/killallgit/partstream/pkg/store"
	"github.com/killallgit/partstream/pkg/timeline"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingPresenter struct {
	parts  []string
	groups []string
}

func (c *countingPresenter) PresentPart(p *parts.Part, view partstate.View, ctx gate.Context) string {
	c.parts = append(c.parts, p.ID)
	return fmt.Sprintf("%s/%s/%s", ctx.Mode, view.Variant, p.ID)
}

func (c *countingPresenter) PresentGroup(g *aggregate.Group, m aggregate.Metrics, ctx gate.Context) string {
	c.groups = append(c.groups, g.ID)
	return fmt.Sprintf("%s/group/%d", ctx.Mode, len(g.Members))
}

func inThread(p *parts.Part) *parts.Part {
	p.ThreadID = "thread-1"
	return p
}

func kinds(entries []timeline.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		if e.Item.Kind == aggregate.KindAggregate {
			out[i] = fmt.Sprintf("group(%d)", len(e.Item.Group.Members))
		} else {
			out[i] = e.Item.Part.ID
		}
	}
	return out
}

var _ = Describe("Session", func() {
	var (
		mem       *store.Memory
		presenter *countingPresenter
		session   *timeline.Session
		base      time.Time
		now       time.Time
	)

	BeforeEach(func() {
		mem = store.NewMemory()
		presenter = &countingPresenter{}
		base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
		now = base
		session = timeline.NewSession("thread-1", mem,
			timeline.WithPresenter(presenter),
			timeline.WithMode(render.ModeChat),
			timeline.WithClock(func() time.Time { return now }),
		)
	})

	AfterEach(func() {
		session.Close()
	})

	Describe("grouping", func() {
		It("should fold a tool run followed by text", func() {
			mem.Apply(inThread(parts.NewText("t1", "Let me look")))
			mem.Apply(inThread(parts.NewTool("a", "read_file")))
			mem.Apply(inThread(parts.NewTool("b", "grep")))
			mem.Apply(inThread(parts.NewText("t2", "Found it")))

			entries := session.Refresh()
			Expect(kinds(entries)).To(Equal([]string{"t1", "group(2)", "t2"}))
			Expect(entries[1].Metrics.ToolCount).To(Equal(2))
			Expect(entries[1].Text).To(Equal("chat/group/2"))
		})

		It("should keep a trailing run standalone until text arrives", func() {
			mem.Apply(inThread(parts.NewThinking("th", "hmm")))
			mem.Apply(inThread(parts.NewTool("a", "ls")))
			Expect(kinds(session.Refresh())).To(Equal([]string{"th", "a"}))

			mem.Apply(inThread(parts.NewText("t", "done")))
			Expect(kinds(session.Refresh())).To(Equal([]string{"group(2)", "t"}))
		})

		It("should keep checkpoint tools out of groups", func() {
			mem.Apply(inThread(parts.NewTool("a", "grep")))
			mem.Apply(inThread(parts.NewTool("c", "git_commit")))
			mem.Apply(inThread(parts.NewTool("b", "grep")))
			mem.Apply(inThread(parts.NewText("t", "ok")))
			Expect(kinds(session.Refresh())).To(Equal([]string{"a", "c", "b", "t"}))
		})

		It("should only show its own thread", func() {
			other := parts.NewText("x", "elsewhere")
			other.ThreadID = "thread-2"
			mem.Apply(other)
			mem.Apply(inThread(parts.NewText("t", "here")))
			Expect(kinds(session.Refresh())).To(Equal([]string{"t"}))
		})
	})

	Describe("incremental recompute", func() {
		BeforeEach(func() {
			mem.Apply(inThread(parts.NewText("t1", "Let me look")))
			mem.Apply(inThread(parts.NewTool("a", "read_file")))
			mem.Apply(inThread(parts.NewTool("b", "grep")))
			mem.Apply(inThread(parts.NewText("t2", "Found")))
			session.Refresh()
			presenter.parts = nil
			presenter.groups = nil
		})

		It("should reuse every entry when nothing changed", func() {
			session.Refresh()
			Expect(session.Stats()).To(Equal(timeline.Stats{Recomputed: 0, Reused: 3}))
			Expect(presenter.parts).To(BeEmpty())
			Expect(presenter.groups).To(BeEmpty())
		})

		It("should recompute only the streaming text part", func() {
			mem.Apply(inThread(parts.NewText("t2", "Found it")))
			entries := session.Refresh()

			Expect(session.Stats()).To(Equal(timeline.Stats{Recomputed: 1, Reused: 2}))
			Expect(presenter.parts).To(Equal([]string{"t2"}))
			Expect(entries[2].Item.Part.AsText().Text).To(Equal("Found it"))
		})

		It("should recompute a group when a member changes", func() {
			done := inThread(parts.NewTool("b", "grep"))
			done.IsDone = true
			done.AsTool().Result = []byte(`"1 match"`)
			mem.Apply(done)

			entries := session.Refresh()
			Expect(presenter.groups).To(HaveLen(1))
			Expect(entries[1].Metrics.SuccessCount).To(Equal(1))
		})

		It("should reuse a text part re-sent with the same content", func() {
			mem.Apply(inThread(parts.NewText("t1", "Let me look")))
			session.Refresh()
			Expect(presenter.parts).To(BeEmpty())
		})

		It("should recompute everything when the context changes", func() {
			session.SetContext(gate.Context{Mode: render.ModeCompact})
			entries := session.Refresh()

			Expect(session.Stats().Recomputed).To(Equal(3))
			Expect(entries[0].Text).To(Equal("compact/text/t1"))
			Expect(session.Context().ThreadID).To(Equal("thread-1"))
		})
	})

	Describe("cards with live state", func() {
		It("should recompute standalone tools on every refresh", func() {
			tool := inThread(parts.NewTool("a", "bash"))
			tool.CreatedAt = base
			tool.Status = parts.StatusRunning
			mem.Apply(tool)

			now = base.Add(2 * time.Second)
			entries := session.Refresh()
			Expect(entries[0].View.Tool.Elapsed).To(Equal(2 * time.Second))

			now = base.Add(3 * time.Second)
			entries = session.Refresh()
			Expect(session.Stats().Recomputed).To(Equal(1))
			Expect(entries[0].View.Tool.Elapsed).To(Equal(3 * time.Second))
		})

		It("should auto-collapse thinking and honour toggles", func() {
			th := inThread(parts.NewThinking("th", "pondering"))
			th.CreatedAt = base
			mem.Apply(th)
			entries := session.Refresh()
			Expect(entries[0].View.Thinking.Collapsed).To(BeFalse())
			Expect(session.Toggle("th")).To(BeFalse())

			done := inThread(parts.NewThinking("th", "pondering"))
			done.CreatedAt = base
			done.FinishedAt = base.Add(7500 * time.Millisecond)
			done.IsDone = true
			mem.Apply(done)

			entries = session.Refresh()
			Expect(entries[0].View.Thinking.Collapsed).To(BeTrue())
			Expect(entries[0].View.Thinking.DurationText()).To(Equal("7.5s"))

			session.Refresh()
			Expect(session.Stats().Reused).To(Equal(1))

			Expect(session.Toggle("th")).To(BeTrue())
			entries = session.Refresh()
			Expect(session.Stats().Recomputed).To(Equal(1))
			Expect(entries[0].View.Thinking.Collapsed).To(BeFalse())
		})
	})

	Describe("thread reset", func() {
		It("should forget card state of parts dropped from the thread", func() {
			mem.Apply(inThread(parts.NewError("e", "boom")))
			mem.Apply(inThread(parts.NewText("t", "hi")))
			session.Refresh()
			Expect(session.Toggle("e")).To(BeTrue())
			entries := session.Refresh()
			Expect(entries[0].View.Error.Collapsed).To(BeFalse())
			Expect(session.Tracked()).To(Equal(2))

			Expect(mem.ResetThread("thread-1")).To(Succeed())
			Expect(session.Refresh()).To(BeEmpty())
			Expect(session.Tracked()).To(Equal(0))

			mem.Apply(inThread(parts.NewError("e", "boom again")))
			entries = session.Refresh()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].View.Error.Collapsed).To(BeTrue())
			Expect(session.Tracked()).To(Equal(1))
		})
	})

	Describe("retry", func() {
		It("should dispatch to the store for the session thread", func() {
			errPart := inThread(parts.NewError("e", "rate limited"))
			mem.Apply(errPart)
			session.Refresh()

			Expect(session.Retry(context.Background(), mem)).To(Succeed())
			Expect(session.RetryPart(context.Background(), "e", mem)).To(Succeed())
			Expect(mem.Retries()).To(HaveLen(2))
		})

		It("should refuse parts that are not retryable", func() {
			no := false
			errPart := inThread(parts.NewError("e", "bad request"))
			errPart.AsError().Retryable = &no
			mem.Apply(errPart)

			err := session.RetryPart(context.Background(), "e", mem)
			Expect(err).To(MatchError(partstate.ErrNotRetryable))
			Expect(session.RetryPart(context.Background(), "missing", mem)).To(MatchError(partstate.ErrNotRetryable))
		})
	})

	Describe("Close", func() {
		It("should discard derived state", func() {
			mem.Apply(inThread(parts.NewText("t", "hi")))
			mem.Apply(inThread(parts.NewError("e", "boom")))
			session.Refresh()
			Expect(session.Tracked()).To(Equal(2))

			session.Close()
			Expect(session.Tracked()).To(Equal(0))
			Expect(session.Refresh()).To(BeNil())
			Expect(session.Toggle("e")).To(BeFalse())
			Expect(session.Retry(context.Background(), mem)).To(MatchError(timeline.ErrSessionClosed))
		})
	})

	It("should render end to end with the terminal presenter", func() {
		term := render.NewTerminal(render.WithStyles(render.PlainStyles()))
		s := timeline.NewSession("thread-1", mem, timeline.WithPresenter(term), timeline.WithMetricsOptions(term.MetricsOptions()))
		defer s.Close()

		mem.Apply(inThread(parts.NewText("t1", "Checking")))
		mem.Apply(inThread(parts.NewTool("a", "read_file")))
		mem.Apply(inThread(parts.NewTool("b", "grep")))
		mem.Apply(inThread(parts.NewText("t2", "Done")))

		var texts []string
		for _, e := range s.Refresh() {
			texts = append(texts, e.Text)
		}
		Expect(texts).To(Equal([]string{"Checking", "▸ Executed 2 tools  ▤ ⌕", "Done"}))
	})
})
