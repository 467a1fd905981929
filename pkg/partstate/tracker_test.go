package partstate_test

import (
	"context"
	"errors"
	"time"

	"github.com/killallgit/partstream/pkg/parts"
	"github.com/killallgit/partstream/pkg/partstate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchRetry(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

var _ = Describe("Tracker", func() {
	var (
		base    time.Time
		now     time.Time
		tracker *partstate.Tracker
	)

	BeforeEach(func() {
		base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		now = base
		tracker = partstate.NewTracker(partstate.WithClock(func() time.Time { return now }))
	})

	Describe("thinking cards", func() {
		var part *parts.Part

		BeforeEach(func() {
			part = parts.NewThinking("th1", "considering")
			part.CreatedAt = base
		})

		It("should start expanded while thinking", func() {
			view := tracker.ThinkingState(part)
			Expect(view.Phase).To(Equal(partstate.ThinkingInProgress))
			Expect(view.Collapsed).To(BeFalse())
			Expect(view.HasDuration).To(BeFalse())
		})

		It("should ignore toggles while thinking", func() {
			tracker.Observe(part)
			Expect(tracker.Toggle("th1")).To(BeFalse())
			Expect(tracker.ThinkingState(part).Collapsed).To(BeFalse())
		})

		It("should auto-collapse on completion", func() {
			tracker.Observe(part)

			done := *part
			done.IsDone = true
			done.FinishedAt = base.Add(7500 * time.Millisecond)

			view := tracker.ThinkingState(&done)
			Expect(view.Phase).To(Equal(partstate.ThinkingCompleted))
			Expect(view.Collapsed).To(BeTrue())
			Expect(view.DurationText()).To(Equal("7.5s"))
		})

		It("should toggle once completed and keep the choice across updates", func() {
			part.IsDone = true
			tracker.Observe(part)

			Expect(tracker.Toggle("th1")).To(BeTrue())
			Expect(tracker.ThinkingState(part).Collapsed).To(BeFalse())

			// same phase again does not force a collapse
			Expect(tracker.ThinkingState(part).Collapsed).To(BeFalse())
		})

		It("should re-expand if the part goes back to thinking", func() {
			part.IsDone = true
			tracker.Observe(part)

			again := *part
			again.IsDone = false
			view := tracker.ThinkingState(&again)
			Expect(view.Phase).To(Equal(partstate.ThinkingInProgress))
			Expect(view.Collapsed).To(BeFalse())
		})

		It("should format long durations in minutes", func() {
			part.Status = parts.StatusCompleted
			part.FinishedAt = base.Add(125 * time.Second)
			Expect(tracker.ThinkingState(part).DurationText()).To(Equal("2m 5s"))
		})

		It("should omit the duration when timestamps are missing", func() {
			part.IsDone = true
			part.CreatedAt = time.Time{}
			view := tracker.ThinkingState(part)
			Expect(view.HasDuration).To(BeFalse())
			Expect(view.DurationText()).To(BeEmpty())
		})
	})

	Describe("tool phases", func() {
		DescribeTable("deriving the phase",
			func(mutate func(p *parts.Part), expected partstate.ToolPhase) {
				p := parts.NewTool("t1", "read_file")
				mutate(p)
				Expect(partstate.ToolPhaseOf(p)).To(Equal(expected))
			},
			Entry("fresh part", func(p *parts.Part) {}, partstate.ToolPreparing),
			Entry("running status", func(p *parts.Part) { p.Status = parts.StatusRunning }, partstate.ToolRunning),
			Entry("done without result", func(p *parts.Part) { p.IsDone = true }, partstate.ToolRunning),
			Entry("done with result", func(p *parts.Part) {
				p.IsDone = true
				p.AsTool().Result = []byte(`"ok"`)
			}, partstate.ToolSuccess),
			Entry("error wins over result", func(p *parts.Part) {
				p.IsDone = true
				p.AsTool().Result = []byte(`"ok"`)
				p.AsTool().Error = []byte(`"boom"`)
			}, partstate.ToolError),
			Entry("error before done", func(p *parts.Part) {
				p.AsTool().Error = []byte(`"boom"`)
			}, partstate.ToolError),
			Entry("null error is absent", func(p *parts.Part) {
				p.IsDone = true
				p.AsTool().Result = []byte(`{"lines":3}`)
				p.AsTool().Error = []byte(`null`)
			}, partstate.ToolSuccess),
		)

		It("should report preparing for a non-tool part", func() {
			Expect(partstate.ToolPhaseOf(parts.NewText("x", "hi"))).To(Equal(partstate.ToolPreparing))
			Expect(partstate.ToolPhaseOf(nil)).To(Equal(partstate.ToolPreparing))
		})

		It("should flag streaming independently of the phase", func() {
			p := parts.NewTool("t1", "write_file")
			Expect(partstate.IsStreaming(p)).To(BeFalse())

			p.AsTool().Arguments = strPtr(`{"path":"a.go"`)
			Expect(partstate.IsStreaming(p)).To(BeTrue())
			view := tracker.ToolState(p)
			Expect(view.Phase).To(Equal(partstate.ToolPreparing))
			Expect(view.Busy).To(BeTrue())

			p.IsDone = true
			Expect(partstate.IsStreaming(p)).To(BeFalse())
		})
	})

	Describe("tool elapsed time", func() {
		var part *parts.Part

		BeforeEach(func() {
			part = parts.NewTool("t1", "bash")
			part.CreatedAt = base
			part.Status = parts.StatusRunning
		})

		It("should advance with the clock while running", func() {
			now = base.Add(2 * time.Second)
			view := tracker.ToolState(part)
			Expect(view.Frozen).To(BeFalse())
			Expect(view.Elapsed).To(Equal(2 * time.Second))

			now = base.Add(5 * time.Second)
			Expect(tracker.ToolState(part).Elapsed).To(Equal(5 * time.Second))
		})

		It("should freeze at the finish timestamp", func() {
			part.IsDone = true
			part.AsTool().Result = []byte(`"done"`)
			part.FinishedAt = base.Add(3 * time.Second)
			now = base.Add(time.Minute)

			view := tracker.ToolState(part)
			Expect(view.Phase).To(Equal(partstate.ToolSuccess))
			Expect(view.Frozen).To(BeTrue())
			Expect(view.Busy).To(BeFalse())
			Expect(view.Elapsed).To(Equal(3 * time.Second))
		})

		It("should freeze at the first terminal observation without a finish timestamp", func() {
			part.AsTool().Error = []byte(`"exit 1"`)
			now = base.Add(4 * time.Second)
			Expect(tracker.ToolState(part).Elapsed).To(Equal(4 * time.Second))

			now = base.Add(10 * time.Second)
			view := tracker.ToolState(part)
			Expect(view.Frozen).To(BeTrue())
			Expect(view.Elapsed).To(Equal(4 * time.Second))
		})

		It("should never toggle", func() {
			tracker.Observe(part)
			Expect(tracker.Toggle("t1")).To(BeFalse())
		})
	})

	Describe("error cards", func() {
		var (
			part       *parts.Part
			dispatcher *MockDispatcher
		)

		BeforeEach(func() {
			part = parts.NewError("e1", "rate limited")
			part.ThreadID = "thread-1"
			dispatcher = &MockDispatcher{}
		})

		It("should start collapsed and toggle freely", func() {
			Expect(tracker.ErrorState(part).Collapsed).To(BeTrue())
			Expect(tracker.Toggle("e1")).To(BeTrue())
			Expect(tracker.ErrorState(part).Collapsed).To(BeFalse())
			Expect(tracker.Toggle("e1")).To(BeTrue())
			Expect(tracker.ErrorState(part).Collapsed).To(BeTrue())
		})

		It("should dispatch a retry for the owning thread", func() {
			ctx := context.Background()
			dispatcher.On("DispatchRetry", ctx, "thread-1").Return(nil)

			view := tracker.ErrorState(part)
			Expect(view.Retry).NotTo(BeNil())
			Expect(view.Retry.PartID).To(Equal("e1"))
			Expect(view.Retry.Dispatch(ctx, dispatcher)).To(Succeed())
			dispatcher.AssertExpectations(GinkgoT())
		})

		It("should surface dispatcher failures", func() {
			ctx := context.Background()
			dispatcher.On("DispatchRetry", ctx, "thread-1").Return(errors.New("offline"))

			err := tracker.ErrorState(part).Retry.Dispatch(ctx, dispatcher)
			Expect(err).To(MatchError("offline"))
		})

		It("should not offer a retry for non-retryable errors", func() {
			no := false
			part.AsError().Retryable = &no

			view := tracker.ErrorState(part)
			Expect(view.Retry).To(BeNil())
			Expect(view.Retry.Dispatch(context.Background(), dispatcher)).To(MatchError(partstate.ErrNotRetryable))
			dispatcher.AssertNotCalled(GinkgoT(), "DispatchRetry", mock.Anything, mock.Anything)
		})
	})

	Describe("bookkeeping", func() {
		It("should reset state when a part id changes variant", func() {
			tracker.Observe(parts.NewError("x", "oops"))
			collapsed, ok := tracker.Collapsed("x")
			Expect(ok).To(BeTrue())
			Expect(collapsed).To(BeTrue())

			tracker.Observe(parts.NewThinking("x", "hmm"))
			collapsed, _ = tracker.Collapsed("x")
			Expect(collapsed).To(BeFalse())
		})

		It("should retain only the given ids", func() {
			tracker.Observe(parts.NewText("a", "hi"))
			tracker.Observe(parts.NewError("b", "oops"))
			tracker.Observe(parts.NewTool("c", "ls"))

			Expect(tracker.Retain(map[string]struct{}{"a": {}, "c": {}})).To(Equal(1))
			Expect(tracker.Len()).To(Equal(2))
			_, ok := tracker.Collapsed("b")
			Expect(ok).To(BeFalse())

			Expect(tracker.Retain(nil)).To(Equal(2))
			Expect(tracker.Len()).To(Equal(0))
		})

		It("should ignore parts without ids and forget everything on reset", func() {
			tracker.Observe(parts.NewText("", "no id"))
			Expect(tracker.Len()).To(Equal(0))

			tracker.Observe(parts.NewText("a", "hi"))
			tracker.Observe(parts.NewTool("b", "ls"))
			Expect(tracker.Len()).To(Equal(2))

			tracker.Reset()
			Expect(tracker.Len()).To(Equal(0))
			Expect(tracker.Toggle("a")).To(BeFalse())
		})
	})
})

var _ = Describe("View", func() {
	It("should fill in the state of the part's variant only", func() {
		tracker := partstate.NewTracker()

		v := tracker.View(parts.NewError("e", "boom"))
		Expect(v.Variant).To(Equal(parts.VariantError))
		Expect(v.Error.Collapsed).To(BeTrue())
		Expect(v.Tool).To(Equal(partstate.ToolView{}))

		v = tracker.View(parts.NewText("a", "hi"))
		Expect(v.Variant).To(Equal(parts.VariantText))
		Expect(tracker.Len()).To(Equal(2))
	})
})
