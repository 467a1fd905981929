package store

import (
	"context"
	"errors"

	"github.com/killallgit/partstream/pkg/parts"
)

// ErrUnknownThread is returned for operations on a thread the store has
// never seen
var ErrUnknownThread = errors.New("unknown thread")

// PartReader is the read side of the part store
type PartReader interface {
	// PartByID returns the latest snapshot of a part
	PartByID(id string) (*parts.Part, bool)

	// PartsForThread returns the thread's parts in arrival order
	PartsForThread(threadID string) []*parts.Part
}

// RetryDispatcher resubmits a thread. It is fire-and-forget: the returned
// error only reports whether the request was accepted.
type RetryDispatcher interface {
	DispatchRetry(ctx context.Context, threadID string) error
}
