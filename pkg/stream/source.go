// Package stream feeds part updates from a transport into a Sink, usually
// the part store. Frames are decoded tolerantly; a frame that cannot be
// decoded is logged and skipped so one bad update never stops the stream.
package stream

import (
	"context"
	"errors"

	"github.com/killallgit/partstream/pkg/parts"
)

// ErrClosed is returned when the remote end closes the stream abnormally
var ErrClosed = errors.New("stream closed")

var errMissingID = errors.New("part has no id")

// Sink receives decoded parts in arrival order
type Sink interface {
	Apply(p *parts.Part)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(p *parts.Part)

// Apply calls f(p)
func (f SinkFunc) Apply(p *parts.Part) {
	f(p)
}

// Source delivers part updates until it is exhausted, fails, or ctx ends.
// Run returns nil when the source ends normally.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}
