package stream

import (
	"sync/atomic"

	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/parts"
	"github.com/tidwall/gjson"
)

// Pump decodes raw frames and applies them to a sink. A frame holds one
// part object or an array of them.
type Pump struct {
	sink    Sink
	applied atomic.Int64
	skipped atomic.Int64
	log     *logger.ComponentLogger
}

// NewPump creates a pump feeding sink
func NewPump(sink Sink) *Pump {
	return &Pump{sink: sink, log: logger.WithComponent("stream")}
}

// Feed decodes one frame and applies every part in it. It reports whether
// at least one part was applied.
func (p *Pump) Feed(frame []byte) bool {
	if !gjson.ValidBytes(frame) {
		p.skip(frame, parts.ErrNotJSON)
		return false
	}
	root := gjson.ParseBytes(frame)
	if !root.IsArray() {
		return p.feedOne([]byte(root.Raw))
	}

	applied := false
	root.ForEach(func(_, value gjson.Result) bool {
		if p.feedOne([]byte(value.Raw)) {
			applied = true
		}
		return true
	})
	return applied
}

func (p *Pump) feedOne(raw []byte) bool {
	part, err := parts.Decode(raw)
	if err != nil {
		p.skip(raw, err)
		return false
	}
	if part.ID == "" {
		p.skip(raw, errMissingID)
		return false
	}
	p.sink.Apply(part)
	p.applied.Add(1)
	return true
}

func (p *Pump) skip(raw []byte, err error) {
	p.skipped.Add(1)
	preview := string(raw)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	p.log.Warn("skipping undecodable frame", "error", err, "frame", preview)
}

// Applied returns the number of parts applied so far
func (p *Pump) Applied() int64 {
	return p.applied.Load()
}

// Skipped returns the number of frames or elements skipped so far
func (p *Pump) Skipped() int64 {
	return p.skipped.Load()
}
