package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/killallgit/partstream/pkg/logger"
)

const maxLineSize = 4 * 1024 * 1024

// JSONLSource replays one part update per line from a reader
type JSONLSource struct {
	Reader io.Reader

	// Delay paces the replay; zero replays as fast as possible
	Delay time.Duration
}

// Run implements Source
func (s *JSONLSource) Run(ctx context.Context, sink Sink) error {
	pump := NewPump(sink)
	scanner := bufio.NewScanner(s.Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		pump.Feed(line)

		if s.Delay > 0 {
			if err := sleep(ctx, s.Delay); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read part stream: %w", err)
	}

	logger.WithComponent("stream").Debug("replay finished", "applied", pump.Applied(), "skipped", pump.Skipped())
	return nil
}

// FileSource replays a JSONL file
type FileSource struct {
	Path  string
	Delay time.Duration
}

// Run implements Source
func (s *FileSource) Run(ctx context.Context, sink Sink) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("failed to open part stream: %w", err)
	}
	defer f.Close()

	return (&JSONLSource{Reader: f, Delay: s.Delay}).Run(ctx, sink)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
