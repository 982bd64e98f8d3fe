package service

import (
	"context"

	"videotranscriber/internal/extractor"
)

// Collector runs the extractor to completion. *extractor.Runner satisfies it.
type Collector interface {
	Collect(ctx context.Context, args []string) (string, error)
}

// Streamer runs the extractor and forwards its output lines. *extractor.Runner satisfies it.
type Streamer interface {
	Stream(ctx context.Context, args []string, lines chan<- extractor.Line) error
}
