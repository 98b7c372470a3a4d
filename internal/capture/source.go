// Package capture provides frame sources for the recognition loop.
package capture

import (
	"context"
	"io"
	"time"
)

// ErrEndOfStream is returned by Next when a source has no more frames.
var ErrEndOfStream = io.EOF

// Frame is one encoded raster image taken from a source.
type Frame struct {
	Seq        int64
	Data       []byte
	CapturedAt time.Time
	// Origin names where the frame came from (file path or URL).
	Origin string
}

// Source yields frames until it returns ErrEndOfStream or another error.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// pacer spaces consecutive frames at least interval apart.
type pacer struct {
	interval time.Duration
	last     time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	if p.interval <= 0 || p.last.IsZero() {
		p.last = time.Now()
		return ctx.Err()
	}
	delay := p.interval - time.Since(p.last)
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	p.last = time.Now()
	return ctx.Err()
}
