// Package render provides sinks that present processed frames.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/recognition"
)

// LogSink writes one log line per recognized face.
type LogSink struct {
	Logger *logger.Logger
}

func (s *LogSink) Emit(_ context.Context, r *recognition.FrameResult) error {
	if r.DetectError != "" {
		return nil
	}
	if len(r.Faces) == 0 {
		s.Logger.Debug("no faces", "seq", r.Seq)
		return nil
	}
	for _, f := range r.Faces {
		s.Logger.Info("face",
			"seq", r.Seq,
			"identity", f.Identity,
			"similarity", fmt.Sprintf("%.2f", f.Similarity),
			"location", f.Location,
		)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}

// JSONLSink writes each frame result as one JSON object per line.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewJSONLSink writes to w. When w is also an io.Closer it is closed by Close.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *JSONLSink) Emit(_ context.Context, r *recognition.FrameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(r); err != nil {
		return fmt.Errorf("encode frame %d: %w", r.Seq, err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// Multi fans every frame out to all sinks.
type Multi []recognition.Sink

func (m Multi) Emit(ctx context.Context, r *recognition.FrameResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
