// Package faceapitest provides a scripted face detector for tests.
package faceapitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/whereabouts/internal/faceapi"
)

// Scripted returns canned detections keyed by the exact image bytes.
// Unknown images yield no detections.
type Scripted struct {
	mu      sync.Mutex
	results map[string][]faceapi.Detection
	errs    map[string]error
	calls   int
}

func New() *Scripted {
	return &Scripted{
		results: make(map[string][]faceapi.Detection),
		errs:    make(map[string]error),
	}
}

// On registers detections for an image.
func (s *Scripted) On(imageData []byte, detections ...faceapi.Detection) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[string(imageData)] = detections
	return s
}

// Fail makes Detect return err for an image.
func (s *Scripted) Fail(imageData []byte, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[string(imageData)] = err
	return s
}

func (s *Scripted) Detect(_ context.Context, imageData []byte) ([]faceapi.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.errs[string(imageData)]; ok {
		return nil, fmt.Errorf("scripted: %w", err)
	}
	return s.results[string(imageData)], nil
}

// Calls returns how many times Detect was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Face builds a detection whose normed embedding equals the embedding.
func Face(bbox []float64, embedding ...float32) faceapi.Detection {
	return faceapi.Detection{
		BBox:            bbox,
		Embedding:       embedding,
		NormedEmbedding: embedding,
		DetScore:        0.9,
	}
}
