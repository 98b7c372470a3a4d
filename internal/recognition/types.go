// Package recognition runs the per-frame detect, match, infer and smooth pipeline.
package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocationPrefix precedes the smoothed place in location labels.
const LocationPrefix = "Likely at: "

// QuitHint is drawn on every rendered frame.
const QuitHint = "Press Q to quit"

// FaceAnnotation describes one recognized face in a frame.
type FaceAnnotation struct {
	BBox       []float64 `json:"bbox"`
	Identity   string    `json:"identity"`
	Similarity float64   `json:"similarity"`
	// Scheduled is the place inferred for this frame alone, empty for no location.
	Scheduled string `json:"scheduled,omitempty"`
	// Location is the smoothed place that is displayed.
	Location string `json:"location"`
}

// IdentityLabel formats the identity line, e.g. "Alice (0.87)".
func (f FaceAnnotation) IdentityLabel() string {
	return fmt.Sprintf("%s (%.2f)", f.Identity, f.Similarity)
}

// LocationLabel formats the location line, e.g. "Likely at: Office".
func (f FaceAnnotation) LocationLabel() string {
	return LocationPrefix + f.Location
}

// FrameResult is everything a sink needs to render one processed frame.
type FrameResult struct {
	ID          uuid.UUID        `json:"id"`
	RunID       uuid.UUID        `json:"run_id"`
	Seq         int64            `json:"seq"`
	Origin      string           `json:"origin,omitempty"`
	CapturedAt  time.Time        `json:"captured_at"`
	ProcessedAt time.Time        `json:"processed_at"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Faces       []FaceAnnotation `json:"faces"`
	DetectError string           `json:"detect_error,omitempty"`
	// Frame holds the encoded source image.
	Frame []byte `json:"-"`
}

// Sink consumes processed frames.
type Sink interface {
	Emit(ctx context.Context, result *FrameResult) error
	Close() error
}
