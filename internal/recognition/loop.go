package recognition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/whereabouts/internal/capture"
	"github.com/kozaktomas/whereabouts/internal/faceapi"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/mobility"
	"github.com/kozaktomas/whereabouts/internal/smoother"
)

// Loop wires the collaborators of a recognition run. Frames are processed one at
// a time on the calling goroutine.
type Loop struct {
	Detector   faceapi.Detector
	Matcher    *facematch.Matcher
	Inferencer *mobility.Inferencer
	Tracker    *smoother.Tracker
	Sink       Sink
	Logger     *logger.Logger
	// Now defaults to time.Now and is read once per frame.
	Now func() time.Time

	runID uuid.UUID
}

// Stats summarizes a finished run.
type Stats struct {
	Frames       int
	Faces        int
	Known        int
	DetectErrors int
}

func (l *Loop) log() *logger.Logger {
	if l.Logger == nil {
		return logger.Nop()
	}
	return l.Logger
}

func (l *Loop) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Run processes frames from src until ctx is cancelled or the source ends or
// fails. Source failures end the run without an error.
func (l *Loop) Run(ctx context.Context, src capture.Source) (Stats, error) {
	var stats Stats
	if l.runID == uuid.Nil {
		l.runID = uuid.New()
	}
	log := l.log().With("run_id", l.runID.String())
	log.Info("recognition started", "identities", l.Matcher.Len(), "threshold", l.Matcher.Threshold())

	for {
		if ctx.Err() != nil {
			log.Info("recognition stopped", "frames", stats.Frames)
			return stats, nil
		}

		frame, err := src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, capture.ErrEndOfStream):
				log.Info("capture ended", "frames", stats.Frames)
			case ctx.Err() != nil:
				log.Info("recognition stopped", "frames", stats.Frames)
			default:
				log.Warn("capture failed, stopping", "error", err, "frames", stats.Frames)
			}
			return stats, nil
		}

		result := l.ProcessFrame(ctx, frame)
		stats.Frames++
		stats.Faces += len(result.Faces)
		for _, f := range result.Faces {
			if f.Identity != facematch.Unknown {
				stats.Known++
			}
		}
		if result.DetectError != "" {
			stats.DetectErrors++
		}

		if l.Sink != nil {
			if err := l.Sink.Emit(ctx, result); err != nil {
				log.Warn("sink failed", "seq", frame.Seq, "error", err)
			}
		}
	}
}

// ProcessFrame detects, matches and locates every face in frame. A detector
// failure is recorded on the result and yields a frame without faces.
func (l *Loop) ProcessFrame(ctx context.Context, frame *capture.Frame) *FrameResult {
	result := &FrameResult{
		ID:         uuid.New(),
		RunID:      l.runID,
		Seq:        frame.Seq,
		Origin:     frame.Origin,
		CapturedAt: frame.CapturedAt,
		Faces:      []FaceAnnotation{},
		Frame:      frame.Data,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(frame.Data)); err == nil {
		result.Width, result.Height = cfg.Width, cfg.Height
	}

	detections, err := l.Detector.Detect(ctx, frame.Data)
	if err != nil {
		l.log().Warn("face detection failed", "seq", frame.Seq, "error", err)
		result.DetectError = err.Error()
		result.ProcessedAt = l.now()
		return result
	}

	now := l.now()
	for _, det := range detections {
		result.Faces = append(result.Faces, l.annotate(det, now))
	}
	result.ProcessedAt = now
	return result
}

func (l *Loop) annotate(det faceapi.Detection, now time.Time) FaceAnnotation {
	probe := det.NormedEmbedding
	if len(probe) == 0 {
		probe = facematch.Normalize(det.Embedding)
	}
	match := l.Matcher.Match(probe)

	face := FaceAnnotation{
		BBox:       det.BBox,
		Identity:   match.Identity,
		Similarity: match.Similarity,
		Location:   facematch.Unknown,
	}
	if !match.Known() {
		return face
	}

	if l.Inferencer != nil {
		if entry, ok := l.Inferencer.Infer(match.Identity, now); ok {
			face.Scheduled = entry.PlaceName
			if l.Tracker != nil {
				l.Tracker.Observe(match.Identity, entry.PlaceName)
			}
		}
	}
	if l.Tracker != nil {
		face.Location = l.Tracker.Current(match.Identity)
	} else if face.Scheduled != "" {
		face.Location = face.Scheduled
	}
	return face
}
