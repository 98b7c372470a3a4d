package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/recognition"
)

// ErrNoFrame is returned when a result carries no decodable image.
var ErrNoFrame = errors.New("frame has no image data")

// Annotate draws face boxes, identity and location labels and the quit hint
// onto the frame image.
func Annotate(r *recognition.FrameResult) (image.Image, error) {
	if len(r.Frame) == 0 {
		return nil, ErrNoFrame
	}
	img, _, err := image.Decode(bytes.NewReader(r.Frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", r.Seq, err)
	}

	dc := gg.NewContextForImage(img)
	for _, f := range r.Faces {
		rect := facematch.PixelRect(f.BBox, dc.Width(), dc.Height())
		if rect.Empty() {
			continue
		}
		x1, y1 := float64(rect.Min.X), float64(rect.Min.Y)

		dc.SetRGB(0, 1, 0)
		dc.SetLineWidth(2)
		dc.DrawRectangle(x1, y1, float64(rect.Dx()), float64(rect.Dy()))
		dc.Stroke()

		dc.SetRGB(1, 1, 1)
		dc.DrawString(f.IdentityLabel(), x1, y1-30)

		dc.SetRGB(1, 1, 0)
		dc.DrawString(f.LocationLabel(), x1, y1-10)
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawString(recognition.QuitHint, 10, float64(dc.Height()-10))
	return dc.Image(), nil
}

// EncodeJPEG annotates r and encodes it as JPEG.
func EncodeJPEG(r *recognition.FrameResult) ([]byte, error) {
	img, err := Annotate(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", r.Seq, err)
	}
	return buf.Bytes(), nil
}

// ImageSink writes annotated frames to a directory, either one file per frame
// or a single latest.jpg that is replaced every frame.
type ImageSink struct {
	Dir     string
	KeepAll bool

	mu sync.Mutex
}

// NewImageSink creates dir if needed.
func NewImageSink(dir string, keepAll bool) (*ImageSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame output dir: %w", err)
	}
	return &ImageSink{Dir: dir, KeepAll: keepAll}, nil
}

// Path returns the file a frame with seq is written to.
func (s *ImageSink) Path(seq int64) string {
	if s.KeepAll {
		return filepath.Join(s.Dir, fmt.Sprintf("frame_%06d.jpg", seq))
	}
	return filepath.Join(s.Dir, "latest.jpg")
}

func (s *ImageSink) Emit(_ context.Context, r *recognition.FrameResult) error {
	data, err := EncodeJPEG(r)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(r.Seq)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}
	return nil
}

func (s *ImageSink) Close() error {
	return nil
}
