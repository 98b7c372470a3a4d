package faceapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned for data that is not a supported image.
var ErrUndecodable = errors.New("image could not be decoded")

// Prepared is an image re-encoded for upload to the face server.
type Prepared struct {
	Data   []byte
	Width  int // original width
	Height int // original height
	Scale  float64
}

// PrepareImage decodes any supported format, downsizes it to fit within maxSize
// (width or height) while keeping aspect ratio, and encodes it as JPEG.
// Scale is the factor applied to the original dimensions (1 when not resized).
func PrepareImage(data []byte, maxSize int, quality int) (*Prepared, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := &Prepared{Width: width, Height: height, Scale: 1}

	var target image.Image = img
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		target = resized
		out.Scale = float64(newWidth) / float64(width)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, target, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// ResizingDetector normalizes images before handing them to the wrapped
// detector and maps bounding boxes back to original pixel coordinates.
type ResizingDetector struct {
	Detector Detector
	MaxSize  int
	Quality  int
}

func (d *ResizingDetector) Detect(ctx context.Context, imageData []byte) ([]Detection, error) {
	prepared, err := PrepareImage(imageData, d.MaxSize, d.Quality)
	if err != nil {
		return nil, err
	}

	detections, err := d.Detector.Detect(ctx, prepared.Data)
	if err != nil {
		return nil, err
	}
	if prepared.Scale == 1 {
		return detections, nil
	}
	for i := range detections {
		bbox := make([]float64, len(detections[i].BBox))
		for j, v := range detections[i].BBox {
			bbox[j] = v / prepared.Scale
		}
		detections[i].BBox = bbox
	}
	return detections, nil
}
