package facematch

import (
	"image"
	"math"
)

// ConvertPixelBBoxToRelative converts pixel bbox to relative (0-1) coordinates.
// Input bbox is [x1, y1, x2, y2] in pixels, output is [x1, y1, x2, y2] in relative coords.
func ConvertPixelBBoxToRelative(bbox []float64, width, height int) []float64 {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return bbox
	}
	return []float64{
		bbox[0] / float64(width),
		bbox[1] / float64(height),
		bbox[2] / float64(width),
		bbox[3] / float64(height),
	}
}

// PixelRect truncates a [x1, y1, x2, y2] bbox to integer pixels and clips it to
// the frame bounds. Detectors may report boxes slightly outside the frame.
func PixelRect(bbox []float64, width, height int) image.Rectangle {
	if len(bbox) != 4 {
		return image.Rectangle{}
	}
	r := image.Rect(
		int(math.Floor(bbox[0])),
		int(math.Floor(bbox[1])),
		int(math.Floor(bbox[2])),
		int(math.Floor(bbox[3])),
	)
	if width <= 0 || height <= 0 {
		return r
	}
	return r.Intersect(image.Rect(0, 0, width, height))
}
