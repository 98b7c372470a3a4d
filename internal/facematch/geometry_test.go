package facematch

import (
	"image"
	"math"
	"testing"
)

func TestConvertPixelBBoxToRelative(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		width    int
		height   int
		expected []float64
	}{
		{
			name:     "simple conversion",
			bbox:     []float64{100, 200, 300, 400},
			width:    1000,
			height:   1000,
			expected: []float64{0.1, 0.2, 0.3, 0.4},
		},
		{
			name:     "full frame",
			bbox:     []float64{0, 0, 640, 480},
			width:    640,
			height:   480,
			expected: []float64{0, 0, 1, 1},
		},
		{
			name:     "invalid bbox",
			bbox:     []float64{100, 200},
			width:    1000,
			height:   1000,
			expected: []float64{100, 200},
		},
		{
			name:     "zero dimensions",
			bbox:     []float64{100, 200, 300, 400},
			width:    0,
			height:   1000,
			expected: []float64{100, 200, 300, 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertPixelBBoxToRelative(tt.bbox, tt.width, tt.height)
			if len(result) != len(tt.expected) {
				t.Errorf("ConvertPixelBBoxToRelative() length = %d, want %d", len(result), len(tt.expected))
				return
			}
			for i := range result {
				if math.Abs(result[i]-tt.expected[i]) > 0.0001 {
					t.Errorf("ConvertPixelBBoxToRelative()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestPixelRect(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		width    int
		height   int
		expected image.Rectangle
	}{
		{"inside frame", []float64{10.7, 20.2, 110.9, 140.5}, 640, 480, image.Rect(10, 20, 110, 140)},
		{"clipped to frame", []float64{-5, -3, 700, 500}, 640, 480, image.Rect(0, 0, 640, 480)},
		{"unknown frame size", []float64{-5, 3, 50, 60}, 0, 0, image.Rect(-5, 3, 50, 60)},
		{"invalid bbox", []float64{1, 2, 3}, 640, 480, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelRect(tt.bbox, tt.width, tt.height)
			if got != tt.expected {
				t.Errorf("PixelRect(%v, %d, %d) = %v, want %v", tt.bbox, tt.width, tt.height, got, tt.expected)
			}
		})
	}
}
