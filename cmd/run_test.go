package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestWatchQuit(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cancelled bool
	}{
		{"q cancels", "q\n", true},
		{"upper case Q cancels", "Q\n", true},
		{"surrounding spaces", "  q  \n", true},
		{"q after other lines", "hello\n\nq\n", true},
		{"other input", "quit\nx\n", false},
		{"end of input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			watchQuit(strings.NewReader(tt.input), cancel)

			if got := ctx.Err() != nil; got != tt.cancelled {
				t.Errorf("cancelled = %v, want %v", got, tt.cancelled)
			}
		})
	}
}

func TestFormatBBox(t *testing.T) {
	if got := formatBBox([]float64{10.4, 20.6, 110, 220}); got != "[10, 21, 110, 220]" {
		t.Errorf("formatBBox = %q", got)
	}
	if got := formatBBox(nil); got != "-" {
		t.Errorf("formatBBox(nil) = %q, want -", got)
	}
}
