package smoother

import (
	"fmt"
	"slices"
	"testing"

	"github.com/kozaktomas/whereabouts/internal/constants"
)

func TestBuffer_EmptyIsUnknown(t *testing.T) {
	b := NewBuffer(10)
	if got := b.Current(); got != constants.UnknownLabel {
		t.Errorf("expected %q, got %q", constants.UnknownLabel, got)
	}
	if b.Len() != 0 {
		t.Errorf("expected empty buffer, got %d", b.Len())
	}
}

func TestBuffer_Current(t *testing.T) {
	tests := []struct {
		name   string
		pushes []string
		want   string
	}{
		{"majority", []string{"A", "A", "B"}, "A"},
		{"single", []string{"Office"}, "Office"},
		{"later majority", []string{"A", "B", "B"}, "B"},
		{"tie keeps oldest", []string{"B", "A", "A", "B"}, "B"},
		{"tie keeps oldest reversed", []string{"A", "B", "B", "A"}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(10)
			for _, p := range tt.pushes {
				b.Push(p)
			}
			if got := b.Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuffer_EvictsOldest(t *testing.T) {
	b := NewBuffer(10)
	for i := range 11 {
		b.Push(fmt.Sprintf("p%d", i))
	}

	if b.Len() != 10 {
		t.Fatalf("expected 10 values, got %d", b.Len())
	}
	values := b.Values()
	if values[0] != "p1" || values[9] != "p10" {
		t.Errorf("expected p1..p10, got %v", values)
	}
	if slices.Contains(values, "p0") {
		t.Error("expected p0 to be evicted")
	}
}

func TestBuffer_MajorityShiftsAfterEviction(t *testing.T) {
	b := NewBuffer(3)
	for _, p := range []string{"Home", "Home", "Office", "Office"} {
		b.Push(p)
	}
	// Buffer now holds Home, Office, Office.
	if got := b.Current(); got != "Office" {
		t.Errorf("expected Office, got %q", got)
	}
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	if b.Cap() != constants.LocationSmoothingWindow {
		t.Errorf("expected default capacity %d, got %d", constants.LocationSmoothingWindow, b.Cap())
	}
}
