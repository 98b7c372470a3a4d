package facematch

import (
	"math"
	"testing"
)

func TestMatcher_ExactEmbeddingMatches(t *testing.T) {
	alice := []float32{0.1, 0.9, 0.3, -0.2}
	bob := []float32{-0.7, 0.1, 0.5, 0.4}
	m := NewMatcher([]Reference{{"alice", alice}, {"bob", bob}}, 0)

	for _, ref := range []Reference{{"alice", alice}, {"bob", bob}} {
		got := m.Match(ref.Embedding)
		if got.Identity != ref.Identity {
			t.Errorf("Match(%s embedding) identity = %q, want %q", ref.Identity, got.Identity, ref.Identity)
		}
		if math.Abs(got.Similarity-1) > 1e-6 {
			t.Errorf("Match(%s embedding) similarity = %v, want 1", ref.Identity, got.Similarity)
		}
		if !got.Known() {
			t.Errorf("expected %s to be known", ref.Identity)
		}
	}
}

func TestMatcher_EmptyDatabase(t *testing.T) {
	m := NewMatcher(nil, 0)

	for _, probe := range [][]float32{{1, 2, 3}, {0, 0}, nil} {
		got := m.Match(probe)
		if got.Identity != Unknown || got.Similarity != 0 {
			t.Errorf("Match(%v) on empty database = %+v, want {Unknown 0}", probe, got)
		}
	}
}

func TestMatcher_BelowThresholdIsUnknown(t *testing.T) {
	// similarity with alice = 0.3, with bob = 0.2: both below 0.35
	m := NewMatcher([]Reference{
		{"alice", []float32{0.3, float32(math.Sqrt(1 - 0.09))}},
		{"bob", []float32{0.2, float32(math.Sqrt(1 - 0.04))}},
	}, 0.35)

	got := m.Match([]float32{1, 0})
	if got.Identity != Unknown {
		t.Errorf("expected Unknown, got %q", got.Identity)
	}
	if math.Abs(got.Similarity-0.3) > 1e-6 {
		t.Errorf("expected best similarity 0.3 to be reported, got %v", got.Similarity)
	}
}

func TestMatcher_TieKeepsEarliest(t *testing.T) {
	same := []float32{1, 1, 0}
	m := NewMatcher([]Reference{{"first", same}, {"second", same}}, 0)

	got := m.Match(same)
	if got.Identity != "first" {
		t.Errorf("expected tie to keep 'first', got %q", got.Identity)
	}
}

func TestMatcher_ZeroNormSkipped(t *testing.T) {
	m := NewMatcher([]Reference{
		{"broken", []float32{0, 0, 0}},
		{"carol", []float32{1, 0, 0}},
	}, 0)

	got := m.Match([]float32{1, 0.1, 0})
	if got.Identity != "carol" {
		t.Errorf("expected carol, got %q", got.Identity)
	}
	if math.IsNaN(got.Similarity) {
		t.Error("similarity must never be NaN")
	}

	zeroProbe := m.Match([]float32{0, 0, 0})
	if zeroProbe.Identity != Unknown || zeroProbe.Similarity != 0 {
		t.Errorf("zero probe = %+v, want {Unknown 0}", zeroProbe)
	}
}

func TestMatcher_DefaultThreshold(t *testing.T) {
	m := NewMatcher(nil, 0)
	if m.Threshold() != 0.35 {
		t.Errorf("expected default threshold 0.35, got %v", m.Threshold())
	}
}

func TestMatchResult_Label(t *testing.T) {
	r := MatchResult{Identity: "Alice", Similarity: 0.8671}
	if got := r.Label(); got != "Alice (0.87)" {
		t.Errorf("Label() = %q, want %q", got, "Alice (0.87)")
	}
}

func TestDimensionMismatches(t *testing.T) {
	refs := []Reference{
		{Identity: "alice", Embedding: []float32{1, 0, 0}},
		{Identity: "bob", Embedding: []float32{1, 0}},
		{Identity: "carol", Embedding: []float32{0, 0, 1}},
		{Identity: "dave", Embedding: nil},
	}

	tests := []struct {
		name string
		dim  int
		want []string
	}{
		{"three dims", 3, []string{"bob", "dave"}},
		{"two dims", 2, []string{"alice", "carol", "dave"}},
		{"check disabled", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DimensionMismatches(refs, tt.dim)
			if len(got) != len(tt.want) {
				t.Fatalf("DimensionMismatches(%d) = %v, want %v", tt.dim, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("DimensionMismatches(%d) = %v, want %v", tt.dim, got, tt.want)
				}
			}
		})
	}
}
