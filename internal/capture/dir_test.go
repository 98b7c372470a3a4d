package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFrames(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDirSource_SortedThenEOF(t *testing.T) {
	dir := writeFrames(t, "b.jpg", "a.png", "notes.txt", "c.JPEG")
	src, err := NewDirSource(dir, DirOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if src.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", src.Len())
	}

	ctx := context.Background()
	want := []string{"a.png", "b.jpg", "c.JPEG"}
	for i, name := range want {
		f, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if string(f.Data) != name {
			t.Errorf("frame %d: expected %s, got %s", i, name, f.Data)
		}
		if f.Seq != int64(i+1) {
			t.Errorf("frame %d: expected seq %d, got %d", i, i+1, f.Seq)
		}
	}

	if _, err := src.Next(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected end of stream, got %v", err)
	}
}

func TestDirSource_Loop(t *testing.T) {
	dir := writeFrames(t, "a.jpg", "b.jpg")
	src, err := NewDirSource(dir, DirOptions{Loop: true})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	var got []string
	for range 5 {
		f, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, string(f.Data))
	}
	if got[2] != "a.jpg" || got[4] != "a.jpg" {
		t.Errorf("expected replay from start, got %v", got)
	}

	src.Close()
	if _, err := src.Next(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected end of stream after close, got %v", err)
	}
}

func TestDirSource_Empty(t *testing.T) {
	dir := writeFrames(t, "readme.md")
	if _, err := NewDirSource(dir, DirOptions{}); err == nil {
		t.Error("expected error for directory without images")
	}
	if _, err := NewDirSource(filepath.Join(dir, "missing"), DirOptions{}); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDirSource_IntervalRespectsCancel(t *testing.T) {
	dir := writeFrames(t, "a.jpg", "b.jpg")
	src, err := NewDirSource(dir, DirOptions{Interval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := src.Next(ctx); err != nil {
		t.Fatalf("first frame should not wait: %v", err)
	}

	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled while pacing, got %v", err)
	}
}
