package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// imageExts lists file extensions DirSource treats as frames.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// DirSource replays the images of a directory in name order.
type DirSource struct {
	mu     sync.Mutex
	files  []string
	next   int
	seq    int64
	loop   bool
	pace   pacer
	closed bool
}

// DirOptions configures a DirSource.
type DirOptions struct {
	// Interval is the minimum time between frames; zero replays as fast as possible.
	Interval time.Duration
	// Loop restarts from the first image instead of ending the stream.
	Loop bool
}

// NewDirSource lists image files in dir. A directory without images is an error.
func NewDirSource(dir string, opts DirOptions) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	sort.Strings(files)

	return &DirSource{files: files, loop: opts.Loop, pace: pacer{interval: opts.Interval}}, nil
}

// Len returns the number of images in the directory.
func (s *DirSource) Len() int {
	return len(s.files)
}

// Next returns the next image, or ErrEndOfStream after the last one.
func (s *DirSource) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrEndOfStream
	}
	if s.next >= len(s.files) {
		if !s.loop {
			return nil, ErrEndOfStream
		}
		s.next = 0
	}
	if err := s.pace.wait(ctx); err != nil {
		return nil, err
	}

	path := s.files[s.next]
	s.next++
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}
	s.seq++
	return &Frame{Seq: s.seq, Data: data, CapturedAt: time.Now(), Origin: path}, nil
}

// Close stops the source. Further calls to Next return ErrEndOfStream.
func (s *DirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
