package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	defaultSnapshotTimeout  = 10 * time.Second
	defaultSnapshotInterval = 200 * time.Millisecond
	maxSnapshotSize         = 20 << 20
)

// SnapshotSource polls an IP camera's still image endpoint, e.g. Hikvision
// /ISAPI/Streaming/channels/101/picture, one request per frame.
type SnapshotSource struct {
	URL      string
	Username string
	Password string

	httpClient *http.Client
	mu         sync.Mutex
	seq        int64
	pace       pacer
	closed     bool
}

// NewSnapshotSource creates a source for url. Basic auth is sent when username is set.
// A non-positive interval uses a 200ms default.
func NewSnapshotSource(url, username, password string, interval time.Duration) *SnapshotSource {
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}
	return &SnapshotSource{
		URL:      url,
		Username: username,
		Password: password,
		httpClient: &http.Client{
			Timeout: defaultSnapshotTimeout,
		},
		pace: pacer{interval: interval},
	}
}

// Next fetches one snapshot. Any non-200 response ends the stream with an error.
func (s *SnapshotSource) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrEndOfStream
	}
	if err := s.pace.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.Username != "" {
		req.SetBasicAuth(s.Username, s.Password)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("snapshot returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot response was empty")
	}

	s.seq++
	return &Frame{Seq: s.seq, Data: data, CapturedAt: time.Now(), Origin: s.URL}, nil
}

// Close releases idle connections. Further calls to Next return ErrEndOfStream.
func (s *SnapshotSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.httpClient.CloseIdleConnections()
	return nil
}
