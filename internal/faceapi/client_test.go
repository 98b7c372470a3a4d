package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file.Close()
		if header.Header.Get("Content-Type") != "image/jpeg" {
			http.Error(w, "wrong content type", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 2,
			"model":       "buffalo_l",
			"faces": []map[string]any{
				{"face_index": 0, "dim": 2, "embedding": []float32{3, 4}, "bbox": []float64{10, 20, 110, 140}, "det_score": 0.91},
				{"face_index": 1, "dim": 2, "embedding": []float32{}, "bbox": []float64{0, 0, 1, 1}, "det_score": 0.2},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	dets, err := client.Detect(context.Background(), encodeTestJPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("expected faces without embeddings to be dropped, got %d detections", len(dets))
	}
	d := dets[0]
	if d.DetScore != 0.91 {
		t.Errorf("DetScore = %v, want 0.91", d.DetScore)
	}
	if len(d.BBox) != 4 || d.BBox[2] != 110 {
		t.Errorf("unexpected bbox %v", d.BBox)
	}
	if math.Abs(float64(d.NormedEmbedding[0])-0.6) > 1e-6 || math.Abs(float64(d.NormedEmbedding[1])-0.8) > 1e-6 {
		t.Errorf("NormedEmbedding = %v, want [0.6 0.8]", d.NormedEmbedding)
	}
}

func TestClient_DetectNoFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count":0,"faces":[],"model":"buffalo_l"}`))
	}))
	defer server.Close()

	dets, err := NewClient(server.URL).Detect(context.Background(), encodeTestJPEG(t, 8, 8))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("expected no detections, got %d", len(dets))
	}
}

func TestClient_DetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Detect(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","model":"buffalo_l"}`))
	}))
	defer server.Close()

	model, err := NewClient(server.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if model != "buffalo_l" {
		t.Errorf("model = %q, want buffalo_l", model)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a\x00\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"short", []byte{0xFF}, "application/octet-stream"},
		{"text", []byte("hello world"), "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectMIMEType(tc.data); got != tc.expected {
				t.Errorf("DetectMIMEType() = %q, want %q", got, tc.expected)
			}
		})
	}
}
