package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/whereabouts/internal/facematch"
)

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// staticStore is an enrollment store returning fixed references.
type staticStore struct {
	refs []facematch.Reference
	err  error
}

func (s *staticStore) Save(context.Context, string, []float32) error {
	return nil
}

func (s *staticStore) Load(context.Context) ([]facematch.Reference, error) {
	return s.refs, s.err
}

// decodeJSON decodes a recorder body into v.
func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body %s)", err, recorder.Body.String())
	}
}
