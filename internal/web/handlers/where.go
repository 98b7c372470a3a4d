package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/mobility"
	"github.com/kozaktomas/whereabouts/internal/smoother"
)

// WhereHandler answers location queries from the schedule and live smoothing state.
type WhereHandler struct {
	inferencer *mobility.Inferencer
	tracker    *smoother.Tracker
	now        func() time.Time
}

// NewWhereHandler creates a where handler. tracker may be nil when no
// recognition loop is running.
func NewWhereHandler(inferencer *mobility.Inferencer, tracker *smoother.Tracker, now func() time.Time) *WhereHandler {
	if now == nil {
		now = time.Now
	}
	return &WhereHandler{inferencer: inferencer, tracker: tracker, now: now}
}

// EntryResponse represents a schedule entry.
type EntryResponse struct {
	PlaceName string   `json:"place_name"`
	PlaceType string   `json:"place_type"`
	Days      []string `json:"days"`
	TimeStart string   `json:"time_start"`
	TimeEnd   string   `json:"time_end"`
	Weight    float64  `json:"weight"`
}

// WhereResponse is the answer to a location query.
type WhereResponse struct {
	Identity   string          `json:"identity"`
	At         time.Time       `json:"at"`
	Location   *EntryResponse  `json:"location"`
	Candidates []EntryResponse `json:"candidates"`
	Smoothed   string          `json:"smoothed,omitempty"`
}

func entryResponse(e mobility.Entry) EntryResponse {
	return EntryResponse{
		PlaceName: e.PlaceName,
		PlaceType: e.PlaceType,
		Days:      e.Days,
		TimeStart: e.Start.String(),
		TimeEnd:   e.End.String(),
		Weight:    e.Weight,
	}
}

// Get handles GET /where/{identity}?at=RFC3339.
func (h *WhereHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" || identity == constants.UnknownLabel {
		respondError(w, http.StatusBadRequest, "identity is required")
		return
	}

	at, ok := parseAt(r, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid at, expected RFC 3339")
		return
	}

	resp := WhereResponse{Identity: identity, At: at, Candidates: []EntryResponse{}}
	for _, e := range h.inferencer.Candidates(identity, at) {
		resp.Candidates = append(resp.Candidates, entryResponse(e))
	}
	if best, found := h.inferencer.Infer(identity, at); found {
		er := entryResponse(best)
		resp.Location = &er
	}
	if h.tracker != nil {
		resp.Smoothed = h.tracker.Current(identity)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Locations returns the smoothed location of every identity seen by the live loop.
func (h *WhereHandler) Locations(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		respondJSON(w, http.StatusOK, map[string]string{})
		return
	}
	respondJSON(w, http.StatusOK, h.tracker.Snapshot())
}
