package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/whereabouts/internal/mobility"
	"github.com/kozaktomas/whereabouts/internal/smoother"
)

const testSchedule = `person_id,place_name,place_type,days,time_start,time_end,weight
alice,Office,work,Mon|Tue|Wed|Thu|Fri,09:00,17:00,0.8
alice,Meeting Room,work,Tue,10:00,11:00,0.9
`

func newWhereHandler(t *testing.T, tracker *smoother.Tracker) *WhereHandler {
	t.Helper()
	store, err := mobility.ParseCSV(strings.NewReader(testSchedule), "schedule.csv")
	if err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return time.Date(2026, 10, 13, 10, 30, 0, 0, time.UTC) }
	return NewWhereHandler(mobility.NewInferencer(store, time.UTC), tracker, now)
}

func TestWhereHandler_Get(t *testing.T) {
	tracker := smoother.NewTracker(10, false)
	tracker.Observe("alice", "Office")
	h := newWhereHandler(t, tracker)

	tests := []struct {
		name           string
		identity       string
		query          string
		wantStatus     int
		wantLocation   string
		wantCandidates int
	}{
		{"now picks heaviest", "alice", "", http.StatusOK, "Meeting Room", 2},
		{"explicit time", "alice", "?at=2026-10-13T15:00:00Z", http.StatusOK, "Office", 1},
		{"no location", "alice", "?at=2026-10-17T15:00:00Z", http.StatusOK, "", 0},
		{"unknown identity", "zed", "", http.StatusOK, "", 0},
		{"invalid time", "alice", "?at=later", http.StatusBadRequest, "", 0},
		{"unknown label", "Unknown", "", http.StatusBadRequest, "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/where/"+tc.identity+tc.query, nil)
			req = requestWithChiParams(req, map[string]string{"identity": tc.identity})
			recorder := httptest.NewRecorder()
			h.Get(recorder, req)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, recorder.Code)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}

			var got WhereResponse
			decodeJSON(t, recorder, &got)
			if tc.wantLocation == "" {
				if got.Location != nil {
					t.Errorf("expected no location, got %+v", got.Location)
				}
			} else if got.Location == nil || got.Location.PlaceName != tc.wantLocation {
				t.Errorf("expected location %q, got %+v", tc.wantLocation, got.Location)
			}
			if len(got.Candidates) != tc.wantCandidates {
				t.Errorf("expected %d candidates, got %d", tc.wantCandidates, len(got.Candidates))
			}
		})
	}
}

func TestWhereHandler_GetIncludesSmoothed(t *testing.T) {
	tracker := smoother.NewTracker(10, false)
	tracker.Observe("alice", "Office")
	h := newWhereHandler(t, tracker)

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/where/alice", nil),
		map[string]string{"identity": "alice"})
	recorder := httptest.NewRecorder()
	h.Get(recorder, req)

	var got WhereResponse
	decodeJSON(t, recorder, &got)
	if got.Smoothed != "Office" {
		t.Errorf("expected smoothed Office, got %q", got.Smoothed)
	}
	if got.Location.TimeStart != "10:00" || got.Location.TimeEnd != "11:00" {
		t.Errorf("unexpected window %s-%s", got.Location.TimeStart, got.Location.TimeEnd)
	}
}

func TestWhereHandler_Locations(t *testing.T) {
	tracker := smoother.NewTracker(10, false)
	tracker.Observe("alice", "Office")
	tracker.Observe("bob", "Gym")

	recorder := httptest.NewRecorder()
	newWhereHandler(t, tracker).Locations(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))

	var got map[string]string
	decodeJSON(t, recorder, &got)
	if got["alice"] != "Office" || got["bob"] != "Gym" {
		t.Errorf("unexpected locations %v", got)
	}

	recorder = httptest.NewRecorder()
	newWhereHandler(t, nil).Locations(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))
	if strings.TrimSpace(recorder.Body.String()) != "{}" {
		t.Errorf("expected empty object without tracker, got %s", recorder.Body.String())
	}
}
