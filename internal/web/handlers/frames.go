package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/recognition"
	"github.com/kozaktomas/whereabouts/internal/render"
)

// FramesHandler serves frames published to a Hub.
type FramesHandler struct {
	hub    *Hub
	logger *logger.Logger
}

// NewFramesHandler creates a frames handler.
func NewFramesHandler(hub *Hub, log *logger.Logger) *FramesHandler {
	return &FramesHandler{hub: hub, logger: log}
}

// Latest returns the last processed frame as JSON.
func (h *FramesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest := h.hub.Latest()
	if latest == nil {
		respondError(w, http.StatusNotFound, "no frame processed yet")
		return
	}
	respondJSON(w, http.StatusOK, latest)
}

// LatestImage returns the last processed frame with annotations as JPEG.
func (h *FramesHandler) LatestImage(w http.ResponseWriter, r *http.Request) {
	latest := h.hub.Latest()
	if latest == nil {
		respondError(w, http.StatusNotFound, "no frame processed yet")
		return
	}

	data, err := render.EncodeJPEG(latest)
	if err != nil {
		h.logger.Warn("failed to render frame", "seq", latest.Seq, "error", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to render frame")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Events streams every processed frame as a "frame" SSE event until the client
// disconnects or the hub closes.
func (h *FramesHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := h.hub.AddListener()
	defer h.hub.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", map[string]any{
		"frames": h.hub.Frames(),
	})
	if latest := h.hub.Latest(); latest != nil {
		sendSSEEvent(w, flusher, "frame", latest)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-eventCh:
			if !ok {
				sendSSEEvent(w, flusher, "closed", map[string]string{"message": "recognition stopped"})
				return
			}
			sendSSEEvent(w, flusher, "frame", frame)
		}
	}
}

var _ recognition.Sink = (*Hub)(nil)
