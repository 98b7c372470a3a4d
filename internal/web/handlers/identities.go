package handlers

import (
	"net/http"

	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/database"
	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/logger"
)

// IdentitiesHandler serves the enrolled roster.
type IdentitiesHandler struct {
	store  enrollment.Store
	logger *logger.Logger
}

// NewIdentitiesHandler creates an identities handler.
func NewIdentitiesHandler(store enrollment.Store, log *logger.Logger) *IdentitiesHandler {
	return &IdentitiesHandler{store: store, logger: log}
}

// IdentityResponse represents one enrolled identity.
type IdentityResponse struct {
	Identity string `json:"identity"`
	Dim      int    `json:"dim"`
}

// AuditResponse pairs an identity with its most similar other identity.
type AuditResponse struct {
	Identity   string  `json:"identity"`
	Nearest    string  `json:"nearest,omitempty"`
	Similarity float64 `json:"similarity"`
	Ambiguous  bool    `json:"ambiguous"`
}

// List returns enrolled identities in matching order.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load identities", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load identities")
		return
	}

	out := make([]IdentityResponse, len(refs))
	for i, ref := range refs {
		out[i] = IdentityResponse{Identity: ref.Identity, Dim: len(ref.Embedding)}
	}
	respondJSON(w, http.StatusOK, out)
}

// Audit reports, for every identity, the closest other identity.
func (h *IdentitiesHandler) Audit(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load identities", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load identities")
		return
	}

	entries := database.NewIdentityIndex(refs).Audit(constants.AuditSimilarityWarning)
	out := make([]AuditResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditResponse{
			Identity:   e.Identity,
			Nearest:    e.Nearest,
			Similarity: e.Similarity,
			Ambiguous:  e.Ambiguous,
		}
	}
	respondJSON(w, http.StatusOK, out)
}
