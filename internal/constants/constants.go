// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// SimilarityThreshold is the minimum cosine similarity for a probe face to be
	// attributed to a known identity. Tuned for a single mean embedding per identity.
	SimilarityThreshold = 0.35

	// UnknownLabel is shown for faces that match no identity and for identities
	// without a smoothed location yet.
	UnknownLabel = "Unknown"

	// FaceEmbeddingDim is the embedding size produced by buffalo_l (ResNet100)
	FaceEmbeddingDim = 512

	// AuditSimilarityWarning is the similarity above which two enrolled identities
	// are reported as confusable by the roster audit
	AuditSimilarityWarning = 0.5
)

// Location constants
const (
	// LocationSmoothingWindow is the default capacity of the location history buffer
	LocationSmoothingWindow = 10
)

// Processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) for images sent to the face server
	MaxImageSize = 1920

	// JPEGQuality is used whenever frames or enrollment photos are re-encoded
	JPEGQuality = 85
)

// Web constants
const (
	// EventChannelBuffer is the buffer size for SSE listener channels
	EventChannelBuffer = 100
)
