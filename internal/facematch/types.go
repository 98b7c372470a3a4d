// Package facematch attributes face embeddings to enrolled identities.
package facematch

import (
	"fmt"

	"github.com/kozaktomas/whereabouts/internal/constants"
)

// Unknown is the identity reported when no enrolled identity is close enough.
const Unknown = constants.UnknownLabel

// Reference is one enrolled identity and its mean embedding.
type Reference struct {
	Identity  string
	Embedding []float32
}

// MatchResult is the outcome of matching one probe embedding.
type MatchResult struct {
	Identity   string
	Similarity float64
}

// Known reports whether the result names an enrolled identity.
func (r MatchResult) Known() bool {
	return r.Identity != Unknown
}

// Label formats the result the way it is drawn next to a face, e.g. "Alice (0.87)".
func (r MatchResult) Label() string {
	return fmt.Sprintf("%s (%.2f)", r.Identity, r.Similarity)
}
