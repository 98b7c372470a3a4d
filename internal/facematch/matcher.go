package facematch

import "github.com/kozaktomas/whereabouts/internal/constants"

// Matcher compares probe embeddings against an immutable set of references.
type Matcher struct {
	refs      []Reference
	threshold float64
}

// NewMatcher creates a matcher. References are scanned in the given order, which
// decides ties. A threshold <= 0 selects constants.SimilarityThreshold.
func NewMatcher(refs []Reference, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = constants.SimilarityThreshold
	}
	owned := make([]Reference, len(refs))
	copy(owned, refs)
	return &Matcher{refs: owned, threshold: threshold}
}

// Threshold returns the minimum similarity for a known match.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Len returns the number of enrolled identities.
func (m *Matcher) Len() int {
	return len(m.refs)
}

// DimensionMismatches returns the identities whose embedding length differs
// from dim, in reference order. A dim <= 0 disables the check.
func DimensionMismatches(refs []Reference, dim int) []string {
	if dim <= 0 {
		return nil
	}
	var out []string
	for _, ref := range refs {
		if len(ref.Embedding) != dim {
			out = append(out, ref.Identity)
		}
	}
	return out
}

// Match finds the most similar reference. The running maximum starts at 0 and
// only a strictly greater score replaces it, so ties keep the earliest identity.
// Scores below the threshold report Unknown with the best score seen.
func (m *Matcher) Match(probe []float32) MatchResult {
	result := MatchResult{Identity: Unknown}
	for _, ref := range m.refs {
		sim := CosineSimilarity(probe, ref.Embedding)
		if sim > result.Similarity {
			result.Similarity = sim
			result.Identity = ref.Identity
		}
	}

	if result.Similarity < m.threshold {
		result.Identity = Unknown
	}
	return result
}
