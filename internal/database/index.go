// Package database holds in-memory search structures over enrolled identities.
package database

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/whereabouts/internal/facematch"
)

// HNSW graph parameters.
const (
	HNSWMaxNeighbors = 16
	HNSWEfSearch     = 100
)

// Neighbor is a search hit with its cosine similarity to the query.
type Neighbor struct {
	Identity   string
	Similarity float64
}

// IdentityIndex wraps an HNSW graph keyed by identity name.
type IdentityIndex struct {
	graph   *hnsw.Graph[string]
	vectors map[string][]float32
	dim     int
	skipped []string
	mu      sync.RWMutex
}

// NewIdentityIndex builds an index from enrollment references. References whose
// dimension differs from the first non-empty one are left out and reported by Skipped.
func NewIdentityIndex(refs []facematch.Reference) *IdentityIndex {
	idx := &IdentityIndex{vectors: make(map[string][]float32, len(refs))}

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance

	for _, ref := range refs {
		if len(ref.Embedding) == 0 {
			idx.skipped = append(idx.skipped, ref.Identity)
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(ref.Embedding)
		}
		if len(ref.Embedding) != idx.dim {
			idx.skipped = append(idx.skipped, ref.Identity)
			continue
		}
		// Cosine distance is scale invariant, normalizing keeps the graph well conditioned.
		vec := facematch.Normalize(ref.Embedding)
		g.Add(hnsw.MakeNode(ref.Identity, vec))
		idx.vectors[ref.Identity] = vec
	}

	if len(idx.vectors) > 0 {
		idx.graph = g
	}
	return idx
}

// Len returns the number of indexed identities.
func (x *IdentityIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dim returns the embedding dimension of the index, 0 when empty.
func (x *IdentityIndex) Dim() int {
	return x.dim
}

// Skipped lists identities that could not be indexed.
func (x *IdentityIndex) Skipped() []string {
	return x.skipped
}

// Search finds up to k identities nearest to query, most similar first.
func (x *IdentityIndex) Search(query []float32, k int) ([]Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, errors.New("index not initialized")
	}
	if len(query) != x.dim {
		return nil, errors.New("query dimension does not match index")
	}

	nodes := x.graph.Search(facematch.Normalize(query), k)
	out := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Neighbor{
			Identity:   n.Key,
			Similarity: facematch.CosineSimilarity(query, n.Value),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

// AuditEntry pairs an identity with its closest other enrolled identity.
type AuditEntry struct {
	Identity   string
	Nearest    string
	Similarity float64
	// Ambiguous is set when Nearest is similar enough to be confused at match time.
	Ambiguous bool
}

// Audit reports the nearest other identity for every indexed identity, ordered by name.
// Pairs at or above warnAt are flagged as ambiguous.
func (x *IdentityIndex) Audit(warnAt float64) []AuditEntry {
	x.mu.RLock()
	names := make([]string, 0, len(x.vectors))
	for name := range x.vectors {
		names = append(names, name)
	}
	x.mu.RUnlock()
	sort.Strings(names)

	entries := make([]AuditEntry, 0, len(names))
	for _, name := range names {
		entry := AuditEntry{Identity: name}
		hits, err := x.Search(x.vectors[name], 2)
		if err == nil {
			for _, hit := range hits {
				if hit.Identity == name {
					continue
				}
				entry.Nearest = hit.Identity
				entry.Similarity = hit.Similarity
				entry.Ambiguous = hit.Similarity >= warnAt
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
