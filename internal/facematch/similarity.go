package facematch

import (
	"gonum.org/v1/gonum/floats"
)

// toFloat64 widens an embedding so gonum can operate on it.
func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// CosineSimilarity computes the cosine similarity between two embedding vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// Mismatched lengths, empty vectors and zero-norm vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	fa, fb := toFloat64(a), toFloat64(b)
	normA := floats.Norm(fa, 2)
	normB := floats.Norm(fb, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := floats.Dot(fa, fb) / (normA * normB)
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}
	return similarity
}

// Mean returns the element-wise arithmetic mean of the given vectors.
// Returns nil when vectors is empty or the lengths disagree.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil
		}
		floats.Add(sum, toFloat64(v))
	}
	floats.Scale(1/float64(len(vectors)), sum)

	out := make([]float32, dim)
	for i, x := range sum {
		out[i] = float32(x)
	}
	return out
}

// Normalize returns v scaled to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	fv := toFloat64(v)
	norm := floats.Norm(fv, 2)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range fv {
		out[i] = float32(x / norm)
	}
	return out
}
