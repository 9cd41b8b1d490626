package domain

import (
	"fmt"
	"math"
)

// KeyPrefix namespaces every key the service writes to its store.
const KeyPrefix = "semsearch:"

// CosineSimilarity computes the cosine similarity between two vectors in [-1, 1].
// Returns ErrVectorDimMismatch when the dimensions differ. A zero-magnitude
// vector yields similarity 0 (nothing is similar to an empty embedding).
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrVectorDimMismatch, len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}
