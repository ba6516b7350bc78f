package similarity

import "math"

// Cosine returns the cosine similarity between two vectors, in [-1, 1].
//
// Mismatched lengths, empty inputs and zero-magnitude vectors all yield 0.
// Callers treat the result as a ranking score, so a neutral degenerate value
// is preferred over an error or NaN.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Normalize scales a vector to unit length. Zero vectors are returned as-is.
// pgvector cosine distance expects normalized vectors for stable ordering.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
