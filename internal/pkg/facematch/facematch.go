package facematch

import (
	"context"
	"errors"
	"math"
)

// DefaultTolerance is the largest Euclidean distance between two 128-d
// embeddings that still counts as the same person.
const DefaultTolerance = 0.6

var (
	ErrNoFaceDetected     = errors.New("no face detected in image")
	ErrServiceUnavailable = errors.New("face match service unavailable")
	ErrDimensionMismatch  = errors.New("embedding dimensions do not match")
)

// Embedding is a fixed-length face descriptor.
type Embedding []float64

// MatchResult is the single outcome of a match. ProfileIndex points into the
// candidate slice passed to Match and is nil when Matched is false.
type MatchResult struct {
	Matched      bool
	ProfileIndex *int
}

// Matcher extracts and compares face embeddings.
type Matcher interface {
	Enroll(ctx context.Context, image []byte) (Embedding, error)
	Match(ctx context.Context, image []byte, candidates []Embedding) (MatchResult, error)
}

// Compare returns the candidate closest to probe provided it lies within
// tolerance. Ties keep the earlier candidate.
func Compare(probe Embedding, candidates []Embedding, tolerance float64) (MatchResult, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range candidates {
		d, err := EuclideanDistance(probe, c)
		if err != nil {
			return MatchResult{}, err
		}
		if d <= tolerance && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return MatchResult{}, nil
	}
	return MatchResult{Matched: true, ProfileIndex: &best}, nil
}

func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
