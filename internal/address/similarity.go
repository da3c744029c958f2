package address

import (
	"fmt"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Scorer rates how similar two tokens are, from 0 (unrelated) to 1 (equal).
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// Supported similarity algorithms.
const (
	AlgorithmOSA         = "osa"
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmJaroWinkler = "jaro-winkler"
)

// NewScorer returns the scorer for the named algorithm. An empty name selects
// optimal string alignment distance.
func NewScorer(algorithm string) (Scorer, error) {
	switch algorithm {
	case "", AlgorithmOSA:
		return distanceRatio(edlib.OSADamerauLevenshteinDistance), nil
	case AlgorithmLevenshtein:
		return distanceRatio(edlib.LevenshteinDistance), nil
	case AlgorithmJaroWinkler:
		return ScorerFunc(func(a, b string) float64 {
			if a == "" && b == "" {
				return 1
			}
			return float64(edlib.JaroWinklerSimilarity(a, b))
		}), nil
	default:
		return nil, fmt.Errorf("unknown match algorithm %q", algorithm)
	}
}

// distanceRatio turns an edit distance into 1 - distance/longest length.
func distanceRatio(distance func(a, b string) int) ScorerFunc {
	return func(a, b string) float64 {
		la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
		longest := max(la, lb)
		if longest == 0 {
			return 1
		}
		if la == 0 || lb == 0 {
			return 0
		}
		return 1 - float64(distance(a, b))/float64(longest)
	}
}
