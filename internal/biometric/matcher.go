package biometric

import "math"

// DefaultThreshold is the Euclidean-distance tolerance below which two
// templates are considered the same face. Matches the tolerance the
// extraction pipeline is calibrated for.
const DefaultThreshold = 0.6

// Matcher compares face templates. The zero value is ready to use.
type Matcher struct{}

// Verify reports whether candidate is within threshold of stored.
// Dissimilar or malformed (length-mismatched, empty) templates simply
// verify as false; Verify never fails.
func (Matcher) Verify(stored, candidate Template, threshold float64) bool {
	if len(stored) == 0 || len(stored) != len(candidate) {
		return false
	}
	return Distance(stored, candidate) <= threshold
}

// Distance returns the Euclidean distance between two equal-length templates.
func Distance(a, b Template) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
