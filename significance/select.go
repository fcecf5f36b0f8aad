package significance

import (
	"math"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

// Method names a standard error estimator.
type Method string

const (
	// MethodPercentile backs the standard error out of the empirical interval.
	MethodPercentile Method = "percentile"
	// MethodSEM uses the classical standard error of the mean.
	MethodSEM Method = "sem"
)

// ParseMethod maps "percentile" and "sem" to a Method. Empty means percentile.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodPercentile:
		return MethodPercentile, nil
	case MethodSEM:
		return MethodSEM, nil
	default:
		return "", errors.NewInvalidArgumentError("ParseMethod", "method", "must be percentile or sem", s)
	}
}

// Select returns the 0-based feature indices (Statistic.Index-1) whose |z|
// under method exceeds threshold, in ascending order. The intercept and
// degenerate columns are never selected. An empty result is valid.
func Select(stats []Statistic, threshold float64, method Method) []int {
	selected := []int{}
	for _, s := range stats {
		if s.Index < 1 || s.Degenerate {
			continue
		}
		if z := s.Z(method); !math.IsNaN(z) && math.Abs(z) > threshold {
			selected = append(selected, s.Index-1)
		}
	}
	return selected
}
