package significance

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultLevel is the coverage of the empirical interval.
const DefaultLevel = 0.95

// conventional two-sided critical values, kept exact so that the 95% interval
// divides by 2*1.96
var criticalValues = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// Statistic summarises one column of a coefficient matrix. Index 0 is the
// intercept, index j >= 1 is feature j-1 of the fitted column order.
type Statistic struct {
	Index            int     `json:"index"`
	Mean             float64 `json:"mean"`
	CILower          float64 `json:"ci_lower"`
	CIUpper          float64 `json:"ci_upper"`
	StdErrPercentile float64 `json:"stderr_percentile"`
	StdErrSEM        float64 `json:"stderr_sem"`
	ZSEM             float64 `json:"z_sem"`
	ZPercentile      float64 `json:"z_percentile"`
	// Degenerate is set when either standard error is zero; the z values are
	// then ±Inf (or NaN for a zero mean) and the column is never selected.
	Degenerate bool `json:"degenerate"`
}

// Z returns the z statistic of the given method.
func (s Statistic) Z(m Method) float64 {
	if m == MethodSEM {
		return s.ZSEM
	}
	return s.ZPercentile
}

// Summarize computes per-column statistics at the default 95% level.
func Summarize(coefs mat.Matrix) ([]Statistic, error) {
	return SummarizeWithLevel(coefs, DefaultLevel)
}

// SummarizeWithLevel computes, for every column of coefs (one row per
// repetition), the mean, the standard error of the mean (ddof=1), the
// empirical central interval with linear interpolation between order
// statistics, the standard error backed out of that interval and both z
// statistics.
//
// Columns with a zero standard error are flagged Degenerate. The full slice
// is still returned, together with a DegenerateDistributionError naming them.
func SummarizeWithLevel(coefs mat.Matrix, level float64) ([]Statistic, error) {
	const op = "significance.Summarize"

	r, c := coefs.Dims()
	if r < 2 {
		return nil, errors.NewInvalidArgumentError(op, "repetitions", "need at least 2", r)
	}
	if c == 0 {
		return nil, errors.NewInvalidArgumentError(op, "columns", "need at least 1", c)
	}
	if !(level > 0 && level < 1) {
		return nil, errors.NewInvalidArgumentError(op, "level", "must be in (0, 1)", level)
	}

	tail := (1 - level) / 2
	z := criticalValue(level)

	stats := make([]Statistic, c)
	var degenerate []int
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, coefs)
		if err := errors.CheckNumericalStability(op, col, j); err != nil {
			return nil, err
		}

		mean, std := stat.MeanStdDev(col, nil)
		sem := std / math.Sqrt(float64(r))

		sort.Float64s(col)
		lower := percentile(col, tail)
		upper := percentile(col, 1-tail)
		sePct := (upper - lower) / (2 * z)

		s := Statistic{
			Index:            j,
			Mean:             mean,
			CILower:          lower,
			CIUpper:          upper,
			StdErrPercentile: sePct,
			StdErrSEM:        sem,
			ZSEM:             mean / sem,
			ZPercentile:      mean / sePct,
		}
		if sem == 0 || sePct == 0 {
			s.Degenerate = true
			degenerate = append(degenerate, j)
		}
		stats[j] = s
	}

	if len(degenerate) > 0 {
		return stats, errors.NewDegenerateDistributionError(degenerate)
	}
	return stats, nil
}

// percentile returns the p-quantile of sorted using h = (n-1)p and linear
// interpolation between the neighbouring order statistics.
func percentile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func criticalValue(level float64) float64 {
	if z, ok := criticalValues[level]; ok {
		return z
	}
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}
