package significance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

func TestSummarizeKnownColumn(t *testing.T) {
	coefs := mat.NewDense(5, 1, []float64{3, 1, 5, 2, 4})

	stats, err := Summarize(coefs)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 0, s.Index)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5)/math.Sqrt(5), s.StdErrSEM, 1e-12)
	assert.InDelta(t, 1.1, s.CILower, 1e-12)
	assert.InDelta(t, 4.9, s.CIUpper, 1e-12)
	assert.InDelta(t, 3.8/3.92, s.StdErrPercentile, 1e-12)
	assert.InDelta(t, 3/(3.8/3.92), s.ZPercentile, 1e-9)
	assert.InDelta(t, 3/(math.Sqrt(2.5)/math.Sqrt(5)), s.ZSEM, 1e-9)
	assert.False(t, s.Degenerate)
}

func TestSummarizeIdenticalRowsAreDegenerate(t *testing.T) {
	coefs := mat.NewDense(4, 3, []float64{
		1, -2, 0,
		1, -2, 0,
		1, -2, 0,
		1, -2, 0,
	})

	stats, err := Summarize(coefs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDegenerateDistribution))

	var dd *errors.DegenerateDistributionError
	require.True(t, errors.As(err, &dd))
	assert.Equal(t, []int{0, 1, 2}, dd.Columns)

	require.Len(t, stats, 3)
	for _, s := range stats {
		assert.True(t, s.Degenerate)
		assert.Zero(t, s.StdErrSEM)
		assert.Zero(t, s.StdErrPercentile)
	}
	// never a finite 0/0
	assert.True(t, math.IsInf(stats[0].ZPercentile, 1))
	assert.True(t, math.IsInf(stats[1].ZSEM, -1))
	assert.True(t, math.IsNaN(stats[2].ZPercentile))

	assert.Empty(t, Select(stats, 2.0, MethodPercentile))
}

func TestSummarizeFlagsOnlyDegenerateColumns(t *testing.T) {
	coefs := mat.NewDense(3, 2, []float64{
		0.5, 7,
		1.5, 7,
		1.0, 7,
	})

	stats, err := Summarize(coefs)
	var dd *errors.DegenerateDistributionError
	require.True(t, errors.As(err, &dd))
	assert.Equal(t, []int{1}, dd.Columns)
	assert.False(t, stats[0].Degenerate)
	assert.True(t, stats[1].Degenerate)
}

func TestSummarizeWithLevel(t *testing.T) {
	col := make([]float64, 101)
	for i := range col {
		col[i] = float64(i)
	}
	coefs := mat.NewDense(101, 1, col)

	stats, err := SummarizeWithLevel(coefs, 0.90)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, stats[0].CILower, 1e-12)
	assert.InDelta(t, 95.0, stats[0].CIUpper, 1e-12)
	assert.InDelta(t, 90/(2*1.645), stats[0].StdErrPercentile, 1e-12)

	stats, err = SummarizeWithLevel(coefs, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 80/(2*1.2815515655446004), stats[0].StdErrPercentile, 1e-9)
}

func TestSummarizeInvalid(t *testing.T) {
	_, err := Summarize(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = SummarizeWithLevel(mat.NewDense(3, 1, []float64{1, 2, 3}), 1.5)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = Summarize(mat.NewDense(2, 1, []float64{1, math.NaN()}))
	assert.Error(t, err)
}

func TestPercentileMatchesLinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	assert.InDelta(t, 10.75, percentile(sorted, 0.025), 1e-12)
	assert.InDelta(t, 39.25, percentile(sorted, 0.975), 1e-12)
	assert.Equal(t, 10.0, percentile(sorted, 0))
	assert.Equal(t, 40.0, percentile(sorted, 1))
}
