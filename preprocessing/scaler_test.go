package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

func columnMoments(X mat.Matrix, j int) (mean, variance float64) {
	r, _ := X.Dims()
	col := make([]float64, r)
	mat.Col(col, j, X)
	return stat.PopMeanVariance(col, nil)
}

func TestStandardScalerTrainingColumnsStandardized(t *testing.T) {
	X := mat.NewDense(5, 3, []float64{
		1, 10, -3,
		2, 20, -1,
		3, 30, 0,
		4, 40, 2,
		5, 55, 7,
	})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		mean, variance := columnMoments(Xs, j)
		assert.InDelta(t, 0, mean, 1e-12, "column %d mean", j)
		assert.InDelta(t, 1, variance, 1e-12, "column %d variance", j)
	}
	assert.Equal(t, 3, scaler.NFeatures())
	assert.InDelta(t, 3.0, scaler.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(2), scaler.Scale[0], 1e-12)
}

func TestStandardScalerUsesTrainingStatistics(t *testing.T) {
	train := mat.NewDense(4, 1, []float64{0, 2, 4, 6})
	eval := mat.NewDense(2, 1, []float64{3, 100})

	scaler := NewStandardScalerDefault()
	require.NoError(t, scaler.Fit(train))
	out, err := scaler.Transform(eval)
	require.NoError(t, err)

	std := math.Sqrt(5)
	assert.InDelta(t, 0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 97/std, out.At(1, 0), 1e-12)

	mean, _ := columnMoments(out, 0)
	assert.Greater(t, mean, 1.0, "evaluation data is not re-centred")
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
	})

	scaler := NewStandardScalerDefault()
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scaler.Scale[1])
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, out.At(i, 1))
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, -1, 4, 0, 9, 5})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)
	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerWithoutMeanOrStd(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})

	noMean := NewStandardScaler(false, true)
	out, err := noMean.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0, out.At(1, 0), 1e-12)

	noStd := NewStandardScaler(true, false)
	out, err = noStd.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, out.At(0, 0), 1e-12)
	assert.Equal(t, map[string]interface{}{"with_mean": true, "with_std": false}, noStd.GetParams())
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf), "got %v", err)

	err = scaler.Fit(&mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData), "got %v", err)

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)

	assert.Equal(t, "StandardScaler(with_mean=true, with_std=true, n_features=2)", scaler.String())
}
