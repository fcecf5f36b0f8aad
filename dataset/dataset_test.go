package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

const featuresAsRows = `"id","Cancer","NonCancer","Cancer"
"geneA",1.5,2,3
"geneB",-1,0,1e-2
`

func TestReadFeaturesAsRows(t *testing.T) {
	ds, err := Read(strings.NewReader(featuresAsRows), Options{})
	require.NoError(t, err)

	n, p := ds.Dims()
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, p)
	assert.Equal(t, []int{1, 0, 1}, ds.Y)
	assert.Equal(t, []string{"geneA", "geneB"}, ds.FeatureNames)
	assert.Empty(t, ds.SampleIDs)

	// transposed: sample 0 has geneA=1.5, geneB=-1
	assert.Equal(t, 1.5, ds.X.At(0, 0))
	assert.Equal(t, -1.0, ds.X.At(0, 1))
	assert.Equal(t, 0.01, ds.X.At(2, 1))

	neg, pos := ds.ClassCounts()
	assert.Equal(t, 1, neg)
	assert.Equal(t, 2, pos)
}

func TestReadSamplesAsRows(t *testing.T) {
	in := "id,f0,f1,label\n" +
		"s1,0.5,1,yes\n" +
		"s2,-0.5,2,no\n"

	ds, err := Read(strings.NewReader(in), Options{
		Layout: LayoutSamplesAsRows,
		Tags:   map[string]int{"yes": 1, "no": 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, ds.Y)
	assert.Equal(t, []string{"f0", "f1"}, ds.FeatureNames)
	assert.Equal(t, []string{"s1", "s2"}, ds.SampleIDs)
	assert.Equal(t, 2.0, ds.X.At(1, 1))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
	}{
		{"unknown tag", "id,Cancer,Healthy\ng,1,2\n", Options{}},
		{"non numeric", "id,Cancer,NonCancer\ng,1,abc\n", Options{}},
		{"ragged row", "id,Cancer,NonCancer\ng,1\n", Options{}},
		{"header only", "id,Cancer,NonCancer\n", Options{}},
		{"bad layout", featuresAsRows, Options{Layout: "columns"}},
		{"tags missing a class", featuresAsRows, Options{Tags: map[string]int{"Cancer": 1}}},
		{"tag label out of range", featuresAsRows, Options{Tags: map[string]int{"Cancer": 2, "NonCancer": 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(featuresAsRows), 0o600))

	ds, err := Load(path, Options{})
	require.NoError(t, err)
	n, p := ds.Dims()
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, p)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestSyntheticDeterministic(t *testing.T) {
	a, err := Synthetic(DefaultSynthetic())
	require.NoError(t, err)
	b, err := Synthetic(DefaultSynthetic())
	require.NoError(t, err)

	assert.Equal(t, a.Y, b.Y)
	assert.True(t, mat.Equal(a.X, b.X))

	n, p := a.Dims()
	assert.Equal(t, 200, n)
	assert.Equal(t, 10, p)
	neg, pos := a.ClassCounts()
	assert.Greater(t, neg, 50)
	assert.Greater(t, pos, 50)
}

func TestSyntheticInvalid(t *testing.T) {
	_, err := Synthetic(SyntheticConfig{Samples: 1, Features: 3})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = Synthetic(SyntheticConfig{Samples: 10, Features: 1, Weights: []float64{1, 2}})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = Synthetic(SyntheticConfig{Samples: 10, Features: 1, Intercept: 100})
	assert.True(t, errors.Is(err, errors.ErrDegenerateLabelSet))
}

func TestWriteRoundTrip(t *testing.T) {
	ds, err := Synthetic(SyntheticConfig{Samples: 12, Features: 3, Weights: []float64{1}, Seed: 9})
	require.NoError(t, err)

	for _, layout := range []Layout{LayoutFeaturesAsRows, LayoutSamplesAsRows} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, ds, layout, nil))

		back, err := Read(&buf, Options{Layout: layout})
		require.NoError(t, err, layout)
		assert.Equal(t, ds.Y, back.Y, layout)
		assert.Equal(t, ds.FeatureNames, back.FeatureNames, layout)
		assert.True(t, mat.Equal(ds.X, back.X), layout)
	}
}
