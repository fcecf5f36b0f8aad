package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SyntheticConfig describes a logistic toy problem. Features are i.i.d.
// standard normal; the log-odds of class 1 are Intercept + sum_j Weights[j]*x_j,
// so features beyond len(Weights) are pure noise.
type SyntheticConfig struct {
	Samples   int
	Features  int
	Weights   []float64
	Intercept float64
	Seed      uint64
}

// DefaultSynthetic is 200 samples × 10 features with features 0 and 1 informative.
func DefaultSynthetic() SyntheticConfig {
	return SyntheticConfig{
		Samples:  200,
		Features: 10,
		Weights:  []float64{2, -2},
		Seed:     42,
	}
}

// Synthetic draws a dataset from cfg. The same config always yields the same data.
func Synthetic(cfg SyntheticConfig) (*Dataset, error) {
	if cfg.Samples < 2 || cfg.Features < 1 {
		return nil, errors.NewInvalidArgumentError("dataset.Synthetic", "shape", "need at least 2 samples and 1 feature",
			[2]int{cfg.Samples, cfg.Features})
	}
	if len(cfg.Weights) > cfg.Features {
		return nil, errors.NewInvalidArgumentError("dataset.Synthetic", "weights", "more weights than features", len(cfg.Weights))
	}

	r := rand.New(rand.NewPCG(cfg.Seed, 0))
	X := mat.NewDense(cfg.Samples, cfg.Features, nil)
	y := make([]int, cfg.Samples)
	for i := 0; i < cfg.Samples; i++ {
		logit := cfg.Intercept
		for j := 0; j < cfg.Features; j++ {
			v := r.NormFloat64()
			X.Set(i, j, v)
			if j < len(cfg.Weights) {
				logit += cfg.Weights[j] * v
			}
		}
		if r.Float64() < 1/(1+math.Exp(-logit)) {
			y[i] = 1
		}
	}

	names := make([]string, cfg.Features)
	ids := make([]string, cfg.Samples)
	for j := range names {
		names[j] = fmt.Sprintf("f%d", j)
	}
	for i := range ids {
		ids[i] = fmt.Sprintf("s%d", i)
	}

	ds := &Dataset{X: X, Y: y, FeatureNames: names, SampleIDs: ids}
	if neg, pos := ds.ClassCounts(); neg == 0 || pos == 0 {
		return nil, errors.NewDegenerateLabelSetError("dataset.Synthetic", "generation", y[0], cfg.Samples)
	}
	return ds, nil
}

// Write serialises ds in the given layout using tags to name the labels.
func Write(w io.Writer, ds *Dataset, layout Layout, tags map[string]int) error {
	layout, err := ParseLayout(string(layout))
	if err != nil {
		return err
	}
	if tags == nil {
		tags = DefaultTags()
	}
	if err := validateTags(tags); err != nil {
		return err
	}
	names := [2]string{}
	for tag, label := range tags {
		// pick the lexically smallest tag per label so output is stable
		if names[label] == "" || tag < names[label] {
			names[label] = tag
		}
	}

	n, p := ds.Dims()
	cw := csv.NewWriter(w)
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	if layout == LayoutSamplesAsRows {
		header := append(append([]string{"id"}, ds.FeatureNames...), "label")
		if err := cw.Write(header); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			row := make([]string, 0, p+2)
			row = append(row, sampleID(ds, i))
			for j := 0; j < p; j++ {
				row = append(row, format(ds.X.At(i, j)))
			}
			row = append(row, names[ds.Y[i]])
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	} else {
		header := make([]string, 0, n+1)
		header = append(header, "id")
		for i := 0; i < n; i++ {
			header = append(header, names[ds.Y[i]])
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for j := 0; j < p; j++ {
			row := make([]string, 0, n+1)
			row = append(row, featureName(ds, j))
			for i := 0; i < n; i++ {
				row = append(row, format(ds.X.At(i, j)))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func sampleID(ds *Dataset, i int) string {
	if i < len(ds.SampleIDs) {
		return ds.SampleIDs[i]
	}
	return strconv.Itoa(i)
}

func featureName(ds *Dataset, j int) string {
	if j < len(ds.FeatureNames) {
		return ds.FeatureNames[j]
	}
	return strconv.Itoa(j)
}
