package sink

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sigboot/dataset"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"github.com/YuminosukeSato/sigboot/report"
	"github.com/YuminosukeSato/sigboot/significance"
)

func init() {
	errors.SetWarningHandler(func(error) {})
}

func fakePass() *significance.PassResult {
	return &significance.PassResult{
		Kind:         significance.PassFull,
		Features:     []int{0, 1, 2},
		TrainSize:    80,
		TestSize:     20,
		Coefficients: mat.NewDense(2, 4, nil),
		Statistics: []significance.Statistic{
			{Index: 0, Mean: 0.1},
			{Index: 1, Mean: 1.5, CILower: 1.0, CIUpper: 2.0, ZSEM: 8, ZPercentile: 6},
			{Index: 2, Mean: -0.2, CILower: -0.6, CIUpper: 0.2, ZSEM: -1, ZPercentile: -0.8},
			{Index: 3, Mean: 0, ZSEM: math.NaN(), ZPercentile: math.NaN(), Degenerate: true},
		},
		DegenerateColumns:  []int{3},
		ValidationAccuracy: []float64{0.8, 0.9},
		ValidationAUC:      []float64{0.85, 0.95},
		TestAccuracy:       0.9,
		TestAUC:            0.93,
		Selected:           []int{0},
	}
}

func fakeReport() *significance.Report {
	return &significance.Report{
		NumSamples:  100,
		NumFeatures: 3,
		Epochs: []significance.EpochResult{
			{Epoch: 0, Status: significance.StatusOK, TestAccuracyFull: 0.9, TestAUCFull: 0.93,
				TestAccuracyFiltered: 0.92, TestAUCFiltered: 0.95, NumSignificantFeatures: 1, SignificantFeatures: []int{0}},
			{Epoch: 1, Status: significance.StatusDegraded, TestAccuracyFull: 0.8, TestAUCFull: 0.85,
				SignificantFeatures: []int{}, Error: "no features selected"},
			{Epoch: 2, Status: significance.StatusFailed, Error: "repetition 3 failed"},
		},
		Full:                    report.Summarize([]float64{0.9, 0.8}, []float64{0.93, 0.85}),
		Filtered:                report.Summarize([]float64{0.92}, []float64{0.95}),
		MeanSignificantFeatures: 0.5,
		FailedEpochs:            1,
		DegradedEpochs:          1,
	}
}

func TestWeightSeries(t *testing.T) {
	ws := newWeightSeries(fakePass())
	assert.Equal(t, []float64{1.5, -0.2, 0}, ws.Mean)
	assert.Equal(t, []float64{6, -0.8}, ws.ZPct[:2])
	assert.True(t, math.IsNaN(ws.ZSEM[2]))

	f, z := ws.selectedZ(significance.MethodSEM)
	assert.Equal(t, []int{0}, f)
	assert.Equal(t, []float64{8}, z)
	_, z = ws.selectedZ(significance.MethodPercentile)
	assert.Equal(t, []float64{6}, z)

	xys := points(ws.Features, ws.ZSEM)
	assert.Len(t, xys, 2, "non-finite values are dropped")
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, true)

	require.NoError(t, s.ObservePass(0, fakePass()))
	require.NoError(t, s.ObservePass(1, fakePass()), "later epochs are ignored")
	require.NoError(t, s.ObserveRun(fakeReport()))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Dataset : 100 samples x 3 features"))
	assert.Contains(t, out, "Train   : 80 samples")
	assert.Contains(t, out, "Test    : 20 samples")
	assert.Contains(t, out, "  Accuracy : 0.850 +/- 0.050")
	assert.Contains(t, out, "Significant weights : 1")
	assert.Contains(t, out, "Epochs : 3 (failed 1, degraded 1)")
	assert.Contains(t, out, "Average number of significant features : 0.50")
	assert.Contains(t, out, "Test data, all features\nAccuracy : 0.850 +/- 0.050")
	assert.Contains(t, out, "Test data, filtered features\nAccuracy : 0.920 +/- 0.000")
	assert.Contains(t, out, "  [1] Accuracy : 0.800 AUC : 0.850")
}

func TestJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	s := NewJSONSink(path)
	require.NoError(t, s.ObservePass(0, fakePass()))
	require.NoError(t, s.ObserveRun(fakeReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got significance.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, len(got.Epochs))
	assert.Equal(t, significance.StatusDegraded, got.Epochs[1].Status)
	assert.Equal(t, "repetition 3 failed", got.Epochs[2].Error)
	assert.InDelta(t, 0.85, got.Full.MeanAccuracy, 1e-12)
	assert.Equal(t, 1, got.FailedEpochs)

	bad := NewJSONSink(filepath.Join(t.TempDir(), "missing", "report.json"))
	assert.Error(t, bad.ObserveRun(fakeReport()))
}

func TestPlotSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	s := NewPlotSink(dir, significance.MethodPercentile)

	filtered := fakePass()
	filtered.Kind = significance.PassFiltered
	require.NoError(t, s.ObservePass(0, filtered))
	_, err := os.Stat(filepath.Join(dir, WeightsFile))
	assert.True(t, os.IsNotExist(err), "filtered passes are not plotted")

	require.NoError(t, s.ObservePass(0, fakePass()))
	require.NoError(t, s.ObserveRun(fakeReport()))

	for _, name := range []string{WeightsFile, WeightsCIFile, ZSEMFile, ZPercentileFile, ZSelectedFile, ScoresFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestPlotSinkNothingSelected(t *testing.T) {
	dir := t.TempDir()
	pass := fakePass()
	pass.Selected = []int{}
	require.NoError(t, NewPlotSink(dir, significance.MethodSEM).ObservePass(0, pass))

	_, err := os.Stat(filepath.Join(dir, ZSelectedFile))
	assert.NoError(t, err)
}

func TestChartSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.html")
	s := NewChartSink(path, significance.MethodPercentile)

	require.NoError(t, s.ObservePass(0, fakePass()))
	require.NoError(t, s.ObserveRun(fakeReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Mean weights with empirical interval")
	assert.Contains(t, html, "z of selected features")
	assert.Contains(t, html, "Test scores per epoch")
	assert.NotContains(t, html, "NaN")
}

func TestSinksWithPipeline(t *testing.T) {
	ds, err := dataset.Synthetic(dataset.DefaultSynthetic())
	require.NoError(t, err)

	dir := t.TempDir()
	var console bytes.Buffer
	logger, _ := log.NewTestLogger(log.LevelWarn)
	p, err := significance.NewPipeline(nil,
		significance.WithEpochs(2),
		significance.WithNumSplits(10),
		significance.WithLogger(logger),
		significance.WithSinks(
			NewConsoleSink(&console, false),
			NewJSONSink(filepath.Join(dir, "report.json")),
			NewPlotSink(filepath.Join(dir, "plots"), significance.MethodPercentile),
			NewChartSink(filepath.Join(dir, "charts.html"), significance.MethodPercentile),
		),
	)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), ds.X, ds.Y)
	require.NoError(t, err)
	assert.False(t, logger.ContainsMessage("sink failed"))

	assert.Contains(t, console.String(), "Dataset : 200 samples x 10 features")
	for _, name := range []string{"report.json", "charts.html", filepath.Join("plots", WeightsFile)} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
