package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.8, 0.9, 1.0}, []float64{0.5, 0.7, 0.9})

	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 0.9, s.MeanAccuracy, 1e-12)
	assert.InDelta(t, math.Sqrt(0.02/3), s.StdAccuracy, 1e-12)
	assert.InDelta(t, 0.7, s.MeanAUC, 1e-12)
	assert.InDelta(t, math.Sqrt(0.08/3), s.StdAUC, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Zero(t, s.N)
	assert.Zero(t, s.MeanAccuracy)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf, true))
	assert.Equal(t, "no successful runs\n", buf.String())
}

func TestWriteMetrics(t *testing.T) {
	acc := []float64{0.75, 0.85}
	auc := []float64{0.8, 0.9}

	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, acc, auc, false))
	assert.Equal(t, "Accuracy : 0.800 +/- 0.050\nAUC      : 0.850 +/- 0.050\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteMetrics(&buf, acc, auc, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  [1] Accuracy : 0.850 AUC : 0.900", lines[3])
}

func TestSummarizeCopiesInput(t *testing.T) {
	acc := []float64{1, 2}
	s := Summarize(acc, acc)
	acc[0] = 42
	assert.Equal(t, 1.0, s.Accuracy[0])
}
