// Package sink provides significance.Sink implementations that present a run:
// console text, a JSON report, PNG plots and an HTML chart page.
package sink

import (
	"math"

	"github.com/YuminosukeSato/sigboot/significance"
)

// observed reports whether pass is the one the plotting sinks draw: the full
// pass of the first epoch.
func observed(epoch int, pass *significance.PassResult) bool {
	return epoch == 0 && pass != nil && pass.Kind == significance.PassFull
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// weightSeries is the per-feature view of a pass used by the plots. Index i
// refers to the original column Features[i]; the intercept is dropped.
type weightSeries struct {
	Features []int
	Mean     []float64
	Lower    []float64
	Upper    []float64
	ZSEM     []float64
	ZPct     []float64
	Selected map[int]bool
}

func newWeightSeries(pass *significance.PassResult) weightSeries {
	n := len(pass.Features)
	ws := weightSeries{
		Features: pass.Features,
		Mean:     make([]float64, n),
		Lower:    make([]float64, n),
		Upper:    make([]float64, n),
		ZSEM:     make([]float64, n),
		ZPct:     make([]float64, n),
		Selected: make(map[int]bool, len(pass.Selected)),
	}
	for i := 0; i < n && i+1 < len(pass.Statistics); i++ {
		s := pass.Statistics[i+1]
		ws.Mean[i] = s.Mean
		ws.Lower[i] = s.CILower
		ws.Upper[i] = s.CIUpper
		ws.ZSEM[i] = s.ZSEM
		ws.ZPct[i] = s.ZPercentile
	}
	for _, f := range pass.Selected {
		ws.Selected[f] = true
	}
	return ws
}

// selectedZ returns the features and z values of the selected columns for method.
func (ws weightSeries) selectedZ(method significance.Method) ([]int, []float64) {
	var feats []int
	var z []float64
	for i, f := range ws.Features {
		if !ws.Selected[f] {
			continue
		}
		v := ws.ZPct[i]
		if method == significance.MethodSEM {
			v = ws.ZSEM[i]
		}
		feats = append(feats, f)
		z = append(z, v)
	}
	return feats, z
}

var nan = math.NaN()
