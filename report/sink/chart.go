package sink

import (
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/significance"
)

// missing marks a point echarts should leave empty.
const missing = "-"

// ChartSink renders one HTML page with the first epoch's coefficient
// statistics and the per-epoch test scores.
type ChartSink struct {
	Path   string
	Method significance.Method

	weights *weightSeries
}

// NewChartSink creates a ChartSink writing to path.
func NewChartSink(path string, method significance.Method) *ChartSink {
	return &ChartSink{Path: path, Method: method}
}

// ObservePass keeps the first epoch's full pass for rendering.
func (s *ChartSink) ObservePass(epoch int, pass *significance.PassResult) error {
	if observed(epoch, pass) {
		ws := newWeightSeries(pass)
		s.weights = &ws
	}
	return nil
}

// ObserveRun renders the page to Path.
func (s *ChartSink) ObserveRun(r *significance.Report) error {
	page := components.NewPage()
	if ws := s.weights; ws != nil {
		labels := featureLabels(ws.Features)
		sel, selZ := ws.selectedZ(s.Method)
		page.AddCharts(
			lineChart("Mean weights with empirical interval", labels, []string{"mean", "lower", "upper"},
				[][]float64{ws.Mean, ws.Lower, ws.Upper}),
			scatterChart("z per feature", labels, []string{"z (sem)", "z (percentile)"},
				[][]float64{ws.ZSEM, ws.ZPct}),
			scatterChart("z of selected features", featureLabels(sel), []string{"z"},
				[][]float64{selZ}),
		)
	}
	page.AddCharts(scoresChart(r))

	f, err := os.Create(s.Path)
	if err != nil {
		return errors.Wrapf(err, "create chart %s", s.Path)
	}
	if err := page.Render(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "render chart %s", s.Path)
	}
	return f.Close()
}

func featureLabels(features []int) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = strconv.Itoa(f)
	}
	return out
}

func lineValue(v float64) opts.LineData {
	if !finite(v) {
		return opts.LineData{Value: missing}
	}
	return opts.LineData{Value: v}
}

func lineChart(title string, x []string, names []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "feature"}),
	)
	line.SetXAxis(x)
	for i, name := range names {
		data := make([]opts.LineData, len(y[i]))
		for j, v := range y[i] {
			data[j] = lineValue(v)
		}
		line.AddSeries(name, data)
	}
	return line
}

func scatterChart(title string, x []string, names []string, y [][]float64) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "feature"}),
	)
	sc.SetXAxis(x)
	for i, name := range names {
		data := make([]opts.ScatterData, len(y[i]))
		for j, v := range y[i] {
			if finite(v) {
				data[j] = opts.ScatterData{Value: v}
			} else {
				data[j] = opts.ScatterData{Value: missing}
			}
		}
		sc.AddSeries(name, data)
	}
	return sc
}

func scoresChart(r *significance.Report) *charts.Line {
	n := len(r.Epochs)
	x := make([]string, n)
	series := [][]float64{make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)}
	for i, e := range r.Epochs {
		x[i] = strconv.Itoa(e.Epoch)
		vals := []float64{e.TestAccuracyFull, e.TestAUCFull, e.TestAccuracyFiltered, e.TestAUCFiltered}
		switch e.Status {
		case significance.StatusFailed:
			vals = []float64{nan, nan, nan, nan}
		case significance.StatusDegraded:
			vals[2], vals[3] = nan, nan
		}
		for k := range series {
			series[k][i] = vals[k]
		}
	}
	line := lineChart("Test scores per epoch", x,
		[]string{"accuracy (all)", "AUC (all)", "accuracy (filtered)", "AUC (filtered)"}, series)
	line.SetGlobalOptions(charts.WithXAxisOpts(opts.XAxis{Name: "epoch"}))
	return line
}
