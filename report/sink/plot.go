package sink

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/significance"
)

// PNG file names written by PlotSink.
const (
	WeightsFile     = "weights.png"
	WeightsCIFile   = "weights_ci.png"
	ZSEMFile        = "z_sem.png"
	ZPercentileFile = "z_percentile.png"
	ZSelectedFile   = "z_selected.png"
	ScoresFile      = "scores.png"
)

var (
	bandColor     = color.RGBA{R: 70, G: 130, B: 180, A: 80}
	lineColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	filteredColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotSink draws the first epoch's coefficient statistics as PNG files in Dir,
// and the per-epoch test AUC when the run completes.
type PlotSink struct {
	Dir    string
	Method significance.Method
	Width  vg.Length
	Height vg.Length
}

// NewPlotSink creates a PlotSink. method picks the z statistic drawn in the
// selected-features plot.
func NewPlotSink(dir string, method significance.Method) *PlotSink {
	return &PlotSink{Dir: dir, Method: method, Width: 8 * vg.Inch, Height: 4 * vg.Inch}
}

// ObservePass implements significance.Sink.
func (s *PlotSink) ObservePass(epoch int, pass *significance.PassResult) error {
	if !observed(epoch, pass) {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create plot directory %s", s.Dir)
	}
	ws := newWeightSeries(pass)

	steps := []struct {
		file string
		draw func(weightSeries) (*plot.Plot, error)
	}{
		{WeightsFile, plotWeights},
		{WeightsCIFile, plotWeightsCI},
		{ZSEMFile, func(ws weightSeries) (*plot.Plot, error) {
			return plotZ("z (standard error of the mean)", ws.Features, ws.ZSEM)
		}},
		{ZPercentileFile, func(ws weightSeries) (*plot.Plot, error) {
			return plotZ("z (percentile interval)", ws.Features, ws.ZPct)
		}},
		{ZSelectedFile, func(ws weightSeries) (*plot.Plot, error) {
			f, z := ws.selectedZ(s.Method)
			return plotZ("z of selected features", f, z)
		}},
	}
	for _, step := range steps {
		p, err := step.draw(ws)
		if err != nil {
			return errors.Wrapf(err, "draw %s", step.file)
		}
		if err := s.save(p, step.file); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun plots the test AUC of every epoch with all and with filtered features.
func (s *PlotSink) ObserveRun(r *significance.Report) error {
	if len(r.Epochs) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create plot directory %s", s.Dir)
	}
	p := plot.New()
	p.Title.Text = "Test AUC per epoch"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "AUC"
	p.Add(plotter.NewGrid())

	var full, filtered plotter.XYs
	for _, e := range r.Epochs {
		switch e.Status {
		case significance.StatusOK:
			filtered = append(filtered, plotter.XY{X: float64(e.Epoch), Y: e.TestAUCFiltered})
			fallthrough
		case significance.StatusDegraded:
			full = append(full, plotter.XY{X: float64(e.Epoch), Y: e.TestAUCFull})
		}
	}
	for _, series := range []struct {
		name string
		xys  plotter.XYs
		c    color.Color
	}{
		{"all features", full, lineColor},
		{"filtered features", filtered, filteredColor},
	} {
		if len(series.xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(series.xys)
		if err != nil {
			return errors.Wrap(err, "draw scores")
		}
		sc.GlyphStyle.Color = series.c
		p.Add(sc)
		p.Legend.Add(series.name, sc)
	}
	return s.save(p, ScoresFile)
}

func (s *PlotSink) save(p *plot.Plot, file string) error {
	path := filepath.Join(s.Dir, file)
	if err := p.Save(s.Width, s.Height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

// points pairs features with values, dropping non-finite values.
func points(features []int, values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if !finite(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(features[i]), Y: v})
	}
	return xys
}

func newFeaturePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "feature"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func plotWeights(ws weightSeries) (*plot.Plot, error) {
	p := newFeaturePlot("Mean weights", "weight")
	xys := points(ws.Features, ws.Mean)
	if len(xys) == 0 {
		return p, nil
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = lineColor
	p.Add(l)
	return p, nil
}

func plotWeightsCI(ws weightSeries) (*plot.Plot, error) {
	p := newFeaturePlot("Mean weights with empirical interval", "weight")
	var upper, lower plotter.XYs
	for i, f := range ws.Features {
		if !finite(ws.Lower[i]) || !finite(ws.Upper[i]) {
			continue
		}
		upper = append(upper, plotter.XY{X: float64(f), Y: ws.Upper[i]})
		lower = append(lower, plotter.XY{X: float64(f), Y: ws.Lower[i]})
	}
	if len(upper) > 0 {
		ring := make(plotter.XYs, 0, 2*len(upper))
		ring = append(ring, upper...)
		for i := len(lower) - 1; i >= 0; i-- {
			ring = append(ring, lower[i])
		}
		band, err := plotter.NewPolygon(ring)
		if err != nil {
			return nil, err
		}
		band.Color = bandColor
		band.LineStyle.Width = 0
		p.Add(band)
		p.Legend.Add("interval", band)
	}
	if xys := points(ws.Features, ws.Mean); len(xys) > 0 {
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = lineColor
		p.Add(l)
		p.Legend.Add("mean", l)
	}
	return p, nil
}

func plotZ(title string, features []int, z []float64) (*plot.Plot, error) {
	p := newFeaturePlot(title, "z")
	xys := points(features, z)
	if len(xys) == 0 {
		return p, nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = lineColor
	p.Add(sc)
	return p, nil
}
