package sink

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sigboot/report"
	"github.com/YuminosukeSato/sigboot/significance"
)

// ConsoleSink prints the first epoch's diagnostics and the final report.
type ConsoleSink struct {
	w       io.Writer
	showAll bool
}

// NewConsoleSink creates a ConsoleSink writing to w. showAll also prints every
// per-epoch score.
func NewConsoleSink(w io.Writer, showAll bool) *ConsoleSink {
	return &ConsoleSink{w: w, showAll: showAll}
}

// ObservePass prints dataset shape, split sizes, validation scores and the
// number of significant weights of the first epoch's full pass.
func (c *ConsoleSink) ObservePass(epoch int, pass *significance.PassResult) error {
	if !observed(epoch, pass) {
		return nil
	}
	accMean, accStd := stat.PopMeanStdDev(pass.ValidationAccuracy, nil)
	aucMean, aucStd := stat.PopMeanStdDev(pass.ValidationAUC, nil)

	_, err := fmt.Fprintf(c.w,
		"Dataset : %d samples x %d features\n"+
			"Train   : %d samples\n"+
			"Test    : %d samples\n"+
			"Validation (%d splits)\n"+
			"  Accuracy : %.3f +/- %.3f\n"+
			"  AUC      : %.3f +/- %.3f\n"+
			"Significant weights : %d\n",
		pass.TrainSize+pass.TestSize, len(pass.Features),
		pass.TrainSize,
		pass.TestSize,
		len(pass.ValidationAccuracy),
		accMean, accStd,
		aucMean, aucStd,
		len(pass.Selected),
	)
	return err
}

// ObserveRun prints the averaged test scores with all and with filtered features.
func (c *ConsoleSink) ObserveRun(r *significance.Report) error {
	if _, err := fmt.Fprintf(c.w, "\nEpochs : %d (failed %d, degraded %d)\n",
		len(r.Epochs), r.FailedEpochs, r.DegradedEpochs); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.w, "Average number of significant features : %.2f\n", r.MeanSignificantFeatures); err != nil {
		return err
	}
	sections := []struct {
		title string
		s     report.Summary
	}{
		{"Test data, all features", r.Full},
		{"Test data, filtered features", r.Filtered},
	}
	for _, sec := range sections {
		if _, err := fmt.Fprintf(c.w, "%s\n", sec.title); err != nil {
			return err
		}
		if err := sec.s.Write(c.w, c.showAll); err != nil {
			return err
		}
	}
	return nil
}
