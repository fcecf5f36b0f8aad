// Package report aggregates and prints accuracy/AUC sequences.
package report

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the mean and population standard deviation of an
// accuracy sequence and its parallel AUC sequence.
type Summary struct {
	N            int       `json:"n"`
	MeanAccuracy float64   `json:"mean_accuracy"`
	StdAccuracy  float64   `json:"std_accuracy"`
	MeanAUC      float64   `json:"mean_auc"`
	StdAUC       float64   `json:"std_auc"`
	Accuracy     []float64 `json:"accuracy"`
	AUC          []float64 `json:"auc"`
}

// Summarize computes mean and standard deviation (ddof=0) of each sequence.
// An empty input yields N == 0 and zero statistics.
func Summarize(acc, auc []float64) Summary {
	s := Summary{
		N:        len(acc),
		Accuracy: append([]float64(nil), acc...),
		AUC:      append([]float64(nil), auc...),
	}
	if len(acc) > 0 {
		s.MeanAccuracy, s.StdAccuracy = stat.PopMeanStdDev(acc, nil)
	}
	if len(auc) > 0 {
		s.MeanAUC, s.StdAUC = stat.PopMeanStdDev(auc, nil)
	}
	return s
}

// WriteMetrics prints the mean/std of both sequences to w, followed by every
// value when showAll is set.
func WriteMetrics(w io.Writer, acc, auc []float64, showAll bool) error {
	return Summarize(acc, auc).Write(w, showAll)
}

// Write prints the summary to w.
func (s Summary) Write(w io.Writer, showAll bool) error {
	if s.N == 0 {
		_, err := fmt.Fprintln(w, "no successful runs")
		return err
	}
	if _, err := fmt.Fprintf(w, "Accuracy : %.3f +/- %.3f\n", s.MeanAccuracy, s.StdAccuracy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "AUC      : %.3f +/- %.3f\n", s.MeanAUC, s.StdAUC); err != nil {
		return err
	}
	if !showAll {
		return nil
	}
	for i := range s.Accuracy {
		auc := 0.0
		if i < len(s.AUC) {
			auc = s.AUC[i]
		}
		if _, err := fmt.Fprintf(w, "  [%d] Accuracy : %.3f AUC : %.3f\n", i, s.Accuracy[i], auc); err != nil {
			return err
		}
	}
	return nil
}
