// Package sigboot selects statistically significant features of a binary
// classification dataset by bootstrap resampling of logistic regression
// weights.
//
// Each epoch holds out a test set, fits a standardized logistic regression on
// many shuffle-split resamples of the remaining samples, and summarises the
// distribution of every weight into two z scores: one from the standard error
// of the mean and one from the empirical percentile interval. Features whose
// |z| exceeds a threshold are kept, and the test scores of a model on the kept
// features are compared with those of a model on all features.
//
// # Installation
//
//	go install github.com/YuminosukeSato/sigboot/cmd/sigboot@latest
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/sigboot/dataset"
//	    "github.com/YuminosukeSato/sigboot/significance"
//	)
//
//	func main() {
//	    ds, err := dataset.Synthetic(dataset.DefaultSynthetic())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    p, err := significance.NewPipeline(nil,
//	        significance.WithEpochs(3),
//	        significance.WithWorkers(4),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    rep, err := p.Run(context.Background(), ds.X, ds.Y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("significant:", rep.Epochs[0].SignificantFeatures)
//	}
//
// # Packages
//
//   - significance: Fitter, Summarize, Select and the epoch Pipeline
//   - sklearn/linear_model: l1 / l2 LogisticRegression
//   - preprocessing: StandardScaler
//   - model_selection: ShuffleSplit and TrainTestSplit
//   - metrics: Accuracy, AUC and log loss
//   - dataset: CSV loader and synthetic generator
//   - report, report/sink: summaries, console, JSON, PNG and HTML output
//   - config: YAML configuration
//   - core/model, core/parallel: interfaces and bounded fan-out
//   - pkg/errors, pkg/log: error taxonomy and zerolog logging
//
// # Command Line
//
//	sigboot -f data.csv -p l1 -e 10 --plot-dir plots --json report.json
//	sigboot generate -o synthetic.csv
//
// # Reproducibility
//
// Results depend only on the data, the options and the seeds. Repetitions
// may run on several goroutines; each writes only its own row, so a parallel
// run is identical to the sequential one.
package sigboot
