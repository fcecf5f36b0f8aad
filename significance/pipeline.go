package significance

import (
	"context"
	"time"

	"github.com/YuminosukeSato/sigboot/core/parallel"
	"github.com/YuminosukeSato/sigboot/model_selection"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"github.com/YuminosukeSato/sigboot/report"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Pass kinds.
const (
	PassFull     = log.PassFull
	PassFiltered = log.PassFiltered
)

// EpochStatus records how far an epoch got.
type EpochStatus string

const (
	// StatusOK means both passes succeeded.
	StatusOK EpochStatus = "ok"
	// StatusDegraded means the full pass succeeded and the filtered pass did not.
	StatusDegraded EpochStatus = "degraded"
	// StatusFailed means the full pass failed; no scores were recorded.
	StatusFailed EpochStatus = "failed"
)

// PassResult is the outcome of one resampling pass over a feature subset.
type PassResult struct {
	Kind string
	Seed uint64
	// Features lists the original column indices the pass was fitted on.
	Features  []int
	TrainSize int
	TestSize  int

	// Coefficients has one row per repetition and len(Features)+1 columns.
	Coefficients *mat.Dense
	Statistics   []Statistic
	// DegenerateColumns lists statistic indices with a zero standard error.
	DegenerateColumns []int

	ValidationAccuracy []float64
	ValidationAUC      []float64

	TestAccuracy float64
	TestAUC      float64

	// Selected holds the original column indices whose |z| exceeds the threshold.
	Selected []int
}

// EpochResult is the record of one epoch.
type EpochResult struct {
	Epoch                  int         `json:"epoch"`
	Seed                   uint64      `json:"seed"`
	Status                 EpochStatus `json:"status"`
	TestAccuracyFull       float64     `json:"test_accuracy_full"`
	TestAUCFull            float64     `json:"test_auc_full"`
	TestAccuracyFiltered   float64     `json:"test_accuracy_filtered"`
	TestAUCFiltered        float64     `json:"test_auc_filtered"`
	NumSignificantFeatures int         `json:"num_significant_features"`
	SignificantFeatures    []int       `json:"significant_features"`
	Err                    error       `json:"-"`
	Error                  string      `json:"error,omitempty"`
}

// Report aggregates every epoch of a run.
type Report struct {
	NumSamples  int           `json:"num_samples"`
	NumFeatures int           `json:"num_features"`
	Epochs      []EpochResult `json:"epochs"`
	// Full and Filtered summarise test scores over epochs whose pass succeeded.
	Full                    report.Summary `json:"full"`
	Filtered                report.Summary `json:"filtered"`
	MeanSignificantFeatures float64        `json:"mean_significant_features"`
	FailedEpochs            int            `json:"failed_epochs"`
	DegradedEpochs          int            `json:"degraded_epochs"`
}

// Sink consumes pass and run results for presentation. Sink errors are
// logged and never change the outcome of a run.
type Sink interface {
	ObservePass(epoch int, pass *PassResult) error
	ObserveRun(r *Report) error
}

// Pipeline runs bootstrap significance filtering.
type Pipeline struct {
	opts   Options
	fitter *Fitter
	logger log.Logger
}

// NewPipeline creates a Pipeline. A nil factory uses LogisticRegression with
// C=1 and the solver defaults.
func NewPipeline(factory ClassifierFactory, opts ...Option) (*Pipeline, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = LogisticFactory(1.0, 100, 1e-4)
	}
	logger := o.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("significance.pipeline")
	}
	return &Pipeline{
		opts:   o,
		fitter: NewFitter(factory, o.Penalty),
		logger: logger,
	}, nil
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run executes Options.Epochs epochs. Epoch e holds out a test set drawn with
// seed BaseSeed+e, runs the full pass, selects significant features and runs
// the filtered pass on the same hold-out.
//
// Failed and degraded epochs are recorded in the report; Run only returns an
// error for invalid input, context cancellation, or when every epoch failed.
func (p *Pipeline) Run(ctx context.Context, X mat.Matrix, y []int) (*Report, error) {
	nSamples, nFeatures := X.Dims()
	if err := checkData("Pipeline.Run", X, y); err != nil {
		return nil, err
	}

	rep := &Report{
		NumSamples:  nSamples,
		NumFeatures: nFeatures,
		Epochs:      make([]EpochResult, 0, p.opts.Epochs),
	}
	var lastErr error

	for e := 0; e < p.opts.Epochs; e++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.runEpoch(ctx, X, y, e)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			lastErr = err
		}
		rep.Epochs = append(rep.Epochs, res)
	}

	p.aggregate(rep)
	for _, sink := range p.opts.Sinks {
		if err := sink.ObserveRun(rep); err != nil {
			p.logger.Warn("sink failed", err)
		}
	}

	p.logger.Info("run finished",
		log.EpochsKey, len(rep.Epochs),
		log.FailedEpochsKey, rep.FailedEpochs,
		log.DegradedEpochsKey, rep.DegradedEpochs,
		log.AccuracyKey, rep.Full.MeanAccuracy,
		log.AUCKey, rep.Full.MeanAUC,
	)

	if rep.FailedEpochs == len(rep.Epochs) {
		return rep, errors.Wrapf(lastErr, "all %d epochs failed", rep.FailedEpochs)
	}
	return rep, nil
}

func (p *Pipeline) runEpoch(ctx context.Context, X mat.Matrix, y []int, epoch int) (EpochResult, error) {
	seed := p.opts.BaseSeed + uint64(epoch)
	logger := p.logger.With(log.EpochKey, epoch, log.EpochSeedKey, seed)
	res := EpochResult{Epoch: epoch, Seed: seed}
	logger.Debug("epoch started",
		log.RegularizationKey, p.fitter.penalty,
		log.MethodKey, string(p.opts.Method),
		log.WorkersKey, p.opts.Workers,
	)

	full, err := p.runPass(ctx, X, y, allFeatures(X), seed, PassFull, logger)
	if err != nil {
		logger.Error("full pass failed", err, log.ErrorCodeKey, errorCode(err))
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		return res, err
	}
	p.notify(epoch, full, logger)

	res.TestAccuracyFull = full.TestAccuracy
	res.TestAUCFull = full.TestAUC
	res.SignificantFeatures = full.Selected
	res.NumSignificantFeatures = len(full.Selected)

	features := full.Selected
	if len(features) == 0 && p.opts.EmptySelection == EmptySelectionAll {
		logger.Warn("no significant features, filtered pass uses every feature",
			log.ThresholdKey, p.opts.Threshold,
		)
		features = full.Features
	}

	filtered, err := p.runPass(ctx, X, y, features, seed, PassFiltered, logger)
	if err != nil {
		logger.Warn("filtered pass failed, epoch degraded", err, log.ErrorCodeKey, errorCode(err))
		res.Status = StatusDegraded
		res.Err = err
		res.Error = err.Error()
		return res, nil
	}
	p.notify(epoch, filtered, logger)

	res.TestAccuracyFiltered = filtered.TestAccuracy
	res.TestAUCFiltered = filtered.TestAUC
	res.Status = StatusOK
	return res, nil
}

func (p *Pipeline) notify(epoch int, pass *PassResult, logger log.Logger) {
	for _, sink := range p.opts.Sinks {
		if err := sink.ObservePass(epoch, pass); err != nil {
			logger.Warn("sink failed", err, log.PassKey, pass.Kind)
		}
	}
}

func (p *Pipeline) aggregate(rep *Report) {
	var accFull, aucFull, accFilt, aucFilt, counts []float64
	for _, e := range rep.Epochs {
		switch e.Status {
		case StatusFailed:
			rep.FailedEpochs++
			continue
		case StatusDegraded:
			rep.DegradedEpochs++
		case StatusOK:
			accFilt = append(accFilt, e.TestAccuracyFiltered)
			aucFilt = append(aucFilt, e.TestAUCFiltered)
		}
		accFull = append(accFull, e.TestAccuracyFull)
		aucFull = append(aucFull, e.TestAUCFull)
		counts = append(counts, float64(e.NumSignificantFeatures))
	}

	rep.Full = report.Summarize(accFull, aucFull)
	rep.Filtered = report.Summarize(accFilt, aucFilt)
	if len(counts) > 0 {
		rep.MeanSignificantFeatures = stat.Mean(counts, nil)
	}
}

// RunPass runs one resampling pass restricted to the given original column
// indices, using seed for the final hold-out split. A nil features slice
// means every column; an empty non-nil slice fails with NoFeaturesSelected.
func (p *Pipeline) RunPass(ctx context.Context, X mat.Matrix, y []int, features []int, seed uint64) (*PassResult, error) {
	if err := checkData("Pipeline.RunPass", X, y); err != nil {
		return nil, err
	}
	if features == nil {
		features = allFeatures(X)
	}
	return p.runPass(ctx, X, y, features, seed, PassFull, p.logger)
}

func (p *Pipeline) runPass(ctx context.Context, X mat.Matrix, y []int, features []int, seed uint64, kind string, logger log.Logger) (*PassResult, error) {
	const op = "Pipeline.RunPass"
	start := time.Now()
	logger = logger.With(log.PassKey, kind)

	if len(features) == 0 {
		return nil, errors.NewNoFeaturesSelectedError(op)
	}
	_, nFeatures := X.Dims()
	for _, f := range features {
		if f < 0 || f >= nFeatures {
			return nil, errors.NewInvalidArgumentError(op, "features", "column index out of range", f)
		}
	}

	holdout, err := model_selection.TrainTestSplit(len(y), p.opts.TestFraction, seed)
	if err != nil {
		return nil, err
	}
	workX := subset(X, holdout.TrainIndices, features)
	workY := takeLabels(y, holdout.TrainIndices)
	testX := subset(X, holdout.TestIndices, features)
	testY := takeLabels(y, holdout.TestIndices)

	splitter := model_selection.NewShuffleSplit(p.opts.NumSplits, p.opts.ValidationFraction, p.opts.ResampleSeed)
	splits, err := splitter.Split(len(workY))
	if err != nil {
		return nil, err
	}

	res := &PassResult{
		Kind:               kind,
		Seed:               seed,
		Features:           append([]int(nil), features...),
		TrainSize:          len(workY),
		TestSize:           len(testY),
		Coefficients:       mat.NewDense(p.opts.NumSplits, len(features)+1, nil),
		ValidationAccuracy: make([]float64, p.opts.NumSplits),
		ValidationAUC:      make([]float64, p.opts.NumSplits),
	}

	err = parallel.ForEach(ctx, len(splits), p.opts.Workers, func(_ context.Context, r int) error {
		err := errors.SafeExecute("repetition", func() error {
			s := splits[r]
			fit, err := p.fitter.FitAndScore(
				subset(workX, s.TrainIndices, nil), takeLabels(workY, s.TrainIndices),
				subset(workX, s.TestIndices, nil), takeLabels(workY, s.TestIndices),
			)
			if err != nil {
				return err
			}
			// each repetition owns row r and index r
			res.Coefficients.SetRow(r, fit.Coefficients)
			res.ValidationAccuracy[r] = fit.Accuracy
			res.ValidationAUC[r] = fit.AUC
			return nil
		})
		if err != nil {
			return errors.NewRepetitionError(r, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats, err := SummarizeWithLevel(res.Coefficients, p.opts.Level)
	var degenerate *errors.DegenerateDistributionError
	switch {
	case err == nil:
	case errors.As(err, &degenerate):
		res.DegenerateColumns = degenerate.Columns
		logger.Info("degenerate coefficient columns treated as not significant",
			log.ErrorCodeKey, log.ErrorDegenerateDistribution,
			log.DegenerateKey, len(degenerate.Columns),
		)
	default:
		return nil, err
	}
	res.Statistics = stats

	final, err := p.fitter.FitAndScore(workX, workY, testX, testY)
	if err != nil {
		return nil, errors.Wrap(err, "final test evaluation")
	}
	res.TestAccuracy = final.Accuracy
	res.TestAUC = final.AUC

	res.Selected = make([]int, 0)
	for _, j := range Select(stats, p.opts.Threshold, p.opts.Method) {
		res.Selected = append(res.Selected, features[j])
	}

	valAcc, _ := stat.MeanStdDev(res.ValidationAccuracy, nil)
	valAUC, _ := stat.MeanStdDev(res.ValidationAUC, nil)
	logger.Info("resampling pass finished",
		log.FeaturesKey, len(features),
		log.SplitsKey, p.opts.NumSplits,
		log.SelectedKey, len(res.Selected),
		log.ValidationAccuracyKey, valAcc,
		log.ValidationAUCKey, valAUC,
		log.AccuracyKey, res.TestAccuracy,
		log.AUCKey, res.TestAUC,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errors.ErrDegenerateLabelSet):
		return log.ErrorDegenerateLabels
	case errors.Is(err, errors.ErrNoFeaturesSelected):
		return log.ErrorNoFeatures
	case errors.Is(err, errors.ErrInvalidArgument):
		return log.ErrorInvalidArgument
	default:
		return ""
	}
}

func checkData(op string, X mat.Matrix, y []int) error {
	nSamples, nFeatures := X.Dims()
	if nSamples != len(y) {
		return errors.NewDimensionError(op, nSamples, len(y), 0)
	}
	if nFeatures == 0 {
		return errors.NewNoFeaturesSelectedError(op)
	}
	return nil
}

func allFeatures(X mat.Matrix) []int {
	_, c := X.Dims()
	out := make([]int, c)
	for j := range out {
		out[j] = j
	}
	return out
}

// subset copies the given rows, and columns (nil for all), into a new matrix.
func subset(X mat.Matrix, rows, cols []int) *mat.Dense {
	if cols == nil {
		_, c := X.Dims()
		out := mat.NewDense(len(rows), c, nil)
		for i, r := range rows {
			for j := 0; j < c; j++ {
				out.Set(i, j, X.At(r, j))
			}
		}
		return out
	}
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, X.At(r, c))
		}
	}
	return out
}

func takeLabels(y []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
