package significance

import (
	"math"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"github.com/YuminosukeSato/sigboot/sklearn/linear_model"
)

// EmptySelectionPolicy decides what the filtered pass does when no feature
// crosses the threshold.
type EmptySelectionPolicy string

const (
	// EmptySelectionFail reports NoFeaturesSelected and marks the epoch degraded.
	EmptySelectionFail EmptySelectionPolicy = "fail"
	// EmptySelectionAll reruns the filtered pass on every feature.
	EmptySelectionAll EmptySelectionPolicy = "all"
)

// Options configures a Pipeline.
type Options struct {
	// NumSplits is the number of shuffle-split repetitions per pass.
	NumSplits int
	// ValidationFraction is the share of the working set held out per repetition.
	ValidationFraction float64
	// TestFraction is the share of the dataset held out as the final test set.
	TestFraction float64
	// Threshold is the |z| a feature must exceed to be selected.
	Threshold float64
	// Method picks the z statistic that drives selection.
	Method Method
	// Level is the coverage of the empirical interval, 0.95 by default.
	Level float64
	// Workers bounds the goroutines running repetitions; 1 runs them inline.
	Workers int
	// BaseSeed is the seed of epoch 0; epoch e uses BaseSeed+e.
	BaseSeed uint64
	// ResampleSeed seeds the shuffle-split of every pass in every epoch.
	ResampleSeed uint64
	// Penalty is handed to the classifier factory ("l1" or "l2").
	Penalty string
	// EmptySelection is the empty significant set policy.
	EmptySelection EmptySelectionPolicy
	// Epochs is the number of independent hold-out splits.
	Epochs int

	Logger log.Logger
	Sinks  []Sink
}

// DefaultOptions returns the defaults used by the command line tool.
func DefaultOptions() Options {
	return Options{
		NumSplits:          100,
		ValidationFraction: 0.2,
		TestFraction:       0.2,
		Threshold:          2.0,
		Method:             MethodPercentile,
		Level:              0.95,
		Workers:            1,
		Penalty:            linear_model.PenaltyL2,
		EmptySelection:     EmptySelectionFail,
		Epochs:             10,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithNumSplits sets the number of resampling repetitions.
func WithNumSplits(n int) Option {
	return func(o *Options) { o.NumSplits = n }
}

// WithValidationFraction sets the per-repetition validation share.
func WithValidationFraction(f float64) Option {
	return func(o *Options) { o.ValidationFraction = f }
}

// WithTestFraction sets the final hold-out share.
func WithTestFraction(f float64) Option {
	return func(o *Options) { o.TestFraction = f }
}

// WithThreshold sets the selection threshold on |z|.
func WithThreshold(t float64) Option {
	return func(o *Options) { o.Threshold = t }
}

// WithMethod sets the z statistic used for selection.
func WithMethod(m Method) Option {
	return func(o *Options) { o.Method = m }
}

// WithLevel sets the empirical interval coverage.
func WithLevel(level float64) Option {
	return func(o *Options) { o.Level = level }
}

// WithWorkers sets the number of goroutines used per pass.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithBaseSeed sets the seed of the first epoch.
func WithBaseSeed(seed uint64) Option {
	return func(o *Options) { o.BaseSeed = seed }
}

// WithResampleSeed sets the shuffle-split seed.
func WithResampleSeed(seed uint64) Option {
	return func(o *Options) { o.ResampleSeed = seed }
}

// WithPenalty sets the classifier penalty.
func WithPenalty(penalty string) Option {
	return func(o *Options) { o.Penalty = penalty }
}

// WithEmptySelection sets the empty selection policy.
func WithEmptySelection(p EmptySelectionPolicy) Option {
	return func(o *Options) { o.EmptySelection = p }
}

// WithEpochs sets the number of epochs.
func WithEpochs(n int) Option {
	return func(o *Options) { o.Epochs = n }
}

// WithLogger replaces the pipeline logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithSinks appends result sinks.
func WithSinks(sinks ...Sink) Option {
	return func(o *Options) { o.Sinks = append(o.Sinks, sinks...) }
}

// Validate checks every field for a usable value.
func (o Options) Validate() error {
	const op = "significance.Options"
	inUnit := func(v float64) bool { return v > 0 && v < 1 }

	switch {
	case o.NumSplits < 2:
		return errors.NewInvalidArgumentError(op, "num_splits", "must be at least 2", o.NumSplits)
	case !inUnit(o.ValidationFraction):
		return errors.NewInvalidArgumentError(op, "validation_fraction", "must be in (0, 1)", o.ValidationFraction)
	case !inUnit(o.TestFraction):
		return errors.NewInvalidArgumentError(op, "test_fraction", "must be in (0, 1)", o.TestFraction)
	case math.IsNaN(o.Threshold) || o.Threshold < 0:
		return errors.NewInvalidArgumentError(op, "threshold", "must be non-negative", o.Threshold)
	case !inUnit(o.Level):
		return errors.NewInvalidArgumentError(op, "level", "must be in (0, 1)", o.Level)
	case o.Workers < 1:
		return errors.NewInvalidArgumentError(op, "workers", "must be at least 1", o.Workers)
	case o.Epochs < 1:
		return errors.NewInvalidArgumentError(op, "epochs", "must be at least 1", o.Epochs)
	}
	if _, err := ParseMethod(string(o.Method)); err != nil {
		return err
	}
	if _, err := ParseEmptySelection(string(o.EmptySelection)); err != nil {
		return err
	}
	if o.Penalty != "" {
		if err := linear_model.ValidatePenalty(o.Penalty); err != nil {
			return err
		}
	}
	return nil
}

// ParseEmptySelection maps "fail" and "all" to a policy.
func ParseEmptySelection(s string) (EmptySelectionPolicy, error) {
	switch EmptySelectionPolicy(s) {
	case EmptySelectionFail, EmptySelectionAll:
		return EmptySelectionPolicy(s), nil
	default:
		return "", errors.NewInvalidArgumentError("ParseEmptySelection", "empty_selection", "must be fail or all", s)
	}
}
