// Package log defines standard attribute keys for resampling and model fitting.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that a run of the significance pipeline can be filtered
// by epoch, pass or repetition in any log backend.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "LogisticRegression", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "summarize", "select"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "significance.pipeline", "dataset", "report"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the procedure.
	// Examples: "training", "validation", "testing"
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// PathKey records the data file being read.
	PathKey = "data.path"
)

// Resampling and Selection
const (
	// EpochKey records the outer train/test split currently running.
	EpochKey = "training.epoch"

	// EpochSeedKey records the seed of the outer train/test split.
	EpochSeedKey = "config.epoch_seed"

	// PassKey distinguishes the full-feature pass from the filtered pass.
	PassKey = "pass.kind"

	// RepetitionKey records the shuffle-split repetition index.
	RepetitionKey = "resample.repetition"

	// SplitsKey records the number of shuffle-split repetitions.
	SplitsKey = "resample.splits"

	// SelectedKey records how many features crossed the threshold.
	SelectedKey = "selection.count"

	// ThresholdKey records the |z| threshold used for selection.
	ThresholdKey = "selection.threshold"

	// MethodKey records the standard-error method driving selection.
	MethodKey = "selection.method"

	// DegenerateKey records how many coefficient columns had a zero standard error.
	DegenerateKey = "selection.degenerate"

	// EpochsKey, FailedEpochsKey and DegradedEpochsKey summarise a run.
	EpochsKey         = "run.epochs"
	FailedEpochsKey   = "run.failed"
	DegradedEpochsKey = "run.degraded"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// AUCKey records the area under the ROC curve in [0, 1].
	AUCKey = "metrics.auc"

	// ValidationAccuracyKey and ValidationAUCKey record means over repetitions.
	ValidationAccuracyKey = "metrics.validation_accuracy"
	ValidationAUCKey      = "metrics.validation_auc"

	// IterationKey records the solver iteration count.
	IterationKey = "training.iteration"
)

// Hyperparameters and Configuration
const (
	// RegularizationKey records the penalty ("l1", "l2").
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkersKey records the number of goroutines running repetitions.
	WorkersKey = "config.workers"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSummarize = "summarize"
	OperationSelect    = "select"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"

	PassFull     = "full"
	PassFiltered = "filtered"

	ErrorDegenerateLabels       = "DEGENERATE_LABEL_SET"
	ErrorDegenerateDistribution = "DEGENERATE_DISTRIBUTION"
	ErrorNoFeatures             = "NO_FEATURES_SELECTED"
	ErrorInvalidArgument        = "INVALID_ARGUMENT"
)
