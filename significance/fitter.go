// Package significance implements bootstrap significance filtering of linear
// classifier coefficients.
//
// A Pipeline repeatedly fits a classifier on shuffle-split resamples of a
// working set, summarises the resulting coefficient distribution into
// per-feature z statistics, keeps the features whose |z| exceeds a threshold
// and evaluates the classifier again on that reduced feature space.
package significance

import (
	"github.com/YuminosukeSato/sigboot/core/model"
	"github.com/YuminosukeSato/sigboot/metrics"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/preprocessing"
	"github.com/YuminosukeSato/sigboot/sklearn/linear_model"
	"gonum.org/v1/gonum/mat"
)

// ClassifierFactory builds a fresh, unfitted classifier for a penalty.
type ClassifierFactory func(penalty string) (model.LinearClassifier, error)

// LogisticFactory returns a factory for LogisticRegression with the given
// regularization strength and solver limits.
func LogisticFactory(C float64, maxIter int, tol float64) ClassifierFactory {
	return func(penalty string) (model.LinearClassifier, error) {
		if err := linear_model.ValidatePenalty(penalty); err != nil {
			return nil, err
		}
		return linear_model.NewLogisticRegression(
			linear_model.WithLRPenalty(penalty),
			linear_model.WithLRC(C),
			linear_model.WithLRMaxIter(maxIter),
			linear_model.WithLRTol(tol),
		), nil
	}
}

// FitResult is the outcome of one standardize-fit-evaluate cycle.
type FitResult struct {
	// Coefficients is [intercept, w_1, ..., w_k] in the column order of trainX.
	Coefficients []float64
	Accuracy     float64
	AUC          float64
	LogLoss      float64
}

// Fitter standardizes, fits and scores one train/evaluation pair.
// It holds no mutable state and is safe for concurrent use.
type Fitter struct {
	factory ClassifierFactory
	penalty string
}

// NewFitter creates a Fitter. An empty penalty means "l2".
func NewFitter(factory ClassifierFactory, penalty string) *Fitter {
	if penalty == "" {
		penalty = linear_model.PenaltyL2
	}
	return &Fitter{factory: factory, penalty: penalty}
}

// FitAndScore fits a StandardScaler on trainX only, transforms both sets with
// it, fits a new classifier on the scaled training data and scores it on the
// scaled evaluation data.
func (f *Fitter) FitAndScore(trainX mat.Matrix, trainY []int, evalX mat.Matrix, evalY []int) (*FitResult, error) {
	const op = "Fitter.FitAndScore"

	nTrain, nFeatures := trainX.Dims()
	nEval, evalFeatures := evalX.Dims()
	if nFeatures == 0 {
		return nil, errors.NewNoFeaturesSelectedError(op)
	}
	if evalFeatures != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, evalFeatures, 1)
	}
	if len(trainY) != nTrain {
		return nil, errors.NewDimensionError(op, nTrain, len(trainY), 0)
	}
	if len(evalY) != nEval {
		return nil, errors.NewDimensionError(op, nEval, len(evalY), 0)
	}
	if err := requireBothClasses(op, "training", trainY); err != nil {
		return nil, err
	}
	if err := requireBothClasses(op, "evaluation", evalY); err != nil {
		return nil, err
	}
	if err := linear_model.ValidatePenalty(f.penalty); err != nil {
		return nil, err
	}

	scaler := preprocessing.NewStandardScalerDefault()
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, err
	}
	evalScaled, err := scaler.Transform(evalX)
	if err != nil {
		return nil, err
	}

	clf, err := f.factory(f.penalty)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(trainScaled, labelColumn(trainY)); err != nil {
		return nil, err
	}

	pred, err := clf.Predict(evalScaled)
	if err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(evalScaled)
	if err != nil {
		return nil, err
	}

	truth := mat.NewVecDense(nEval, labelFloats(evalY))
	acc, err := metrics.Accuracy(truth, mat.NewVecDense(nEval, mat.Col(nil, 0, pred)))
	if err != nil {
		return nil, err
	}
	positive := mat.NewVecDense(nEval, mat.Col(nil, 1, proba))
	auc, err := metrics.AUC(truth, positive)
	if err != nil {
		return nil, err
	}
	logLoss, err := metrics.BinaryLogLoss(truth, positive)
	if err != nil {
		return nil, err
	}

	coefs := clf.Coefficients()
	if len(coefs) != nFeatures+1 {
		return nil, errors.NewDimensionError(op, nFeatures+1, len(coefs), 1)
	}

	return &FitResult{
		Coefficients: coefs,
		Accuracy:     acc,
		AUC:          auc,
		LogLoss:      logLoss,
	}, nil
}

// requireBothClasses checks that y holds only 0/1 and contains both.
func requireBothClasses(op, phase string, y []int) error {
	counts := [2]int{}
	for _, label := range y {
		if label != 0 && label != 1 {
			return errors.NewInvalidArgumentError(op, "y", "labels must be 0 or 1", label)
		}
		counts[label]++
	}
	for class, other := range [2]int{1, 0} {
		if counts[other] == 0 {
			return errors.NewDegenerateLabelSetError(op, phase, class, counts[class])
		}
	}
	return nil
}

func labelFloats(y []int) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = float64(v)
	}
	return out
}

func labelColumn(y []int) *mat.Dense {
	return mat.NewDense(len(y), 1, labelFloats(y))
}
