// Package model defines the interfaces the significance pipeline consumes.
// Concrete estimators live in preprocessing and sklearn/linear_model.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that can be trained on X, y.
type Fitter interface {
	// Fit trains the model. y is an n×1 column of class labels.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that produce hard predictions.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// LinearClassifier is a binary classifier that is linear in the log-odds.
//
// PredictProba returns an n×2 matrix whose column 1 holds the probability of
// the positive class. Coefficients returns [intercept, w_1, ..., w_k] in the
// column order of the X passed to Fit.
type LinearClassifier interface {
	Fitter
	Predictor

	PredictProba(X mat.Matrix) (mat.Matrix, error)
	Coefficients() []float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
