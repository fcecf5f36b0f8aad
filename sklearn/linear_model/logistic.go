package linear_model

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/sigboot/core/model"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Supported penalties.
const (
	PenaltyL1 = "l1"
	PenaltyL2 = "l2"
)

const (
	// minIRLSWeight keeps the IRLS working response finite when p(1-p) vanishes.
	minIRLSWeight = 1e-5
	// maxInnerSweeps bounds the coordinate descent sweeps per IRLS step.
	maxInnerSweeps = 100
	armijo         = 1e-4
	minStep        = 1e-10
)

// LogisticRegression implements binary logistic regression.
// Compatible with scikit-learn's LogisticRegression for the binary case.
//
// The fitted parameters minimise
//
//	sum_i log(1 + exp(eta_i)) - y_i*eta_i + (1/C)*penalty(w)
//
// with penalty(w) = ||w||^2/2 for "l2" and ||w||_1 for "l1". The intercept is
// never penalised. "l2" is solved with damped Newton steps (Cholesky on the
// Hessian), "l1" with IRLS and cyclic coordinate descent. Both solvers are
// deterministic, so the same data always yields the same coefficients.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // Regularization: "l1" or "l2"
	C            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit intercept
	maxIter      int     // Maximum outer iterations
	tol          float64 // Tolerance on the parameter update

	// Model parameters
	coef_      []float64 // Feature weights
	intercept_ float64   // Intercept term
	classes_   []int     // Sorted class labels, classes_[1] is the positive class
	nIter_     int       // Outer iterations actually run
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      PenaltyL2,
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// Option functions

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// ValidatePenalty reports whether penalty names a supported regularization.
func ValidatePenalty(penalty string) error {
	switch penalty {
	case PenaltyL1, PenaltyL2:
		return nil
	default:
		return errors.NewInvalidArgumentError("LogisticRegression", "penalty", "must be l1 or l2", penalty)
	}
}

func (lr *LogisticRegression) validateParams() error {
	if err := ValidatePenalty(lr.penalty); err != nil {
		return err
	}
	if !(lr.C > 0) || math.IsInf(lr.C, 0) {
		return errors.NewInvalidArgumentError("LogisticRegression", "C", "must be positive and finite", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewInvalidArgumentError("LogisticRegression", "max_iter", "must be at least 1", lr.maxIter)
	}
	if !(lr.tol > 0) {
		return errors.NewInvalidArgumentError("LogisticRegression", "tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model. y must be an n×1 column holding
// exactly two distinct class labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nFeatures == 0 {
		return errors.NewNoFeaturesSelectedError("LogisticRegression.Fit")
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	if err := lr.extractClasses(y); err != nil {
		return err
	}

	target := make([]float64, nSamples)
	for i := range target {
		if int(y.At(i, 0)) == lr.classes_[1] {
			target[i] = 1
		}
	}

	lr.state.Reset()
	lr.coef_ = make([]float64, nFeatures)
	lr.intercept_ = 0

	var err error
	switch lr.penalty {
	case PenaltyL1:
		err = lr.fitL1(X, target)
	default:
		err = lr.fitL2(X, target)
	}
	if err != nil {
		return err
	}

	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

// extractClasses identifies the two class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) error {
	rows, _ := y.Dims()
	counts := make(map[int]int)
	for i := 0; i < rows; i++ {
		counts[int(y.At(i, 0))]++
	}

	classes := make([]int, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	switch {
	case len(classes) == 1:
		return errors.NewDegenerateLabelSetError("LogisticRegression.Fit", "training", classes[0], counts[classes[0]])
	case len(classes) > 2:
		return errors.NewInvalidArgumentError("LogisticRegression.Fit", "y", "only binary labels are supported", classes)
	}

	lr.classes_ = classes
	return nil
}

// objective evaluates the penalised negative log-likelihood at (b, w).
func (lr *LogisticRegression) objective(X mat.Matrix, target []float64, b float64, w []float64) float64 {
	eta := linearPredictor(X, b, w)
	loss := 0.0
	for i, e := range eta {
		loss += errors.LogOnePlusExp(e) - target[i]*e
	}

	lambda := 1.0 / lr.C
	if lr.penalty == PenaltyL1 {
		return loss + lambda*floats.Norm(w, 1)
	}
	return loss + 0.5*lambda*floats.Dot(w, w)
}

// fitL2 runs damped Newton iterations on [intercept, w].
func (lr *LogisticRegression) fitL2(X mat.Matrix, target []float64) error {
	nSamples, nFeatures := X.Dims()
	lambda := 1.0 / lr.C

	off := 0
	if lr.fitIntercept {
		off = 1
	}
	dim := nFeatures + off

	// Z = [1 | X]
	Z := mat.NewDense(nSamples, dim, nil)
	for i := 0; i < nSamples; i++ {
		if off == 1 {
			Z.Set(i, 0, 1)
		}
		for j := 0; j < nFeatures; j++ {
			Z.Set(i, j+off, X.At(i, j))
		}
	}

	theta := make([]float64, dim)
	split := func(t []float64) (float64, []float64) {
		if off == 1 {
			return t[0], t[1:]
		}
		return 0, t
	}

	resid := make([]float64, nSamples)
	sqrtW := mat.NewDense(nSamples, dim, nil)
	grad := mat.NewVecDense(dim, nil)
	hess := mat.NewSymDense(dim, nil)
	var step mat.VecDense
	var chol mat.Cholesky

	b, w := split(theta)
	fCur := lr.objective(X, target, b, w)
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		lr.nIter_ = iter + 1
		eta := linearPredictor(X, b, w)

		for i := 0; i < nSamples; i++ {
			p := sigmoid(eta[i])
			resid[i] = p - target[i]
			s := math.Sqrt(p * (1 - p))
			for j := 0; j < dim; j++ {
				sqrtW.Set(i, j, s*Z.At(i, j))
			}
		}

		// gradient = Zᵀ(p - y) + λ[0, w]
		grad.MulVec(Z.T(), mat.NewVecDense(nSamples, resid))
		for j := off; j < dim; j++ {
			grad.SetVec(j, grad.AtVec(j)+lambda*theta[j])
		}

		// Hessian = Zᵀ W Z + λ diag(0, 1, ..., 1)
		hess.SymOuterK(1, sqrtW.T())
		for j := off; j < dim; j++ {
			hess.SetSym(j, j, hess.At(j, j)+lambda)
		}
		if !chol.Factorize(hess) {
			// separable data drives W to zero; a small ridge restores definiteness
			for j := 0; j < dim; j++ {
				hess.SetSym(j, j, hess.At(j, j)+1e-8)
			}
			if !chol.Factorize(hess) {
				return errors.NewNumericalInstabilityError("LogisticRegression.newton", theta, iter)
			}
		}
		if err := chol.SolveVecTo(&step, grad); err != nil {
			return errors.Wrap(errors.NewNumericalInstabilityError("LogisticRegression.newton", theta, iter), err.Error())
		}

		decrement := mat.Dot(grad, &step)
		t := 1.0
		candidate := make([]float64, dim)
		var fNew float64
		for {
			for j := range candidate {
				candidate[j] = theta[j] - t*step.AtVec(j)
			}
			cb, cw := split(candidate)
			fNew = lr.objective(X, target, cb, cw)
			if fNew <= fCur-armijo*t*decrement || t < minStep {
				break
			}
			t /= 2
		}

		maxDelta := 0.0
		for j := range theta {
			maxDelta = math.Max(maxDelta, math.Abs(candidate[j]-theta[j]))
		}
		copy(theta, candidate)
		fCur = fNew
		b, w = split(theta)

		if err := errors.CheckNumericalStability("LogisticRegression.newton", theta, iter); err != nil {
			return err
		}
		if maxDelta < lr.tol {
			converged = true
			break
		}
	}

	lr.intercept_ = b
	copy(lr.coef_, w)
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("newton", lr.maxIter, ""))
	}
	return nil
}

// fitL1 runs IRLS outer iterations, each solving the weighted lasso
// subproblem by cyclic coordinate descent, followed by a backtracking step
// on the true objective.
func (lr *LogisticRegression) fitL1(X mat.Matrix, target []float64) error {
	nSamples, nFeatures := X.Dims()
	lambda := 1.0 / lr.C
	Xd := mat.DenseCopyOf(X)

	b := 0.0
	w := make([]float64, nFeatures)
	fCur := lr.objective(Xd, target, b, w)

	weights := make([]float64, nSamples)
	resid := make([]float64, nSamples)
	colNorm := make([]float64, nFeatures)
	nb := 0.0
	nw := make([]float64, nFeatures)
	cw := make([]float64, nFeatures)
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		lr.nIter_ = iter + 1
		eta := linearPredictor(Xd, b, w)

		// working response z = eta + (y - p)/W; resid holds z - eta
		for i := 0; i < nSamples; i++ {
			p := sigmoid(eta[i])
			wi := math.Max(p*(1-p), minIRLSWeight)
			weights[i] = wi
			resid[i] = (target[i] - p) / wi
		}
		for j := 0; j < nFeatures; j++ {
			s := 0.0
			for i := 0; i < nSamples; i++ {
				x := Xd.At(i, j)
				s += weights[i] * x * x
			}
			colNorm[j] = s
		}
		sumW := floats.Sum(weights)

		nb = b
		copy(nw, w)
		for sweep := 0; sweep < maxInnerSweeps; sweep++ {
			maxChange := 0.0

			if lr.fitIntercept {
				shift := floats.Dot(weights, resid) / sumW
				nb += shift
				for i := range resid {
					resid[i] -= shift
				}
				maxChange = math.Abs(shift)
			}

			for j := 0; j < nFeatures; j++ {
				if colNorm[j] == 0 {
					nw[j] = 0
					continue
				}
				rho := 0.0
				for i := 0; i < nSamples; i++ {
					rho += weights[i] * Xd.At(i, j) * resid[i]
				}
				rho += colNorm[j] * nw[j]
				updated := errors.SoftThreshold(rho, lambda) / colNorm[j]
				if delta := updated - nw[j]; delta != 0 {
					for i := 0; i < nSamples; i++ {
						resid[i] -= Xd.At(i, j) * delta
					}
					maxChange = math.Max(maxChange, math.Abs(delta))
					nw[j] = updated
				}
			}

			if maxChange < lr.tol*0.1 {
				break
			}
		}

		// backtrack along the IRLS direction until the objective does not increase
		t := 1.0
		var cb, fNew float64
		for {
			cb = b + t*(nb-b)
			for j := range cw {
				cw[j] = w[j] + t*(nw[j]-w[j])
			}
			fNew = lr.objective(Xd, target, cb, cw)
			if fNew <= fCur || t < minStep {
				break
			}
			t /= 2
		}

		maxDelta := math.Abs(cb - b)
		for j := range w {
			maxDelta = math.Max(maxDelta, math.Abs(cw[j]-w[j]))
		}
		b = cb
		copy(w, cw)
		fCur = fNew

		if err := errors.CheckScalar("LogisticRegression.irls", fCur, iter); err != nil {
			return err
		}
		if maxDelta < lr.tol {
			converged = true
			break
		}
	}

	lr.intercept_ = b
	copy(lr.coef_, w)
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("irls-cd", lr.maxIter, ""))
	}
	return nil
}

// linearPredictor returns b + X·w.
func linearPredictor(X mat.Matrix, b float64, w []float64) []float64 {
	n, p := X.Dims()
	eta := make([]float64, n)
	if p > 0 {
		out := mat.NewVecDense(n, eta)
		out.MulVec(X, mat.NewVecDense(p, w))
	}
	for i := range eta {
		eta[i] += b
	}
	return eta
}

// DecisionFunction returns the log-odds of the positive class as an n×1 matrix.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}
	return mat.NewDense(nSamples, 1, linearPredictor(X, lr.intercept_, lr.coef_)), nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if scores.At(i, 0) > 0 {
			predictions.Set(i, 0, float64(lr.classes_[1]))
		} else {
			predictions.Set(i, 0, float64(lr.classes_[0]))
		}
	}

	return predictions, nil
}

// PredictProba returns probability estimates for each class.
// Column 1 holds the probability of the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		prob1 := sigmoid(scores.At(i, 0))
		probas.Set(i, 0, 1.0-prob1)
		probas.Set(i, 1, prob1)
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return 0, errors.NewModelError("LogisticRegression.Score", "empty data", errors.ErrEmptyData)
	}
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(nSamples), nil
}

// Coefficients returns [intercept, w_1, ..., w_k].
func (lr *LogisticRegression) Coefficients() []float64 {
	out := make([]float64, len(lr.coef_)+1)
	out[0] = lr.intercept_
	copy(out[1:], lr.coef_)
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// NIter returns the number of outer iterations run by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// IsFitted returns whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewInvalidArgumentError("LogisticRegression.SetParams", key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewInvalidArgumentError("LogisticRegression.SetParams", key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

// String returns a short description of the model.
func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, max_iter=%d)", lr.penalty, lr.C, lr.maxIter)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

var (
	_ model.LinearClassifier = (*LogisticRegression)(nil)
	_ model.ParameterGetter  = (*LogisticRegression)(nil)
)
