// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// リサンプリング・有意性フィルタリングの各段階で発生する失敗を、
// errors.Is で判定できるセンチネルと構造化されたエラー型の組み合わせで表現します。
package errors

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("sigboot-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	センチネル（errors.Is で判定する分類）
//
// ===========================================================================

var (
	// ErrInvalidArgument はリサンプリング等のパラメータが不正な場合の分類です。
	ErrInvalidArgument = New("invalid argument")

	// ErrDegenerateLabelSet はラベルが単一クラスしか含まずAUC等が定義できない場合の分類です。
	ErrDegenerateLabelSet = New("degenerate label set")

	// ErrDegenerateDistribution は係数の分布の標準誤差が0で z 値が定義できない場合の分類です。
	ErrDegenerateDistribution = New("degenerate distribution")

	// ErrNoFeaturesSelected は特徴量が一つも選択されずモデルを学習できない場合の分類です。
	ErrNoFeaturesSelected = New("no features selected")

	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("sigboot: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("sigboot: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// Is は DimensionError を ErrInvalidArgument として扱います。
func (e *DimensionError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// InvalidArgumentError は入力パラメータの検証に失敗した場合のエラーです。
type InvalidArgumentError struct {
	Op        string
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("sigboot: %s: invalid argument '%s': %s (got: %v)", e.Op, e.ParamName, e.Reason, e.Value)
}

// Is は ErrInvalidArgument との比較を可能にします。
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError は新しいInvalidArgumentErrorを作成し、スタックトレースを付与します。
func NewInvalidArgumentError(op, param, reason string, value interface{}) error {
	err := &InvalidArgumentError{Op: op, ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// DegenerateLabelSetError はラベル集合が単一クラスのみで構成されている場合のエラーです。
type DegenerateLabelSetError struct {
	Op    string
	Phase string // "training", "validation", "testing"
	Class int    // 唯一観測されたクラス
	Count int
}

func (e *DegenerateLabelSetError) Error() string {
	return fmt.Sprintf("sigboot: %s: %s labels contain only class %d (%d samples); both classes are required",
		e.Op, e.Phase, e.Class, e.Count)
}

// Is は ErrDegenerateLabelSet との比較を可能にします。
func (e *DegenerateLabelSetError) Is(target error) bool {
	return target == ErrDegenerateLabelSet
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateLabelSetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("phase", e.Phase).
		Int("class", e.Class).
		Int("count", e.Count).
		Str("type", "DegenerateLabelSetError")
}

// NewDegenerateLabelSetError は新しいDegenerateLabelSetErrorを作成し、スタックトレースを付与します。
func NewDegenerateLabelSetError(op, phase string, class, count int) error {
	err := &DegenerateLabelSetError{Op: op, Phase: phase, Class: class, Count: count}
	return errors.WithStack(err)
}

// DegenerateDistributionError は係数列の標準誤差が0になった列を列挙するエラーです。
// 統計量自体は返されるため、呼び出し側は該当列を「有意でない」として扱います。
type DegenerateDistributionError struct {
	Columns []int
}

func (e *DegenerateDistributionError) Error() string {
	return fmt.Sprintf("sigboot: zero standard error in %d coefficient column(s) %v; z statistics undefined",
		len(e.Columns), e.Columns)
}

// Is は ErrDegenerateDistribution との比較を可能にします。
func (e *DegenerateDistributionError) Is(target error) bool {
	return target == ErrDegenerateDistribution
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateDistributionError) MarshalZerologObject(event *zerolog.Event) {
	event.Ints("columns", e.Columns).
		Str("type", "DegenerateDistributionError")
}

// NewDegenerateDistributionError は新しいDegenerateDistributionErrorを作成します。
func NewDegenerateDistributionError(columns []int) error {
	cols := append([]int(nil), columns...)
	sort.Ints(cols)
	return errors.WithStack(&DegenerateDistributionError{Columns: cols})
}

// NoFeaturesSelectedError は空の特徴量集合でモデルを学習しようとした場合のエラーです。
type NoFeaturesSelectedError struct {
	Op string
}

func (e *NoFeaturesSelectedError) Error() string {
	return fmt.Sprintf("sigboot: %s: feature matrix has no columns", e.Op)
}

// Is は ErrNoFeaturesSelected との比較を可能にします。
func (e *NoFeaturesSelectedError) Is(target error) bool {
	return target == ErrNoFeaturesSelected
}

// NewNoFeaturesSelectedError は新しいNoFeaturesSelectedErrorを作成し、スタックトレースを付与します。
func NewNoFeaturesSelectedError(op string) error {
	return errors.WithStack(&NoFeaturesSelectedError{Op: op})
}

// RepetitionError はリサンプリングの特定の反復で発生したエラーを包みます。
// 失敗した反復はパス全体を中断させ、再試行はされません。
type RepetitionError struct {
	Repetition int
	Err        error
}

func (e *RepetitionError) Error() string {
	return fmt.Sprintf("sigboot: repetition %d: %v", e.Repetition, e.Err)
}

func (e *RepetitionError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *RepetitionError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("repetition", e.Repetition).
		Str("cause", e.Err.Error()).
		Str("type", "RepetitionError")
}

// NewRepetitionError は新しいRepetitionErrorを作成します。
func NewRepetitionError(repetition int, err error) error {
	return errors.WithStack(&RepetitionError{Repetition: repetition, Err: err})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("sigboot: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sigboot: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sigboot: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("sigboot: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// GetSafeDetails はエラーチェーンに含まれる安全な詳細（スタックトレース等）を返します。
func GetSafeDetails(err error) []string {
	return errors.GetSafeDetails(err).SafeDetails
}
