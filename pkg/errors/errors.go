// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 形状の不一致、設定エラー、未対応の操作、数値的な縮退をそれぞれ型付きエラーとして表し、
// cockroachdb/errors によるスタックトレースを付与します。
package errors

import (
	"fmt"
	"log"
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
		log.Printf("pspline-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、DegeneracyWarningなどのカスタム警告の処理方法を制御できます。
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

// DegeneracyWarning は診断量の分母が正でなく、値を計算できなかった場合の警告です。
// 例えば、有効次元が観測数以上になり残差標準偏差が定義できない場合など。
type DegeneracyWarning struct {
	Quantity    string
	Denominator float64
	Result      float64 // この条件で返される値
}

func (w *DegeneracyWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined (denominator %g) and being set to %g.", w.Quantity, w.Denominator, w.Result)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DegeneracyWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("quantity", w.Quantity).
		Float64("denominator", w.Denominator).
		Float64("result", w.Result).
		Str("type", "DegeneracyWarning")
}

// NewDegeneracyWarning は新しいDegeneracyWarningを作成します。
func NewDegeneracyWarning(quantity string, denominator, result float64) *DegeneracyWarning {
	return &DegeneracyWarning{Quantity: quantity, Denominator: denominator, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("pspline: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
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
// 配列演算は暗黙のブロードキャストを行わず、常にこのエラーを返します。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0: 行（第1軸）, 1: 列（第2軸）
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("pspline: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ConfigError は基底やペナルティの設定が不正な場合のエラーです。
// 領域の縮退（min == max）、セグメント数が正でない、基底関数の数が次数以下など。
type ConfigError struct {
	Op        string
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pspline: %s: invalid configuration for '%s': %s (got: %v)", e.Op, e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigError")
}

// NewConfigError は新しいConfigErrorを作成し、スタックトレースを付与します。
func NewConfigError(op, param, reason string, value interface{}) error {
	err := &ConfigError{Op: op, ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("pspline: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// UnsupportedError はモデルの状態では実行できない操作が呼ばれた場合のエラーです。
// 2次元以上で学習したモデルに対する標準誤差や微分の計算がこれにあたります。
type UnsupportedError struct {
	Op        string
	Dimension int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("pspline: %s: not implemented for dimension %d (only dimension 1 is supported)", e.Op, e.Dimension)
}

// Unwrap は ErrNotImplemented を返し、errors.Is での判定を可能にします。
func (e *UnsupportedError) Unwrap() error {
	return ErrNotImplemented
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("dimension", e.Dimension).
		Str("type", "UnsupportedError")
}

// NewUnsupportedError は新しいUnsupportedErrorを作成し、スタックトレースを付与します。
func NewUnsupportedError(op string, dimension int) error {
	err := &UnsupportedError{Op: op, Dimension: dimension}
	return errors.WithStack(err)
}

// ResourceError は連立方程式の規模が上限を超え、確保を行わずに拒否した場合のエラーです。
type ResourceError struct {
	Op    string
	Size  int // 要求された結合係数空間の大きさ
	Limit int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("pspline: %s: joint system of size %d exceeds the limit %d (dense %dx%d solve)", e.Op, e.Size, e.Limit, e.Size, e.Size)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ResourceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("size", e.Size).
		Int("limit", e.Limit).
		Str("type", "ResourceError")
}

// NewResourceError は新しいResourceErrorを作成し、スタックトレースを付与します。
func NewResourceError(op string, size, limit int) error {
	err := &ResourceError{Op: op, Size: size, Limit: limit}
	return errors.WithStack(err)
}

// ModelError はモデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pspline: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("pspline: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
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

// ===========================================================================
//
//	数値計算のエラー型
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// 推定された係数や予測値に NaN や Inf が含まれる場合に返されます。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "beta_hat", "hat_diagonal"）
	Values    []float64 // 問題のある値
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
	return fmt.Sprintf("pspline: numerical instability detected in %s. Values: [%s]", e.Operation, valStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
	}
	return errors.WithStack(err)
}

// InputShapeError は入力配列の形状が期待と異なる場合のエラーです。
// DimensionErrorより詳細で、多次元配列の形状全体を比較します。
type InputShapeError struct {
	Phase    string // "training", "prediction", "transform"
	Expected []int  // 期待される形状
	Got      []int  // 実際の形状
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("pspline: input shape mismatch in %s phase. Expected shape %v, got %v",
		e.Phase, e.Expected, e.Got)
}

// NewInputShapeError は新しいInputShapeErrorを作成します。
func NewInputShapeError(phase string, expected, got []int) error {
	err := &InputShapeError{
		Phase:    phase,
		Expected: expected,
		Got:      got,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrNotImplemented は機能が未実装の場合のエラーです。
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異値分解に失敗した場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
