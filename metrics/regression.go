// Package metrics は回帰モデルの評価指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/pspline/pkg/errors"
)

// checkPair は入力ベクトルの長さを検証し、値をスライスとして返す
func checkPair(op string, yTrue, yPred *mat.VecDense) ([]float64, []float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// checkWeights は重みの長さと符号を検証する。nil は全て1として扱う
func checkWeights(op string, w []float64, n int) error {
	if w == nil {
		return nil
	}
	if len(w) != n {
		return errors.NewDimensionError(op, n, len(w), 0)
	}
	total := 0.0
	for _, v := range w {
		if v < 0 {
			return errors.NewValueError(op, "weights must be non-negative")
		}
		total += v
	}
	if total == 0 {
		return errors.NewValueError(op, "weights sum to zero")
	}
	return nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	return WeightedMSE(yTrue, yPred, nil)
}

// WeightedMSE は重み付き平均二乗誤差 Σw(yTrue-yPred)²/Σw を計算する
func WeightedMSE(yTrue, yPred *mat.VecDense, w []float64) (float64, error) {
	t, p, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkWeights("MSE", w, len(t)); err != nil {
		return 0, err
	}
	sq := make([]float64, len(t))
	for i := range t {
		d := t[i] - p[i]
		sq[i] = d * d
	}
	return stat.Mean(sq, w), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	abs := make([]float64, len(t))
	for i := range t {
		abs[i] = math.Abs(t[i] - p[i])
	}
	return stat.Mean(abs, nil), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	return WeightedR2Score(yTrue, yPred, nil)
}

// WeightedR2Score は重み付き決定係数を計算する。
// 重み0の要素（格子上の欠測セルなど）は評価から除外される
func WeightedR2Score(yTrue, yPred *mat.VecDense, w []float64) (float64, error) {
	t, p, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkWeights("R2Score", w, len(t)); err != nil {
		return 0, err
	}

	yMean := stat.Mean(t, w)
	var tss, rss float64
	for i := range t {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		tss += wi * (t[i] - yMean) * (t[i] - yMean)
		rss += wi * (t[i] - p[i]) * (t[i] - p[i])
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// ExplainedVarianceScore は説明分散スコアを計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, len(t))
	for i := range t {
		diff[i] = t[i] - p[i]
	}
	_, varTrue := stat.PopMeanVariance(t, nil)
	_, varDiff := stat.PopMeanVariance(diff, nil)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	return 1 - varDiff/varTrue, nil
}
