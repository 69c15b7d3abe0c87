// Package preprocessing は散布データをP-spline用の格子データに整形する機能を提供します。
package preprocessing

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/tensor"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Domain は1つの次元の定義域 [Min, Max] を表す
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Grid は散布データを格子上に並べ直した結果
type Grid struct {
	// Axes は各次元のソート済み一意値
	Axes [][]float64

	// Y は応答テンソル。観測のないセルは0
	Y *tensor.Tensor

	// W は重みテンソル。観測のないセルは0
	W *tensor.Tensor
}

// Shape は格子の形状 (len(Axes[0]), ..., len(Axes[K-1])) を返す
func (g *Grid) Shape() []int {
	return g.Y.Shape()
}

// Missing は重みが0のセル数を返す
func (g *Grid) Missing() int {
	n := 0
	for _, v := range g.W.RawData() {
		if v == 0 {
			n++
		}
	}
	return n
}

// FormatGrid は X (n_obs × n_dim) と y (n_obs) を格子データに変換する
//
// 各列はソート済みの一意値に縮約され、観測 i は対応するセルに配置される。
// 同じ座標が複数回現れた場合は最後の観測が採用される。
// w が nil の場合、観測のあるセルの重みは1、それ以外は0になる
// (応答が0の観測も観測として扱う)。w が与えられた場合はその値を配置する。
//
// 使用例:
//
//	grid, err := preprocessing.FormatGrid(X, y, nil)
//	fit, err := penalized.FitNDimensional(grid.Y, bases, penalized.WithWeightTensor(grid.W))
func FormatGrid(X *mat.Dense, y, w []float64) (_ *Grid, err error) {
	defer scigoErrors.Recover(&err, "FormatGrid")

	nObs, nDim := X.Dims()
	if nObs == 0 || nDim == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "FormatGrid")
	}
	if len(y) != nObs {
		return nil, scigoErrors.NewDimensionError("FormatGrid", nObs, len(y), 0)
	}
	if w != nil && len(w) != nObs {
		return nil, scigoErrors.NewDimensionError("FormatGrid", nObs, len(w), 0)
	}

	axes, err := Axes(X)
	if err != nil {
		return nil, err
	}
	lookup := make([]map[float64]int, nDim)
	shape := make([]int, nDim)
	for j, a := range axes {
		shape[j] = len(a)
		lookup[j] = make(map[float64]int, len(a))
		for k, v := range a {
			lookup[j][v] = k
		}
	}

	yt := tensor.Zeros(shape...)
	wt := tensor.Zeros(shape...)
	idx := make([]int, nDim)
	for i := 0; i < nObs; i++ {
		for j := 0; j < nDim; j++ {
			idx[j] = lookup[j][X.At(i, j)]
		}
		yt.Set(y[i], idx...)
		if w != nil {
			wt.Set(w[i], idx...)
		} else {
			wt.Set(1, idx...)
		}
	}

	return &Grid{Axes: axes, Y: yt, W: wt}, nil
}

// Axes は X の各列のソート済み一意値を返す。
// 予測時の評価格子はこの値で構成される
func Axes(X mat.Matrix) ([][]float64, error) {
	nObs, nDim := X.Dims()
	if nObs == 0 || nDim == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "Axes")
	}
	axes := make([][]float64, nDim)
	for j := 0; j < nDim; j++ {
		col := mat.Col(nil, j, X)
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, scigoErrors.NewValueError("Axes", fmt.Sprintf("non-finite coordinate %g at row %d, column %d", v, i, j))
			}
		}
		axes[j] = unique(col)
	}
	return axes, nil
}

// unique はソート済みの一意値を返す。-0と0は同じ値として扱われる
func unique(v []float64) []float64 {
	out := slices.Clone(v)
	slices.Sort(out)
	return slices.Compact(out)
}

// Domains は X の各列の最小値と最大値を返す
func Domains(X mat.Matrix) ([]Domain, error) {
	nObs, nDim := X.Dims()
	if nObs == 0 || nDim == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "Domains")
	}
	out := make([]Domain, nDim)
	for j := 0; j < nDim; j++ {
		d := Domain{Min: X.At(0, j), Max: X.At(0, j)}
		for i := 1; i < nObs; i++ {
			v := X.At(i, j)
			d.Min = math.Min(d.Min, v)
			d.Max = math.Max(d.Max, v)
		}
		out[j] = d
	}
	return out, nil
}

// DomainsOf は各軸の一意値から定義域を求める
func DomainsOf(axes [][]float64) []Domain {
	out := make([]Domain, len(axes))
	for j, a := range axes {
		out[j] = Domain{Min: a[0], Max: a[len(a)-1]}
	}
	return out
}
