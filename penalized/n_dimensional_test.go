package penalized

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/basis"
	"github.com/YuminosukeSato/pspline/core/tensor"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func mustTensor(t *testing.T, data []float64, shape ...int) *tensor.Tensor {
	t.Helper()
	out, err := tensor.New(data, shape...)
	require.NoError(t, err)
	return out
}

func requireTensorInDelta(t *testing.T, want []float64, got *tensor.Tensor, delta float64) {
	t.Helper()
	require.Equal(t, len(want), got.Size())
	for i, v := range got.Data() {
		require.InDelta(t, want[i], v, delta, "flat index %d", i)
	}
}

func TestFitNDimensionalTwoByTwo(t *testing.T) {
	y := mustTensor(t, []float64{1, 2, 3, 4}, 2, 2)
	bases := []mat.Matrix{
		mat.NewDense(2, 2, []float64{1, 1, 1, 2}),
		mat.NewDense(2, 2, []float64{1, 1, 2, 3}),
	}

	fit, err := FitNDimensional(y, bases, WithPenalties(1, 1), WithOrder(2))
	require.NoError(t, err)
	require.Equal(t, 2, fit.Dimension())

	require.Equal(t, []int{2, 2}, fit.Beta.Shape())
	requireTensorInDelta(t, []float64{-3, 1, 2, 0}, fit.Beta, 1e-9)
	requireTensorInDelta(t, []float64{1, 2, 3, 4}, fit.YHat, 1e-9)
	requireTensorInDelta(t, []float64{1, 1, 1, 1}, fit.Hat, 1e-9)
}

// bruteForce solves the same problem with the explicit Kronecker design.
func bruteForce(t *testing.T, y, w []float64, b1, b2 *mat.Dense, l1, l2 float64, order int) (beta, yHat, hat []float64) {
	t.Helper()
	m1, _ := b1.Dims()
	m2, _ := b2.Dims()

	x := tensor.Kron(b1, b2)
	joint, n := x.Dims()

	xw := mat.DenseCopyOf(x)
	for j := 0; j < joint; j++ {
		for i := 0; i < n; i++ {
			xw.Set(j, i, xw.At(j, i)*w[i])
		}
	}
	var system mat.Dense
	system.Mul(xw, x.T())

	var p1, p2 mat.Dense
	p1.Kronecker(PenaltyMatrix(m1, order), identity(m2))
	p2.Kronecker(identity(m1), PenaltyMatrix(m2, order))
	p1.Scale(l1, &p1)
	p2.Scale(l2, &p2)
	system.Add(&system, &p1)
	system.Add(&system, &p2)

	inv, err := PseudoInverse(&system)
	require.NoError(t, err)

	var rhs, b mat.VecDense
	rhs.MulVec(xw, mat.NewVecDense(n, y))
	b.MulVec(inv, &rhs)

	var fitted mat.VecDense
	fitted.MulVec(x.T(), &b)

	var h mat.Dense
	h.Product(x.T(), inv, x)
	hat = make([]float64, n)
	for i := range hat {
		hat[i] = h.At(i, i) * w[i]
	}
	return b.RawVector().Data, fitted.RawVector().Data, hat
}

func gridFixture(t *testing.T) (*mat.Dense, *mat.Dense, []float64, []float64) {
	t.Helper()
	x1 := []float64{0, 0.2, 0.5, 0.7, 1}
	x2 := []float64{-1, 0, 0.5, 2}
	b1, err := basis.BSplines(x1, 6, 2, 0, 1)
	require.NoError(t, err)
	b2, err := basis.BSplines(x2, 5, 3, -1, 2)
	require.NoError(t, err)

	y := make([]float64, len(x1)*len(x2))
	w := make([]float64, len(y))
	for i, a := range x1 {
		for j, c := range x2 {
			y[i*len(x2)+j] = math.Sin(3*a) + c*c/4
			w[i*len(x2)+j] = 1
		}
	}
	// three missing cells
	for _, idx := range []int{1, 10, 17} {
		y[idx] = 0
		w[idx] = 0
	}
	return b1, b2, y, w
}

func TestFitNDimensionalMatchesKroneckerDesign(t *testing.T) {
	b1, b2, y, w := gridFixture(t)

	fit, err := FitNDimensional(
		mustTensor(t, y, 5, 4),
		[]mat.Matrix{b1, b2},
		WithPenalties(0.5, 2),
		WithOrder(2),
		WithWeightTensor(mustTensor(t, w, 5, 4)),
	)
	require.NoError(t, err)

	beta, yHat, hat := bruteForce(t, y, w, b1, b2, 0.5, 2, 2)
	require.Equal(t, []int{6, 5}, fit.Beta.Shape())
	require.Equal(t, []int{5, 4}, fit.YHat.Shape())
	requireTensorInDelta(t, beta, fit.Beta, 1e-8)
	requireTensorInDelta(t, yHat, fit.YHat, 1e-8)
	requireTensorInDelta(t, hat, fit.Hat, 1e-8)

	for _, idx := range []int{1, 10, 17} {
		require.Zero(t, fit.Hat.RawData()[idx], "missing cell %d must have zero leverage", idx)
	}
}

func TestFitNDimensionalIgnoresZeroWeightCells(t *testing.T) {
	b1, b2, y, w := gridFixture(t)
	placeholder := append([]float64(nil), y...)
	for _, idx := range []int{1, 10, 17} {
		placeholder[idx] = 1e6 * float64(idx)
	}

	bases := []mat.Matrix{b1, b2}
	wt := mustTensor(t, w, 5, 4)
	f1, err := FitNDimensional(mustTensor(t, y, 5, 4), bases, WithWeightTensor(wt))
	require.NoError(t, err)
	f2, err := FitNDimensional(mustTensor(t, placeholder, 5, 4), bases, WithWeightTensor(wt))
	require.NoError(t, err)

	require.True(t, f1.Beta.EqualApprox(f2.Beta, 1e-9))
	require.True(t, f1.YHat.EqualApprox(f2.YHat, 1e-9))
}

func TestFitNDimensionalSingleAxisMatchesOneDimensional(t *testing.T) {
	x := []float64{0, 0.1, 0.3, 0.4, 0.6, 0.8, 0.9, 1}
	y := []float64{0.1, 0.4, 0.2, 0.7, 0.9, 0.6, 1.2, 1.0}
	b, err := basis.BSplines(x, 7, 3, 0, 1)
	require.NoError(t, err)

	one, err := FitOneDimensional(y, b, WithPenalty(0.7))
	require.NoError(t, err)
	nd, err := FitNDimensional(mustTensor(t, y, len(y)), []mat.Matrix{b}, WithPenalty(0.7))
	require.NoError(t, err)

	requireTensorInDelta(t, one.Beta.RawVector().Data, nd.Beta, 1e-9)
	requireTensorInDelta(t, one.YHat.RawVector().Data, nd.YHat, 1e-9)
	requireTensorInDelta(t, one.HatDiag.RawVector().Data, nd.Hat, 1e-9)
}

func TestFitNDimensionalErrors(t *testing.T) {
	b1, b2, y, _ := gridFixture(t)
	bases := []mat.Matrix{b1, b2}
	grid := mustTensor(t, y, 5, 4)

	_, err := FitNDimensional(grid, bases, WithMaxJointSize(10))
	var resErr *scigoErrors.ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, 30, resErr.Size)

	_, err = FitNDimensional(grid, bases, WithPenalties(1, 2, 3))
	var dimErr *scigoErrors.DimensionError
	require.ErrorAs(t, err, &dimErr)

	_, err = FitNDimensional(grid, bases[:1])
	require.ErrorAs(t, err, &dimErr)

	_, err = FitNDimensional(grid, []mat.Matrix{b2, b1})
	require.ErrorAs(t, err, &dimErr)

	_, err = FitNDimensional(grid, bases, WithWeightTensor(tensor.Zeros(4, 5)))
	var shapeErr *scigoErrors.InputShapeError
	require.ErrorAs(t, err, &shapeErr)
}
