package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/tensor"
)

// Result is the output of a penalized fit. The concrete type is
// *OneDimensionalFit or *NDimensionalFit.
type Result interface {
	// Dimension returns the number of argument dimensions of the fit.
	Dimension() int
	isResult()
}

// OneDimensionalFit holds the coefficients and diagnostics of a
// one-dimensional fit.
type OneDimensionalFit struct {
	Beta    *mat.VecDense // n_basis coefficients
	YHat    *mat.VecDense // fitted values at the observations
	HatDiag *mat.VecDense // leverage per observation

	EffDim      float64 // sum of HatDiag
	Roughness   float64
	ResidualStd float64

	SE *mat.VecDense // pointwise standard error at the observations

	// InvMat is the pseudo-inverse of the penalized normal matrix, kept for
	// error propagation at new points.
	InvMat *mat.Dense
}

// Dimension implements Result.
func (*OneDimensionalFit) Dimension() int { return 1 }
func (*OneDimensionalFit) isResult()      {}

// NDimensionalFit holds the coefficients, fitted grid and per-cell
// leverage of a tensor-product fit.
type NDimensionalFit struct {
	Beta *tensor.Tensor // shape (m_1, …, m_K)
	YHat *tensor.Tensor // shape (n_1, …, n_K)
	Hat  *tensor.Tensor // shape (n_1, …, n_K)
}

// Dimension implements Result.
func (f *NDimensionalFit) Dimension() int { return f.Beta.NDim() }
func (*NDimensionalFit) isResult()        {}
