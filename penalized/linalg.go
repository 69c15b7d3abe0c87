package penalized

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// pinvRcond is the relative singular value cutoff of PseudoInverse.
const pinvRcond = 1e-15

// svdParts factorizes a and returns U, the singular values and V.
func svdParts(op string, a mat.Matrix) (*mat.Dense, []float64, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, nil, nil, scigoErrors.Wrapf(scigoErrors.ErrSingularMatrix, "%s: SVD factorization failed", op)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &u, svd.Values(nil), &v, nil
}

// reciprocal inverts the singular values above rcond·σmax and zeroes the rest.
func reciprocal(s []float64, rcond float64) []float64 {
	smax := 0.0
	for _, v := range s {
		smax = math.Max(smax, v)
	}
	cutoff := rcond * smax
	inv := make([]float64, len(s))
	for i, v := range s {
		if v > cutoff {
			inv[i] = 1 / v
		}
	}
	return inv
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of a, computed from
// its SVD with singular values at or below 1e-15·σmax treated as zero.
// The pseudo-inverse of an all-zero matrix is all zeros.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "PseudoInverse")
	}
	u, s, v, err := svdParts("PseudoInverse", a)
	if err != nil {
		return nil, err
	}
	sinv := reciprocal(s, pinvRcond)

	// V·diag(sinv) scaled in place, then times Uᵗ
	vs := mat.DenseCopyOf(v)
	vr, vc := vs.Dims()
	for j := 0; j < vc; j++ {
		for i := 0; i < vr; i++ {
			vs.Set(i, j, vs.At(i, j)*sinv[j])
		}
	}
	var out mat.Dense
	out.Mul(vs, u.T())
	return &out, nil
}

// LeastSquares returns the minimum-norm x minimizing ||a·x - b||, with
// singular values at or below eps·max(rows, cols)·σmax treated as zero.
func LeastSquares(a mat.Matrix, b *mat.VecDense) (*mat.VecDense, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "LeastSquares")
	}
	if b.Len() != r {
		return nil, scigoErrors.NewDimensionError("LeastSquares", r, b.Len(), 0)
	}
	u, s, v, err := svdParts("LeastSquares", a)
	if err != nil {
		return nil, err
	}
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(r, c))
	sinv := reciprocal(s, rcond)

	var utb mat.VecDense
	utb.MulVec(u.T(), b)
	for i := 0; i < utb.Len(); i++ {
		utb.SetVec(i, utb.AtVec(i)*sinv[i])
	}
	var x mat.VecDense
	x.MulVec(v, &utb)
	return &x, nil
}
