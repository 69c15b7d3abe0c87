package tensor

import (
	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// RowTensor returns the row-wise Kronecker product of x (n×c1) and y
// (n×c2): an n×(c1·c2) matrix whose row i holds x[i,a]·y[i,b] at column
// a·c2+b. A nil y means y = x.
func RowTensor(x, y mat.Matrix) (*mat.Dense, error) {
	if y == nil {
		y = x
	}
	n, c1 := x.Dims()
	ny, c2 := y.Dims()
	if n != ny {
		return nil, scigoErrors.NewDimensionError("RowTensor", n, ny, 0)
	}
	if n == 0 || c1*c2 == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "RowTensor")
	}

	out := mat.NewDense(n, c1*c2, nil)
	for i := 0; i < n; i++ {
		for a := 0; a < c1; a++ {
			xa := x.At(i, a)
			for b := 0; b < c2; b++ {
				out.Set(i, a*c2+b, xa*y.At(i, b))
			}
		}
	}
	return out, nil
}

// HTransform multiplies x (r×c) into the first axis of a, whose first
// extent must be c. The result has shape (r, a.shape[1:]...).
func HTransform(x mat.Matrix, a *Tensor) (*Tensor, error) {
	if a.NDim() == 0 {
		return nil, scigoErrors.NewDimensionError("HTransform", 1, 0, 0)
	}
	r, c := x.Dims()
	if c != a.shape[0] {
		return nil, scigoErrors.NewDimensionError("HTransform", c, a.shape[0], 0)
	}

	rest := 1
	for _, d := range a.shape[1:] {
		rest *= d
	}
	shape := append([]int{r}, a.shape[1:]...)
	if r == 0 || c == 0 || rest == 0 {
		return Zeros(shape...), nil
	}

	var prod mat.Dense
	prod.Mul(x, mat.NewDense(c, rest, a.Data()))
	return wrap(prod.RawMatrix().Data, shape), nil
}

// Rotate moves the first axis of a to the last position.
// For a 2-D tensor this is the matrix transpose.
func Rotate(a *Tensor) *Tensor {
	n := a.NDim()
	if n < 2 {
		return a.Clone()
	}
	axes := make([]int, n)
	for i := range axes {
		axes[i] = (i + 1) % n
	}
	out, err := a.Transpose(axes...)
	if err != nil {
		// axes is a valid permutation by construction
		panic(err)
	}
	return out
}

// RotatedHTransform is Rotate(HTransform(x, a)).
func RotatedHTransform(x mat.Matrix, a *Tensor) (*Tensor, error) {
	h, err := HTransform(x, a)
	if err != nil {
		return nil, err
	}
	return Rotate(h), nil
}

// CreatePermutation returns the axis order that interleaves k groups of p
// consecutive axes: result[j·k+i] = i·p + j for i < k, j < p.
//
// CreatePermutation(2, 3) is [0 2 4 1 3 5], which separates the row and
// column halves of axes laid out as (r1, c1, r2, c2, r3, c3).
func CreatePermutation(p, k int) []int {
	if p <= 0 || k <= 0 {
		return []int{}
	}
	out := make([]int, p*k)
	for i := 0; i < k; i++ {
		for j := 0; j < p; j++ {
			out[j*k+i] = i*p + j
		}
	}
	return out
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Kronecker(a, b)
	return &out
}

// Fold applies RotatedHTransform once per axis: after len(mats) steps
// axis k of a has been multiplied by mats[k] and the axis order restored.
// len(mats) must equal a.NDim().
func Fold(mats []mat.Matrix, a *Tensor) (*Tensor, error) {
	if len(mats) != a.NDim() {
		return nil, scigoErrors.NewDimensionError("Fold", a.NDim(), len(mats), 0)
	}
	out := a
	for _, m := range mats {
		next, err := RotatedHTransform(m, out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
