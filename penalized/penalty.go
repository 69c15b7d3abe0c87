package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/tensor"
)

// DifferenceMatrix returns the (n-order)×n matrix of order-th differences
// of the n×n identity. When order >= n there are no rows and an empty
// matrix is returned; order 0 gives the identity.
func DifferenceMatrix(n, order int) *mat.Dense {
	if n <= 0 || order >= n {
		return &mat.Dense{}
	}
	if order < 0 {
		order = 0
	}
	// binomial coefficients with alternating sign: row i has
	// (-1)^(order-k)·C(order, k) at column i+k
	coef := make([]float64, order+1)
	coef[0] = 1
	for k := 1; k <= order; k++ {
		for j := k; j > 0; j-- {
			coef[j] = coef[j] + coef[j-1]
		}
	}
	for k := range coef {
		if (order-k)%2 == 1 {
			coef[k] = -coef[k]
		}
	}

	rows := n - order
	d := mat.NewDense(rows, n, nil)
	for i := 0; i < rows; i++ {
		for k, c := range coef {
			d.Set(i, i+k, c)
		}
	}
	return d
}

// PenaltyMatrix returns DᵗD for the order-th difference matrix of size n.
// It is the n×n zero matrix when order >= n.
func PenaltyMatrix(n, order int) *mat.Dense {
	p := mat.NewDense(n, n, nil)
	d := DifferenceMatrix(n, order)
	if r, _ := d.Dims(); r == 0 {
		return p
	}
	p.Mul(d.T(), d)
	return p
}

// TensorProductPenalties expands per-dimension penalty matrices to the joint
// coefficient space. Entry k is I_1 ⊗ … ⊗ penalties[k] ⊗ … ⊗ I_K, where
// I_j is the identity of size cols(penalties[j]), symmetrized as (A+Aᵗ)/2
// when square. A single penalty is returned as is.
func TensorProductPenalties(penalties []mat.Matrix) []*mat.Dense {
	switch len(penalties) {
	case 0:
		return nil
	case 1:
		return []*mat.Dense{mat.DenseCopyOf(penalties[0])}
	}

	eyes := make([]mat.Matrix, len(penalties))
	for i, p := range penalties {
		_, c := p.Dims()
		eyes[i] = identity(c)
	}

	out := make([]*mat.Dense, len(penalties))
	for idx := range penalties {
		var left mat.Matrix = eyes[0]
		if idx == 0 {
			left = penalties[0]
		}
		for j := 1; j < len(penalties); j++ {
			right := eyes[j]
			if idx == j {
				right = penalties[j]
			}
			left = tensor.Kron(left, right)
		}
		out[idx] = symmetrize(mat.DenseCopyOf(left))
	}
	return out
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func symmetrize(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	if r != c {
		return a
	}
	var t mat.Dense
	t.Add(a, a.T())
	t.Scale(0.5, &t)
	return &t
}
