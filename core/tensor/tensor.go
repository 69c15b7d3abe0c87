// Package tensor provides a dense, row-major n-dimensional array of float64
// and the array-algebra primitives used by multidimensional P-spline fits:
// row tensors, H-transforms, rotations and axis permutations.
//
// A Tensor's shape is fixed at construction. Operations never broadcast;
// incompatible shapes produce a DimensionError or InputShapeError.
package tensor

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Tensor is an n-dimensional array stored in row-major (C) order.
type Tensor struct {
	data    []float64
	shape   []int
	strides []int
}

// New returns a tensor of the given shape holding a copy of data.
// len(data) must equal the product of shape.
func New(data []float64, shape ...int) (*Tensor, error) {
	size, err := shapeSize("tensor.New", shape)
	if err != nil {
		return nil, err
	}
	if size != len(data) {
		return nil, scigoErrors.NewInputShapeError("construction", shape, []int{len(data)})
	}
	buf := make([]float64, size)
	copy(buf, data)
	return wrap(buf, shape), nil
}

// Zeros returns a zero-filled tensor. It panics on a negative dimension.
func Zeros(shape ...int) *Tensor {
	size, err := shapeSize("tensor.Zeros", shape)
	if err != nil {
		panic(err)
	}
	return wrap(make([]float64, size), shape)
}

// FromDense copies a matrix into a 2-D tensor.
func FromDense(m mat.Matrix) *Tensor {
	r, c := m.Dims()
	t := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.data[i*c+j] = m.At(i, j)
		}
	}
	return t
}

// FromVector copies v into a 1-D tensor.
func FromVector(v []float64) *Tensor {
	t := Zeros(len(v))
	copy(t.data, v)
	return t
}

// wrap builds a tensor over buf without copying.
func wrap(buf []float64, shape []int) *Tensor {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{data: buf, shape: s, strides: stridesOf(s)}
}

func shapeSize(op string, shape []int) (int, error) {
	size := 1
	for _, d := range shape {
		if d < 0 {
			return 0, scigoErrors.NewValueError(op, fmt.Sprintf("negative dimension in shape %v", shape))
		}
		size *= d
	}
	return size, nil
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	s := make([]int, len(t.shape))
	copy(s, t.shape)
	return s
}

// Dim returns the extent of axis i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// NDim returns the number of axes.
func (t *Tensor) NDim() int {
	return len(t.shape)
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d-dimensional tensor", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of extent %d", v, i, t.shape[i]))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx. It panics if idx is out of range.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at idx. It panics if idx is out of range.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Data returns a copy of the elements in row-major order.
func (t *Tensor) Data() []float64 {
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}

// RawData returns the backing slice. Mutating it mutates the tensor.
func (t *Tensor) RawData() []float64 {
	return t.data
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return wrap(t.Data(), t.shape)
}

// Reshape returns a copy with a new shape of the same size.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	size, err := shapeSize("Tensor.Reshape", shape)
	if err != nil {
		return nil, err
	}
	if size != len(t.data) {
		return nil, scigoErrors.NewInputShapeError("reshape", t.Shape(), shape)
	}
	return wrap(t.Data(), shape), nil
}

// Transpose permutes the axes. With no arguments the axis order is
// reversed; otherwise axes must be a permutation of 0..NDim-1 and output
// axis d takes input axis axes[d].
func (t *Tensor) Transpose(axes ...int) (*Tensor, error) {
	n := len(t.shape)
	if len(axes) == 0 {
		axes = make([]int, n)
		for i := range axes {
			axes[i] = n - 1 - i
		}
	}
	if len(axes) != n {
		return nil, scigoErrors.NewDimensionError("Tensor.Transpose", n, len(axes), 0)
	}
	seen := make([]bool, n)
	for _, a := range axes {
		if a < 0 || a >= n || seen[a] {
			return nil, scigoErrors.NewValueError("Tensor.Transpose", fmt.Sprintf("axes %v are not a permutation of %d axes", axes, n))
		}
		seen[a] = true
	}

	shape := make([]int, n)
	inStrides := make([]int, n)
	for d, a := range axes {
		shape[d] = t.shape[a]
		inStrides[d] = t.strides[a]
	}
	out := wrap(make([]float64, len(t.data)), shape)
	if len(t.data) == 0 {
		return out, nil
	}

	idx := make([]int, n)
	src := 0
	for dst := range out.data {
		out.data[dst] = t.data[src]
		for d := n - 1; d >= 0; d-- {
			idx[d]++
			src += inStrides[d]
			if idx[d] < shape[d] {
				break
			}
			src -= idx[d] * inStrides[d]
			idx[d] = 0
		}
	}
	return out, nil
}

// Matrix copies a 1-D or 2-D tensor into a *mat.Dense. A 1-D tensor of
// length n becomes an n×1 column.
func (t *Tensor) Matrix() (*mat.Dense, error) {
	if len(t.data) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "Tensor.Matrix")
	}
	switch len(t.shape) {
	case 1:
		return mat.NewDense(t.shape[0], 1, t.Data()), nil
	case 2:
		return mat.NewDense(t.shape[0], t.shape[1], t.Data()), nil
	default:
		return nil, scigoErrors.NewDimensionError("Tensor.Matrix", 2, len(t.shape), 0)
	}
}

// Mul returns the elementwise product. Shapes must match exactly.
func (t *Tensor) Mul(o *Tensor) (*Tensor, error) {
	if !sameShape(t.shape, o.shape) {
		return nil, scigoErrors.NewInputShapeError("elementwise", t.Shape(), o.Shape())
	}
	out := make([]float64, len(t.data))
	for i := range out {
		out[i] = t.data[i] * o.data[i]
	}
	return wrap(out, t.shape), nil
}

// Equal reports whether shapes and all elements are identical.
func (t *Tensor) Equal(o *Tensor) bool {
	return t.EqualApprox(o, 0)
}

// EqualApprox reports whether shapes match and every element differs by
// at most tol.
func (t *Tensor) EqualApprox(o *Tensor, tol float64) bool {
	if o == nil || !sameShape(t.shape, o.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(v-o.data[i]) > tol {
			return false
		}
	}
	return true
}

// String formats the tensor as its shape followed by the flat data.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v", t.shape)
	sb.WriteString(fmt.Sprint(t.data))
	return sb.String()
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
