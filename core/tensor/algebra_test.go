package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func denseToRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func tensorToRows(t *Tensor) [][]float64 {
	m, err := t.Matrix()
	if err != nil {
		panic(err)
	}
	return denseToRows(m)
}

func TestRowTensor(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y := mat.NewDense(2, 3, []float64{5, 6, 7, 7, 8, 9})

	tests := []struct {
		name string
		y    mat.Matrix
		want [][]float64
	}{
		{
			name: "two matrices",
			y:    y,
			want: [][]float64{{5, 6, 7, 10, 12, 14}, {21, 24, 27, 28, 32, 36}},
		},
		{
			name: "self",
			y:    nil,
			want: [][]float64{{1, 2, 2, 4}, {9, 12, 12, 16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RowTensor(x, tt.y)
			require.NoError(t, err)
			require.Equal(t, tt.want, denseToRows(got))
		})
	}

	_, err := RowTensor(x, mat.NewDense(3, 1, []float64{1, 2, 3}))
	var dimErr *scigoErrors.DimensionError
	require.ErrorAs(t, err, &dimErr)
}

func TestHTransform(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y, err := New([]float64{5, 6, 7, 7, 8, 9}, 2, 3)
	require.NoError(t, err)

	got, err := HTransform(x, y)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{19, 22, 25}, {43, 50, 57}}, tensorToRows(got))

	bad, err := New([]float64{1, 2}, 1, 2)
	require.NoError(t, err)
	_, err = HTransform(x, bad)
	var dimErr *scigoErrors.DimensionError
	require.ErrorAs(t, err, &dimErr)
}

func TestHTransformHigherOrder(t *testing.T) {
	// first axis of a 2x2x2 tensor multiplied by a 3x2 matrix
	a, err := New([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	require.NoError(t, err)
	x := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})

	got, err := HTransform(x, a)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 2}, got.Shape())
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 6, 8, 10, 12}, got.Data())
}

func TestRotate(t *testing.T) {
	x, err := New([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 3}, {2, 4}}, tensorToRows(Rotate(x)))

	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	cube, err := New(data, 2, 3, 4)
	require.NoError(t, err)

	r := Rotate(cube)
	require.Equal(t, []int{3, 4, 2}, r.Shape())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				require.Equal(t, cube.At(i, j, k), r.At(j, k, i), "element (%d, %d, %d)", i, j, k)
			}
		}
	}

	// rotating once per axis restores the original
	require.True(t, Rotate(Rotate(r)).Equal(cube))
	require.False(t, Rotate(r).Equal(cube))
}

func TestRotatedHTransform(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y, err := New([]float64{5, 6, 7, 7, 8, 9}, 2, 3)
	require.NoError(t, err)

	got, err := RotatedHTransform(x, y)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{19, 43}, {22, 50}, {25, 57}}, tensorToRows(got))
}

func TestCreatePermutation(t *testing.T) {
	tests := []struct {
		p, k int
		want []int
	}{
		{p: 2, k: 1, want: []int{0, 1}},
		{p: 2, k: 2, want: []int{0, 2, 1, 3}},
		{p: 2, k: 3, want: []int{0, 2, 4, 1, 3, 5}},
		{p: 3, k: 2, want: []int{0, 3, 1, 4, 2, 5}},
		{p: 0, k: 2, want: []int{}},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, CreatePermutation(tt.p, tt.k), "CreatePermutation(%d, %d)", tt.p, tt.k)
	}
}

func TestCreatePermutationIsBijection(t *testing.T) {
	for _, pk := range [][2]int{{1, 5}, {4, 3}, {3, 4}, {5, 2}} {
		p, k := pk[0], pk[1]
		perm := CreatePermutation(p, k)
		require.Len(t, perm, p*k, "CreatePermutation(%d, %d)", p, k)

		seen := make([]bool, p*k)
		for _, v := range perm {
			require.True(t, v >= 0 && v < p*k, "CreatePermutation(%d, %d) value %d out of range", p, k, v)
			require.False(t, seen[v], "CreatePermutation(%d, %d) repeats %d", p, k, v)
			seen[v] = true
		}
	}
}

func TestKron(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(1, 2, []float64{0, 1})

	got := Kron(a, b)
	require.Equal(t, [][]float64{{0, 1, 0, 2}, {0, 3, 0, 4}}, denseToRows(got))
}

func TestFoldMatchesKronecker(t *testing.T) {
	// Fold with B1ᵗ, B2ᵗ equals (B1ᵗ ⊗ B2ᵗ) vec(β) in row-major order
	b1 := mat.NewDense(2, 3, []float64{1, 2, 0, 0, 1, 3})
	b2 := mat.NewDense(3, 2, []float64{2, 1, 0, 1, 1, 0})
	beta, err := New([]float64{1, -1, 2, 0.5, 3, 1}, 2, 3)
	require.NoError(t, err)

	got, err := Fold([]mat.Matrix{b1.T(), b2.T()}, beta)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, got.Shape())

	k := Kron(b1.T(), b2.T())
	var want mat.VecDense
	want.MulVec(k, mat.NewVecDense(6, beta.Data()))
	for i, v := range got.Data() {
		require.InDelta(t, want.AtVec(i), v, 1e-12)
	}

	_, err = Fold([]mat.Matrix{b1.T()}, beta)
	require.Error(t, err)
}
