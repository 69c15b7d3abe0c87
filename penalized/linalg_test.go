package penalized

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPseudoInverse(t *testing.T) {
	tests := []struct {
		name string
		a    *mat.Dense
		want [][]float64
	}{
		{
			name: "invertible",
			a:    mat.NewDense(2, 2, []float64{4, 7, 2, 6}),
			want: [][]float64{{0.6, -0.7}, {-0.2, 0.4}},
		},
		{
			name: "rank one",
			a:    mat.NewDense(2, 2, []float64{1, 1, 1, 1}),
			want: [][]float64{{0.25, 0.25}, {0.25, 0.25}},
		},
		{
			name: "zero",
			a:    mat.NewDense(2, 2, nil),
			want: [][]float64{{0, 0}, {0, 0}},
		},
		{
			name: "rectangular",
			a:    mat.NewDense(3, 1, []float64{1, 2, 2}),
			want: [][]float64{{1.0 / 9, 2.0 / 9, 2.0 / 9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PseudoInverse(tt.a)
			require.NoError(t, err)
			requireRowsInDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestLeastSquares(t *testing.T) {
	// rank-deficient: columns are equal, minimum-norm solution splits evenly
	a := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	b := mat.NewVecDense(3, []float64{2, 4, 6})

	x, err := LeastSquares(a, b)
	require.NoError(t, err)
	require.InDelta(t, 1.0, x.AtVec(0), 1e-12)
	require.InDelta(t, 1.0, x.AtVec(1), 1e-12)

	_, err = LeastSquares(a, mat.NewVecDense(2, []float64{1, 2}))
	require.Error(t, err)
}
