package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func sliceEqual(a, b []float64) bool {
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

func TestFormatGrid(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, -0.5,
		0, 0,
		0, 0.5,
		0.5, -0.5,
		1, 0,
		1, 0.5,
	})
	y := []float64{1, 2, 3, 4, 5, 6}

	grid, err := FormatGrid(X, y, nil)
	if err != nil {
		t.Fatalf("FormatGrid() error = %v", err)
	}

	if !sliceEqual(grid.Axes[0], []float64{0, 0.5, 1}) {
		t.Errorf("Axes[0] = %v", grid.Axes[0])
	}
	if !sliceEqual(grid.Axes[1], []float64{-0.5, 0, 0.5}) {
		t.Errorf("Axes[1] = %v", grid.Axes[1])
	}

	wantY := []float64{1, 2, 3, 4, 0, 0, 0, 5, 6}
	wantW := []float64{1, 1, 1, 1, 0, 0, 0, 1, 1}
	if !sliceEqual(grid.Y.Data(), wantY) {
		t.Errorf("Y = %v, want %v", grid.Y.Data(), wantY)
	}
	if !sliceEqual(grid.W.Data(), wantW) {
		t.Errorf("W = %v, want %v", grid.W.Data(), wantW)
	}
	if got := grid.Missing(); got != 3 {
		t.Errorf("Missing() = %d, want 3", got)
	}
	if s := grid.Shape(); len(s) != 2 || s[0] != 3 || s[1] != 3 {
		t.Errorf("Shape() = %v", s)
	}
}

func TestFormatGridObservedZeroIsNotMissing(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{2, 0, 1})
	grid, err := FormatGrid(X, []float64{0, 7, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sliceEqual(grid.W.Data(), []float64{1, 1, 1}) {
		t.Errorf("W = %v, want all ones", grid.W.Data())
	}
	if !sliceEqual(grid.Y.Data(), []float64{7, 0, 0}) {
		t.Errorf("Y = %v", grid.Y.Data())
	}
}

func TestFormatGridWeightsAndDuplicates(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 1,
		0, 0,
		1, 0,
	})
	y := []float64{1, 2, 3, 4}
	w := []float64{0.5, 2, 0.25, 1}

	grid, err := FormatGrid(X, y, w)
	if err != nil {
		t.Fatal(err)
	}
	// (0,0) observed twice: the last observation wins
	if !sliceEqual(grid.Y.Data(), []float64{3, 0, 4, 2}) {
		t.Errorf("Y = %v", grid.Y.Data())
	}
	if !sliceEqual(grid.W.Data(), []float64{0.25, 0, 1, 2}) {
		t.Errorf("W = %v", grid.W.Data())
	}
}

func TestFormatGridErrors(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 1})

	var dimErr *scigoErrors.DimensionError
	if _, err := FormatGrid(X, []float64{1}, nil); !scigoErrors.As(err, &dimErr) {
		t.Errorf("expected DimensionError for y length, got %v", err)
	}
	if _, err := FormatGrid(X, []float64{1, 2}, []float64{1}); !scigoErrors.As(err, &dimErr) {
		t.Errorf("expected DimensionError for w length, got %v", err)
	}

	nan := mat.NewDense(2, 1, []float64{0, 0})
	nan.Set(1, 0, nan.At(1, 0)/nan.At(0, 0))
	var valErr *scigoErrors.ValueError
	if _, err := FormatGrid(nan, []float64{1, 2}, nil); !scigoErrors.As(err, &valErr) {
		t.Errorf("expected ValueError for NaN coordinate, got %v", err)
	}
}

func TestDomains(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, -2,
		-1, 5,
		3, 0,
	})
	got, err := Domains(X)
	if err != nil {
		t.Fatal(err)
	}
	want := []Domain{{Min: -1, Max: 3}, {Min: -2, Max: 5}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Domains()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	axes := [][]float64{{0, 0.5, 1}, {-3, 2}}
	of := DomainsOf(axes)
	if of[0] != (Domain{Min: 0, Max: 1}) || of[1] != (Domain{Min: -3, Max: 2}) {
		t.Errorf("DomainsOf() = %v", of)
	}
}

func TestAxes(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		3, 1,
		1, 1,
		2, 0,
		3, 0,
	})
	axes, err := Axes(X)
	if err != nil {
		t.Fatalf("Axes() error = %v", err)
	}
	if !sliceEqual(axes[0], []float64{1, 2, 3}) || !sliceEqual(axes[1], []float64{0, 1}) {
		t.Errorf("Axes() = %v", axes)
	}

	if _, err := Axes(&mat.Dense{}); !scigoErrors.Is(err, scigoErrors.ErrEmptyData) {
		t.Errorf("Axes(empty) error = %v, want ErrEmptyData", err)
	}
}
