package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/psplines"
)

func fitLine(t *testing.T) (*psplines.Model, *Data) {
	t.Helper()
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{0.1, 0.9, 2.2, 2.8, 4.1, 5.2, 5.8, 7.1}
	m, err := psplines.Fit(psplines.DefaultConfig(), mat.NewDense(len(x), 1, x), y)
	require.NoError(t, err)
	return m, &Data{X: x, Y: y}
}

func TestCurve(t *testing.T) {
	m, data := fitLine(t)

	p, err := Curve(m, 50, data, WithErrorBand(2), WithTitle("line"))
	require.NoError(t, err)
	assert.Equal(t, "line", p.Title.Text)

	path := filepath.Join(t.TempDir(), "fit.png")
	require.NoError(t, Save(p, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = Curve(m, 50, nil, WithDerivative(1))
	require.NoError(t, err)
}

func TestCurveErrors(t *testing.T) {
	m, data := fitLine(t)

	_, err := Curve(m, 1, data)
	var ce *scigoErrors.ConfigError
	assert.True(t, scigoErrors.As(err, &ce))

	_, err = Curve(m, 10, &Data{X: []float64{1}, Y: nil})
	var de *scigoErrors.DimensionError
	assert.True(t, scigoErrors.As(err, &de))

	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	m2, err := psplines.Fit(psplines.DefaultConfig(), X, []float64{0, 1, 1, 2})
	require.NoError(t, err)
	_, err = Curve(m2, 10, nil)
	assert.True(t, scigoErrors.Is(err, scigoErrors.ErrNotImplemented))
}
