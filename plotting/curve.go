// Package plotting renders fitted one-dimensional P-spline models with
// gonum/plot.
package plotting

import (
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/psplines"
)

// Data is the scatter drawn under the fitted curve.
type Data struct {
	X []float64
	Y []float64
}

type settings struct {
	title      string
	band       float64
	derivative int
}

// Option configures Curve.
type Option func(*settings)

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(s *settings) {
		s.title = title
	}
}

// WithErrorBand shades fit ± k·SE around the curve.
func WithErrorBand(k float64) Option {
	return func(s *settings) {
		s.band = k
	}
}

// WithDerivative draws the order-th derivative instead of the fit.
func WithDerivative(order int) Option {
	return func(s *settings) {
		s.derivative = order
	}
}

var (
	curveColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor  = color.RGBA{R: 31, G: 119, B: 180, A: 60}
	dataColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// Curve evaluates m at n equally spaced points of its domain and returns
// a plot of the curve over data. data may be nil.
func Curve(m *psplines.Model, n int, data *Data, opts ...Option) (_ *plot.Plot, err error) {
	defer scigoErrors.Recover(&err, "plotting.Curve")

	s := settings{title: "P-spline fit"}
	for _, opt := range opts {
		opt(&s)
	}
	if d := m.Dimension(); d != 1 {
		return nil, scigoErrors.NewUnsupportedError("plotting.Curve", d)
	}
	if n < 2 {
		return nil, scigoErrors.NewConfigError("plotting.Curve", "n", "must be at least 2", n)
	}
	if data != nil && len(data.X) != len(data.Y) {
		return nil, scigoErrors.NewDimensionError("plotting.Curve", len(data.X), len(data.Y), 0)
	}

	p0 := m.Params()[0]
	xs := make([]float64, n)
	step := (p0.DomainMax - p0.DomainMin) / float64(n-1)
	for i := range xs {
		xs[i] = p0.DomainMin + float64(i)*step
	}
	xs[n-1] = p0.DomainMax
	grid := mat.NewDense(n, 1, xs)

	var ys []float64
	if s.derivative > 0 {
		d, err := m.Derivative(grid, s.derivative)
		if err != nil {
			return nil, err
		}
		ys = d.RawVector().Data
	} else {
		pred, err := m.Predict(grid)
		if err != nil {
			return nil, err
		}
		ys = pred.Data()
	}

	p := plot.New()
	p.Title.Text = s.title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	if s.band > 0 && s.derivative == 0 {
		se, err := m.Errors(grid)
		if err != nil {
			return nil, err
		}
		pts := make(plotter.XYs, 0, 2*n)
		for i := 0; i < n; i++ {
			pts = append(pts, plotter.XY{X: xs[i], Y: ys[i] + s.band*se.AtVec(i)})
		}
		for i := n - 1; i >= 0; i-- {
			pts = append(pts, plotter.XY{X: xs[i], Y: ys[i] - s.band*se.AtVec(i)})
		}
		band, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, scigoErrors.Wrap(err, "plotting.Curve")
		}
		band.Color = bandColor
		band.LineStyle.Width = 0
		p.Add(band)
	}

	if data != nil && s.derivative == 0 {
		pts := make(plotter.XYs, len(data.X))
		for i := range data.X {
			pts[i] = plotter.XY{X: data.X[i], Y: data.Y[i]}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, scigoErrors.Wrap(err, "plotting.Curve")
		}
		sc.GlyphStyle.Color = dataColor
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("data", sc)
	}

	pts := make(plotter.XYs, n)
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, scigoErrors.Wrap(err, "plotting.Curve")
	}
	line.LineStyle.Color = curveColor
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	if s.derivative > 0 {
		p.Legend.Add("derivative", line)
	} else {
		p.Legend.Add("fit", line)
	}
	return p, nil
}

// Save writes p to filename at 6×4 inches. The format follows the file
// extension (png, svg, pdf, ...).
func Save(p *plot.Plot, filename string) error {
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return scigoErrors.Wrap(err, "plotting.Save")
	}
	return nil
}
