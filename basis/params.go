package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Params fixes a B-spline basis on one axis. A fitted model keeps one
// Params per dimension and re-evaluates the basis at prediction time.
type Params struct {
	DomainMin float64 `json:"domain_min"`
	DomainMax float64 `json:"domain_max"`
	Segments  int     `json:"segments"`
	Degree    int     `json:"degree"`
}

// NFunctions returns the number of basis functions, Segments + Degree.
func (p Params) NFunctions() int {
	return p.Segments + p.Degree
}

// Width returns the knot spacing (DomainMax - DomainMin) / Segments.
func (p Params) Width() float64 {
	return (p.DomainMax - p.DomainMin) / float64(p.Segments)
}

// Validate reports a ConfigError if the parameters cannot define a basis.
func (p Params) Validate() error {
	if p.Segments < 1 {
		return scigoErrors.NewConfigError("basis.Params", "segments", "must be positive", p.Segments)
	}
	return validate("basis.Params", p.NFunctions(), p.Degree, p.DomainMin, p.DomainMax)
}

// Evaluate returns the NFunctions()×len(x) basis matrix at x.
func (p Params) Evaluate(x []float64) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return BSplines(x, p.NFunctions(), p.Degree, p.DomainMin, p.DomainMax)
}

// Reduced returns the basis of degree Degree-r on the same knots, used to
// evaluate the r-th derivative. It has NFunctions()-r functions.
func (p Params) Reduced(r int) (Params, error) {
	if r < 1 || r > p.Degree {
		return Params{}, scigoErrors.NewConfigError("basis.Params.Reduced", "order", fmt.Sprintf("must be in [1, %d]", p.Degree), r)
	}
	q := p
	q.Degree -= r
	return q, nil
}

func (p Params) String() string {
	return fmt.Sprintf("Params(domain=[%g, %g], segments=%d, degree=%d)", p.DomainMin, p.DomainMax, p.Segments, p.Degree)
}
