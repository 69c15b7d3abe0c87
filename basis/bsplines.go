package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/parallel"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// parallelThreshold is the number of evaluation points above which basis
// columns are computed concurrently. Every column is computed with the same
// operation order either way.
const parallelThreshold = 2048

// TruncatedPower returns the len(x)×len(knots) matrix whose entry (i, j) is
// (x[i]-knots[j])^degree for x[i] >= knots[j] and zero otherwise.
//
// The zero branch is a multiplication by the indicator, so odd degrees
// produce -0 left of a knot.
func TruncatedPower(x, knots []float64, degree int) *mat.Dense {
	if len(x) == 0 || len(knots) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(x), len(knots), nil)
	raw := out.RawMatrix()
	p := float64(degree)
	parallel.ParallelizeWithThreshold(len(x), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+len(knots)]
			for j, k := range knots {
				row[j] = math.Pow(x[i]-k, p) * indicator(x[i] >= k)
			}
		}
	})
	return out
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// linspace returns num evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, num int) []float64 {
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(num-1)
	for i := range out {
		// explicit conversion keeps the product rounded before the add
		out[i] = float64(float64(i)*step) + start
	}
	out[num-1] = stop
	return out
}

// knotVector returns the segments+2·degree+1 equally spaced knots covering
// [min-degree·Δ, max+degree·Δ] together with Δ.
func knotVector(nFunctions, degree int, domainMin, domainMax float64) ([]float64, float64) {
	segments := nFunctions - degree
	dx := (domainMax - domainMin) / float64(segments)
	deg := float64(degree)
	knots := linspace(
		domainMin-float64(deg*dx),
		domainMax+float64(deg*dx),
		segments+2*degree+1,
	)
	return knots, dx
}

// differenceRows returns the rows of the (order)-th difference of the n×n
// identity matrix.
func differenceRows(n, order int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][i] = 1
	}
	for o := 0; o < order && len(rows) > 0; o++ {
		next := make([][]float64, len(rows)-1)
		for i := range next {
			next[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				next[i][j] = rows[i+1][j] - rows[i][j]
			}
		}
		rows = next
	}
	return rows
}

func validate(op string, nFunctions, degree int, domainMin, domainMax float64) error {
	if degree < 0 {
		return scigoErrors.NewConfigError(op, "degree", "must be non-negative", degree)
	}
	if nFunctions-degree < 1 {
		return scigoErrors.NewConfigError(op, "n_functions", "must exceed degree", nFunctions)
	}
	if math.IsNaN(domainMin) || math.IsInf(domainMin, 0) || math.IsNaN(domainMax) || math.IsInf(domainMax, 0) {
		return scigoErrors.NewConfigError(op, "domain", "bounds must be finite", [2]float64{domainMin, domainMax})
	}
	if domainMin >= domainMax {
		return scigoErrors.NewConfigError(op, "domain", "domain_min must be less than domain_max", [2]float64{domainMin, domainMax})
	}
	return nil
}

// BSplines evaluates nFunctions B-splines of the given degree, on equally
// spaced knots over [domainMin, domainMax], at each point of x. The result
// is nFunctions×len(x).
//
// Points outside the domain are evaluated without error; their columns
// may sum to less than one.
func BSplines(x []float64, nFunctions, degree int, domainMin, domainMax float64) (_ *mat.Dense, err error) {
	defer scigoErrors.Recover(&err, "BSplines")

	if err := validate("BSplines", nFunctions, degree, domainMin, domainMax); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "BSplines")
	}

	knots, dx := knotVector(nFunctions, degree, domainMin, domainMax)
	p := TruncatedPower(x, knots, degree)
	d := differenceRows(len(knots), degree+1)
	scale := math.Gamma(float64(degree+1)) * math.Pow(dx, float64(degree))
	for _, row := range d {
		for k := range row {
			row[k] /= scale
		}
	}
	sign := math.Pow(-1, float64(degree+1))

	nb := len(d)
	out := mat.NewDense(nb, len(x), nil)
	raw := out.RawMatrix()
	praw := p.RawMatrix()
	parallel.ParallelizeWithThreshold(len(x), parallelThreshold, func(start, end int) {
		row := make([]float64, len(knots))
		for i := start; i < end; i++ {
			pi := praw.Data[i*praw.Stride : i*praw.Stride+len(knots)]
			for k, v := range pi {
				row[k] = sign * v
			}
			for j := 0; j < nb; j++ {
				s := 0.0
				for k, dk := range d[j] {
					s += float64(row[k] * dk)
				}
				raw.Data[j*raw.Stride+i] = s * indicator(x[i] < knots[j+degree+1])
			}
		}
	})
	return out, nil
}

// BSplinesFromData is BSplines with the domain taken as [min(x), max(x)].
func BSplinesFromData(x []float64, nFunctions, degree int) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "BSplinesFromData")
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return BSplines(x, nFunctions, degree, lo, hi)
}
