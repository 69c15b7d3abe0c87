// Package basis builds truncated power and B-spline basis matrices on
// evenly spaced knots.
//
// A B-spline basis matrix has one row per basis function and one column
// per evaluation point. Each column is non-negative and sums to at most one.
//
// Example:
//
//	x := []float64{0, 0.1, 0.2, 0.3}
//	b, err := basis.BSplines(x, 13, 3, 0, 1) // 10 segments, cubic
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rows, cols := b.Dims() // 13, 4
package basis
