// Package pspline provides penalized B-spline (P-spline) smoothing for Go,
// for one-dimensional curves and tensor-product surfaces on grids.
//
// The fitting algorithms follow Eilers and Marx, Practical Smoothing: The
// Joys of P-splines. Linear algebra is done with gonum; multi-dimensional
// fits use the generalized linear array model so the full tensor-product
// basis is never materialized.
//
// # Packages
//
//   - psplines: Config, Fit and the fitted Model (Predict, Errors, Derivative,
//     Score), plus the Regressor estimator.
//   - basis: B-spline basis matrices on equally spaced knots.
//   - penalized: the penalized least-squares fitters.
//   - preprocessing: scattered observations to dense grids.
//   - core/tensor: n-D arrays and the row-tensor / H-transform algebra.
//   - core/model: estimator interfaces, state handling and persistence.
//   - metrics: regression metrics.
//   - plotting: gonum/plot rendering of 1-D fits.
//   - pkg/errors, pkg/log: typed errors and structured logging.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/pspline/psplines"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
//	    y := []float64{1.2, 1.9, 3.1, 4.2, 4.8}
//
//	    cfg, err := psplines.NewConfig(psplines.WithSegments(5))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    m, err := psplines.Fit(cfg, X, y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := m.Predict(mat.NewDense(2, 1, []float64{2.5, 4.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(pred)
//	}
//
// # Error Handling
//
// Errors carry stack traces (cockroachdb/errors) and are typed:
// DimensionError, ConfigError, UnsupportedError, ResourceError and
// NotFittedError. Use errors.As from pkg/errors to inspect them.
// Degenerate diagnostics are reported as 0 with a DegeneracyWarning.
package pspline
