// Package penalized fits B-spline coefficients by weighted penalized least
// squares with a difference penalty on adjacent coefficients.
//
// FitOneDimensional solves a single smoothing problem and reports the full
// set of diagnostics. FitNDimensional solves the tensor-product problem on a
// grid using array arithmetic, so the Πn_k × Πm_k design matrix is never
// formed; it reports coefficients, fitted values and per-cell leverage only.
package penalized
