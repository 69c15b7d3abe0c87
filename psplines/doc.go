// Package psplines fits penalized B-spline smoothers to scattered data.
//
// A fit is a pure function of an immutable Config and the data:
//
//	cfg, err := psplines.NewConfig(
//	    psplines.WithSegments(20),
//	    psplines.WithPenalty(0.1),
//	)
//	m, err := psplines.Fit(cfg, X, y)
//	yHat, err := m.Predict(Xnew)
//
// One-dimensional models additionally support pointwise standard errors
// (Model.Errors) and derivatives of the fitted curve (Model.Derivative).
// Models with two or more dimensions are fitted on the grid spanned by the
// unique coordinate values of X and predict on such grids.
//
// Regressor wraps Config and Model as a mutable estimator implementing
// model.Regressor for code written against the Fit/Predict/Score interfaces.
package psplines
