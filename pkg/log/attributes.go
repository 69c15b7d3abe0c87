// Standard attribute keys for fitting and evaluation records.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that log analysis can filter by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "PSplines", "PSplineRegressor"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "errors", "derivative", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "basis", "penalized", "psplines"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of observations.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of coordinate columns.
	FeaturesKey = "data.features"

	// DimensionsKey indicates the number of grid axes of an n-D fit.
	DimensionsKey = "data.dimensions"

	// GridShapeKey records the shape of the response grid.
	GridShapeKey = "data.grid_shape"

	// MissingCellsKey records the number of zero-weight grid cells.
	MissingCellsKey = "data.missing_cells"
)

// Spline configuration
const (
	// SegmentsKey records the number of knot intervals per axis.
	SegmentsKey = "spline.segments"

	// DegreeKey records the polynomial degree per axis.
	DegreeKey = "spline.degree"

	// PenaltyKey records the smoothing parameter per axis.
	PenaltyKey = "spline.penalty"

	// PenaltyOrderKey records the difference order of the penalty.
	PenaltyOrderKey = "spline.penalty_order"

	// BasisSizeKey records the number of basis functions per axis.
	BasisSizeKey = "spline.basis_size"

	// JointSizeKey records the size of the flattened joint coefficient space.
	JointSizeKey = "spline.joint_size"
)

// Performance and fit diagnostics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// EffDimKey records the effective dimension (trace of the hat matrix).
	EffDimKey = "metrics.eff_dim"

	// RoughnessKey records the penalty roughness of the fitted coefficients.
	RoughnessKey = "metrics.roughness"

	// ResidualStdKey records the residual standard deviation.
	ResidualStdKey = "metrics.residual_std"

	// R2ScoreKey records R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// DerivativeOrderKey records the derivative order requested.
	DerivativeOrderKey = "preds.derivative_order"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// WorkerIDKey identifies the worker goroutine of a parallel basis build.
	WorkerIDKey = "infra.worker_id"
)

// Standard attribute value constants for common operations.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationErrors     = "errors"
	OperationDerivative = "derivative"
	OperationScore      = "score"
	OperationFormat     = "format"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidConfig     = "INVALID_CONFIG"
	ErrorUnsupported       = "UNSUPPORTED"
	ErrorDegenerate        = "DEGENERATE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
