package psplines

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/basis"
	"github.com/YuminosukeSato/pspline/core/tensor"
	"github.com/YuminosukeSato/pspline/metrics"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/pkg/log"
	"github.com/YuminosukeSato/pspline/preprocessing"
)

// Model is a fitted P-spline smoother. It is immutable and safe for
// concurrent use.
type Model struct {
	id     string
	cfg    Config
	params []basis.Params

	beta     *tensor.Tensor
	yHat     *tensor.Tensor
	leverage *tensor.Tensor

	// one-dimensional diagnostics
	se          *mat.VecDense
	invMat      *mat.Dense
	effDim      float64
	roughness   float64
	residualStd float64

	nObs   int
	logger log.Logger
}

// Diagnostics summarizes a fit. EffDim, Roughness, ResidualStd and SE are
// only computed for one-dimensional models.
type Diagnostics struct {
	EffDim      float64
	Roughness   float64
	ResidualStd float64

	// Leverage is the hat diagonal per observation (1-D) or per grid cell.
	Leverage *tensor.Tensor
	// SE is the standard error of the fit at the training observations.
	SE *mat.VecDense
}

// ID identifies the fit in log records.
func (m *Model) ID() string { return m.id }

// Dimension returns the number of argument dimensions.
func (m *Model) Dimension() int { return len(m.params) }

// Config returns the configuration broadcast to the model's dimensions.
func (m *Model) Config() Config {
	return Config{
		Penalty:      append([]float64(nil), m.cfg.Penalty...),
		Segments:     append([]int(nil), m.cfg.Segments...),
		Degree:       append([]int(nil), m.cfg.Degree...),
		PenaltyOrder: m.cfg.PenaltyOrder,
	}
}

// Params returns the basis parameters of each dimension.
func (m *Model) Params() []basis.Params {
	return append([]basis.Params(nil), m.params...)
}

// Coefficients returns a copy of the coefficient tensor of shape
// (m_1, …, m_K).
func (m *Model) Coefficients() *tensor.Tensor {
	return m.beta.Clone()
}

// FittedValues returns a copy of the fitted values at the training
// observations (1-D) or on the training grid. It is nil for a model
// restored with ImportModel.
func (m *Model) FittedValues() *tensor.Tensor {
	if m.yHat == nil {
		return nil
	}
	return m.yHat.Clone()
}

// Diagnostics returns the fit diagnostics.
func (m *Model) Diagnostics() Diagnostics {
	d := Diagnostics{
		EffDim:      m.effDim,
		Roughness:   m.roughness,
		ResidualStd: m.residualStd,
	}
	if m.leverage != nil {
		d.Leverage = m.leverage.Clone()
	}
	if m.se != nil {
		d.SE = mat.VecDenseCopyOf(m.se)
	}
	return d
}

func (m *Model) checkInput(op string, X *mat.Dense) error {
	if X == nil {
		return scigoErrors.Wrap(scigoErrors.ErrEmptyData, op)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.Wrap(scigoErrors.ErrEmptyData, op)
	}
	if c != m.Dimension() {
		return scigoErrors.NewDimensionError(op, m.Dimension(), c, 1)
	}
	return nil
}

func (m *Model) requireOneDimensional(op string) error {
	if d := m.Dimension(); d > 1 {
		return scigoErrors.NewUnsupportedError(op, d)
	}
	return nil
}

func (m *Model) betaVec() *mat.VecDense {
	return mat.NewVecDense(m.beta.Size(), m.beta.Data())
}

// Predict evaluates the fitted surface. A one-dimensional model returns
// one value per row of X. A model with K ≥ 2 dimensions returns the K-axis
// grid spanned by the sorted unique values of each column of X.
func (m *Model) Predict(X *mat.Dense) (_ *tensor.Tensor, err error) {
	defer scigoErrors.Recover(&err, "Model.Predict")
	if err := m.checkInput("Model.Predict", X); err != nil {
		return nil, err
	}

	var out *tensor.Tensor
	if m.Dimension() == 1 {
		b, err := m.params[0].Evaluate(mat.Col(nil, 0, X))
		if err != nil {
			return nil, err
		}
		var v mat.VecDense
		v.MulVec(b.T(), m.betaVec())
		out = tensor.FromVector(v.RawVector().Data)
	} else {
		axes, err := preprocessing.Axes(X)
		if err != nil {
			return nil, err
		}
		bases, err := evaluateBases(m.params, axes)
		if err != nil {
			return nil, err
		}
		basesT := make([]mat.Matrix, len(bases))
		for i, b := range bases {
			basesT[i] = b.T()
		}
		if out, err = tensor.Fold(basesT, m.beta); err != nil {
			return nil, err
		}
	}

	m.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, out.Size(),
	)
	return out, nil
}

// Errors returns the pointwise standard error of the fitted curve at each
// row of X, sqrt(σ²·diag(Bᵗ·inv·B)). Only one-dimensional models support it.
func (m *Model) Errors(X *mat.Dense) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "Model.Errors")
	if err := m.requireOneDimensional("Model.Errors"); err != nil {
		return nil, err
	}
	if err := m.checkInput("Model.Errors", X); err != nil {
		return nil, err
	}
	if m.invMat == nil {
		return nil, scigoErrors.NewValueError("Model.Errors", "model carries no inverse normal matrix")
	}

	b, err := m.params[0].Evaluate(mat.Col(nil, 0, X))
	if err != nil {
		return nil, err
	}
	var invB mat.Dense
	invB.Mul(m.invMat, b)
	nb, n := b.Dims()
	out := mat.NewVecDense(n, nil)
	s2 := m.residualStd * m.residualStd
	for i := 0; i < n; i++ {
		h := 0.0
		for j := 0; j < nb; j++ {
			h += b.At(j, i) * invB.At(j, i)
		}
		out.SetVec(i, math.Sqrt(s2*math.Max(h, 0)))
	}

	m.logger.Debug("Standard errors computed",
		log.OperationKey, log.OperationErrors,
		log.PredsKey, n,
	)
	return out, nil
}

// Derivative returns the order-th derivative of the fitted curve at each
// row of X. It uses the basis of degree Degree-order on the same knots and
// the order-th differences of the coefficients divided by width^order,
// where width is the segment width. Only one-dimensional models support it.
func (m *Model) Derivative(X *mat.Dense, order int) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "Model.Derivative")
	if err := m.requireOneDimensional("Model.Derivative"); err != nil {
		return nil, err
	}
	if err := m.checkInput("Model.Derivative", X); err != nil {
		return nil, err
	}
	p := m.params[0]
	reduced, err := p.Reduced(order)
	if err != nil {
		return nil, err
	}

	coef := m.beta.Data()
	scale := math.Pow(p.Width(), float64(order))
	for r := 0; r < order; r++ {
		for i := 0; i < len(coef)-1-r; i++ {
			coef[i] = coef[i+1] - coef[i]
		}
	}
	coef = coef[:len(coef)-order]
	for i := range coef {
		coef[i] /= scale
	}

	b, err := reduced.Evaluate(mat.Col(nil, 0, X))
	if err != nil {
		return nil, err
	}
	_, n := b.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(b.T(), mat.NewVecDense(len(coef), coef))

	m.logger.Debug("Derivative computed",
		log.OperationKey, log.OperationDerivative,
		log.DerivativeOrderKey, order,
		log.PredsKey, out.Len(),
	)
	return out, nil
}

// Score returns the coefficient of determination of the prediction at X.
// For K ≥ 2 dimensions the observations are compared on the prediction
// grid and grid cells without an observation are ignored.
func (m *Model) Score(X *mat.Dense, y []float64) (_ float64, err error) {
	defer scigoErrors.Recover(&err, "Model.Score")
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	if len(y) != n {
		return 0, scigoErrors.NewDimensionError("Model.Score", n, len(y), 0)
	}

	var score float64
	if m.Dimension() == 1 {
		score, err = metrics.R2Score(mat.NewVecDense(n, append([]float64(nil), y...)), mat.NewVecDense(n, pred.Data()))
	} else {
		grid, gerr := preprocessing.FormatGrid(X, y, nil)
		if gerr != nil {
			return 0, gerr
		}
		size := grid.Y.Size()
		score, err = metrics.WeightedR2Score(
			mat.NewVecDense(size, grid.Y.Data()),
			mat.NewVecDense(size, pred.Data()),
			grid.W.Data(),
		)
	}
	if err != nil {
		return 0, err
	}
	m.logger.Debug("Score computed",
		log.OperationKey, log.OperationScore,
		log.R2ScoreKey, score,
	)
	return score, nil
}
