package psplines

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/basis"
	"github.com/YuminosukeSato/pspline/core/parallel"
	"github.com/YuminosukeSato/pspline/core/tensor"
	"github.com/YuminosukeSato/pspline/penalized"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/pkg/log"
	"github.com/YuminosukeSato/pspline/preprocessing"
)

type fitSettings struct {
	weights      []float64
	domains      []preprocessing.Domain
	logger       log.Logger
	maxJointSize int
}

// FitOption configures a single call to Fit.
type FitOption func(*fitSettings)

// WithSampleWeights sets one non-negative weight per observation.
func WithSampleWeights(w []float64) FitOption {
	return func(s *fitSettings) {
		s.weights = w
	}
}

// WithDomains fixes the basis domain of each dimension. Without it the
// domain is the data range.
func WithDomains(d ...preprocessing.Domain) FitOption {
	return func(s *fitSettings) {
		s.domains = append([]preprocessing.Domain(nil), d...)
	}
}

// WithLogger replaces the "psplines" logger of the global provider.
func WithLogger(l log.Logger) FitOption {
	return func(s *fitSettings) {
		s.logger = l
	}
}

// WithMaxJointSize bounds Πm_k for fits with two or more dimensions.
func WithMaxJointSize(n int) FitOption {
	return func(s *fitSettings) {
		s.maxJointSize = n
	}
}

// Fit fits a P-spline model to the observations X (n_obs × n_dim) and y.
//
// With one column the basis has Segments+Degree functions over the domain
// and the fit is evaluated at every observation. With more columns the
// observations are placed on the grid of unique coordinate values, cells
// without an observation get weight 0 and the tensor-product system is
// solved jointly.
func Fit(cfg Config, X *mat.Dense, y []float64, opts ...FitOption) (_ *Model, err error) {
	defer scigoErrors.Recover(&err, "psplines.Fit")
	start := time.Now()

	s := fitSettings{}
	for _, opt := range opts {
		opt(&s)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "psplines.Fit")
	}
	nObs, k := X.Dims()
	if nObs == 0 || k == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "psplines.Fit")
	}
	if len(y) != nObs {
		return nil, scigoErrors.NewDimensionError("psplines.Fit", nObs, len(y), 0)
	}
	if s.weights != nil && len(s.weights) != nObs {
		return nil, scigoErrors.NewDimensionError("psplines.Fit", nObs, len(s.weights), 0)
	}
	if s.domains != nil && len(s.domains) != k {
		return nil, scigoErrors.NewDimensionError("psplines.Fit", k, len(s.domains), 1)
	}
	dims, err := cfg.forDimensions(k)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := s.logger
	if logger == nil {
		logger = log.GetLoggerWithName("psplines")
	}
	logger = logger.With(log.ModelNameKey, "PSplines", log.EstimatorIDKey, id)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nObs,
		log.FeaturesKey, k,
		log.SegmentsKey, dims.Segments,
		log.DegreeKey, dims.Degree,
		log.PenaltyKey, dims.Penalty,
		log.PenaltyOrderKey, dims.PenaltyOrder,
	)

	m := &Model{id: id, cfg: dims, nObs: nObs, logger: logger}
	if k == 1 {
		err = m.fitOne(X, y, &s)
	} else {
		err = m.fitGrid(X, y, &s)
	}
	if err != nil {
		logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
		return nil, err
	}

	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.BasisSizeKey, m.beta.Shape(),
		log.EffDimKey, m.effDim,
		log.ResidualStdKey, m.residualStd,
	)
	return m, nil
}

func (m *Model) fitOne(X *mat.Dense, y []float64, s *fitSettings) error {
	var dom preprocessing.Domain
	if s.domains != nil {
		dom = s.domains[0]
	} else {
		ds, err := preprocessing.Domains(X)
		if err != nil {
			return err
		}
		dom = ds[0]
	}
	p := basis.Params{
		DomainMin: dom.Min,
		DomainMax: dom.Max,
		Segments:  m.cfg.Segments[0],
		Degree:    m.cfg.Degree[0],
	}
	b, err := p.Evaluate(mat.Col(nil, 0, X))
	if err != nil {
		return err
	}

	opts := []penalized.Option{
		penalized.WithPenalty(m.cfg.Penalty[0]),
		penalized.WithOrder(m.cfg.PenaltyOrder),
	}
	if s.weights != nil {
		opts = append(opts, penalized.WithWeights(s.weights))
	}
	fit, err := penalized.FitOneDimensional(y, b, opts...)
	if err != nil {
		return err
	}

	m.params = []basis.Params{p}
	m.beta = tensor.FromVector(fit.Beta.RawVector().Data)
	m.yHat = tensor.FromVector(fit.YHat.RawVector().Data)
	m.leverage = tensor.FromVector(fit.HatDiag.RawVector().Data)
	m.se = fit.SE
	m.invMat = fit.InvMat
	m.effDim = fit.EffDim
	m.roughness = fit.Roughness
	m.residualStd = fit.ResidualStd
	return nil
}

func (m *Model) fitGrid(X *mat.Dense, y []float64, s *fitSettings) error {
	grid, err := preprocessing.FormatGrid(X, y, s.weights)
	if err != nil {
		return err
	}
	m.logger.Debug("Grid formatted",
		log.OperationKey, log.OperationFormat,
		log.PhaseKey, log.PhasePreprocessing,
		log.DimensionsKey, len(grid.Axes),
		log.GridShapeKey, grid.Shape(),
		log.MissingCellsKey, grid.Missing(),
	)

	domains := s.domains
	if domains == nil {
		domains = preprocessing.DomainsOf(grid.Axes)
	}
	k := len(grid.Axes)
	params := make([]basis.Params, k)
	for i := range params {
		params[i] = basis.Params{
			DomainMin: domains[i].Min,
			DomainMax: domains[i].Max,
			Segments:  m.cfg.Segments[i],
			Degree:    m.cfg.Degree[i],
		}
	}
	bases, err := evaluateBases(params, grid.Axes)
	if err != nil {
		return err
	}

	opts := []penalized.Option{
		penalized.WithPenalties(m.cfg.Penalty...),
		penalized.WithOrder(m.cfg.PenaltyOrder),
		penalized.WithWeightTensor(grid.W),
	}
	if s.maxJointSize > 0 {
		opts = append(opts, penalized.WithMaxJointSize(s.maxJointSize))
	}
	fit, err := penalized.FitNDimensional(grid.Y, bases, opts...)
	if err != nil {
		return err
	}

	m.params = params
	m.beta = fit.Beta
	m.yHat = fit.YHat
	m.leverage = fit.Hat
	return nil
}

// evaluateBases builds the basis of each axis concurrently.
func evaluateBases(params []basis.Params, axes [][]float64) ([]mat.Matrix, error) {
	bases := make([]mat.Matrix, len(params))
	err := parallel.Each(len(params), func(i int) error {
		b, err := params[i].Evaluate(axes[i])
		if err != nil {
			return scigoErrors.Wrapf(err, "axis %d", i)
		}
		bases[i] = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bases, nil
}
