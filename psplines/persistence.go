package psplines

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/basis"
	"github.com/YuminosukeSato/pspline/core/model"
	"github.com/YuminosukeSato/pspline/core/tensor"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/pkg/log"
)

// ModelType is the ModelWeights.ModelType written by ExportWeights.
const ModelType = "PSplines"

// ExportWeights returns the coefficients, basis parameters and
// one-dimensional diagnostics of m. Fitted values are not exported.
func (m *Model) ExportWeights() (*model.ModelWeights, error) {
	w := &model.ModelWeights{
		ModelType:    ModelType,
		Version:      model.FormatVersion,
		Bases:        m.Params(),
		Penalty:      append([]float64(nil), m.cfg.Penalty...),
		PenaltyOrder: m.cfg.PenaltyOrder,
		Coefficients: m.beta.Data(),
		Shape:        m.beta.Shape(),
		EffDim:       m.effDim,
		Roughness:    m.roughness,
		ResidualStd:  m.residualStd,
		Metadata: map[string]string{
			"estimator_id": m.id,
			"exported_at":  time.Now().UTC().Format(time.RFC3339),
		},
		IsFitted: true,
	}
	if m.invMat != nil {
		w.InvMat = mat.DenseCopyOf(m.invMat).RawMatrix().Data
	}
	w.Seal()
	return w, nil
}

// ImportModel rebuilds a Model from exported weights. The result predicts
// like the exported model; it has no fitted values or leverage.
func ImportModel(w *model.ModelWeights) (_ *Model, err error) {
	defer scigoErrors.Recover(&err, "psplines.ImportModel")
	if w == nil {
		return nil, scigoErrors.NewValueError("psplines.ImportModel", "nil weights")
	}
	if w.ModelType != ModelType {
		return nil, scigoErrors.NewConfigError("psplines.ImportModel", "model_type", "unexpected model type", w.ModelType)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !w.IsFitted {
		return nil, scigoErrors.NewNotFittedError(ModelType, "ImportModel")
	}
	k := len(w.Bases)
	if len(w.Penalty) != k {
		return nil, scigoErrors.NewDimensionError("psplines.ImportModel", k, len(w.Penalty), 0)
	}

	beta, err := tensor.New(append([]float64(nil), w.Coefficients...), w.Shape...)
	if err != nil {
		return nil, err
	}
	cfg := Config{
		Penalty:      append([]float64(nil), w.Penalty...),
		Segments:     make([]int, k),
		Degree:       make([]int, k),
		PenaltyOrder: w.PenaltyOrder,
	}
	for i, p := range w.Bases {
		cfg.Segments[i] = p.Segments
		cfg.Degree[i] = p.Degree
	}

	id := w.Metadata["estimator_id"]
	if id == "" {
		id = uuid.New().String()
	}
	m := &Model{
		id:          id,
		cfg:         cfg,
		params:      append([]basis.Params(nil), w.Bases...),
		beta:        beta,
		effDim:      w.EffDim,
		roughness:   w.Roughness,
		residualStd: w.ResidualStd,
		logger: log.GetLoggerWithName("psplines").With(
			log.ModelNameKey, ModelType,
			log.EstimatorIDKey, id,
		),
	}
	if len(w.InvMat) > 0 {
		n := beta.Size()
		m.invMat = mat.NewDense(n, n, append([]float64(nil), w.InvMat...))
	}
	return m, nil
}

// Save writes the exported weights of m to filename, gob encoded and
// compressed with LZ4 for a ".lz4" extension and zstd otherwise.
func (m *Model) Save(filename string) error {
	w, err := m.ExportWeights()
	if err != nil {
		return err
	}
	return model.SaveModel(w, filename)
}

// Load reads a model written by Model.Save.
func Load(filename string) (*Model, error) {
	var w model.ModelWeights
	if err := model.LoadModel(&w, filename); err != nil {
		return nil, err
	}
	return ImportModel(&w)
}
