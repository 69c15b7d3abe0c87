package psplines

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/model"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Regressor is a mutable estimator around Config and Model. Each Fit
// replaces the fitted model; a Model obtained before the re-fit stays valid.
type Regressor struct {
	state *model.StateManager

	mu    sync.RWMutex
	cfg   Config
	model *Model
	opts  []FitOption
}

var (
	_ model.Regressor       = (*Regressor)(nil)
	_ model.ParameterGetter = (*Regressor)(nil)
	_ model.ParameterSetter = (*Regressor)(nil)
	_ model.WeightExporter  = (*Regressor)(nil)
	_ model.WeightExporter  = (*Model)(nil)
)

// NewRegressor creates a Regressor whose Config is built from opts.
func NewRegressor(opts ...ConfigOption) (*Regressor, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Regressor{state: model.NewStateManager("PSplines"), cfg: cfg}, nil
}

// SetFitOptions sets the options passed to every subsequent Fit.
func (r *Regressor) SetFitOptions(opts ...FitOption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = append([]FitOption(nil), opts...)
}

// Fit fits X (n_obs × n_dim) and the column vector y.
func (r *Regressor) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "Regressor.Fit")
	yv, err := columnValues("Regressor.Fit", y)
	if err != nil {
		return err
	}

	r.mu.RLock()
	cfg, opts := r.cfg, r.opts
	r.mu.RUnlock()

	m, err := Fit(cfg, mat.DenseCopyOf(X), yv, opts...)
	if err != nil {
		return err
	}

	nObs, nDim := X.Dims()
	r.mu.Lock()
	r.model = m
	r.state.SetFitted(nDim, nObs)
	r.mu.Unlock()
	return nil
}

// Model returns the fitted model.
func (r *Regressor) Model() (*Model, error) {
	if err := r.state.RequireFitted("Model"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.model == nil {
		return nil, scigoErrors.NewNotFittedError("PSplines", "Model")
	}
	return r.model, nil
}

// Predict returns an n×1 matrix for a one-dimensional model and the
// prediction grid for a two-dimensional one. Higher dimensions need
// Model.Predict.
func (r *Regressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	m, err := r.Model()
	if err != nil {
		return nil, scigoErrors.NewNotFittedError("PSplines", "Predict")
	}
	pred, err := m.Predict(mat.DenseCopyOf(X))
	if err != nil {
		return nil, err
	}
	out, err := pred.Matrix()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Score returns the R² of the prediction at X against the column vector y.
func (r *Regressor) Score(X, y mat.Matrix) (float64, error) {
	m, err := r.Model()
	if err != nil {
		return 0, scigoErrors.NewNotFittedError("PSplines", "Score")
	}
	yv, err := columnValues("Regressor.Score", y)
	if err != nil {
		return 0, err
	}
	return m.Score(mat.DenseCopyOf(X), yv)
}

// ExportWeights exports the fitted model.
func (r *Regressor) ExportWeights() (*model.ModelWeights, error) {
	m, err := r.Model()
	if err != nil {
		return nil, err
	}
	return m.ExportWeights()
}

// GetParams returns the hyperparameters.
func (r *Regressor) GetParams() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]interface{}{
		"penalty":       append([]float64(nil), r.cfg.Penalty...),
		"segments":      append([]int(nil), r.cfg.Segments...),
		"degree":        append([]int(nil), r.cfg.Degree...),
		"penalty_order": r.cfg.PenaltyOrder,
	}
}

// SetParams updates the hyperparameters and resets the fitted state.
// Keys are those of GetParams; scalars are accepted for per-dimension values.
func (r *Regressor) SetParams(params map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := r.cfg
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			cfg.Penalty, err = toFloats(key, value)
		case "segments":
			cfg.Segments, err = toInts(key, value)
		case "degree":
			cfg.Degree, err = toInts(key, value)
		case "penalty_order":
			var v []int
			if v, err = toInts(key, value); err == nil {
				if len(v) != 1 {
					err = scigoErrors.NewConfigError("Regressor.SetParams", key, "must be a single integer", value)
				} else {
					cfg.PenaltyOrder = v[0]
				}
			}
		default:
			err = scigoErrors.NewConfigError("Regressor.SetParams", key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	r.model = nil
	r.state.Reset()
	return nil
}

func (r *Regressor) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("PSplines(penalty=%v, segments=%v, degree=%v, penalty_order=%d, fitted=%t)",
		r.cfg.Penalty, r.cfg.Segments, r.cfg.Degree, r.cfg.PenaltyOrder, r.model != nil)
}

// columnValues accepts an n×1 or 1×n matrix.
func columnValues(op string, y mat.Matrix) ([]float64, error) {
	rows, cols := y.Dims()
	switch {
	case cols == 1:
		return mat.Col(nil, 0, y), nil
	case rows == 1:
		return mat.Row(nil, 0, y), nil
	default:
		return nil, scigoErrors.NewValueError(op, "y must be a column vector")
	}
}

func toFloats(key string, v interface{}) ([]float64, error) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, nil
	case int:
		return []float64{float64(x)}, nil
	case []float64:
		return append([]float64(nil), x...), nil
	default:
		return nil, scigoErrors.NewConfigError("Regressor.SetParams", key, "must be float64 or []float64", v)
	}
}

func toInts(key string, v interface{}) ([]int, error) {
	switch x := v.(type) {
	case int:
		return []int{x}, nil
	case float64:
		if x != float64(int(x)) {
			return nil, scigoErrors.NewConfigError("Regressor.SetParams", key, "must be an integer", v)
		}
		return []int{int(x)}, nil
	case []int:
		return append([]int(nil), x...), nil
	default:
		return nil, scigoErrors.NewConfigError("Regressor.SetParams", key, "must be int or []int", v)
	}
}
