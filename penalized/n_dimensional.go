package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/tensor"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/pkg/log"
)

// FitNDimensional fits the response grid y, of shape (n_1, …, n_K), on
// per-dimension bases bases[k] of shape m_k × n_k. Each dimension gets its
// own smoothing parameter and all share one difference order.
//
// The joint system has size Πm_k; above the WithMaxJointSize limit a
// ResourceError is returned before anything of that size is allocated.
// Cells with zero weight do not influence the fit.
func FitNDimensional(y *tensor.Tensor, bases []mat.Matrix, opts ...Option) (_ *NDimensionalFit, err error) {
	defer scigoErrors.Recover(&err, "FitNDimensional")

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if err := checkOrder("FitNDimensional", s.order); err != nil {
		return nil, err
	}

	k := y.NDim()
	if len(bases) != k {
		return nil, scigoErrors.NewDimensionError("FitNDimensional", k, len(bases), 0)
	}
	if k == 0 || y.Size() == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "FitNDimensional")
	}

	sizes := make([]int, k)
	joint := 1
	for i, b := range bases {
		m, n := b.Dims()
		if n != y.Dim(i) {
			return nil, scigoErrors.NewDimensionError("FitNDimensional", y.Dim(i), n, 1)
		}
		sizes[i] = m
		joint *= m
	}
	if joint > s.maxJointSize {
		return nil, scigoErrors.NewResourceError("FitNDimensional", joint, s.maxJointSize)
	}

	lambdas, err := broadcastPenalties(s.penalties, k)
	if err != nil {
		return nil, err
	}

	w := s.weightTensor
	if w == nil {
		w = tensor.Zeros(y.Shape()...)
		for i := range w.RawData() {
			w.RawData()[i] = 1
		}
	}
	if err := checkWeights("FitNDimensional", w.RawData()); err != nil {
		return nil, err
	}
	wy, err := w.Mul(y)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("penalized")
	logger.Debug("Assembling joint system",
		log.DimensionsKey, k,
		log.BasisSizeKey, sizes,
		log.JointSizeKey, joint,
	)

	basesT := make([]mat.Matrix, k)
	rowTensorsT := make([]mat.Matrix, k)
	rowTensorsM := make([]mat.Matrix, k)
	for i, b := range bases {
		t, err := tensor.RowTensor(b.T(), nil)
		if err != nil {
			return nil, err
		}
		rowTensorsT[i] = t.T()
		rowTensorsM[i] = t
		basesT[i] = b.T()
	}

	system, err := normalMatrix(w, rowTensorsT, sizes, joint)
	if err != nil {
		return nil, err
	}

	penalties := make([]mat.Matrix, k)
	for i, m := range sizes {
		penalties[i] = PenaltyMatrix(m, s.order)
	}
	for i, p := range TensorProductPenalties(penalties) {
		var scaled mat.Dense
		scaled.Scale(lambdas[i], p)
		system.Add(system, &scaled)
	}

	rhs, err := tensor.Fold(bases, wy)
	if err != nil {
		return nil, err
	}
	flat, err := LeastSquares(system, mat.NewVecDense(joint, rhs.Data()))
	if err != nil {
		return nil, err
	}
	if err := scigoErrors.CheckNumericalStability("beta_hat", flat.RawVector().Data); err != nil {
		return nil, err
	}
	beta, err := tensor.New(flat.RawVector().Data, sizes...)
	if err != nil {
		return nil, err
	}

	yHat, err := tensor.Fold(basesT, beta)
	if err != nil {
		return nil, err
	}

	hat, err := hatTensor(system, w, rowTensorsM, sizes)
	if err != nil {
		return nil, err
	}

	return &NDimensionalFit{Beta: beta, YHat: yHat, Hat: hat}, nil
}

func broadcastPenalties(p []float64, k int) ([]float64, error) {
	out := make([]float64, k)
	switch len(p) {
	case 0:
		for i := range out {
			out[i] = 1
		}
	case 1:
		for i := range out {
			out[i] = p[0]
		}
	case k:
		copy(out, p)
	default:
		return nil, scigoErrors.NewDimensionError("FitNDimensional", k, len(p), 0)
	}
	for _, l := range out {
		if err := checkPenalty("FitNDimensional", l); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pairedShape returns (m_1, m_1, …, m_K, m_K).
func pairedShape(sizes []int) []int {
	out := make([]int, 0, 2*len(sizes))
	for _, m := range sizes {
		out = append(out, m, m)
	}
	return out
}

// normalMatrix contracts the weights against the row tensors and reorders
// the result from per-dimension pairs (a_1, b_1, …, a_K, b_K) to the joint
// (a_1…a_K, b_1…b_K) layout.
func normalMatrix(w *tensor.Tensor, rowTensorsT []mat.Matrix, sizes []int, joint int) (*mat.Dense, error) {
	g, err := tensor.Fold(rowTensorsT, w)
	if err != nil {
		return nil, err
	}
	g, err = g.Reshape(pairedShape(sizes)...)
	if err != nil {
		return nil, err
	}
	g, err = g.Transpose(tensor.CreatePermutation(2, len(sizes))...)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(joint, joint, g.Data()), nil
}

// hatTensor returns the per-cell leverage diag(Bᵗ·pinv(system)·B)·w on the grid.
func hatTensor(system *mat.Dense, w *tensor.Tensor, rowTensors []mat.Matrix, sizes []int) (*tensor.Tensor, error) {
	inv, err := PseudoInverse(system)
	if err != nil {
		return nil, err
	}
	k := len(sizes)
	shape := append(append([]int(nil), sizes...), sizes...)
	t, err := tensor.New(inv.RawMatrix().Data, shape...)
	if err != nil {
		return nil, err
	}
	t, err = t.Transpose(tensor.CreatePermutation(k, 2)...)
	if err != nil {
		return nil, err
	}
	squared := make([]int, k)
	for i, m := range sizes {
		squared[i] = m * m
	}
	t, err = t.Reshape(squared...)
	if err != nil {
		return nil, err
	}
	h, err := tensor.Fold(rowTensors, t)
	if err != nil {
		return nil, err
	}
	return h.Mul(w)
}
