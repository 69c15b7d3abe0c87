package penalized

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func checkOrder(op string, order int) error {
	if order < 0 {
		return scigoErrors.NewConfigError(op, "order", "must be non-negative", order)
	}
	return nil
}

func checkPenalty(op string, lambda float64) error {
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return scigoErrors.NewConfigError(op, "penalty", "must be finite and non-negative", lambda)
	}
	return nil
}

func checkWeights(op string, w []float64) error {
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return scigoErrors.NewValueError(op, fmt.Sprintf("weight %d is %g, weights must be finite and non-negative", i, v))
		}
	}
	return nil
}

// FitOneDimensional fits y on the basis b (n_basis × n_obs) by minimizing
//
//	Σ w_i (y_i - (bᵗβ)_i)² + λ ||D β||²
//
// where D is the order-th difference matrix. The regularized inverse is
// computed with PseudoInverse so singular systems yield the minimum-norm β.
//
// When n_obs <= EffDim or n_basis <= order, the corresponding diagnostic is
// reported as 0 and a DegeneracyWarning is raised through errors.Warn.
// More than one WithPenalties value is a DimensionError.
func FitOneDimensional(y []float64, b mat.Matrix, opts ...Option) (_ *OneDimensionalFit, err error) {
	defer scigoErrors.Recover(&err, "FitOneDimensional")

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if len(s.penalties) > 1 {
		return nil, scigoErrors.NewDimensionError("FitOneDimensional", 1, len(s.penalties), 0)
	}
	lambda := 1.0
	if len(s.penalties) == 1 {
		lambda = s.penalties[0]
	}
	if err := checkPenalty("FitOneDimensional", lambda); err != nil {
		return nil, err
	}
	if err := checkOrder("FitOneDimensional", s.order); err != nil {
		return nil, err
	}

	nb, nObs := b.Dims()
	if nObs != len(y) {
		return nil, scigoErrors.NewDimensionError("FitOneDimensional", nObs, len(y), 1)
	}
	if nObs == 0 || nb == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "FitOneDimensional")
	}
	w := s.weights
	if w == nil {
		w = make([]float64, nObs)
		for i := range w {
			w[i] = 1
		}
	}
	if len(w) != nObs {
		return nil, scigoErrors.NewDimensionError("FitOneDimensional", nObs, len(w), 0)
	}
	if err := checkWeights("FitOneDimensional", w); err != nil {
		return nil, err
	}

	// B·diag(w)
	bw := mat.NewDense(nb, nObs, nil)
	for j := 0; j < nb; j++ {
		for i := 0; i < nObs; i++ {
			bw.Set(j, i, b.At(j, i)*w[i])
		}
	}

	penalty := PenaltyMatrix(nb, s.order)
	var system mat.Dense
	system.Mul(bw, b.T())
	var scaled mat.Dense
	scaled.Scale(lambda, penalty)
	system.Add(&system, &scaled)

	inv, err := PseudoInverse(&system)
	if err != nil {
		return nil, err
	}

	yv := mat.NewVecDense(nObs, append([]float64(nil), y...))
	var rhs mat.VecDense
	rhs.MulVec(bw, yv)

	beta := mat.NewVecDense(nb, nil)
	beta.MulVec(inv, &rhs)
	if err := scigoErrors.CheckNumericalStability("beta_hat", beta.RawVector().Data); err != nil {
		return nil, err
	}

	yHat := mat.NewVecDense(nObs, nil)
	yHat.MulVec(b.T(), beta)

	// diag(Bᵗ·inv·B·W) without forming the n_obs × n_obs product
	var invB mat.Dense
	invB.Mul(inv, b)
	hat := mat.NewVecDense(nObs, nil)
	effDim := 0.0
	for i := 0; i < nObs; i++ {
		h := 0.0
		for j := 0; j < nb; j++ {
			h += b.At(j, i) * invB.At(j, i)
		}
		h *= w[i]
		hat.SetVec(i, h)
		effDim += h
	}

	var pb mat.VecDense
	pb.MulVec(penalty, beta)
	roughness := scigoErrors.SafeSqrtRatio("roughness", math.Max(mat.Dot(beta, &pb), 0), float64(nb-s.order))

	rss := 0.0
	for i := 0; i < nObs; i++ {
		r := y[i] - yHat.AtVec(i)
		rss += r * r
	}
	dof := float64(nObs) - effDim
	if math.Abs(dof) <= 1e-9*float64(nObs) {
		// eff_dim equals n_obs up to rounding
		dof = 0
	}
	residualStd := scigoErrors.SafeSqrtRatio("residual_std", rss, dof)

	se := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		se.SetVec(i, math.Sqrt(residualStd*residualStd*math.Max(hat.AtVec(i), 0)))
	}

	return &OneDimensionalFit{
		Beta:        beta,
		YHat:        yHat,
		HatDiag:     hat,
		EffDim:      effDim,
		Roughness:   roughness,
		ResidualStd: residualStd,
		SE:          se,
		InvMat:      inv,
	}, nil
}
