package penalized

import (
	"github.com/YuminosukeSato/pspline/core/tensor"
)

// DefaultMaxJointSize bounds Πm_k for FitNDimensional. The joint system is
// a dense Πm_k × Πm_k matrix factorized by SVD.
const DefaultMaxJointSize = 4096

type settings struct {
	penalties    []float64
	order        int
	weights      []float64
	weightTensor *tensor.Tensor
	maxJointSize int
}

func defaultSettings() settings {
	return settings{
		order:        2,
		maxJointSize: DefaultMaxJointSize,
	}
}

// Option configures a fit.
type Option func(*settings)

// WithPenalty sets the smoothing parameter λ of a one-dimensional fit.
// It is also used for every dimension of an n-dimensional fit that has no
// WithPenalties. Default 1.
func WithPenalty(lambda float64) Option {
	return func(s *settings) {
		s.penalties = []float64{lambda}
	}
}

// WithPenalties sets one smoothing parameter per dimension.
func WithPenalties(lambdas ...float64) Option {
	return func(s *settings) {
		s.penalties = append([]float64(nil), lambdas...)
	}
}

// WithOrder sets the order of the difference penalty. Default 2.
func WithOrder(order int) Option {
	return func(s *settings) {
		s.order = order
	}
}

// WithWeights sets per-observation weights of a one-dimensional fit.
func WithWeights(w []float64) Option {
	return func(s *settings) {
		s.weights = w
	}
}

// WithWeightTensor sets the weight tensor of an n-dimensional fit. It must
// have the shape of the response.
func WithWeightTensor(w *tensor.Tensor) Option {
	return func(s *settings) {
		s.weightTensor = w
	}
}

// WithMaxJointSize overrides DefaultMaxJointSize.
func WithMaxJointSize(n int) Option {
	return func(s *settings) {
		s.maxJointSize = n
	}
}
