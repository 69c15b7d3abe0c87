package psplines

import (
	"fmt"
	"math"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Config holds the hyperparameters of a P-spline fit. Penalty, Segments
// and Degree are per dimension; a slice of length 1 applies to every
// dimension.
type Config struct {
	Penalty      []float64
	Segments     []int
	Degree       []int
	PenaltyOrder int
}

// DefaultConfig returns penalty 1, 10 segments, cubic splines and a
// second-order difference penalty.
func DefaultConfig() Config {
	return Config{
		Penalty:      []float64{1.0},
		Segments:     []int{10},
		Degree:       []int{3},
		PenaltyOrder: 2,
	}
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// WithPenalty sets the smoothing parameter per dimension.
func WithPenalty(lambda ...float64) ConfigOption {
	return func(c *Config) {
		c.Penalty = append([]float64(nil), lambda...)
	}
}

// WithSegments sets the number of knot intervals per dimension.
func WithSegments(n ...int) ConfigOption {
	return func(c *Config) {
		c.Segments = append([]int(nil), n...)
	}
}

// WithDegree sets the B-spline degree per dimension.
func WithDegree(d ...int) ConfigOption {
	return func(c *Config) {
		c.Degree = append([]int(nil), d...)
	}
}

// WithPenaltyOrder sets the order of the difference penalty.
func WithPenaltyOrder(d int) ConfigOption {
	return func(c *Config) {
		c.PenaltyOrder = d
	}
}

// NewConfig applies options to DefaultConfig and validates the result.
func NewConfig(opts ...ConfigOption) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports a ConfigError for values no fit can use.
func (c Config) Validate() error {
	const op = "psplines.Config"
	if len(c.Penalty) == 0 {
		return scigoErrors.NewConfigError(op, "penalty", "must not be empty", c.Penalty)
	}
	if len(c.Segments) == 0 {
		return scigoErrors.NewConfigError(op, "segments", "must not be empty", c.Segments)
	}
	if len(c.Degree) == 0 {
		return scigoErrors.NewConfigError(op, "degree", "must not be empty", c.Degree)
	}
	for _, l := range c.Penalty {
		if l < 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return scigoErrors.NewConfigError(op, "penalty", "must be finite and non-negative", l)
		}
	}
	for _, s := range c.Segments {
		if s < 1 {
			return scigoErrors.NewConfigError(op, "segments", "must be positive", s)
		}
	}
	for _, d := range c.Degree {
		if d < 0 {
			return scigoErrors.NewConfigError(op, "degree", "must be non-negative", d)
		}
	}
	if c.PenaltyOrder < 0 {
		return scigoErrors.NewConfigError(op, "penalty_order", "must be non-negative", c.PenaltyOrder)
	}
	return nil
}

// forDimensions broadcasts the per-dimension settings to k dimensions.
func (c Config) forDimensions(k int) (Config, error) {
	out := Config{PenaltyOrder: c.PenaltyOrder}
	var err error
	if out.Penalty, err = broadcast("penalty", c.Penalty, k); err != nil {
		return Config{}, err
	}
	if out.Segments, err = broadcast("segments", c.Segments, k); err != nil {
		return Config{}, err
	}
	if out.Degree, err = broadcast("degree", c.Degree, k); err != nil {
		return Config{}, err
	}
	return out, nil
}

func broadcast[T any](name string, v []T, k int) ([]T, error) {
	switch len(v) {
	case k:
		return append([]T(nil), v...), nil
	case 1:
		out := make([]T, k)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	default:
		return nil, scigoErrors.NewConfigError("psplines.Config", name,
			fmt.Sprintf("needs 1 or %d values", k), v)
	}
}

func (c Config) String() string {
	return fmt.Sprintf("Config(penalty=%v, segments=%v, degree=%v, penalty_order=%d)",
		c.Penalty, c.Segments, c.Degree, c.PenaltyOrder)
}
