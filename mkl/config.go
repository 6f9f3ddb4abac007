package mkl

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/scimkl/kernel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// WeightUpdate selects how β is recomputed from the per-kernel contributions.
type WeightUpdate string

const (
	// UpdateAnalytic is the closed-form p-norm update β_k ∝ ‖w_k‖^{2/(p+1)}.
	UpdateAnalytic WeightUpdate = "analytic"
	// UpdateNewton solves the p-norm weight subproblem with damped Newton steps.
	UpdateNewton WeightUpdate = "newton"
	// UpdateLP is semi-infinite programming column generation (p = 1 only).
	UpdateLP WeightUpdate = "lp"
)

// Config is the immutable training configuration of a Session.
// Modify a copy through options; a Session never mutates the Config it was given.
type Config struct {
	// Kernels are the base kernel descriptors in registration order.
	Kernels []kernel.Descriptor `json:"kernels" yaml:"kernels"`
	// C is the SVM box constraint.
	C float64 `json:"c" yaml:"c"`
	// Norm is p in ‖β‖_p = 1.
	Norm float64 `json:"norm" yaml:"norm"`
	// Epsilon is the convergence threshold on ‖β_new − β_old‖₂.
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`
	// MaxIter caps outer iterations.
	MaxIter int `json:"max_iter" yaml:"max_iter"`
	// WeightUpdate is the β update rule.
	WeightUpdate WeightUpdate `json:"weight_update" yaml:"weight_update"`
	// Nu is the one-class fraction parameter.
	Nu float64 `json:"nu" yaml:"nu"`
	// SolverTolerance is the inner SMO KKT tolerance.
	SolverTolerance float64 `json:"solver_tolerance" yaml:"solver_tolerance"`
	// SolverMaxIter caps SMO pair updates per solve; zero selects the solver default.
	SolverMaxIter int `json:"solver_max_iter" yaml:"solver_max_iter"`
	// MaxCacheEntries bounds K·N²; zero means unbounded.
	MaxCacheEntries int `json:"max_cache_entries" yaml:"max_cache_entries"`
	// Workers bounds kernel evaluation goroutines; zero means runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the defaults: C = 1, p = 1, ε = 1e-3, 100 outer
// iterations, analytic updates and ν = 0.5. Kernels are left empty.
func DefaultConfig() Config {
	return Config{
		C:               1.0,
		Norm:            1.0,
		Epsilon:         1e-3,
		MaxIter:         100,
		WeightUpdate:    UpdateAnalytic,
		Nu:              0.5,
		SolverTolerance: 1e-3,
	}
}

// Option modifies a Config.
type Option func(*Config)

// With returns a copy of c with opts applied.
func (c Config) With(opts ...Option) Config {
	out := c
	out.Kernels = append([]kernel.Descriptor(nil), c.Kernels...)
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// FromConfig replaces the whole configuration.
func FromConfig(src Config) Option {
	return func(c *Config) {
		*c = src
		c.Kernels = append([]kernel.Descriptor(nil), src.Kernels...)
	}
}

// WithKernels sets the base kernel descriptors.
func WithKernels(descs ...kernel.Descriptor) Option {
	return func(c *Config) {
		c.Kernels = append([]kernel.Descriptor(nil), descs...)
	}
}

// WithC sets the SVM box constraint.
func WithC(v float64) Option {
	return func(c *Config) {
		c.C = v
	}
}

// WithNorm sets p.
func WithNorm(p float64) Option {
	return func(c *Config) {
		c.Norm = p
	}
}

// WithEpsilon sets the convergence threshold.
func WithEpsilon(eps float64) Option {
	return func(c *Config) {
		c.Epsilon = eps
	}
}

// WithMaxIter sets the outer iteration cap.
func WithMaxIter(n int) Option {
	return func(c *Config) {
		c.MaxIter = n
	}
}

// WithWeightUpdate sets the β update rule.
func WithWeightUpdate(u WeightUpdate) Option {
	return func(c *Config) {
		c.WeightUpdate = u
	}
}

// WithNu sets the one-class fraction parameter.
func WithNu(nu float64) Option {
	return func(c *Config) {
		c.Nu = nu
	}
}

// WithSolverTolerance sets the SMO tolerance.
func WithSolverTolerance(tol float64) Option {
	return func(c *Config) {
		c.SolverTolerance = tol
	}
}

// WithSolverMaxIter caps SMO pair updates per solve.
func WithSolverMaxIter(n int) Option {
	return func(c *Config) {
		c.SolverMaxIter = n
	}
}

// WithMaxCacheEntries bounds K·N².
func WithMaxCacheEntries(n int) Option {
	return func(c *Config) {
		c.MaxCacheEntries = n
	}
}

// WithWorkers bounds kernel evaluation goroutines.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// Validate checks every parameter that can be checked without data.
// Kernel presence is checked by NewSession, which also accepts kernels
// that have no descriptor.
func (c Config) Validate() error {
	if !(c.C > 0) || math.IsInf(c.C, 1) {
		return scierrors.NewInvalidWeightConstraintError("C", "must be positive and finite", c.C)
	}
	// p < 1 gives a non-convex norm ball.
	if !(c.Norm >= 1) || math.IsInf(c.Norm, 1) {
		return scierrors.NewInvalidWeightConstraintError("norm", "p must be finite and at least 1", c.Norm)
	}
	if !(c.Nu > 0 && c.Nu <= 1) {
		return scierrors.NewInvalidWeightConstraintError("nu", "must be in (0, 1]", c.Nu)
	}
	if !(c.Epsilon > 0) {
		return scierrors.NewInvalidWeightConstraintError("epsilon", "must be positive", c.Epsilon)
	}
	if c.MaxIter <= 0 {
		return scierrors.NewInvalidWeightConstraintError("max_iter", "must be positive", c.MaxIter)
	}
	switch c.updateRule() {
	case UpdateAnalytic, UpdateNewton:
	case UpdateLP:
		if c.Norm != 1 {
			return scierrors.NewInvalidWeightConstraintError("norm",
				"the lp weight update only supports p = 1", c.Norm)
		}
	default:
		return scierrors.NewValidationError("weight_update", "unknown weight update", string(c.WeightUpdate))
	}
	if c.SolverTolerance < 0 {
		return scierrors.NewValidationError("solver_tolerance", "must not be negative", c.SolverTolerance)
	}
	if c.SolverMaxIter < 0 {
		return scierrors.NewValidationError("solver_max_iter", "must not be negative", c.SolverMaxIter)
	}
	if c.MaxCacheEntries < 0 {
		return scierrors.NewValidationError("max_cache_entries", "must not be negative", c.MaxCacheEntries)
	}
	for i, d := range c.Kernels {
		if err := d.Validate(); err != nil {
			return scierrors.Wrapf(err, "kernel %d", i)
		}
	}
	return nil
}

func (c Config) updateRule() WeightUpdate {
	if c.WeightUpdate == "" {
		return UpdateAnalytic
	}
	return WeightUpdate(strings.ToLower(string(c.WeightUpdate)))
}

// Params returns the configuration as a flat map, the GetParams format of the estimators.
func (c Config) Params() map[string]interface{} {
	kernels := make([]string, len(c.Kernels))
	for i, d := range c.Kernels {
		kernels[i] = d.String()
	}
	return map[string]interface{}{
		"kernels":           kernels,
		"C":                 c.C,
		"norm":              c.Norm,
		"epsilon":           c.Epsilon,
		"max_iter":          c.MaxIter,
		"weight_update":     string(c.updateRule()),
		"nu":                c.Nu,
		"solver_tolerance":  c.SolverTolerance,
		"solver_max_iter":   c.SolverMaxIter,
		"max_cache_entries": c.MaxCacheEntries,
		"workers":           c.Workers,
	}
}
