package mkl

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scimkl/core/parallel"
	"github.com/YuminosukeSato/scimkl/kernel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// Evaluator computes f(x) = Σ_k β_k Σ_i coef_i k_k(sv_i, x) + b for new rows.
//
// It holds copies of everything it needs and is safe for concurrent use.
// Scores do not depend on the worker count: each row is summed sequentially
// in a fixed order.
type Evaluator struct {
	kernels []kernel.Kernel
	beta    []float64
	sv      [][]float64
	coef    []float64
	bias    float64
	dim     int
	workers int
}

type evaluatorConfig struct {
	workers int
	dim     int
}

// EvaluatorOption configures NewEvaluator.
type EvaluatorOption func(*evaluatorConfig)

// WithEvaluatorWorkers bounds the goroutines used by Apply.
func WithEvaluatorWorkers(n int) EvaluatorOption {
	return func(c *evaluatorConfig) {
		c.workers = n
	}
}

// WithFeatureDim fixes the expected arity when there are no support vectors.
func WithFeatureDim(d int) EvaluatorOption {
	return func(c *evaluatorConfig) {
		c.dim = d
	}
}

// NewEvaluator creates an evaluator.
//
// svX holds one support vector per row and coef the matching α_i·y_i; svX may
// be nil only when coef is empty, in which case every score equals bias.
func NewEvaluator(kernels []kernel.Kernel, beta []float64, svX mat.Matrix, coef []float64, bias float64, opts ...EvaluatorOption) (*Evaluator, error) {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(kernels) == 0 {
		return nil, scierrors.NewDimensionError("mkl.NewEvaluator", 1, 0, 2)
	}
	if len(beta) != len(kernels) {
		return nil, scierrors.NewDimensionError("mkl.NewEvaluator", len(kernels), len(beta), 2)
	}
	for k, b := range beta {
		if b < 0 {
			return nil, scierrors.NewInvalidWeightConstraintError("beta", "kernel weights must be non-negative", k)
		}
	}

	e := &Evaluator{
		kernels: append([]kernel.Kernel(nil), kernels...),
		beta:    append([]float64(nil), beta...),
		coef:    append([]float64(nil), coef...),
		bias:    bias,
		dim:     cfg.dim,
		workers: cfg.workers,
	}

	if svX == nil {
		if len(coef) != 0 {
			return nil, scierrors.NewDimensionError("mkl.NewEvaluator", len(coef), 0, 0)
		}
		return e, nil
	}
	r, d := svX.Dims()
	if r != len(coef) {
		return nil, scierrors.NewDimensionError("mkl.NewEvaluator", r, len(coef), 0)
	}
	if cfg.dim > 0 && cfg.dim != d {
		return nil, scierrors.NewDimensionError("mkl.NewEvaluator", cfg.dim, d, 1)
	}
	e.dim = d
	e.sv = make([][]float64, r)
	for i := range e.sv {
		e.sv[i] = mat.Row(nil, i, svX)
	}
	return e, nil
}

// Apply returns one score per row of X.
func (e *Evaluator) Apply(X mat.Matrix) ([]float64, error) {
	if X == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "mkl.Evaluator.Apply")
	}
	m, d := X.Dims()
	if m == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "mkl.Evaluator.Apply")
	}
	if e.dim > 0 && d != e.dim {
		return nil, scierrors.NewDimensionError("mkl.Evaluator.Apply", e.dim, d, 1)
	}

	scores := make([]float64, m)
	parallel.ParallelizeWithThreshold(m, 16, e.workers, func(start, end int) {
		x := make([]float64, d)
		for r := start; r < end; r++ {
			mat.Row(x, r, X)
			scores[r] = e.score(x)
		}
	})
	return scores, nil
}

func (e *Evaluator) score(x []float64) float64 {
	var f float64
	for k, kern := range e.kernels {
		if e.beta[k] == 0 {
			continue
		}
		var inner float64
		for i, sv := range e.sv {
			inner += e.coef[i] * kern.Eval(sv, x)
		}
		f += e.beta[k] * inner
	}
	return f + e.bias
}

// Beta returns a copy of the kernel weights.
func (e *Evaluator) Beta() []float64 { return append([]float64(nil), e.beta...) }

// Bias returns b.
func (e *Evaluator) Bias() float64 { return e.bias }

// NumSupportVectors returns the number of support vectors.
func (e *Evaluator) NumSupportVectors() int { return len(e.sv) }

// Sign maps scores to labels: +1 for f ≥ 0, −1 otherwise.
func Sign(scores []float64) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s >= 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
