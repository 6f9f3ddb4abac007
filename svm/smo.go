package svm

import (
	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
)

// SMO solves the C-SVC dual
//
//	max Σα_i − ½ Σ α_i α_j y_i y_j K_ij  s.t. Σ α_i y_i = 0, 0 ≤ α_i ≤ C.
type SMO struct {
	cfg config
}

// NewSMO creates a C-SVC solver.
func NewSMO(opts ...Option) *SMO {
	return &SMO{cfg: newConfig("svm.smo", opts)}
}

// Solve implements Solver. Labels must be −1 or +1.
func (s *SMO) Solve(K mat.Symmetric, y []float64, C float64) (*Solution, error) {
	const op = "SMO"
	if K == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	n := K.SymmetricDim()
	if n == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	if len(y) != n {
		return nil, scierrors.NewDimensionError(op, n, len(y), 0)
	}
	if !(C > 0) {
		return nil, scierrors.NewInvalidWeightConstraintError("C", "must be positive", C)
	}
	for i, v := range y {
		if v != 1 && v != -1 {
			return nil, scierrors.NewValidationError("y", "binary labels must be -1 or +1", i)
		}
	}

	q, qd, err := fullRows(op, K, y)
	if err != nil {
		return nil, err
	}

	p := make([]float64, n)
	for i := range p {
		p[i] = -1
	}
	prob := &qp{
		n:     n,
		q:     q,
		qd:    qd,
		p:     p,
		y:     append([]float64(nil), y...),
		alpha: make([]float64, n),
		ub:    C,
		eps:   s.cfg.tol,
	}

	iter, err := prob.solve(op, s.cfg.iterationCap(n))
	if err != nil {
		return nil, err
	}

	sol := &Solution{
		Alpha:      prob.alpha,
		Bias:       -prob.rho(),
		Objective:  -prob.objective(),
		Iterations: iter,
	}
	s.cfg.logger.Debug("dual solved",
		log.SolverKey, op,
		log.SolverIterationsKey, iter,
		log.SupportVectorsKey, len(sol.SupportVectors()),
		log.ObjectiveKey, sol.Objective,
	)
	return sol, nil
}

// OneClassSMO solves the ν one-class dual (Schölkopf et al.)
//
//	min ½ Σ α_i α_j K_ij  s.t. Σ α_i = νN, 0 ≤ α_i ≤ 1.
//
// The decision function is f(x) = Σ α_i k(x_i, x) − ρ; f(x) < 0 flags a novelty.
type OneClassSMO struct {
	nu  float64
	cfg config
}

// NewOneClassSMO creates a one-class solver with fraction parameter nu ∈ (0, 1].
func NewOneClassSMO(nu float64, opts ...Option) *OneClassSMO {
	return &OneClassSMO{nu: nu, cfg: newConfig("svm.one_class_smo", opts)}
}

// Solve implements Solver. Labels are ignored apart from their count and C is
// unused: the box is [0, 1] and ν fixes Σα.
func (s *OneClassSMO) Solve(K mat.Symmetric, y []float64, _ float64) (*Solution, error) {
	const op = "OneClassSMO"
	if K == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	n := K.SymmetricDim()
	if n == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	if y != nil && len(y) != n {
		return nil, scierrors.NewDimensionError(op, n, len(y), 0)
	}
	if !(s.nu > 0 && s.nu <= 1) {
		return nil, scierrors.NewInvalidWeightConstraintError("nu", "must be in (0, 1]", s.nu)
	}

	q, qd, err := fullRows(op, K, nil)
	if err != nil {
		return nil, err
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}

	// feasible start: the first ⌊νN⌋ variables at the bound, the remainder on the next
	alpha := make([]float64, n)
	total := s.nu * float64(n)
	full := int(total)
	for i := 0; i < full && i < n; i++ {
		alpha[i] = 1
	}
	if full < n {
		alpha[full] = total - float64(full)
	}

	prob := &qp{
		n:     n,
		q:     q,
		qd:    qd,
		p:     make([]float64, n),
		y:     ones,
		alpha: alpha,
		ub:    1,
		eps:   s.cfg.tol,
	}

	iter, err := prob.solve(op, s.cfg.iterationCap(n))
	if err != nil {
		return nil, err
	}

	sol := &Solution{
		Alpha:      prob.alpha,
		Bias:       -prob.rho(),
		Objective:  -prob.objective(),
		Iterations: iter,
	}
	s.cfg.logger.Debug("dual solved",
		log.SolverKey, op,
		log.SolverIterationsKey, iter,
		log.SupportVectorsKey, len(sol.SupportVectors()),
		log.RegularizationKey, s.nu,
	)
	return sol, nil
}

// Nu returns the fraction parameter.
func (s *OneClassSMO) Nu() float64 { return s.nu }
