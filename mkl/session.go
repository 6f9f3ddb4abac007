// Package mkl learns a weighted combination of base kernels jointly with an SVM.
//
// Training alternates between a single-kernel SVM solve on the combined
// kernel Σ_k β_k K_k and a closed-form or LP update of β, until β moves by
// less than Config.Epsilon:
//
//	Init → SolveSVM → UpdateWeights → CheckConvergence → (SolveSVM | Converged)
//
// A Session owns its kernel cache and weights; sessions share nothing.
//
// 使用例:
//
//	cfg := mkl.DefaultConfig().With(mkl.WithKernels(kernel.GaussianWidths(0.5, 25)...))
//	s, err := mkl.NewSession(cfg, X, y)
//	if err != nil {
//	    return err
//	}
//	res, err := s.Train()
package mkl

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scimkl/kernel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
	"github.com/YuminosukeSato/scimkl/svm"
)

// Session is one multiple kernel learning problem: a cache, labels and a
// configuration. Train may be called repeatedly; a failed Train leaves the
// Session reusable.
type Session struct {
	cfg      Config
	y        []float64
	cache    *kernel.Cache
	solver   svm.Solver
	custom   bool
	oneClass bool
	logger   log.Logger
	state    State
}

type sessionOptions struct {
	solver   svm.Solver
	cache    *kernel.Cache
	kernels  []kernel.Kernel
	logger   log.Logger
	oneClass bool
}

// SessionOption configures NewSession.
type SessionOption func(*sessionOptions)

// WithSolver replaces the built-in SMO solver.
func WithSolver(s svm.Solver) SessionOption {
	return func(o *sessionOptions) {
		o.solver = s
	}
}

// WithCache reuses a cache built over the same X. The cache is only read.
func WithCache(c *kernel.Cache) SessionOption {
	return func(o *sessionOptions) {
		o.cache = c
	}
}

// WithBaseKernels supplies kernel implementations directly instead of
// Config.Kernels. Such sessions cannot export a persistable Model unless
// every kernel is a built-in one.
func WithBaseKernels(ks ...kernel.Kernel) SessionOption {
	return func(o *sessionOptions) {
		o.kernels = ks
	}
}

// WithLogger sets the session logger.
func WithLogger(l log.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = l
	}
}

// WithOneClass trains the ν one-class problem. Labels may be nil.
func WithOneClass() SessionOption {
	return func(o *sessionOptions) {
		o.oneClass = true
	}
}

// NewSession validates cfg and the data, then computes the kernel matrices.
//
// Parameter errors are InvalidWeightConstraintError or ValidationError;
// shape errors are DimensionError. Nothing is trained yet.
func NewSession(cfg Config, X mat.Matrix, y []float64, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("mkl.session")
	}

	cfg = cfg.With()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := o.cache
	if cache == nil {
		kernels := o.kernels
		if len(kernels) == 0 {
			if len(cfg.Kernels) == 0 {
				return nil, scierrors.NewDimensionError("mkl.NewSession", 1, 0, 2)
			}
			built, err := kernel.BuildAll(cfg.Kernels)
			if err != nil {
				return nil, err
			}
			kernels = built
		}
		if X == nil {
			return nil, scierrors.Wrap(scierrors.ErrEmptyData, "mkl.NewSession")
		}
		if n, _ := X.Dims(); n > 0 && y != nil && len(y) != n {
			return nil, scierrors.NewDimensionError("mkl.NewSession", n, len(y), 0)
		}
		c, err := kernel.NewCache(kernels, X,
			kernel.WithMaxEntries(cfg.MaxCacheEntries),
			kernel.WithWorkers(cfg.Workers),
		)
		if err != nil {
			return nil, err
		}
		cache = c
	} else if X != nil {
		if n, d := X.Dims(); n != cache.Len() || d != cache.Dim() {
			return nil, scierrors.NewDimensionError("mkl.NewSession", cache.Len(), n, 0)
		}
	}

	n := cache.Len()
	labels, err := checkLabels(y, n, o.oneClass)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		y:        labels,
		cache:    cache,
		solver:   o.solver,
		custom:   o.solver != nil,
		oneClass: o.oneClass,
		logger:   o.logger,
	}
	if !s.custom {
		s.solver = s.defaultSolver()
	}
	return s, nil
}

func checkLabels(y []float64, n int, oneClass bool) ([]float64, error) {
	if oneClass {
		if y != nil && len(y) != n {
			return nil, scierrors.NewDimensionError("mkl.NewSession", n, len(y), 0)
		}
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		return ones, nil
	}

	if len(y) != n {
		return nil, scierrors.NewDimensionError("mkl.NewSession", n, len(y), 0)
	}
	var pos, neg int
	for i, v := range y {
		switch v {
		case 1:
			pos++
		case -1:
			neg++
		default:
			return nil, scierrors.NewValidationError("y", "binary labels must be -1 or +1", i)
		}
	}
	if pos == 0 || neg == 0 {
		return nil, scierrors.NewValidationError("y", "both classes must be present", len(y))
	}
	return append([]float64(nil), y...), nil
}

func (s *Session) defaultSolver() svm.Solver {
	opts := []svm.Option{
		svm.WithTolerance(s.cfg.SolverTolerance),
		svm.WithMaxIter(s.cfg.SolverMaxIter),
	}
	if s.oneClass {
		return svm.NewOneClassSMO(s.cfg.Nu, opts...)
	}
	return svm.NewSMO(opts...)
}

// Config returns a copy of the session configuration.
func (s *Session) Config() Config { return s.cfg.With() }

// Cache returns the kernel cache.
func (s *Session) Cache() *kernel.Cache { return s.cache }

// State returns the phase the last Train call ended in.
func (s *Session) State() State { return s.state }

// Reconfigure applies opts after a failed or finished Train, for example to
// relax the solver tolerance after a SolverDivergedError. The kernel set is
// fixed by the cache and cannot change. An invalid result leaves the Session
// unchanged.
func (s *Session) Reconfigure(opts ...Option) error {
	next := s.cfg.With(opts...)
	if err := next.Validate(); err != nil {
		return err
	}
	if len(next.Kernels) != len(s.cfg.Kernels) {
		return scierrors.NewValidationError("kernels", "cannot change the kernel set of a session", len(next.Kernels))
	}
	for i := range next.Kernels {
		if next.Kernels[i] != s.cfg.Kernels[i] {
			return scierrors.NewValidationError("kernels", "cannot change the kernel set of a session", i)
		}
	}
	s.cfg = next
	if !s.custom {
		s.solver = s.defaultSolver()
	}
	s.state = StateIdle
	return nil
}

// Train runs the alternating optimization to convergence or MaxIter.
func (s *Session) Train() (*Result, error) {
	return s.TrainContext(context.Background())
}

// TrainContext is Train with cancellation checked between outer iterations.
// A solve in progress is never interrupted. On cancellation the partial state
// is discarded and the error wraps both ErrCanceled and ctx.Err().
func (s *Session) TrainContext(ctx context.Context) (res *Result, err error) {
	defer scierrors.Recover(&err, "mkl.Session.Train")

	start := time.Now()
	K := s.cache.NumKernels()
	logger := s.logger.With(
		log.KernelCountKey, K,
		log.SamplesKey, s.cache.Len(),
		log.NormKey, s.cfg.Norm,
		log.WeightUpdateKey, string(s.cfg.updateRule()),
	)

	s.transition(logger, StateInit, 0)
	beta := uniformBeta(K, s.cfg.Norm)
	updater := newUpdater(s.cfg)

	var (
		objectives []float64
		sol        *svm.Solution
		contrib    []float64
		converged  bool
		delta      float64
		iter       int
	)

	for {
		if cerr := ctx.Err(); cerr != nil {
			s.state = StateIdle
			return nil, scierrors.Mark(scierrors.Wrap(cerr, "mkl: training canceled"), scierrors.ErrCanceled)
		}

		s.transition(logger, StateSolveSVM, iter)
		sol, contrib, err = s.solve(beta, iter)
		if err != nil {
			s.state = StateIdle
			logger.Error("single-kernel solve failed", err, log.IterationKey, iter)
			return nil, err
		}
		objectives = append(objectives, sol.Objective)

		s.transition(logger, StateUpdateWeights, iter)
		linear := sol.Objective + floats.Dot(beta, contrib)
		next, uerr := updater.update(beta, contrib, linear)
		if uerr != nil {
			s.state = StateIdle
			logger.Error("weight update failed", uerr, log.IterationKey, iter)
			return nil, uerr
		}
		if cerr := scierrors.CheckNumericalStability("mkl.UpdateWeights", next, iter); cerr != nil {
			s.state = StateIdle
			return nil, cerr
		}
		iter++

		s.transition(logger, StateCheckConvergence, iter)
		delta = floats.Distance(next, beta, 2)
		beta = next
		if logger.Enabled(ctx, log.LevelDebug) {
			logger.Debug("weights updated",
				log.IterationKey, iter,
				log.BetaKey, beta,
				log.DeltaKey, delta,
				log.ObjectiveKey, sol.Objective,
			)
		}
		if delta < s.cfg.Epsilon {
			converged = true
			break
		}
		if iter >= s.cfg.MaxIter {
			break
		}
	}

	// α must belong to the returned β
	if delta > 0 {
		s.transition(logger, StateSolveSVM, iter)
		sol, contrib, err = s.solve(beta, iter)
		if err != nil {
			s.state = StateIdle
			logger.Error("final solve failed", err, log.IterationKey, iter)
			return nil, err
		}
		objectives = append(objectives, sol.Objective)
	}

	s.transition(logger, StateConverged, iter)
	res = s.result(beta, sol, contrib, objectives, converged, iter)

	if converged {
		logger.Info("training converged",
			log.IterationKey, iter,
			log.DeltaKey, delta,
			log.SupportVectorsKey, len(res.SupportVectors),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	} else {
		logger.Warn("training stopped at iteration cap",
			log.IterationKey, iter,
			log.DeltaKey, delta,
			log.ConvergedKey, false,
		)
		scierrors.Warn(scierrors.NewConvergenceWarning("MKL", iter, delta, ""))
	}
	return res, nil
}

// solve forms the combined kernel for beta and solves its dual.
func (s *Session) solve(beta []float64, iter int) (*svm.Solution, []float64, error) {
	comb, err := s.cache.Combined(beta)
	if err != nil {
		return nil, nil, err
	}
	sol, err := s.solver.Solve(comb, s.y, s.cfg.C)
	if err != nil {
		var diverged *scierrors.SolverDivergedError
		if scierrors.As(err, &diverged) {
			return nil, nil, err
		}
		return nil, nil, scierrors.NewSolverDivergedError("mkl", iter, "single-kernel solve failed", err)
	}
	if len(sol.Alpha) != len(s.y) {
		return nil, nil, scierrors.NewDimensionError("mkl.SolveSVM", len(s.y), len(sol.Alpha), 0)
	}

	coef := make([]float64, len(s.y))
	for i, a := range sol.Alpha {
		coef[i] = a * s.y[i]
	}
	contrib, err := s.cache.Contributions(coef)
	if err != nil {
		return nil, nil, err
	}
	return sol, contrib, nil
}

func (s *Session) transition(logger log.Logger, next State, iter int) {
	logger.Debug("state transition",
		log.StateKey, next.String(),
		"mkl.from", s.state.String(),
		log.IterationKey, iter,
	)
	s.state = next
}

func (s *Session) result(beta []float64, sol *svm.Solution, contrib, objectives []float64, converged bool, iter int) *Result {
	res := &Result{
		Beta:          beta,
		Alpha:         append([]float64(nil), sol.Alpha...),
		Bias:          sol.Bias,
		Converged:     converged,
		Iterations:    iter,
		Objectives:    objectives,
		Contributions: contrib,
	}
	for i, a := range sol.Alpha {
		if a > 0 {
			res.SupportVectors = append(res.SupportVectors, i)
			res.Coefficients = append(res.Coefficients, a*s.y[i])
		}
	}
	return res
}

// Model packages res with the cached support vectors for prediction and
// persistence. It fails with a ModelError when a kernel has no descriptor.
func (s *Session) Model(res *Result) (*Model, error) {
	kernels := s.cache.Kernels()
	descs := make([]kernel.Descriptor, len(kernels))
	for k, kern := range kernels {
		d, ok := kernel.Describe(kern)
		if !ok {
			return nil, scierrors.NewModelError("mkl.Session.Model", "kernel has no descriptor", scierrors.Newf("kernel %d", k))
		}
		descs[k] = d
	}

	sv := make([][]float64, len(res.SupportVectors))
	for i, idx := range res.SupportVectors {
		sv[i] = s.cache.Row(idx)
	}
	return &Model{
		Kernels:        descs,
		Beta:           append([]float64(nil), res.Beta...),
		SupportVectors: sv,
		Coefficients:   append([]float64(nil), res.Coefficients...),
		Bias:           res.Bias,
		NFeatures:      s.cache.Dim(),
		Converged:      res.Converged,
		Iterations:     res.Iterations,
		Config:         s.cfg.With(),
	}, nil
}

// Evaluator returns an evaluator for res that works with any kernel,
// including ones without a descriptor.
func (s *Session) Evaluator(res *Result) (*Evaluator, error) {
	var svX mat.Matrix
	if len(res.SupportVectors) > 0 {
		rows := mat.NewDense(len(res.SupportVectors), s.cache.Dim(), nil)
		for i, idx := range res.SupportVectors {
			rows.SetRow(i, s.cache.Row(idx))
		}
		svX = rows
	}
	return NewEvaluator(s.cache.Kernels(), res.Beta, svX, res.Coefficients, res.Bias,
		WithEvaluatorWorkers(s.cfg.Workers), WithFeatureDim(s.cache.Dim()))
}
