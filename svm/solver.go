// Package svm solves single-kernel SVM duals over a precomputed kernel matrix.
//
// The optimizer is sequential minimal optimization with second order working
// set selection (Fan, Chen and Lin, JMLR 2005), the scheme used by LIBSVM.
// Shrinking is not implemented: the multiple kernel learning loop calls the
// solver on matrices that change between calls, so every solve starts from a
// full active set.
package svm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scimkl/pkg/log"
)

// Solver solves the dual of a single-kernel SVM.
//
// K is the N×N kernel matrix, y holds N labels and C is the box constraint.
// Implementations must not retain K after Solve returns.
type Solver interface {
	Solve(K mat.Symmetric, y []float64, C float64) (*Solution, error)
}

// Solution is the optimum of one dual problem.
type Solution struct {
	// Alpha holds the N dual variables.
	Alpha []float64
	// Bias is b in f(x) = Σ α_i y_i k(x_i, x) + b.
	Bias float64
	// Objective is the dual value in maximisation form.
	Objective float64
	// Iterations is the number of SMO pair updates.
	Iterations int
}

// SupportVectors returns the indices with α_i > 0.
func (s *Solution) SupportVectors() []int {
	var idx []int
	for i, a := range s.Alpha {
		if a > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

const (
	defaultTolerance = 1e-3
	tau              = 1e-12
)

type config struct {
	tol     float64
	maxIter int
	logger  log.Logger
}

// Option configures a solver.
type Option func(*config)

// WithTolerance sets the KKT violation tolerance (LIBSVM's eps).
func WithTolerance(tol float64) Option {
	return func(c *config) {
		c.tol = tol
	}
}

// WithMaxIter caps the number of pair updates. Zero selects
// max(10_000_000, 100·N).
func WithMaxIter(n int) Option {
	return func(c *config) {
		c.maxIter = n
	}
}

// WithLogger sets the logger used for per-solve reports.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(name string, opts []Option) config {
	c := config{tol: defaultTolerance}
	for _, opt := range opts {
		opt(&c)
	}
	if c.tol <= 0 {
		c.tol = defaultTolerance
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName(name)
	}
	return c
}

func (c config) iterationCap(n int) int {
	if c.maxIter > 0 {
		return c.maxIter
	}
	if limit := 100 * n; limit > 10_000_000 {
		return limit
	}
	return 10_000_000
}
