// Package kernel provides base kernel functions and the precomputed
// Gram matrix cache used by multiple kernel learning.
//
// A base kernel is any positive semi-definite similarity k(x, y) over
// feature vectors of the same arity. Kernels are identified by their
// registration index k ∈ [0, K) in every downstream structure.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Kernel evaluates a similarity between two feature vectors of equal length.
// Implementations must be safe for concurrent use.
type Kernel interface {
	Eval(x, y []float64) float64
}

// Gaussian is exp(-‖x−y‖²/Width).
type Gaussian struct {
	Width float64
}

// Eval implements Kernel.
func (g Gaussian) Eval(x, y []float64) float64 {
	var d2 float64
	for i, xi := range x {
		d := xi - y[i]
		d2 += d * d
	}
	return math.Exp(-d2 / g.Width)
}

// Linear is the inner product x·y.
type Linear struct{}

// Eval implements Kernel.
func (Linear) Eval(x, y []float64) float64 {
	return floats.Dot(x, y)
}

// Polynomial is (x·y + Coef0)^Degree.
type Polynomial struct {
	Degree int
	Coef0  float64
}

// Eval implements Kernel.
func (p Polynomial) Eval(x, y []float64) float64 {
	base := floats.Dot(x, y) + p.Coef0
	out := 1.0
	for i := 0; i < p.Degree; i++ {
		out *= base
	}
	return out
}

// Sigmoid is tanh(Scale·x·y + Coef0). Not PSD for every parameter choice.
type Sigmoid struct {
	Scale float64
	Coef0 float64
}

// Eval implements Kernel.
func (s Sigmoid) Eval(x, y []float64) float64 {
	return math.Tanh(s.Scale*floats.Dot(x, y) + s.Coef0)
}
