package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// qp is the generic box-constrained dual
//
//	min ½ αᵀQα + pᵀα  s.t. yᵀα = Δ, 0 ≤ α_i ≤ ub
//
// with y_i ∈ {−1, +1}. Δ is fixed by the feasible starting α.
type qp struct {
	n     int
	q     []float64 // n×n row-major
	qd    []float64
	p     []float64
	y     []float64
	alpha []float64
	g     []float64
	ub    float64
	eps   float64
}

// fullRows expands K into a dense row-major buffer, multiplying entry (i, j)
// by sign(i)·sign(j) when signs is non-nil.
func fullRows(op string, K mat.Symmetric, signs []float64) ([]float64, []float64, error) {
	n := K.SymmetricDim()
	q := make([]float64, n*n)

	if sd, ok := K.(*mat.SymDense); ok {
		raw := sd.RawSymmetric()
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := raw.Data[i*raw.Stride+j]
				q[i*n+j] = v
				q[j*n+i] = v
			}
		}
	} else {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := K.At(i, j)
				q[i*n+j] = v
				q[j*n+i] = v
			}
		}
	}

	qd := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := q[i*n+j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, scierrors.NewSolverDivergedError(op, 0, "non-finite kernel entry", nil)
			}
			if signs != nil {
				q[i*n+j] = signs[i] * signs[j] * v
			}
		}
		qd[i] = q[i*n+i]
	}
	return q, qd, nil
}

func (s *qp) row(i int) []float64 { return s.q[i*s.n : (i+1)*s.n] }

func (s *qp) isUpper(i int) bool { return s.alpha[i] >= s.ub }
func (s *qp) isLower(i int) bool { return s.alpha[i] <= 0 }

// solve runs SMO until the maximal violating pair is within eps or maxIter
// pair updates have been made.
func (s *qp) solve(op string, maxIter int) (int, error) {
	s.g = make([]float64, s.n)
	copy(s.g, s.p)
	for i := 0; i < s.n; i++ {
		if s.isLower(i) {
			continue
		}
		ai := s.alpha[i]
		for j, qij := range s.row(i) {
			s.g[j] += ai * qij
		}
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, done := s.selectWorkingSet()
		if done {
			return iter, nil
		}
		if !s.update(i, j) {
			return iter, scierrors.NewSolverDivergedError(op, iter, "non-finite gradient", nil)
		}
	}

	if _, _, done := s.selectWorkingSet(); done {
		return iter, nil
	}
	return iter, scierrors.NewSolverDivergedError(op, iter, "iteration limit reached before KKT tolerance", nil)
}

// selectWorkingSet picks i maximising −y_i∇_i over I_up and j minimising the
// second order decrease over I_low.
func (s *qp) selectWorkingSet() (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	gmaxIdx, gminIdx := -1, -1
	objDiffMin := math.Inf(1)

	for t := 0; t < s.n; t++ {
		if s.y[t] > 0 {
			if !s.isUpper(t) && -s.g[t] >= gmax {
				gmax = -s.g[t]
				gmaxIdx = t
			}
		} else if !s.isLower(t) && s.g[t] >= gmax {
			gmax = s.g[t]
			gmaxIdx = t
		}
	}

	i := gmaxIdx
	var qi []float64
	if i != -1 {
		qi = s.row(i)
	}

	for j := 0; j < s.n; j++ {
		var gradDiff, quad float64
		if s.y[j] > 0 {
			if s.isLower(j) {
				continue
			}
			gradDiff = gmax + s.g[j]
			if s.g[j] >= gmax2 {
				gmax2 = s.g[j]
			}
			if gradDiff <= 0 {
				continue
			}
			quad = s.qd[i] + s.qd[j] - 2*s.y[i]*qi[j]
		} else {
			if s.isUpper(j) {
				continue
			}
			gradDiff = gmax - s.g[j]
			if -s.g[j] >= gmax2 {
				gmax2 = -s.g[j]
			}
			if gradDiff <= 0 {
				continue
			}
			quad = s.qd[i] + s.qd[j] + 2*s.y[i]*qi[j]
		}
		if quad <= 0 {
			quad = tau
		}
		if objDiff := -(gradDiff * gradDiff) / quad; objDiff <= objDiffMin {
			gminIdx = j
			objDiffMin = objDiff
		}
	}

	if gmax+gmax2 < s.eps || gminIdx == -1 {
		return 0, 0, true
	}
	return gmaxIdx, gminIdx, false
}

// update solves the two-variable subproblem analytically and refreshes the
// gradient. It reports false when the step is not finite.
func (s *qp) update(i, j int) bool {
	qi, qj := s.row(i), s.row(j)
	c := s.ub
	oldI, oldJ := s.alpha[i], s.alpha[j]

	if s.y[i] != s.y[j] {
		quad := s.qd[i] + s.qd[j] + 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.g[i] - s.g[j]) / quad
		diff := s.alpha[i] - s.alpha[j]
		s.alpha[i] += delta
		s.alpha[j] += delta

		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = diff
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = -diff
		}
		if diff > 0 {
			if s.alpha[i] > c {
				s.alpha[i] = c
				s.alpha[j] = c - diff
			}
		} else if s.alpha[j] > c {
			s.alpha[j] = c
			s.alpha[i] = c + diff
		}
	} else {
		quad := s.qd[i] + s.qd[j] - 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (s.g[i] - s.g[j]) / quad
		sum := s.alpha[i] + s.alpha[j]
		s.alpha[i] -= delta
		s.alpha[j] += delta

		if sum > c {
			if s.alpha[i] > c {
				s.alpha[i] = c
				s.alpha[j] = sum - c
			}
		} else if s.alpha[j] < 0 {
			s.alpha[j] = 0
			s.alpha[i] = sum
		}
		if sum > c {
			if s.alpha[j] > c {
				s.alpha[j] = c
				s.alpha[i] = sum - c
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = sum
		}
	}

	dI := s.alpha[i] - oldI
	dJ := s.alpha[j] - oldJ
	if math.IsNaN(dI) || math.IsNaN(dJ) || math.IsInf(dI, 0) || math.IsInf(dJ, 0) {
		return false
	}
	for k := 0; k < s.n; k++ {
		s.g[k] += qi[k]*dI + qj[k]*dJ
	}
	return true
}

// rho is the offset of the decision function, f(x) = ... − rho.
// Free variables give the mean of y_i∇_i; otherwise the midpoint of the
// feasible interval is used.
func (s *qp) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	nFree := 0

	for i := 0; i < s.n; i++ {
		yg := s.y[i] * s.g[i]
		switch {
		case s.isLower(i):
			if s.y[i] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.isUpper(i):
			if s.y[i] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}

	switch {
	case nFree > 0:
		return sumFree / float64(nFree)
	case math.IsInf(ub, 1) && math.IsInf(lb, -1):
		return 0
	case math.IsInf(ub, 1):
		return lb
	case math.IsInf(lb, -1):
		return ub
	default:
		return (ub + lb) / 2
	}
}

// objective returns ½ αᵀQα + pᵀα.
func (s *qp) objective() float64 {
	var v float64
	for i := 0; i < s.n; i++ {
		v += s.alpha[i] * (s.g[i] + s.p[i])
	}
	return v / 2
}
