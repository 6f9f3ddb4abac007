package mkl

import (
	"math"
	"sort"
)

// State is a phase of the alternating optimization.
type State int

const (
	StateIdle State = iota
	StateInit
	StateSolveSVM
	StateUpdateWeights
	StateCheckConvergence
	StateConverged
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInit:
		return "init"
	case StateSolveSVM:
		return "solve_svm"
	case StateUpdateWeights:
		return "update_weights"
	case StateCheckConvergence:
		return "check_convergence"
	case StateConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// Result is the outcome of one training run.
type Result struct {
	// Beta is the kernel weight vector, ‖β‖_p = 1.
	Beta []float64
	// Alpha holds all N dual variables of the final solve.
	Alpha []float64
	// Bias is b of the decision function.
	Bias float64
	// SupportVectors are the training indices with α_i > 0, ascending.
	SupportVectors []int
	// Coefficients are α_i·y_i for each entry of SupportVectors.
	Coefficients []float64
	// Converged is false when MaxIter was hit first. Partial weights remain usable.
	Converged bool
	// Iterations counts outer weight updates.
	Iterations int
	// Objectives holds the dual objective of every solve, in order.
	Objectives []float64
	// Contributions holds S_k = ½ αᵀ Y K_k Y α of the final α.
	Contributions []float64
}

// KernelScores returns β_k·√(2·S_k), the norm of each kernel's share of the
// decision function.
func (r *Result) KernelScores() []float64 {
	out := make([]float64, len(r.Beta))
	for k, b := range r.Beta {
		if k < len(r.Contributions) && r.Contributions[k] > 0 {
			out[k] = b * math.Sqrt(2*r.Contributions[k])
		}
	}
	return out
}

// Ranking returns kernel indices ordered by decreasing KernelScores.
// Equal scores keep registration order.
func (r *Result) Ranking() []int {
	scores := r.KernelScores()
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

// DominantKernel returns the first entry of Ranking, or -1 without kernels.
func (r *Result) DominantKernel() int {
	rank := r.Ranking()
	if len(rank) == 0 {
		return -1
	}
	return rank[0]
}

// Objective returns the last dual objective.
func (r *Result) Objective() float64 {
	if len(r.Objectives) == 0 {
		return math.NaN()
	}
	return r.Objectives[len(r.Objectives)-1]
}
