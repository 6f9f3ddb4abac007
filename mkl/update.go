package mkl

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// weightUpdater computes the next β from the current one.
//
// s holds S_k = ½ αᵀ Y K_k Y α of the latest dual solution and linear is the
// part of its dual objective that does not depend on β (Σα_i for C-SVC).
type weightUpdater interface {
	update(beta, s []float64, linear float64) ([]float64, error)
}

func newUpdater(cfg Config) weightUpdater {
	switch cfg.updateRule() {
	case UpdateNewton:
		return &newtonUpdate{p: cfg.Norm, maxSteps: 100}
	case UpdateLP:
		return &lpUpdate{}
	default:
		return analyticUpdate{p: cfg.Norm}
	}
}

// uniformBeta returns β_k = K^{-1/p}, the uniform point of the unit p-sphere.
func uniformBeta(k int, p float64) []float64 {
	beta := make([]float64, k)
	v := 1 / float64(k)
	if p != 1 {
		v = math.Pow(float64(k), -1/p)
	}
	for i := range beta {
		beta[i] = v
	}
	return beta
}

// pNormalize scales v to ‖v‖_p = 1 in place. It reports false when v is zero
// or not finite, leaving v untouched.
func pNormalize(v []float64, p float64) bool {
	var n float64
	if p == 1 {
		n = floats.Sum(v)
	} else {
		n = floats.Norm(v, p)
	}
	if !(n > 0) || math.IsInf(n, 0) {
		return false
	}
	floats.Scale(1/n, v)
	return true
}

// analyticUpdate is the closed form of the weight subproblem
//
//	min_β Σ_k ‖w_k‖²/β_k  s.t. ‖β‖_p = 1,
//
// with ‖w_k‖² = β_k²·2S_k, giving β_k ∝ ‖w_k‖^{2/(p+1)}. For p = 1 the new
// weight is proportional to ‖w_k‖.
type analyticUpdate struct {
	p float64
}

func (u analyticUpdate) update(beta, s []float64, _ float64) ([]float64, error) {
	next := make([]float64, len(beta))
	for k := range beta {
		w2 := beta[k] * beta[k] * 2 * s[k]
		if w2 <= 0 {
			continue
		}
		if u.p == 1 {
			next[k] = math.Sqrt(w2)
		} else {
			next[k] = math.Pow(w2, 1/(u.p+1))
		}
	}
	if !pNormalize(next, u.p) {
		return append([]float64(nil), beta...), nil
	}
	return next, nil
}

// newtonUpdate solves the same subproblem as analyticUpdate by damped Newton
// iterations on its KKT system
//
//	−c_k/β_k² + λ·p·β_k^{p−1} = 0,   Σ_k β_k^p = 1,
//
// with c_k = β_k²·S_k. Kernels with c_k = 0 drop to zero weight.
type newtonUpdate struct {
	p        float64
	maxSteps int
}

func (u *newtonUpdate) update(beta, s []float64, _ float64) ([]float64, error) {
	var active []int
	var c, x []float64
	for k := range beta {
		ck := beta[k] * beta[k] * s[k]
		if ck > 0 && beta[k] > 0 {
			active = append(active, k)
			c = append(c, ck)
			x = append(x, beta[k])
		}
	}
	if len(active) == 0 {
		return append([]float64(nil), beta...), nil
	}
	pNormalize(x, u.p)

	p := u.p
	m := len(x)
	lambda := 0.0
	for i := range x {
		lambda += c[i] / (p * math.Pow(x[i], p+1))
	}
	lambda /= float64(m)

	residual := func(x []float64, lambda float64, out []float64) float64 {
		var h float64
		for i := range x {
			out[i] = -c[i]/(x[i]*x[i]) + lambda*p*math.Pow(x[i], p-1)
			h += math.Pow(x[i], p)
		}
		out[m] = h - 1
		return floats.Norm(out, 2)
	}

	tol := 1e-10 * (1 + floats.Max(c))
	F := make([]float64, m+1)
	trialF := make([]float64, m+1)
	trialX := make([]float64, m)
	J := mat.NewDense(m+1, m+1, nil)
	var step mat.VecDense

	norm := residual(x, lambda, F)
	steps := 0
	for ; steps < u.maxSteps && norm > tol; steps++ {
		J.Zero()
		for i := range x {
			J.Set(i, i, 2*c[i]/(x[i]*x[i]*x[i])+lambda*p*(p-1)*math.Pow(x[i], p-2))
			a := p * math.Pow(x[i], p-1)
			J.Set(i, m, a)
			J.Set(m, i, a)
		}
		rhs := mat.NewVecDense(m+1, nil)
		for i, v := range F {
			rhs.SetVec(i, -v)
		}
		if err := step.SolveVec(J, rhs); err != nil {
			return nil, scierrors.NewSolverDivergedError("newton", steps, "singular KKT system", err)
		}

		// fraction to the boundary keeps every weight positive
		t := 1.0
		for i := range x {
			if d := step.AtVec(i); d < 0 {
				t = math.Min(t, -0.995*x[i]/d)
			}
		}
		// backtrack on the residual norm
		accepted := false
		for halvings := 0; halvings < 40; halvings++ {
			for i := range x {
				trialX[i] = x[i] + t*step.AtVec(i)
			}
			trialNorm := residual(trialX, lambda+t*step.AtVec(m), trialF)
			if trialNorm <= (1-1e-4*t)*norm {
				copy(x, trialX)
				lambda += t * step.AtVec(m)
				copy(F, trialF)
				norm = trialNorm
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			break
		}
	}
	if norm > math.Sqrt(tol) {
		return nil, scierrors.NewSolverDivergedError("newton", steps,
			"weight subproblem did not reach the KKT tolerance", nil)
	}

	next := make([]float64, len(beta))
	for i, k := range active {
		next[k] = math.Max(x[i], 0)
	}
	if !pNormalize(next, u.p) {
		return append([]float64(nil), beta...), nil
	}
	return next, nil
}

// lpUpdate is semi-infinite programming column generation for p = 1.
//
// Every call adds the cut γ + Σ_k β_k S_k^t ≥ linear^t for the latest dual
// solution and solves the restricted master problem
//
//	min γ  s.t. all cuts, Σβ = 1, β ≥ 0
//
// with the gonum simplex. γ is split into γ⁺ − γ⁻ so the standard form keeps
// every variable non-negative; one slack per cut turns the cuts into equalities.
type lpUpdate struct {
	cuts [][]float64
	rhs  []float64
}

func (u *lpUpdate) update(beta, s []float64, linear float64) ([]float64, error) {
	u.cuts = append(u.cuts, append([]float64(nil), s...))
	u.rhs = append(u.rhs, linear)

	K := len(beta)
	T := len(u.cuts)
	nVar := K + 2 + T

	c := make([]float64, nVar)
	c[K] = 1
	c[K+1] = -1

	A := mat.NewDense(T+1, nVar, nil)
	b := make([]float64, T+1)
	for t, cut := range u.cuts {
		for k, v := range cut {
			A.Set(t, k, v)
		}
		A.Set(t, K, 1)
		A.Set(t, K+1, -1)
		A.Set(t, K+2+t, -1)
		b[t] = u.rhs[t]
	}
	for k := 0; k < K; k++ {
		A.Set(T, k, 1)
	}
	b[T] = 1

	_, x, err := lp.Simplex(c, A, b, 1e-10, nil)
	if err != nil {
		return nil, scierrors.NewSolverDivergedError("lp", T, "restricted master problem failed", err)
	}

	next := make([]float64, K)
	for k := range next {
		next[k] = math.Max(x[k], 0)
	}
	if !pNormalize(next, 1) {
		return nil, scierrors.NewSolverDivergedError("lp", T, "master problem returned zero weights", nil)
	}
	return next, nil
}
