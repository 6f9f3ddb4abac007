package errors

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{"rows", 0, "scimkl: Cache.Cross: dimension mismatch on axis 0 (rows). Expected 3, got 4"},
		{"features", 1, "scimkl: Cache.Cross: dimension mismatch on axis 1 (features). Expected 3, got 4"},
		{"kernels", 2, "scimkl: Cache.Cross: dimension mismatch on axis 2 (kernels). Expected 3, got 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("Cache.Cross", 3, 4, tt.axis)
			assert.EqualError(t, err, tt.want)

			var dimErr *DimensionError
			require.True(t, As(err, &dimErr))
			assert.Equal(t, tt.axis, dimErr.Axis)

			// スタックトレースが付与されていること
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
		})
	}
}

func TestNewInvalidWeightConstraintError(t *testing.T) {
	err := NewInvalidWeightConstraintError("norm", "must be >= 1", -1.0)
	assert.EqualError(t, err, "scimkl: invalid weight constraint 'norm': must be >= 1 (got: -1)")

	var wcErr *InvalidWeightConstraintError
	require.True(t, As(err, &wcErr))
	assert.Equal(t, "norm", wcErr.ParamName)
}

func TestNewSolverDivergedError(t *testing.T) {
	cause := fmt.Errorf("non-finite gradient")
	err := NewSolverDivergedError("smo", 120, "numerical failure", cause)

	assert.Equal(t, "scimkl: smo diverged after 120 iterations: numerical failure: non-finite gradient", err.Error())
	assert.True(t, Is(err, cause))

	var divErr *SolverDivergedError
	require.True(t, As(err, &divErr))
	assert.Equal(t, 120, divErr.Iterations)

	bare := NewSolverDivergedError("lp", 3, "infeasible", nil)
	assert.Equal(t, "scimkl: lp diverged after 3 iterations: infeasible", bare.Error())
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("MKLClassifier", "Predict")
	assert.EqualError(t, err, "scimkl: MKLClassifier: this model is not fitted yet. Call Fit() before using Predict()")

	var nfErr *NotFittedError
	assert.True(t, As(err, &nfErr))
}

func TestNewModelError(t *testing.T) {
	withCause := NewModelError("Fit", "empty data", ErrEmptyData)
	assert.EqualError(t, withCause, "scimkl: Fit: empty data: empty data")
	assert.True(t, Is(withCause, ErrEmptyData))

	noCause := NewModelError("Predict", "not fitted", nil)
	assert.EqualError(t, noCause, "scimkl: Predict: not fitted")
}

func TestConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("MKL", 100, 0.02, "")
	assert.Equal(t, "MKL failed to converge after 100 iterations (delta=0.02). Consider increasing max_iter or epsilon.", warn.Error())

	withMsg := NewConvergenceWarning("MKL", 5, 0.5, "weights oscillate")
	assert.True(t, strings.HasSuffix(withMsg.Error(), ": weights oscillate"))
}

func TestWarn_RoutesToHandler(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []error
	)
	SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, w)
	})
	defer SetWarningHandler(func(error) {})

	Warn(NewConvergenceWarning("MKL", 1, 1, ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	var cw *ConvergenceWarning
	assert.True(t, As(seen[0], &cw))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "NewCache", 10)
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in NewCache: expected 10 rows")
}

func TestGetSafeDetails(t *testing.T) {
	err := NewDimensionError("Evaluator.Apply", 2, 3, 1)
	details := GetSafeDetails(err)
	require.NotEmpty(t, details)
	assert.Contains(t, details[0], "errors_test.go")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("beta", []float64{0.5, 0.5}, 1))
	assert.Error(t, CheckNumericalStability("beta", []float64{0.5, math.NaN()}, 1))
	assert.Error(t, CheckScalar("objective", math.Inf(1), 3))

	var instab *NumericalInstabilityError
	err := CheckScalar("objective", math.Inf(-1), 7)
	require.True(t, As(err, &instab))
	assert.Equal(t, 7, instab.Iteration)
}

func TestSafeDivideAndClip(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(1, 1e-12))
	assert.Equal(t, 2.0, SafeDivide(4, 2))
	assert.Equal(t, 1.0, ClipValue(3, 0, 1))
	assert.Equal(t, 0.0, ClipValue(-3, 0, 1))
}
