package mkl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scimkl/kernel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func TestEvaluatorHandComputed(t *testing.T) {
	kernels := []kernel.Kernel{kernel.Linear{}, kernel.Gaussian{Width: 1}}
	svX := mat.NewDense(2, 1, []float64{0, 1})
	coef := []float64{1, -1}

	e, err := NewEvaluator(kernels, []float64{0.5, 0.5}, svX, coef, 0.25)
	require.NoError(t, err)

	// x = 1: linear 1·0 − 1·1 = −1, gaussian e^{-1} − 1
	got, err := e.Apply(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	want := 0.5*(-1) + 0.5*(0.36787944117144233-1) + 0.25
	assert.InDelta(t, want, got[0], 1e-12)

	assert.Equal(t, []float64{0.5, 0.5}, e.Beta())
	assert.Equal(t, 0.25, e.Bias())
	assert.Equal(t, 2, e.NumSupportVectors())
}

func TestEvaluatorIdempotent(t *testing.T) {
	ds := xor(40, 3, 31)
	test := xor(200, 3, 32)
	s, res := train(t, DefaultConfig().With(WithKernels(kernel.GaussianWidths(0.5, 5, 25)...)), ds)

	e, err := s.Evaluator(res)
	require.NoError(t, err)
	first, err := e.Apply(test.X)
	require.NoError(t, err)
	second, err := e.Apply(test.X)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// scores do not depend on the worker count
	mdl, err := s.Model(res)
	require.NoError(t, err)
	for _, workers := range []int{1, 3, 8} {
		ew, err := mdl.Evaluator(workers)
		require.NoError(t, err)
		got, err := ew.Apply(test.X)
		require.NoError(t, err)
		assert.Equal(t, first, got, "workers=%d", workers)
	}
}

func TestEvaluatorSkipsZeroWeights(t *testing.T) {
	svX := mat.NewDense(1, 1, []float64{2})
	nan := nanKernel{}
	e, err := NewEvaluator([]kernel.Kernel{nan, kernel.Linear{}}, []float64{0, 1}, svX, []float64{1}, 0)
	require.NoError(t, err)
	got, err := e.Apply(mat.NewDense(1, 1, []float64{3}))
	require.NoError(t, err)
	assert.Equal(t, 6.0, got[0])
}

type nanKernel struct{}

func (nanKernel) Eval(_, _ []float64) float64 { return math.NaN() }

func TestEvaluatorNoSupportVectors(t *testing.T) {
	e, err := NewEvaluator([]kernel.Kernel{kernel.Linear{}}, []float64{1}, nil, nil, -0.5, WithFeatureDim(3))
	require.NoError(t, err)
	got, err := e.Apply(mat.NewDense(2, 3, nil))
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, -0.5}, got)

	_, err = e.Apply(mat.NewDense(2, 2, nil))
	var de *scierrors.DimensionError
	assert.True(t, scierrors.As(err, &de))
}

func TestNewEvaluatorErrors(t *testing.T) {
	svX := mat.NewDense(2, 2, nil)
	lin := []kernel.Kernel{kernel.Linear{}}

	tests := []struct {
		name string
		run  func() error
	}{
		{"no kernels", func() error {
			_, err := NewEvaluator(nil, nil, svX, []float64{1, 1}, 0)
			return err
		}},
		{"beta length", func() error {
			_, err := NewEvaluator(lin, []float64{0.5, 0.5}, svX, []float64{1, 1}, 0)
			return err
		}},
		{"negative beta", func() error {
			_, err := NewEvaluator(lin, []float64{-1}, svX, []float64{1, 1}, 0)
			return err
		}},
		{"coef length", func() error {
			_, err := NewEvaluator(lin, []float64{1}, svX, []float64{1}, 0)
			return err
		}},
		{"coef without vectors", func() error {
			_, err := NewEvaluator(lin, []float64{1}, nil, []float64{1}, 0)
			return err
		}},
		{"feature dim mismatch", func() error {
			_, err := NewEvaluator(lin, []float64{1}, svX, []float64{1, 1}, 0, WithFeatureDim(3))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.run())
		})
	}

	e, err := NewEvaluator(lin, []float64{1}, svX, []float64{1, 1}, 0)
	require.NoError(t, err)
	_, err = e.Apply(nil)
	assert.True(t, scierrors.Is(err, scierrors.ErrEmptyData))
}

func TestSign(t *testing.T) {
	assert.Equal(t, []float64{1, -1, 1, -1}, Sign([]float64{0, -1e-12, 3, -2}))
}

func BenchmarkEvaluatorApply(b *testing.B) {
	ds := xor(200, 3, 1)
	cfg := DefaultConfig().With(WithKernels(kernel.GaussianWidths(0.5, 5, 25)...))
	s, err := NewSession(cfg, ds.X, ds.Y)
	require.NoError(b, err)
	res, err := s.Train()
	require.NoError(b, err)
	e, err := s.Evaluator(res)
	require.NoError(b, err)
	test := xor(1000, 3, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Apply(test.X)
	}
}
