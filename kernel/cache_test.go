package kernel

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func randomMatrix(seed uint64, n, d int) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, n*d)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(n, d, data)
}

func TestNewCache_MatchesDirectEvaluation(t *testing.T) {
	X := randomMatrix(1, 15, 3)
	kernels := []Kernel{Gaussian{Width: 2}, Linear{}, Polynomial{Degree: 2, Coef0: 1}}

	for _, workers := range []int{1, 4} {
		c, err := NewCache(kernels, X, WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, 15, c.Len())
		assert.Equal(t, 3, c.NumKernels())
		assert.Equal(t, 3, c.Dim())

		for k, kern := range kernels {
			m := c.Matrix(k)
			for i := 0; i < 15; i++ {
				for j := 0; j < 15; j++ {
					want := kern.Eval(mat.Row(nil, i, X), mat.Row(nil, j, X))
					if j < i {
						want = kern.Eval(mat.Row(nil, j, X), mat.Row(nil, i, X))
					}
					assert.Equal(t, want, m.At(i, j))
				}
			}
		}
	}
}

func TestNewCache_Errors(t *testing.T) {
	X := randomMatrix(2, 10, 2)

	_, err := NewCache(nil, X)
	var de *scierrors.DimensionError
	require.True(t, scierrors.As(err, &de))
	assert.Equal(t, 2, de.Axis)

	_, err = NewCache([]Kernel{Linear{}}, nil)
	assert.True(t, scierrors.Is(err, scierrors.ErrEmptyData))

	_, err = NewCache([]Kernel{Linear{}, Linear{}}, X, WithMaxEntries(199))
	var ve *scierrors.ValidationError
	require.True(t, scierrors.As(err, &ve))
	assert.Equal(t, "max_cache_entries", ve.ParamName)

	_, err = NewCache([]Kernel{Linear{}, Linear{}}, X, WithMaxEntries(200))
	assert.NoError(t, err)
}

func TestCache_CombinedIsExactWeightedSum(t *testing.T) {
	X := randomMatrix(3, 12, 4)
	c, err := NewCache([]Kernel{Gaussian{Width: 0.5}, Gaussian{Width: 25}, Linear{}}, X)
	require.NoError(t, err)

	beta := []float64{0.2, 0.3, 0.5}
	comb, err := c.Combined(beta)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			var want float64
			for k := range beta {
				want += beta[k] * c.Matrix(k).At(i, j)
			}
			assert.Equal(t, want, comb.At(i, j))
		}
	}

	_, err = c.Combined([]float64{1})
	var de *scierrors.DimensionError
	require.True(t, scierrors.As(err, &de))
	assert.Equal(t, 3, de.Expected)
}

func TestCache_CombinedSingleKernelIsIdentity(t *testing.T) {
	X := randomMatrix(4, 8, 2)
	c, err := NewCache([]Kernel{Gaussian{Width: 1}}, X)
	require.NoError(t, err)

	comb, err := c.Combined([]float64{1})
	require.NoError(t, err)
	assert.True(t, mat.Equal(comb, c.Matrix(0)))
}

func TestCache_Contributions(t *testing.T) {
	X := randomMatrix(5, 6, 2)
	c, err := NewCache([]Kernel{Linear{}, Gaussian{Width: 1}}, X)
	require.NoError(t, err)

	coef := []float64{0.5, -0.5, 0, 1, -1, 0}
	s, err := c.Contributions(coef)
	require.NoError(t, err)

	for k := 0; k < 2; k++ {
		v := mat.NewVecDense(6, coef)
		var tmp mat.VecDense
		tmp.MulVec(c.Matrix(k), v)
		assert.InDelta(t, 0.5*mat.Dot(v, &tmp), s[k], 1e-12)
	}

	zero, err := c.Contributions(make([]float64, 6))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, zero)

	_, err = c.Contributions([]float64{1})
	assert.Error(t, err)
}

func TestCache_Cross(t *testing.T) {
	X := randomMatrix(6, 10, 3)
	Xt := randomMatrix(7, 4, 3)
	kernels := []Kernel{Gaussian{Width: 3}, Linear{}}
	c, err := NewCache(kernels, X, WithWorkers(2))
	require.NoError(t, err)

	all, err := c.CrossAll(Xt)
	require.NoError(t, err)
	require.Len(t, all, 2)

	for k, kern := range kernels {
		one, err := c.Cross(k, Xt)
		require.NoError(t, err)
		assert.True(t, mat.Equal(one, all[k]))
		r, cols := one.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 10, cols)
		assert.Equal(t, kern.Eval(mat.Row(nil, 2, Xt), mat.Row(nil, 7, X)), one.At(2, 7))
	}

	_, err = c.Cross(0, randomMatrix(8, 4, 2))
	var de *scierrors.DimensionError
	require.True(t, scierrors.As(err, &de))
	assert.Equal(t, 1, de.Axis)

	_, err = c.Cross(5, Xt)
	assert.Error(t, err)
}

func TestCache_RowIsCopy(t *testing.T) {
	X := randomMatrix(9, 3, 2)
	c, err := NewCache([]Kernel{Linear{}}, X)
	require.NoError(t, err)

	r := c.Row(1)
	r[0] = 1e9
	assert.Equal(t, X.At(1, 0), c.Row(1)[0])
	assert.Len(t, c.Kernels(), 1)
}

func BenchmarkNewCache(b *testing.B) {
	X := randomMatrix(10, 300, 10)
	kernels := []Kernel{Gaussian{Width: 0.5}, Gaussian{Width: 25}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewCache(kernels, X); err != nil {
			b.Fatal(err)
		}
	}
}
