package kernel

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scimkl/core/parallel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
)

// Cache holds one precomputed N×N Gram matrix per base kernel.
//
// Matrices are computed once in NewCache and never modified afterwards, so
// a Cache may be read concurrently. Matrix returns the cached value itself;
// callers must not write to it.
type Cache struct {
	kernels []Kernel
	rows    [][]float64
	dim     int
	mats    []*mat.SymDense
	workers int
}

type cacheConfig struct {
	maxEntries int
	workers    int
	logger     log.Logger
}

// CacheOption configures NewCache.
type CacheOption func(*cacheConfig)

// WithMaxEntries bounds K·N², the number of float64 cells the cache may hold.
// Zero means unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *cacheConfig) {
		c.maxEntries = n
	}
}

// WithWorkers bounds the goroutines used to fill matrices and cross rows.
// Zero or negative means runtime.NumCPU().
func WithWorkers(n int) CacheOption {
	return func(c *cacheConfig) {
		c.workers = n
	}
}

// WithCacheLogger sets the logger used for build reports.
func WithCacheLogger(l log.Logger) CacheOption {
	return func(c *cacheConfig) {
		c.logger = l
	}
}

// NewCache evaluates every kernel on every pair of rows of X.
//
// The memory bound is checked before any matrix is allocated.
func NewCache(kernels []Kernel, X mat.Matrix, opts ...CacheOption) (*Cache, error) {
	cfg := cacheConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("kernel.cache")
	}

	if len(kernels) == 0 {
		return nil, scierrors.NewDimensionError("kernel.NewCache", 1, 0, 2)
	}
	if X == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "kernel.NewCache")
	}
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "kernel.NewCache")
	}
	for i, k := range kernels {
		if k == nil {
			return nil, scierrors.NewValidationError("kernels", "nil kernel", i)
		}
	}

	entries := len(kernels) * n * n
	if cfg.maxEntries > 0 && entries > cfg.maxEntries {
		return nil, scierrors.NewValidationError("max_cache_entries",
			"K·N² kernel matrix entries exceed the configured bound", entries)
	}

	c := &Cache{
		kernels: kernels,
		rows:    copyRows(X),
		dim:     d,
		mats:    make([]*mat.SymDense, len(kernels)),
		workers: parallel.Workers(cfg.workers),
	}

	start := time.Now()
	for k := range kernels {
		c.mats[k] = c.gram(kernels[k])
	}

	cfg.logger.Debug("kernel matrices built",
		log.KernelCountKey, len(kernels),
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.CacheEntriesKey, entries,
		log.WorkersKey, c.workers,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return c, nil
}

// gram fills the upper triangle of one Gram matrix. Every cell belongs to
// exactly one row range, so workers never write the same element.
func (c *Cache) gram(k Kernel) *mat.SymDense {
	n := len(c.rows)
	g := mat.NewSymDense(n, nil)
	raw := g.RawSymmetric()
	parallel.ParallelizeN(n, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			xi := c.rows[i]
			off := i * raw.Stride
			for j := i; j < n; j++ {
				raw.Data[off+j] = k.Eval(xi, c.rows[j])
			}
		}
	})
	return g
}

func copyRows(X mat.Matrix) [][]float64 {
	n, _ := X.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}
	return rows
}

// Matrix returns the Gram matrix of kernel k.
func (c *Cache) Matrix(k int) mat.Symmetric {
	return c.mats[k]
}

// Len returns the number of cached training rows N.
func (c *Cache) Len() int { return len(c.rows) }

// NumKernels returns K.
func (c *Cache) NumKernels() int { return len(c.kernels) }

// Dim returns the feature arity D of the cached rows.
func (c *Cache) Dim() int { return c.dim }

// Kernels returns the base kernels in registration order.
func (c *Cache) Kernels() []Kernel {
	out := make([]Kernel, len(c.kernels))
	copy(out, c.kernels)
	return out
}

// Row returns a copy of training row i.
func (c *Cache) Row(i int) []float64 {
	out := make([]float64, c.dim)
	copy(out, c.rows[i])
	return out
}

// Combined returns Σ_k beta[k]·K_k as a new matrix.
//
// Each cell is accumulated in kernel registration order starting from zero,
// so the result is reproducible bit for bit.
func (c *Cache) Combined(beta []float64) (*mat.SymDense, error) {
	if len(beta) != len(c.kernels) {
		return nil, scierrors.NewDimensionError("Cache.Combined", len(c.kernels), len(beta), 2)
	}
	n := len(c.rows)
	out := mat.NewSymDense(n, nil)
	dst := out.RawSymmetric()

	srcs := make([][]float64, len(c.mats))
	for k, m := range c.mats {
		srcs[k] = m.RawSymmetric().Data
	}
	stride := c.mats[0].RawSymmetric().Stride

	parallel.ParallelizeN(n, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i; j < n; j++ {
				var s float64
				for k, src := range srcs {
					s += beta[k] * src[i*stride+j]
				}
				dst.Data[i*dst.Stride+j] = s
			}
		}
	})
	return out, nil
}

// Contributions returns S_k = ½ Σ_ij coef_i coef_j K_k[i,j] for every kernel,
// where coef_i = α_i y_i.
func (c *Cache) Contributions(coef []float64) ([]float64, error) {
	n := len(c.rows)
	if len(coef) != n {
		return nil, scierrors.NewDimensionError("Cache.Contributions", n, len(coef), 0)
	}
	var nz []int
	for i, v := range coef {
		if v != 0 {
			nz = append(nz, i)
		}
	}

	out := make([]float64, len(c.mats))
	parallel.ParallelizeN(len(c.mats), c.workers, func(start, end int) {
		for k := start; k < end; k++ {
			m := c.mats[k]
			var s float64
			for _, i := range nz {
				var row float64
				for _, j := range nz {
					row += coef[j] * m.At(i, j)
				}
				s += coef[i] * row
			}
			out[k] = 0.5 * s
		}
	})
	return out, nil
}

// Cross returns the M×N matrix k_k(Xtest_m, x_n) of kernel k.
func (c *Cache) Cross(k int, Xtest mat.Matrix) (*mat.Dense, error) {
	if k < 0 || k >= len(c.kernels) {
		return nil, scierrors.NewValidationError("kernel", "index out of range", k)
	}
	rows, err := c.testRows("Cache.Cross", Xtest)
	if err != nil {
		return nil, err
	}
	return c.cross(c.kernels[k], rows), nil
}

// CrossAll returns Cross for every kernel in registration order.
func (c *Cache) CrossAll(Xtest mat.Matrix) ([]*mat.Dense, error) {
	rows, err := c.testRows("Cache.CrossAll", Xtest)
	if err != nil {
		return nil, err
	}
	out := make([]*mat.Dense, len(c.kernels))
	for k, kern := range c.kernels {
		out[k] = c.cross(kern, rows)
	}
	return out, nil
}

func (c *Cache) testRows(op string, Xtest mat.Matrix) ([][]float64, error) {
	if Xtest == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	m, d := Xtest.Dims()
	if m == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	if d != c.dim {
		return nil, scierrors.NewDimensionError(op, c.dim, d, 1)
	}
	return copyRows(Xtest), nil
}

func (c *Cache) cross(k Kernel, test [][]float64) *mat.Dense {
	m, n := len(test), len(c.rows)
	out := mat.NewDense(m, n, nil)
	raw := out.RawMatrix()
	parallel.ParallelizeN(m, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+n]
			for j := range row {
				row[j] = k.Eval(test[i], c.rows[j])
			}
		}
	})
	return out
}
