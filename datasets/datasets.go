// Package datasets generates seeded synthetic data for kernel learning
// experiments. Nothing is read from disk: every dataset is a function of its
// Config, so the same seed always yields the same matrix.
package datasets

import (
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// Kind names a generator.
type Kind string

const (
	// KindXOR is four Gaussian clusters at (±s, ±s); diagonal clusters share a label.
	KindXOR Kind = "xor"
	// KindBlobs is one Gaussian cluster per class, centres on a circle of radius s.
	KindBlobs Kind = "blobs"
	// KindGaussian is a single unlabeled cluster at the origin (one-class training data).
	KindGaussian Kind = "gaussian"
)

// Config describes a synthetic dataset.
type Config struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Samples is the total number of rows.
	Samples int `json:"samples" yaml:"samples"`
	// Features is the dimension D. XOR and blobs use the first two
	// coordinates for the centres; extra dimensions are pure noise.
	Features int `json:"features" yaml:"features"`
	// Classes is used by KindBlobs.
	Classes int `json:"classes" yaml:"classes"`
	// Spread is the centre offset s.
	Spread float64 `json:"spread" yaml:"spread"`
	// Std is the per-coordinate standard deviation.
	Std  float64 `json:"std" yaml:"std"`
	Seed uint64  `json:"seed" yaml:"seed"`
}

// Dataset is a feature matrix with one label per row.
type Dataset struct {
	X *mat.Dense
	Y []float64
}

// Labels returns Y as an n×1 vector.
func (d *Dataset) Labels() *mat.VecDense {
	return mat.NewVecDense(len(d.Y), append([]float64(nil), d.Y...))
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Y) }

func (c Config) kind() Kind { return Kind(strings.ToLower(string(c.Kind))) }

// Validate checks c.
func (c Config) Validate() error {
	kind := c.kind()
	switch kind {
	case KindXOR, KindGaussian:
	case KindBlobs:
		if c.Classes < 2 {
			return scierrors.NewValidationError("classes", "blobs need at least two classes", c.Classes)
		}
	default:
		return scierrors.NewValidationError("kind", "unknown dataset kind", string(c.Kind))
	}
	if c.Samples <= 0 {
		return scierrors.NewValidationError("samples", "must be positive", c.Samples)
	}
	if c.Features < 0 || (c.Features == 1 && kind != KindGaussian) {
		return scierrors.NewValidationError("features", "clustered datasets need at least two features", c.Features)
	}
	if c.Std < 0 || math.IsNaN(c.Std) {
		return scierrors.NewValidationError("std", "must not be negative", c.Std)
	}
	return nil
}

// Generate builds the dataset described by c. Zero Features means 2 and
// zero Std means 1.
func (c Config) Generate() (*Dataset, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Features == 0 {
		c.Features = 2
	}
	if c.Std == 0 {
		c.Std = 1
	}
	switch c.kind() {
	case KindXOR:
		return XORClusters(c.Samples, c.Features, c.Spread, c.Std, c.Seed), nil
	case KindBlobs:
		return Blobs(c.Samples, c.Features, c.Classes, c.Spread, c.Std, c.Seed), nil
	default:
		return Gaussian(c.Samples, c.Features, c.Std, c.Seed), nil
	}
}

func noise(std float64, seed uint64) distuv.Normal {
	return distuv.Normal{Mu: 0, Sigma: std, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// XORClusters returns n points spread round-robin over four clusters centred
// at (s, s), (−s, −s), (s, −s) and (−s, s). The first two are labelled +1 and
// the other two −1, so no linear separator exists.
func XORClusters(n, d int, s, std float64, seed uint64) *Dataset {
	centres := [4][2]float64{{s, s}, {-s, -s}, {s, -s}, {-s, s}}
	labels := [4]float64{1, 1, -1, -1}

	dist := noise(std, seed)
	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		c := i % 4
		for j := 0; j < d; j++ {
			v := dist.Rand()
			if j < 2 {
				v += centres[c][j]
			}
			X.Set(i, j, v)
		}
		y[i] = labels[c]
	}
	return &Dataset{X: X, Y: y}
}

// Blobs returns n points round-robin over k clusters whose centres sit evenly
// on a circle of radius s. Labels are 0..k−1.
func Blobs(n, d, k int, s, std float64, seed uint64) *Dataset {
	dist := noise(std, seed)
	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		c := i % k
		angle := 2 * math.Pi * float64(c) / float64(k)
		centre := [2]float64{s * math.Cos(angle), s * math.Sin(angle)}
		for j := 0; j < d; j++ {
			v := dist.Rand()
			if j < 2 {
				v += centre[j]
			}
			X.Set(i, j, v)
		}
		y[i] = float64(c)
	}
	return &Dataset{X: X, Y: y}
}

// Gaussian returns n points from N(0, std²I). Every label is +1.
func Gaussian(n, d int, std float64, seed uint64) *Dataset {
	dist := noise(std, seed)
	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, dist.Rand())
		}
		y[i] = 1
	}
	return &Dataset{X: X, Y: y}
}

// Binary relabels classes as ±1: class equal to positive becomes +1.
func Binary(y []float64, positive float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		if v == positive {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
