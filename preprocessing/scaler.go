// Package preprocessing rescales feature columns before kernel evaluation.
//
// Gaussian kernel widths are absolute, so features on very different scales
// make one width fit one column and miss the others. Fit the scaler on the
// training matrix and apply the same transform to every prediction input.
package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// 分散がこれ未満の列は定数とみなす
const constantTolerance = 1e-8

// Scaler is a fitted column transform.
type Scaler interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
	FitTransform(X mat.Matrix) (*mat.Dense, error)
	InverseTransform(X mat.Matrix) (*mat.Dense, error)
	GetParams() map[string]interface{}
}

// Scaling names a scaler in configuration files.
type Scaling string

const (
	ScalingNone     Scaling = "none"
	ScalingStandard Scaling = "standard"
	ScalingMinMax   Scaling = "minmax"
)

// New returns the scaler for s, or nil for ScalingNone and the empty value.
func New(s Scaling) (Scaler, error) {
	switch Scaling(strings.ToLower(string(s))) {
	case "", ScalingNone:
		return nil, nil
	case ScalingStandard:
		return NewStandardScaler(true, true), nil
	case ScalingMinMax:
		return NewMinMaxScaler(0, 1), nil
	default:
		return nil, scierrors.NewValidationError("scaling", "must be none, standard or minmax", string(s))
	}
}

// StandardScaler centres each column and divides by its population
// standard deviation.
type StandardScaler struct {
	state *coremodel.StateManager

	Mean  []float64
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler は平均除去と分散正規化を個別に切り替えられる
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    coremodel.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit computes the column statistics of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c, err := checkInput("StandardScaler.Fit", X)
	if err != nil {
		return err
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.MeanVariance(col, nil)
		if r > 1 {
			// 不偏分散から母分散へ
			variance *= float64(r-1) / float64(r)
		} else {
			variance = 0
		}
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd && variance >= constantTolerance*constantTolerance {
			s.Scale[j] = math.Sqrt(variance)
		}
	}

	s.state.SetFitted(c, r, 0)
	return nil
}

// Transform returns (X - Mean) / Scale.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check("Transform", X); err != nil {
		return nil, err
	}
	return apply(X, func(j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}), nil
}

// FitTransform fits on X and transforms it.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check("InverseTransform", X); err != nil {
		return nil, err
	}
	return apply(X, func(j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}), nil
}

// GetParams returns the constructor arguments.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	d, _, _ := s.state.GetDimensions()
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, d)
}

func (s *StandardScaler) check(method string, X mat.Matrix) error {
	if err := s.state.RequireFitted("StandardScaler", method); err != nil {
		return err
	}
	_, c, err := checkInput("StandardScaler."+method, X)
	if err != nil {
		return err
	}
	return s.state.RequireFeatures("StandardScaler."+method, c)
}

// MinMaxScaler maps each column linearly onto [Low, High].
type MinMaxScaler struct {
	state *coremodel.StateManager

	DataMin []float64
	// Range は max - min。定数列では 1
	Range []float64

	Low, High float64
}

// NewMinMaxScaler returns a scaler onto [low, high].
func NewMinMaxScaler(low, high float64) *MinMaxScaler {
	return &MinMaxScaler{state: coremodel.NewStateManager(), Low: low, High: high}
}

// Fit records the per-column minimum and range of X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if !(m.Low < m.High) {
		return scierrors.NewValidationError("feature_range", "low must be below high", [2]float64{m.Low, m.High})
	}
	r, c, err := checkInput("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}

	m.DataMin = make([]float64, c)
	m.Range = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := floats.Min(col), floats.Max(col)
		m.DataMin[j] = lo
		m.Range[j] = hi - lo
		if m.Range[j] < constantTolerance {
			m.Range[j] = 1
		}
	}

	m.state.SetFitted(c, r, 0)
	return nil
}

// Transform maps X onto the fitted range.
func (m *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.check("Transform", X); err != nil {
		return nil, err
	}
	width := m.High - m.Low
	return apply(X, func(j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Range[j]*width + m.Low
	}), nil
}

// FitTransform fits on X and transforms it.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.check("InverseTransform", X); err != nil {
		return nil, err
	}
	width := m.High - m.Low
	return apply(X, func(j int, v float64) float64 {
		return (v-m.Low)/width*m.Range[j] + m.DataMin[j]
	}), nil
}

// GetParams returns the target range.
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": [2]float64{m.Low, m.High},
	}
}

func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g])", m.Low, m.High)
}

func (m *MinMaxScaler) check(method string, X mat.Matrix) error {
	if err := m.state.RequireFitted("MinMaxScaler", method); err != nil {
		return err
	}
	_, c, err := checkInput("MinMaxScaler."+method, X)
	if err != nil {
		return err
	}
	return m.state.RequireFeatures("MinMaxScaler."+method, c)
}

func checkInput(op string, X mat.Matrix) (int, int, error) {
	if X == nil {
		return 0, 0, scierrors.NewModelError(op, "empty data", scierrors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, scierrors.NewModelError(op, "empty data", scierrors.ErrEmptyData)
	}
	return r, c, nil
}

func apply(X mat.Matrix, f func(j int, v float64) float64) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, _ float64) float64 {
		return f(j, X.At(i, j))
	}, out)
	return out
}
