package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	s := NewStandardScaler(true, true)
	Z, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.5, 5}, s.Mean, 1e-12)
	// 母標準偏差 sqrt(1.25)。定数列は 1
	assert.InDelta(t, 1.118033988749895, s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	col := mat.Col(nil, 0, Z)
	assert.InDelta(t, 0, col[0]+col[1]+col[2]+col[3], 1e-12)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, Z.At(i, 1))
	}

	back, err := s.InverseTransform(Z)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	assert.Contains(t, s.String(), "n_features=2")
	assert.Equal(t, map[string]interface{}{"with_mean": true, "with_std": true}, s.GetParams())
}

func TestStandardScalerFlags(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 6})

	s := NewStandardScaler(false, true)
	require.NoError(t, s.Fit(X))
	assert.Equal(t, []float64{0}, s.Mean)
	assert.InDelta(t, 2, s.Scale[0], 1e-12)

	s = NewStandardScaler(true, false)
	Z, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 2}, mat.Col(nil, 0, Z))
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		-1, 7,
		0, 7,
		3, 7,
	})

	m := NewMinMaxScaler(-1, 1)
	Z, err := m.FitTransform(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, -0.5, 1}, mat.Col(nil, 0, Z), 1e-12)
	assert.InDeltaSlice(t, []float64{-1, -1, -1}, mat.Col(nil, 1, Z), 1e-12)

	back, err := m.InverseTransform(Z)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	_, err = NewMinMaxScaler(1, 1).FitTransform(X)
	var ve *scierrors.ValidationError
	assert.True(t, scierrors.As(err, &ve))
}

func TestScalerErrors(t *testing.T) {
	scalers := map[string]Scaler{
		"standard": NewStandardScaler(true, true),
		"minmax":   NewMinMaxScaler(0, 1),
	}
	for name, s := range scalers {
		t.Run(name, func(t *testing.T) {
			_, err := s.Transform(mat.NewDense(1, 2, nil))
			var nf *scierrors.NotFittedError
			assert.True(t, scierrors.As(err, &nf))

			err = s.Fit(nil)
			assert.True(t, scierrors.Is(err, scierrors.ErrEmptyData))

			require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
			_, err = s.Transform(mat.NewDense(1, 3, nil))
			var de *scierrors.DimensionError
			assert.True(t, scierrors.As(err, &de))
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		in      Scaling
		want    interface{}
		wantErr bool
	}{
		{in: "", want: nil},
		{in: ScalingNone, want: nil},
		{in: "Standard", want: &StandardScaler{}},
		{in: ScalingMinMax, want: &MinMaxScaler{}},
		{in: "robust", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			s, err := New(tt.in)
			if tt.wantErr {
				var ve *scierrors.ValidationError
				assert.True(t, scierrors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, s)
				return
			}
			assert.IsType(t, tt.want, s)
		})
	}
}
