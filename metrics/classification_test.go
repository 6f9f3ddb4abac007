package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(v []float64) *mat.VecDense {
	if len(v) == 0 {
		return nil
	}
	return mat.NewVecDense(len(v), v)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{name: "Perfect accuracy", yTrue: []float64{-1, 1, 1, -1}, yPred: []float64{-1, 1, 1, -1}, want: 1.0},
		{name: "Multiclass", yTrue: []float64{0, 1, 2, 1, 0}, yPred: []float64{0, 1, 1, 1, 0}, want: 0.8},
		{name: "Zero accuracy", yTrue: []float64{1, 1, 1}, yPred: []float64{-1, -1, -1}, want: 0.0},
		{name: "Empty vectors", wantErr: true},
		{name: "Dimension mismatch", yTrue: []float64{1, -1}, yPred: []float64{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(vec(tt.yTrue), vec(tt.yPred))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			e, err := ClassificationError(vec(tt.yTrue), vec(tt.yPred))
			require.NoError(t, err)
			assert.InDelta(t, 1-tt.want, e, 1e-12)
		})
	}
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		scores  []float64
		want    float64
		wantErr bool
	}{
		{name: "Perfect ranking", yTrue: []float64{-1, -1, -1, 1, 1, 1}, scores: []float64{-2, -1, -0.5, 0.5, 1, 2}, want: 1.0},
		{name: "Inverted ranking", yTrue: []float64{0, 0, 0, 1, 1, 1}, scores: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, want: 0.0},
		{name: "All ties", yTrue: []float64{0, 1, 0, 1}, scores: []float64{0.5, 0.5, 0.5, 0.5}, want: 0.5},
		{name: "Typical case", yTrue: []float64{0, 0, 1, 1}, scores: []float64{0.1, 0.4, 0.35, 0.8}, want: 0.75},
		{name: "Single class", yTrue: []float64{1, 1, 1}, scores: []float64{0.1, 0.4, 0.35}, want: 0.5},
		{name: "Invalid labels", yTrue: []float64{0, 0.5, 1}, scores: []float64{0.1, 0.5, 0.9}, wantErr: true},
		{name: "Dimension mismatch", yTrue: []float64{0, 1}, scores: []float64{0.5}, wantErr: true},
		{name: "Empty vectors", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue), vec(tt.scores))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	got, err := AUCMatrix(
		mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
		mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)

	_, err = AUCMatrix(nil, mat.NewDense(1, 1, []float64{0.5}))
	assert.Error(t, err)

	_, err = AUCMatrix(&mat.Dense{}, &mat.Dense{})
	assert.Error(t, err)
}

func TestNoveltyRate(t *testing.T) {
	r, err := NoveltyRate([]float64{-0.5, 0, 0.2, -1e-9})
	require.NoError(t, err)
	assert.Equal(t, 0.5, r)

	_, err = NoveltyRate(nil)
	assert.Error(t, err)
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	scores := make([]float64, n)
	for i := range yTrue {
		if i%2 == 0 {
			yTrue[i] = 1
		}
		scores[i] = float64((i*7919)%n) / float64(n)
	}
	t, s := vec(yTrue), vec(scores)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(t, s)
	}
}
