package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTrainConfig(t *testing.T) {
	path := writeConfig(t, `
estimator: Classifier
dataset:
  kind: xor
  samples: 40
  spread: 5
  seed: 3
mkl:
  kernels:
    - {kind: gaussian, width: 0.5}
    - {kind: gaussian, width: 25}
  c: 2
`)
	cfg, err := loadTrainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, estimatorClassifier, cfg.Estimator)
	assert.Equal(t, 2.0, cfg.MKL.C)
	// omitted fields keep their defaults
	assert.Equal(t, 1.0, cfg.MKL.Norm)
	assert.Equal(t, 100, cfg.MKL.MaxIter)
	require.Len(t, cfg.MKL.Kernels, 2)
	assert.Equal(t, 25.0, cfg.MKL.Kernels[1].Width)
	assert.Equal(t, uint64(3), cfg.Dataset.Seed)

	_, err = loadTrainConfig(writeConfig(t, "mkl:\n  norm: 0.5\n"))
	var we *scierrors.InvalidWeightConstraintError
	assert.True(t, scierrors.As(err, &we))

	_, err = loadTrainConfig(writeConfig(t, "scaling: robust\n"))
	var ve *scierrors.ValidationError
	assert.True(t, scierrors.As(err, &ve))

	_, err = loadTrainConfig(writeConfig(t, "mkl: [1, 2"))
	assert.Error(t, err)

	_, err = loadTrainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTrainAndInspect(t *testing.T) {
	tests := []struct {
		name      string
		estimator string
		dataset   string
		modelType string
		betas     int
		minAcc    float64
	}{
		{name: "classifier", estimator: "classifier", dataset: "{kind: xor, samples: 40, spread: 5, seed: 1}", modelType: "MKLClassifier", betas: 1, minAcc: 0.9},
		{name: "one class", estimator: "one_class", dataset: "{kind: gaussian, samples: 30, seed: 2}", modelType: "MKLOneClass", betas: 1, minAcc: 0.3},
		{name: "multiclass", estimator: "multiclass", dataset: "{kind: blobs, samples: 45, classes: 3, spread: 8, seed: 3}", modelType: "MKLMulticlass", betas: 3, minAcc: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadTrainConfig(writeConfig(t, "estimator: "+tt.estimator+"\ndataset: "+tt.dataset+`
mkl:
  kernels:
    - {kind: gaussian, width: 1}
    - {kind: gaussian, width: 10}
`))
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "model.gob")
			report, err := train(context.Background(), cfg, out)
			require.NoError(t, err)
			assert.Len(t, report.Beta, tt.betas)
			assert.Equal(t, []string{"gaussian(width=1)", "gaussian(width=10)"}, report.Kernels)
			assert.GreaterOrEqual(t, report.TrainAccuracy, tt.minAcc)
			switch tt.estimator {
			case "classifier":
				assert.GreaterOrEqual(t, report.TrainAUC, 0.9)
			case "one_class":
				assert.InDelta(t, 1-report.TrainAccuracy, report.NoveltyRate, 1e-12)
			}

			kind, err := coremodel.PeekModelType(out)
			require.NoError(t, err)
			assert.Equal(t, tt.modelType, kind)

			var buf bytes.Buffer
			require.NoError(t, inspect(&buf, out))
			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
			assert.Equal(t, tt.modelType, decoded["model_type"])
		})
	}
}

func TestTrainUnknownEstimator(t *testing.T) {
	cfg, err := loadTrainConfig(writeConfig(t, "estimator: forest\ndataset: {kind: xor, samples: 8}\nmkl: {kernels: [{kind: linear}]}\n"))
	require.NoError(t, err)
	_, err = train(context.Background(), cfg, "")
	var ve *scierrors.ValidationError
	assert.True(t, scierrors.As(err, &ve))
}

func TestTrainScaled(t *testing.T) {
	cfg, err := loadTrainConfig(writeConfig(t, `
dataset: {kind: xor, samples: 40, spread: 5, seed: 4}
scaling: standard
mkl:
  kernels:
    - {kind: gaussian, width: 0.5}
    - {kind: gaussian, width: 5}
`))
	require.NoError(t, err)

	report, err := train(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "standard", report.Scaling)
	assert.GreaterOrEqual(t, report.TrainAccuracy, 0.9)
	require.Len(t, report.Objectives, 1)
	assert.NotEmpty(t, report.Objectives[0])
}
