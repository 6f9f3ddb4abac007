package mkl

import (
	"gonum.org/v1/gonum/mat"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	"github.com/YuminosukeSato/scimkl/kernel"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// Version is written into exported weights.
const Version = "0.1.0"

// Model is a trained binary or one-class decision function in a form that
// gob can encode. All fields are exported for that reason.
type Model struct {
	Kernels        []kernel.Descriptor
	Beta           []float64
	SupportVectors [][]float64
	Coefficients   []float64
	Bias           float64
	NFeatures      int
	Converged      bool
	Iterations     int
	// Config is the training configuration, kept for inspection.
	Config Config
}

// Evaluator rebuilds the kernels and returns an evaluator for the model.
func (m *Model) Evaluator(workers int) (*Evaluator, error) {
	kernels, err := kernel.BuildAll(m.Kernels)
	if err != nil {
		return nil, err
	}
	var svX mat.Matrix
	if len(m.SupportVectors) > 0 {
		rows := mat.NewDense(len(m.SupportVectors), m.NFeatures, nil)
		for i, sv := range m.SupportVectors {
			if len(sv) != m.NFeatures {
				return nil, scierrors.NewDimensionError("mkl.Model.Evaluator", m.NFeatures, len(sv), 1)
			}
			rows.SetRow(i, sv)
		}
		svX = rows
	}
	return NewEvaluator(kernels, m.Beta, svX, m.Coefficients, m.Bias,
		WithEvaluatorWorkers(workers), WithFeatureDim(m.NFeatures))
}

// Weights exports the kernel weights as ModelWeights.
func (m *Model) Weights(modelType string) *coremodel.ModelWeights {
	kw := make([]coremodel.KernelWeight, len(m.Kernels))
	for k, d := range m.Kernels {
		kw[k] = coremodel.KernelWeight{
			Index:  k,
			Kind:   string(d.Kind),
			Params: d.Params(),
			Weight: m.Beta[k],
		}
	}
	return &coremodel.ModelWeights{
		ModelType:       modelType,
		Version:         Version,
		Kernels:         kw,
		Bias:            m.Bias,
		SupportVectors:  len(m.SupportVectors),
		Hyperparameters: m.Config.Params(),
		Metadata: map[string]interface{}{
			"converged":  m.Converged,
			"iterations": m.Iterations,
			"n_features": m.NFeatures,
		},
		IsFitted: true,
	}
}

// SaveModel writes m to filename with the given model type header.
func SaveModel(modelType string, m *Model, filename string) error {
	return coremodel.SaveModel(modelType, m, filename)
}

// LoadModel reads a Model written by SaveModel.
func LoadModel(modelType, filename string) (*Model, error) {
	var m Model
	if err := coremodel.LoadModel(modelType, &m, filename); err != nil {
		return nil, err
	}
	return &m, nil
}
