package mkl

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	"github.com/YuminosukeSato/scimkl/metrics"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
)

// machine is the shared body of Classifier and OneClass: one Session per
// Fit and one evaluator over the resulting support vectors.
type machine struct {
	name     string
	oneClass bool
	cfg      Config
	state    *coremodel.StateManager
	logger   log.Logger

	model  *Model
	result *Result
	eval   *Evaluator
}

func newMachine(name string, oneClass bool, opts []Option) machine {
	return machine{
		name:     name,
		oneClass: oneClass,
		cfg:      DefaultConfig().With(opts...),
		state:    coremodel.NewStateManager(),
		logger:   log.GetLoggerWithName("mkl." + name).With(log.ModelNameKey, name),
	}
}

func (m *machine) fit(ctx context.Context, X mat.Matrix, labels []float64) (err error) {
	defer scierrors.Recover(&err, m.name+".Fit")

	start := time.Now()
	if X == nil {
		return scierrors.Wrap(scierrors.ErrEmptyData, m.name+".Fit")
	}
	n, d := X.Dims()
	m.logger.Info("fit started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	var sopts []SessionOption
	if m.oneClass {
		sopts = append(sopts, WithOneClass())
	}
	session, err := NewSession(m.cfg, X, labels, sopts...)
	if err != nil {
		return err
	}
	res, err := session.TrainContext(ctx)
	if err != nil {
		return err
	}
	mdl, err := session.Model(res)
	if err != nil {
		return err
	}
	eval, err := mdl.Evaluator(m.cfg.Workers)
	if err != nil {
		return err
	}

	m.model, m.result, m.eval = mdl, res, eval
	m.state.SetFitted(d, n, len(res.Beta))
	m.logger.Info("fit completed",
		log.OperationKey, log.OperationFit,
		log.BetaKey, res.Beta,
		log.ConvergedKey, res.Converged,
		log.SupportVectorsKey, len(res.SupportVectors),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *machine) decision(method string, X mat.Matrix) ([]float64, error) {
	if err := m.state.RequireFitted(m.name, method); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, m.name+"."+method)
	}
	_, d := X.Dims()
	if err := m.state.RequireFeatures(m.name+"."+method, d); err != nil {
		return nil, err
	}
	return m.eval.Apply(X)
}

func (m *machine) load(mdl *Model) error {
	eval, err := mdl.Evaluator(m.cfg.Workers)
	if err != nil {
		return err
	}
	m.model, m.eval = mdl, eval
	m.result = nil
	m.state.SetFitted(mdl.NFeatures, 0, len(mdl.Beta))
	return nil
}

func (m *machine) weights() []float64 {
	if m.model == nil {
		return nil
	}
	return append([]float64(nil), m.model.Beta...)
}

func (m *machine) exportWeights() (*coremodel.ModelWeights, error) {
	if err := m.state.RequireFitted(m.name, "ExportWeights"); err != nil {
		return nil, err
	}
	return m.model.Weights(m.name), nil
}

func (m *machine) save(path string) error {
	if err := m.state.RequireFitted(m.name, "Save"); err != nil {
		return err
	}
	return SaveModel(m.name, m.model, path)
}

// labelsFromMatrix reads an n×1 or 1×n label matrix.
func labelsFromMatrix(op string, y mat.Matrix, n int) ([]float64, error) {
	if y == nil {
		return nil, scierrors.NewDimensionError(op, n, 0, 0)
	}
	r, c := y.Dims()
	switch {
	case c == 1:
		if r != n {
			return nil, scierrors.NewDimensionError(op, n, r, 0)
		}
		return mat.Col(nil, 0, y), nil
	case r == 1:
		if c != n {
			return nil, scierrors.NewDimensionError(op, n, c, 0)
		}
		return mat.Row(nil, 0, y), nil
	default:
		return nil, scierrors.NewValidationError("y", "must be a column or row vector", [2]int{r, c})
	}
}

func rows(X mat.Matrix) int {
	if X == nil {
		return 0
	}
	n, _ := X.Dims()
	return n
}

// Classifier is a binary multiple kernel SVM. Labels are −1 and +1.
//
// 使用例:
//
//	clf := mkl.NewClassifier(
//	    mkl.WithKernels(kernel.GaussianWidths(0.5, 25)...),
//	    mkl.WithC(1),
//	)
//	if err := clf.Fit(X, y); err != nil {
//	    return err
//	}
//	pred, _ := clf.Predict(Xtest)
type Classifier struct {
	m machine
}

// NewClassifier creates a Classifier from DefaultConfig with opts applied.
func NewClassifier(opts ...Option) *Classifier {
	return &Classifier{m: newMachine("MKLClassifier", false, opts)}
}

// Fit trains on X (N×D) and y (N labels in {−1, +1}).
func (c *Classifier) Fit(X, y mat.Matrix) error {
	return c.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation between outer iterations.
func (c *Classifier) FitContext(ctx context.Context, X, y mat.Matrix) error {
	labels, err := labelsFromMatrix("MKLClassifier.Fit", y, rows(X))
	if err != nil {
		return err
	}
	return c.m.fit(ctx, X, labels)
}

// DecisionFunction returns f(x) for every row as an n×1 vector.
func (c *Classifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	scores, err := c.m.decision("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(scores), scores), nil
}

// Predict returns sign(f(x)) with f = 0 mapped to +1.
func (c *Classifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := c.m.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(scores), Sign(scores)), nil
}

// Score returns the accuracy on X and y.
func (c *Classifier) Score(X, y mat.Matrix) (float64, error) {
	labels, err := labelsFromMatrix("MKLClassifier.Score", y, rows(X))
	if err != nil {
		return 0, err
	}
	scores, err := c.m.decision("Score", X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(mat.NewVecDense(len(labels), labels), mat.NewVecDense(len(scores), Sign(scores)))
}

// Weights returns the learned β, nil before Fit.
func (c *Classifier) Weights() []float64 { return c.m.weights() }

// Result returns the last training result; nil before Fit and after Load.
func (c *Classifier) Result() *Result { return c.m.result }

// Model returns the trained model.
func (c *Classifier) Model() (*Model, error) {
	if err := c.m.state.RequireFitted(c.m.name, "Model"); err != nil {
		return nil, err
	}
	return c.m.model, nil
}

// GetParams returns the configuration as a map.
func (c *Classifier) GetParams() map[string]interface{} { return c.m.cfg.Params() }

// ExportWeights returns β and the bias as ModelWeights.
func (c *Classifier) ExportWeights() (*coremodel.ModelWeights, error) { return c.m.exportWeights() }

// Save writes the trained model to path.
func (c *Classifier) Save(path string) error { return c.m.save(path) }

// LoadClassifier reads a model written by Classifier.Save.
func LoadClassifier(path string, opts ...Option) (*Classifier, error) {
	mdl, err := LoadModel("MKLClassifier", path)
	if err != nil {
		return nil, err
	}
	c := NewClassifier(opts...)
	if err := c.m.load(mdl); err != nil {
		return nil, err
	}
	return c, nil
}

// OneClass is a ν one-class multiple kernel SVM for novelty detection.
// f(x) < 0 flags a novelty.
type OneClass struct {
	m machine
}

// NewOneClass creates a OneClass estimator; ν comes from WithNu.
func NewOneClass(opts ...Option) *OneClass {
	return &OneClass{m: newMachine("MKLOneClass", true, opts)}
}

// Fit trains on X. y is ignored and may be nil.
func (o *OneClass) Fit(X, _ mat.Matrix) error {
	return o.m.fit(context.Background(), X, nil)
}

// FitContext is Fit with cancellation between outer iterations.
func (o *OneClass) FitContext(ctx context.Context, X mat.Matrix) error {
	return o.m.fit(ctx, X, nil)
}

// DecisionFunction returns f(x) for every row.
func (o *OneClass) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	scores, err := o.m.decision("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(scores), scores), nil
}

// Predict returns +1 for inliers and −1 for novelties.
func (o *OneClass) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := o.m.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(scores), Sign(scores)), nil
}

// Score returns the accuracy of Predict against y (+1 inlier, −1 novelty).
func (o *OneClass) Score(X, y mat.Matrix) (float64, error) {
	labels, err := labelsFromMatrix("MKLOneClass.Score", y, rows(X))
	if err != nil {
		return 0, err
	}
	scores, err := o.m.decision("Score", X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(mat.NewVecDense(len(labels), labels), mat.NewVecDense(len(scores), Sign(scores)))
}

// Weights returns the learned β, nil before Fit.
func (o *OneClass) Weights() []float64 { return o.m.weights() }

// Result returns the last training result.
func (o *OneClass) Result() *Result { return o.m.result }

// GetParams returns the configuration as a map.
func (o *OneClass) GetParams() map[string]interface{} { return o.m.cfg.Params() }

// ExportWeights returns β and the offset as ModelWeights.
func (o *OneClass) ExportWeights() (*coremodel.ModelWeights, error) { return o.m.exportWeights() }

// Save writes the trained model to path.
func (o *OneClass) Save(path string) error { return o.m.save(path) }

// LoadOneClass reads a model written by OneClass.Save.
func LoadOneClass(path string, opts ...Option) (*OneClass, error) {
	mdl, err := LoadModel("MKLOneClass", path)
	if err != nil {
		return nil, err
	}
	o := NewOneClass(opts...)
	if err := o.m.load(mdl); err != nil {
		return nil, err
	}
	return o, nil
}

var (
	_ coremodel.Classifier = (*Classifier)(nil)
	_ coremodel.Classifier = (*OneClass)(nil)
)
