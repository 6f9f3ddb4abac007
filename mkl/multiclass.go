package mkl

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	"github.com/YuminosukeSato/scimkl/kernel"
	"github.com/YuminosukeSato/scimkl/metrics"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
)

const multiclassName = "MKLMulticlass"

// MulticlassModel is a set of one-vs-rest binary models in class order.
type MulticlassModel struct {
	Classes []float64
	Models  []*Model
}

// Multiclass is a one-vs-rest multiple kernel SVM.
//
// Every class gets its own β and support vectors. The kernel matrices are
// computed once and shared read-only by the per-class sessions.
type Multiclass struct {
	cfg    Config
	state  *coremodel.StateManager
	logger log.Logger

	classes []float64
	models  []*Model
	results []*Result
	evals   []*Evaluator
}

// NewMulticlass creates a Multiclass estimator.
func NewMulticlass(opts ...Option) *Multiclass {
	return &Multiclass{
		cfg:    DefaultConfig().With(opts...),
		state:  coremodel.NewStateManager(),
		logger: log.GetLoggerWithName("mkl."+multiclassName).With(log.ModelNameKey, multiclassName),
	}
}

// Fit trains one binary problem per class.
func (mc *Multiclass) Fit(X, y mat.Matrix) error {
	return mc.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation between outer iterations.
func (mc *Multiclass) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer scierrors.Recover(&err, multiclassName+".Fit")

	start := time.Now()
	if X == nil {
		return scierrors.Wrap(scierrors.ErrEmptyData, multiclassName+".Fit")
	}
	n, d := X.Dims()
	labels, err := labelsFromMatrix(multiclassName+".Fit", y, n)
	if err != nil {
		return err
	}
	classes := extractClasses(labels)
	if len(classes) < 2 {
		return scierrors.NewValidationError("y", "at least two classes are required", len(classes))
	}
	if err := mc.cfg.Validate(); err != nil {
		return err
	}

	mc.logger.Info("fit started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, len(classes),
	)

	kernels, err := kernel.BuildAll(mc.cfg.Kernels)
	if err != nil {
		return err
	}
	cache, err := kernel.NewCache(kernels, X,
		kernel.WithMaxEntries(mc.cfg.MaxCacheEntries),
		kernel.WithWorkers(mc.cfg.Workers),
	)
	if err != nil {
		return err
	}

	models := make([]*Model, len(classes))
	results := make([]*Result, len(classes))
	evals := make([]*Evaluator, len(classes))
	for c, class := range classes {
		yc := make([]float64, n)
		for i, v := range labels {
			if v == class {
				yc[i] = 1
			} else {
				yc[i] = -1
			}
		}
		session, err := NewSession(mc.cfg, nil, yc, WithCache(cache))
		if err != nil {
			return err
		}
		res, err := session.TrainContext(ctx)
		if err != nil {
			return scierrors.Wrapf(err, "%s: class %v", multiclassName, class)
		}
		mdl, err := session.Model(res)
		if err != nil {
			return err
		}
		eval, err := mdl.Evaluator(mc.cfg.Workers)
		if err != nil {
			return err
		}
		models[c], results[c], evals[c] = mdl, res, eval
		mc.logger.Debug("class trained",
			"class", class,
			log.BetaKey, res.Beta,
			log.ConvergedKey, res.Converged,
		)
	}

	mc.classes, mc.models, mc.results, mc.evals = classes, models, results, evals
	mc.state.SetFitted(d, n, len(kernels))
	mc.logger.Info("fit completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// extractClasses は昇順のユニークなラベルを返す
func extractClasses(y []float64) []float64 {
	seen := make(map[float64]struct{})
	var classes []float64
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}

func (mc *Multiclass) scores(method string, X mat.Matrix) (*mat.Dense, error) {
	if err := mc.state.RequireFitted(multiclassName, method); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, multiclassName+"."+method)
	}
	m, d := X.Dims()
	if err := mc.state.RequireFeatures(multiclassName+"."+method, d); err != nil {
		return nil, err
	}
	out := mat.NewDense(m, len(mc.classes), nil)
	for c, e := range mc.evals {
		s, err := e.Apply(X)
		if err != nil {
			return nil, err
		}
		out.SetCol(c, s)
	}
	return out, nil
}

// DecisionFunction returns an n×classes matrix of one-vs-rest scores.
func (mc *Multiclass) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return mc.scores("DecisionFunction", X)
}

// Predict returns the class with the highest score. On ties the class that
// sorts first wins.
func (mc *Multiclass) Predict(X mat.Matrix) (mat.Matrix, error) {
	s, err := mc.scores("Predict", X)
	if err != nil {
		return nil, err
	}
	m, k := s.Dims()
	pred := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		best := 0
		for c := 1; c < k; c++ {
			if s.At(i, c) > s.At(i, best) {
				best = c
			}
		}
		pred.SetVec(i, mc.classes[best])
	}
	return pred, nil
}

// Score returns the accuracy on X and y.
func (mc *Multiclass) Score(X, y mat.Matrix) (float64, error) {
	labels, err := labelsFromMatrix(multiclassName+".Score", y, rows(X))
	if err != nil {
		return 0, err
	}
	pred, err := mc.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(mat.NewVecDense(len(labels), labels), pred.(*mat.VecDense))
}

// Classes returns the sorted class labels, nil before Fit.
func (mc *Multiclass) Classes() []float64 { return append([]float64(nil), mc.classes...) }

// Weights returns the mean β over classes.
func (mc *Multiclass) Weights() []float64 {
	if len(mc.models) == 0 {
		return nil
	}
	mean := make([]float64, len(mc.models[0].Beta))
	for _, m := range mc.models {
		for k, b := range m.Beta {
			mean[k] += b
		}
	}
	for k := range mean {
		mean[k] /= float64(len(mc.models))
	}
	return mean
}

// ClassWeights returns β of the one-vs-rest model for class index c.
func (mc *Multiclass) ClassWeights(c int) ([]float64, error) {
	if err := mc.state.RequireFitted(multiclassName, "ClassWeights"); err != nil {
		return nil, err
	}
	if c < 0 || c >= len(mc.models) {
		return nil, scierrors.NewValidationError("class", "index out of range", c)
	}
	return append([]float64(nil), mc.models[c].Beta...), nil
}

// Results returns the per-class training results; nil after Load.
func (mc *Multiclass) Results() []*Result { return mc.results }

// GetParams returns the configuration as a map.
func (mc *Multiclass) GetParams() map[string]interface{} { return mc.cfg.Params() }

// Save writes every per-class model to path.
func (mc *Multiclass) Save(path string) error {
	if err := mc.state.RequireFitted(multiclassName, "Save"); err != nil {
		return err
	}
	return coremodel.SaveModel(multiclassName, &MulticlassModel{Classes: mc.classes, Models: mc.models}, path)
}

// LoadMulticlass reads a model written by Multiclass.Save.
func LoadMulticlass(path string, opts ...Option) (*Multiclass, error) {
	var mm MulticlassModel
	if err := coremodel.LoadModel(multiclassName, &mm, path); err != nil {
		return nil, err
	}
	if len(mm.Classes) != len(mm.Models) || len(mm.Models) == 0 {
		return nil, scierrors.NewModelError("mkl.LoadMulticlass", "corrupted model", scierrors.Newf("%d classes, %d models", len(mm.Classes), len(mm.Models)))
	}
	mc := NewMulticlass(opts...)
	evals := make([]*Evaluator, len(mm.Models))
	for c, m := range mm.Models {
		e, err := m.Evaluator(mc.cfg.Workers)
		if err != nil {
			return nil, err
		}
		evals[c] = e
	}
	mc.classes, mc.models, mc.evals = mm.Classes, mm.Models, evals
	mc.state.SetFitted(mm.Models[0].NFeatures, 0, len(mm.Models[0].Beta))
	return mc, nil
}

var _ coremodel.Classifier = (*Multiclass)(nil)
