package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/scimkl/datasets"
	"github.com/YuminosukeSato/scimkl/metrics"
	"github.com/YuminosukeSato/scimkl/mkl"
	"github.com/YuminosukeSato/scimkl/preprocessing"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
	"github.com/YuminosukeSato/scimkl/pkg/log"
)

// Estimator kinds accepted by the train config.
const (
	estimatorClassifier = "classifier"
	estimatorOneClass   = "one_class"
	estimatorMulticlass = "multiclass"
)

// TrainConfig is the YAML document read by `scimkl train`.
type TrainConfig struct {
	Estimator string          `yaml:"estimator"`
	Dataset   datasets.Config       `yaml:"dataset"`
	Scaling   preprocessing.Scaling `yaml:"scaling"`
	MKL       mkl.Config            `yaml:"mkl"`
}

// TrainReport is printed as JSON after training.
type TrainReport struct {
	Estimator     string      `json:"estimator"`
	Samples       int         `json:"samples"`
	Scaling       string      `json:"scaling,omitempty"`
	Kernels       []string    `json:"kernels"`
	Beta          [][]float64 `json:"beta"`
	Converged     []bool      `json:"converged"`
	Iterations    []int       `json:"iterations"`
	Objectives    [][]float64 `json:"objectives"`
	TrainAccuracy float64     `json:"train_accuracy"`
	TrainAUC      float64     `json:"train_auc,omitempty"`
	NoveltyRate   float64     `json:"novelty_rate,omitempty"`
	Output        string      `json:"output,omitempty"`
}

var (
	trainConfigFile string
	trainOutFile    string
	trainLogLevel   string
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a multiple kernel SVM from a YAML config",
		Long: `Generate the configured synthetic dataset, train the estimator and print
the learned kernel weights as JSON.

CONFIG:
  estimator: classifier        # classifier | one_class | multiclass
  dataset:
    kind: xor                  # xor | blobs | gaussian
    samples: 120
    spread: 10
    seed: 42
  scaling: standard            # none | standard | minmax
  mkl:
    kernels:
      - {kind: gaussian, width: 0.5}
      - {kind: gaussian, width: 25}
    c: 1
    norm: 1
    weight_update: analytic

EXAMPLES:
  scimkl train --config train.yaml
  scimkl train --config train.yaml --out model.gob --log-level debug`,
		RunE: runTrain,
	}
	cmd.Flags().StringVar(&trainConfigFile, "config", "", "Path to the training config (YAML)")
	cmd.Flags().StringVar(&trainOutFile, "out", "", "Write the trained model to this file")
	cmd.Flags().StringVar(&trainLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// loadTrainConfig reads path over the defaults, so omitted mkl fields keep
// their DefaultConfig values.
func loadTrainConfig(path string) (*TrainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scierrors.Wrapf(err, "read config %s", path)
	}
	cfg := &TrainConfig{
		Estimator: estimatorClassifier,
		MKL:       mkl.DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, scierrors.Wrapf(err, "parse config %s", path)
	}
	cfg.Estimator = strings.ToLower(cfg.Estimator)
	if _, err := preprocessing.New(cfg.Scaling); err != nil {
		return nil, err
	}
	if err := cfg.MKL.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	level, err := log.ParseLevel(trainLogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	cfg, err := loadTrainConfig(trainConfigFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := train(ctx, cfg, trainOutFile)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), report)
}

func train(ctx context.Context, cfg *TrainConfig, out string) (*TrainReport, error) {
	ds, err := cfg.Dataset.Generate()
	if err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("scimkl.train")
	logger.Info("dataset generated",
		log.SamplesKey, ds.Len(),
		"dataset.kind", string(cfg.Dataset.Kind),
	)

	// 保存されるモデルは変換後の特徴空間で学習されている
	X := mat.Matrix(ds.X)
	scaler, err := preprocessing.New(cfg.Scaling)
	if err != nil {
		return nil, err
	}
	if scaler != nil {
		if X, err = scaler.FitTransform(ds.X); err != nil {
			return nil, err
		}
	}

	opts := []mkl.Option{mkl.FromConfig(cfg.MKL)}
	report := &TrainReport{Estimator: cfg.Estimator, Samples: ds.Len(), Scaling: string(cfg.Scaling), Output: out}
	for _, d := range cfg.MKL.Kernels {
		report.Kernels = append(report.Kernels, d.String())
	}

	switch cfg.Estimator {
	case estimatorClassifier:
		y := datasets.Binary(ds.Y, 1)
		clf := mkl.NewClassifier(opts...)
		if err := clf.FitContext(ctx, X, labels(y)); err != nil {
			return nil, err
		}
		report.add(clf.Result())
		if report.TrainAccuracy, err = clf.Score(X, labels(y)); err != nil {
			return nil, err
		}
		var scores mat.Matrix
		if scores, err = clf.DecisionFunction(X); err != nil {
			return nil, err
		}
		if report.TrainAUC, err = metrics.AUCMatrix(labels(y), scores); err != nil {
			return nil, err
		}
		if out != "" {
			err = clf.Save(out)
		}
	case estimatorOneClass:
		oc := mkl.NewOneClass(opts...)
		if err := oc.FitContext(ctx, X); err != nil {
			return nil, err
		}
		report.add(oc.Result())
		if report.TrainAccuracy, err = oc.Score(X, ds.Labels()); err != nil {
			return nil, err
		}
		var scores mat.Matrix
		if scores, err = oc.DecisionFunction(X); err != nil {
			return nil, err
		}
		if report.NoveltyRate, err = metrics.NoveltyRate(mat.Col(nil, 0, scores)); err != nil {
			return nil, err
		}
		if out != "" {
			err = oc.Save(out)
		}
	case estimatorMulticlass:
		mc := mkl.NewMulticlass(opts...)
		if err := mc.FitContext(ctx, X, ds.Labels()); err != nil {
			return nil, err
		}
		for _, r := range mc.Results() {
			report.add(r)
		}
		if report.TrainAccuracy, err = mc.Score(X, ds.Labels()); err != nil {
			return nil, err
		}
		if out != "" {
			err = mc.Save(out)
		}
	default:
		return nil, scierrors.NewValidationError("estimator", "must be classifier, one_class or multiclass", cfg.Estimator)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *TrainReport) add(res *mkl.Result) {
	r.Beta = append(r.Beta, res.Beta)
	r.Converged = append(r.Converged, res.Converged)
	r.Iterations = append(r.Iterations, res.Iterations)
	r.Objectives = append(r.Objectives, res.Objectives)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return scierrors.Wrap(err, "encode output")
	}
	return nil
}

func labels(y []float64) *mat.VecDense {
	return mat.NewVecDense(len(y), y)
}
