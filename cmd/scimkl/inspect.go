package main

import (
	"io"

	"github.com/spf13/cobra"

	coremodel "github.com/YuminosukeSato/scimkl/core/model"
	"github.com/YuminosukeSato/scimkl/mkl"
	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

var inspectModelFile string

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the kernel weights of a saved model",
		Long: `Read a model written by "scimkl train --out" and print its kernel weights,
bias and training configuration as JSON.

Examples:
  scimkl inspect --model model.gob`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inspect(cmd.OutOrStdout(), inspectModelFile)
		},
	}
	cmd.Flags().StringVar(&inspectModelFile, "model", "", "Path to a saved model")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// multiclassReport lists one weight export per class.
type multiclassReport struct {
	ModelType string                    `json:"model_type"`
	Classes   []float64                 `json:"classes"`
	Models    []*coremodel.ModelWeights `json:"models"`
}

func inspect(w io.Writer, path string) error {
	modelType, err := coremodel.PeekModelType(path)
	if err != nil {
		return err
	}

	switch modelType {
	case "MKLClassifier", "MKLOneClass":
		m, err := mkl.LoadModel(modelType, path)
		if err != nil {
			return err
		}
		return writeJSON(w, m.Weights(modelType))
	case "MKLMulticlass":
		var mm mkl.MulticlassModel
		if err := coremodel.LoadModel(modelType, &mm, path); err != nil {
			return err
		}
		report := multiclassReport{ModelType: modelType, Classes: mm.Classes}
		for _, m := range mm.Models {
			report.Models = append(report.Models, m.Weights(modelType))
		}
		return writeJSON(w, report)
	default:
		return scierrors.NewModelError("inspect", "unknown model type", scierrors.Newf("%q", modelType))
	}
}
