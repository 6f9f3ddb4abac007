package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/scimkl/pkg/log"
)

func main() {
	log.SetOutput(os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "scimkl",
		Short: "Multiple kernel learning toolkit",
		Long: `scimkl trains multiple kernel SVMs on synthetic data and inspects saved models.

Commands:
  scimkl train --config train.yaml --out model.gob
  scimkl inspect --model model.gob`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTrainCmd(), newInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
