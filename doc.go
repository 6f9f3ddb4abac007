// Package scimkl learns a weighted combination of kernels together with a
// support vector machine.
//
// Given base kernels k_1..k_M, training finds weights β on the unit
// p-norm sphere and an SVM on the combined kernel Σ_k β_k k_k. Training
// alternates between solving the SVM for fixed β and updating β from the
// per-kernel contributions of the solution, until the weights stop moving.
//
// # Packages
//
//   - mkl: Classifier, OneClass and Multiclass estimators, the training
//     Session and the Evaluator for prediction
//   - kernel: base kernels, descriptors and the shared kernel matrix cache
//   - svm: the SMO solver for the fixed-kernel subproblem
//   - preprocessing: feature scaling applied before kernel evaluation
//   - datasets: seeded synthetic data (XOR clusters, blobs, Gaussian)
//   - metrics: accuracy
//   - core/model: fitted state, persistence and weight export
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Quick Start
//
//	ds := datasets.XORClusters(120, 2, 10, 1, 42)
//	clf := mkl.NewClassifier(
//	    mkl.WithKernels(kernel.GaussianWidths(0.5, 25)...),
//	    mkl.WithNorm(1),
//	)
//	if err := clf.Fit(ds.X, ds.Labels()); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(clf.Weights())
//	pred, err := clf.Predict(Xtest)
//
// # Command Line
//
// cmd/scimkl trains from a YAML config and inspects saved models:
//
//	scimkl train --config train.yaml --out model.gob
//	scimkl inspect --model model.gob
//
// # Errors
//
// Errors carry stack traces (cockroachdb/errors) and are typed:
// NotFittedError, DimensionError, InvalidWeightConstraintError,
// SolverDivergedError, ValidationError and ModelError. Hitting the
// iteration cap is not an error; it emits a ConvergenceWarning through
// pkg/errors.Warn, which pkg/log routes to zerolog.
package scimkl
