// Standard attribute keys for kernel learning operations.
//
// Keys follow the hierarchical "category.name" convention so that log
// pipelines can filter on prefixes (e.g. every "mkl.*" attribute).

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "MKLClassifier", "MKLOneClass", "MKLMulticlass"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "decision_function", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "mkl.session", "kernel.cache", "svm.smo"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey is the number of training or test examples.
	SamplesKey = "data.samples"

	// FeaturesKey is the feature arity D.
	FeaturesKey = "data.features"

	// ClassesKey is the number of classes seen during fitting.
	ClassesKey = "data.classes"
)

// Kernel Cache
const (
	// KernelCountKey is the number of base kernels K.
	KernelCountKey = "kernel.count"

	// KernelIndexKey identifies one base kernel by registration index.
	KernelIndexKey = "kernel.index"

	// KernelKindKey is the descriptor kind ("gaussian", "linear", ...).
	KernelKindKey = "kernel.kind"

	// CacheEntriesKey is K·N², the number of stored matrix cells.
	CacheEntriesKey = "kernel.cache_entries"

	// WorkersKey is the number of goroutines used to fill matrices.
	WorkersKey = "kernel.workers"
)

// Weight Optimisation
const (
	// StateKey is the optimizer state machine state.
	StateKey = "mkl.state"

	// BetaKey is the current kernel weight vector.
	BetaKey = "mkl.beta"

	// DeltaKey is ‖β_new − β_old‖₂ of the last update.
	DeltaKey = "mkl.delta"

	// NormKey is the norm parameter p.
	NormKey = "mkl.norm"

	// WeightUpdateKey is the weight update method.
	WeightUpdateKey = "mkl.weight_update"

	// ObjectiveKey is the SVM dual objective of the current iteration.
	ObjectiveKey = "mkl.objective"

	// ConvergedKey reports whether the outer loop reached the tolerance.
	ConvergedKey = "mkl.converged"

	// IterationKey records the outer iteration number.
	IterationKey = "training.iteration"
)

// Solver
const (
	// SolverKey names the single-kernel solver.
	SolverKey = "svm.solver"

	// SolverIterationsKey is the number of SMO steps of one solve.
	SolverIterationsKey = "svm.iterations"

	// SupportVectorsKey is the number of examples with non-zero alpha.
	SupportVectorsKey = "svm.support_vectors"

	// RegularizationKey records C (or ν for one-class).
	RegularizationKey = "hyperparams.regularization"
)

// Performance and Errors
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records training or validation accuracy.
	AccuracyKey = "metrics.accuracy"

	// ErrorTypeKey categorizes the error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey carries the cockroachdb/errors stack trace of a logged error.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit              = "fit"
	OperationPredict          = "predict"
	OperationDecisionFunction = "decision_function"
	OperationScore            = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"
)
