package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対するラベルを返す (n×1)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// DecisionFunctioner は決定関数の値を返すモデルのインターフェース
type DecisionFunctioner interface {
	// DecisionFunction は符号を取る前のスコアを返す
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy on the given test data and labels.
	Score(X, y mat.Matrix) (float64, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// KernelWeighted is implemented by models that learned a weight per base kernel.
type KernelWeighted interface {
	// Weights returns the learned kernel weight vector β.
	Weights() []float64
}

// Classifier combines the interfaces implemented by every kernel estimator.
type Classifier interface {
	Fitter
	Predictor
	DecisionFunctioner
	Scorer
	ParameterGetter
	KernelWeighted
}
