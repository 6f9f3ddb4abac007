package model

import (
	"encoding/json"
	"math"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// KernelWeight は1つの基底カーネルとその学習済み重み
type KernelWeight struct {
	Index  int                `json:"index"`
	Kind   string             `json:"kind"`
	Params map[string]float64 `json:"params,omitempty"`
	Weight float64            `json:"weight"`
}

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（MKLClassifier, MKLOneClass等）
	ModelType string `json:"model_type"`

	// Version はモデルのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Kernels は基底カーネルごとの重み β
	Kernels []KernelWeight `json:"kernels"`

	// Bias はバイアス項 b
	Bias float64 `json:"bias"`

	// SupportVectors はサポートベクタの数
	SupportVectors int `json:"support_vectors"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（反復回数、収束フラグ等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// Beta はKernelsの重みを登録順に並べたベクトルを返す
func (mw *ModelWeights) Beta() []float64 {
	beta := make([]float64, len(mw.Kernels))
	for i, k := range mw.Kernels {
		beta[i] = k.Weight
	}
	return beta
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return scierrors.Wrap(err, "decode model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return scierrors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return scierrors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted && len(mw.Kernels) > 0 {
		return scierrors.NewValidationError("kernels", "unfitted model should not have kernel weights", len(mw.Kernels))
	}
	if mw.IsFitted && len(mw.Kernels) == 0 {
		return scierrors.NewValidationError("kernels", "fitted model must have kernel weights", 0)
	}
	for _, k := range mw.Kernels {
		if k.Weight < 0 || math.IsNaN(k.Weight) {
			return scierrors.NewInvalidWeightConstraintError("beta", "kernel weights must be non-negative", k.Weight)
		}
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Bias:            mw.Bias,
		SupportVectors:  mw.SupportVectors,
		IsFitted:        mw.IsFitted,
		Kernels:         make([]KernelWeight, len(mw.Kernels)),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	for i, k := range mw.Kernels {
		k.Params = cloneParams(k.Params)
		clone.Kernels[i] = k
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

func cloneParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
