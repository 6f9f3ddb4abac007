package kernel

import (
	"fmt"
	"strings"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// Kind names a built-in kernel family.
type Kind string

const (
	KindGaussian Kind = "gaussian"
	KindLinear   Kind = "linear"
	KindPoly     Kind = "poly"
	KindSigmoid  Kind = "sigmoid"
)

// Descriptor は基底カーネルのシリアライズ可能な定義
//
// 設定ファイル (YAML/JSON) と保存済みモデルはカーネルをDescriptorとして保持し、
// Buildで実体を生成する。Kindごとに使われるフィールドが異なる:
//
//	gaussian: Width (> 0)
//	linear:   なし
//	poly:     Degree (>= 1), Coef0
//	sigmoid:  Scale, Coef0
type Descriptor struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Degree int     `json:"degree,omitempty" yaml:"degree,omitempty"`
	Coef0  float64 `json:"coef0,omitempty" yaml:"coef0,omitempty"`
	Scale  float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Validate checks the parameters required by the descriptor's kind.
func (d Descriptor) Validate() error {
	switch d.normalizedKind() {
	case KindGaussian:
		if !(d.Width > 0) {
			return scierrors.NewValidationError("width", "gaussian kernel width must be positive", d.Width)
		}
	case KindLinear, KindSigmoid:
	case KindPoly:
		if d.Degree < 1 {
			return scierrors.NewValidationError("degree", "polynomial degree must be at least 1", d.Degree)
		}
	default:
		return scierrors.NewValidationError("kind", "unknown kernel kind", string(d.Kind))
	}
	return nil
}

// Build validates d and returns the kernel it describes.
func (d Descriptor) Build() (Kernel, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch d.normalizedKind() {
	case KindGaussian:
		return Gaussian{Width: d.Width}, nil
	case KindLinear:
		return Linear{}, nil
	case KindPoly:
		return Polynomial{Degree: d.Degree, Coef0: d.Coef0}, nil
	default:
		return Sigmoid{Scale: d.Scale, Coef0: d.Coef0}, nil
	}
}

// Params returns the numeric parameters relevant to the kind.
func (d Descriptor) Params() map[string]float64 {
	switch d.normalizedKind() {
	case KindGaussian:
		return map[string]float64{"width": d.Width}
	case KindPoly:
		return map[string]float64{"degree": float64(d.Degree), "coef0": d.Coef0}
	case KindSigmoid:
		return map[string]float64{"scale": d.Scale, "coef0": d.Coef0}
	default:
		return nil
	}
}

func (d Descriptor) String() string {
	switch d.normalizedKind() {
	case KindGaussian:
		return fmt.Sprintf("gaussian(width=%g)", d.Width)
	case KindPoly:
		return fmt.Sprintf("poly(degree=%d, coef0=%g)", d.Degree, d.Coef0)
	case KindSigmoid:
		return fmt.Sprintf("sigmoid(scale=%g, coef0=%g)", d.Scale, d.Coef0)
	default:
		return string(d.normalizedKind())
	}
}

func (d Descriptor) normalizedKind() Kind {
	return Kind(strings.ToLower(strings.TrimSpace(string(d.Kind))))
}

// BuildAll builds every descriptor in registration order.
func BuildAll(descs []Descriptor) ([]Kernel, error) {
	if len(descs) == 0 {
		return nil, scierrors.NewDimensionError("kernel.BuildAll", 1, 0, 2)
	}
	kernels := make([]Kernel, len(descs))
	for i, d := range descs {
		k, err := d.Build()
		if err != nil {
			return nil, scierrors.Wrapf(err, "kernel %d", i)
		}
		kernels[i] = k
	}
	return kernels, nil
}

// Describe returns the descriptor of a built-in kernel.
// The second result is false for user-defined kernels.
func Describe(k Kernel) (Descriptor, bool) {
	switch v := k.(type) {
	case Gaussian:
		return Descriptor{Kind: KindGaussian, Width: v.Width}, true
	case Linear:
		return Descriptor{Kind: KindLinear}, true
	case Polynomial:
		return Descriptor{Kind: KindPoly, Degree: v.Degree, Coef0: v.Coef0}, true
	case Sigmoid:
		return Descriptor{Kind: KindSigmoid, Scale: v.Scale, Coef0: v.Coef0}, true
	default:
		return Descriptor{}, false
	}
}

// GaussianWidths is shorthand for a list of Gaussian descriptors.
func GaussianWidths(widths ...float64) []Descriptor {
	out := make([]Descriptor, len(widths))
	for i, w := range widths {
		out[i] = Descriptor{Kind: KindGaussian, Width: w}
	}
	return out
}
