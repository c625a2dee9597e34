package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

const (
	KernelLinear  = "linear"
	KernelRBF     = "rbf"
	KernelPoly    = "poly"
	KernelSigmoid = "sigmoid"
)

// SVR evaluates a support vector regressor in its dual form:
// y = Σ dual_coef[i]·K(sv[i], x) + intercept.
type SVR struct {
	Kernel         string
	Gamma          float64
	Coef0          float64
	Degree         int
	SupportVectors [][]float64
	DualCoef       []float64
	Intercept      float64
}

func newSVR(p *bundle.SVRParams) (*SVR, error) {
	if p == nil {
		return nil, errors.New("missing svr parameters")
	}
	if len(p.SupportVectors) == 0 {
		return nil, errors.New("no support vectors")
	}
	if len(p.DualCoef) != len(p.SupportVectors) {
		return nil, fmt.Errorf("%d support vectors but %d dual coefficients", len(p.SupportVectors), len(p.DualCoef))
	}

	width := len(p.SupportVectors[0])
	if width == 0 {
		return nil, errors.New("support vectors are empty")
	}
	for i, sv := range p.SupportVectors {
		if len(sv) != width {
			return nil, fmt.Errorf("support vector %d has %d values, expected %d", i, len(sv), width)
		}
	}

	s := &SVR{
		Kernel:         p.Kernel,
		Gamma:          p.Gamma,
		Coef0:          p.Coef0,
		Degree:         p.Degree,
		SupportVectors: p.SupportVectors,
		DualCoef:       p.DualCoef,
		Intercept:      p.Intercept,
	}

	switch s.Kernel {
	case KernelLinear:
	case KernelRBF, KernelPoly, KernelSigmoid:
		if s.Gamma <= 0 {
			return nil, fmt.Errorf("kernel %s needs a positive gamma", s.Kernel)
		}
		if s.Kernel == KernelPoly && s.Degree == 0 {
			s.Degree = 3
		}
	default:
		return nil, fmt.Errorf("unknown kernel %q", s.Kernel)
	}

	return s, nil
}

func (s *SVR) kernel(sv, x []float64) float64 {
	switch s.Kernel {
	case KernelRBF:
		var sq float64
		for i := range sv {
			d := sv[i] - x[i]
			sq += d * d
		}
		return math.Exp(-s.Gamma * sq)
	case KernelPoly:
		return math.Pow(s.Gamma*dot(sv, x)+s.Coef0, float64(s.Degree))
	case KernelSigmoid:
		return math.Tanh(s.Gamma*dot(sv, x) + s.Coef0)
	default:
		return dot(sv, x)
	}
}

func (s *SVR) Predict(x []float64) (float64, error) {
	y := s.Intercept
	for i, sv := range s.SupportVectors {
		y += s.DualCoef[i] * s.kernel(sv, x)
	}
	return y, nil
}

func (s *SVR) NumFeatures() int {
	return len(s.SupportVectors[0])
}
