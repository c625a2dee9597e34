package model

import (
	"errors"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

// Linear is y = w·x + b. It covers ordinary least squares, ridge and lasso.
type Linear struct {
	Coefficients []float64
	Intercept    float64
}

func newLinear(p *bundle.LinearParams) (*Linear, error) {
	if p == nil {
		return nil, errors.New("missing linear parameters")
	}
	if len(p.Coefficients) == 0 {
		return nil, errors.New("no coefficients")
	}
	if !finite(p.Coefficients...) || !finite(p.Intercept) {
		return nil, errors.New("coefficients are not finite")
	}
	return &Linear{Coefficients: p.Coefficients, Intercept: p.Intercept}, nil
}

func (l *Linear) Predict(x []float64) (float64, error) {
	return dot(l.Coefficients, x) + l.Intercept, nil
}

func (l *Linear) NumFeatures() int {
	return len(l.Coefficients)
}
