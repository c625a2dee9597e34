// Package model evaluates exported regressors over preprocessed feature
// vectors. Every supported family is implemented natively from the
// parameters stored in a model bundle.
package model

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

var (
	// ErrSchemaMismatch is matched when a vector or the selected feature list
	// does not fit the model.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidParams is matched when a bundle's family parameters cannot
	// build a regressor.
	ErrInvalidParams = errors.New("invalid model parameters")

	// ErrNonFinite is returned when a regressor produces NaN or an infinity.
	ErrNonFinite = errors.New("non-finite prediction")
)

// Regressor maps a feature vector to a prediction.
type Regressor interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// SchemaMismatchError reports a disagreement between the preprocessor output
// and what the model was trained on.
type SchemaMismatchError struct {
	Expected int
	Got      int
	// Feature and Position are set when the feature lists disagree.
	Feature  string
	Position int
}

func (e *SchemaMismatchError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("schema mismatch: model expects %q at position %d", e.Feature, e.Position)
	}
	return fmt.Sprintf("schema mismatch: model expects %d features, got %d", e.Expected, e.Got)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// Model is a loaded regressor with its bundle metadata.
type Model struct {
	Name     string
	Family   bundle.Family
	Score    float64
	Features []string

	reg Regressor
}

// New builds the regressor described by art.
func New(art *bundle.ModelArtifact) (*Model, error) {
	var (
		reg Regressor
		err error
	)

	switch art.Family {
	case bundle.FamilyLinear:
		reg, err = newLinear(art.Linear)
	case bundle.FamilyRandomForest:
		reg, err = newForest(art.Ensemble, len(art.Features))
	case bundle.FamilyGradientBoosting:
		reg, err = newBoosting(art.Ensemble, len(art.Features))
	case bundle.FamilyKNN:
		reg, err = newNeighbors(art.Neighbors)
	case bundle.FamilySVR:
		reg, err = newSVR(art.SVR)
	default:
		err = fmt.Errorf("unknown family %q", art.Family)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParams, art.Family, err)
	}

	if len(art.Features) > 0 && len(art.Features) != reg.NumFeatures() {
		return nil, fmt.Errorf("%w: %d feature names for %d inputs", ErrInvalidParams, len(art.Features), reg.NumFeatures())
	}

	return &Model{
		Name:     art.ModelName,
		Family:   art.Family,
		Score:    art.Score,
		Features: art.Features,
		reg:      reg,
	}, nil
}

// NewFromRegressor wraps an already built regressor.
func NewFromRegressor(name string, score float64, reg Regressor) *Model {
	return &Model{Name: name, Score: score, reg: reg}
}

// NumFeatures returns the input width.
func (m *Model) NumFeatures() int {
	return m.reg.NumFeatures()
}

// CheckFeatures verifies that selected matches the feature names the model
// was trained on. Models exported without names accept any list of the right
// length.
func (m *Model) CheckFeatures(selected []string) error {
	if len(selected) != m.reg.NumFeatures() {
		return &SchemaMismatchError{Expected: m.reg.NumFeatures(), Got: len(selected)}
	}
	if len(m.Features) == 0 || slices.Equal(m.Features, selected) {
		return nil
	}
	for i, name := range m.Features {
		if selected[i] != name {
			return &SchemaMismatchError{
				Expected: len(m.Features),
				Got:      len(selected),
				Feature:  name,
				Position: i,
			}
		}
	}
	return nil
}

// Predict evaluates the regressor on x.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != m.reg.NumFeatures() {
		return 0, &SchemaMismatchError{Expected: m.reg.NumFeatures(), Got: len(x)}
	}

	y, err := m.reg.Predict(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, ErrNonFinite
	}
	return y, nil
}

// ConfidenceLabel formats the model's held-out score as a percentage with
// one decimal, e.g. "87.4%". It describes the model, not the prediction.
func (m *Model) ConfidenceLabel() string {
	return fmt.Sprintf("%.1f%%", m.Score*100)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
