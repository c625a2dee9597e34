// Package carbonwise provides a public API for estimating household carbon
// footprints with exported regression bundles. It lets third-party
// applications embed predictions and recommendations without the CLI.
//
// The main functionality includes:
//   - Loading a model bundle and a preprocessor bundle once
//   - Predicting the annual footprint of a household from loosely typed input
//   - Ranking reduction recommendations for the same input
//
// Example usage:
//
//	est, err := carbonwise.Load("model.json", "preprocessor.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inputs := map[string]any{
//		"household_size":        3,
//		"electricity_usage_kwh": 650,
//		"heating_energy_source": "natural_gas",
//	}
//
//	pred, err := est.Predict(inputs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%.2f %s (%s)\n", pred.PredictedValue, pred.Units, pred.ConfidenceLabel)
package carbonwise

import (
	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/metrics"
	"github.com/carbonwise/carbonwise/internal/model"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	// Prediction is the outcome of Estimator.Predict.
	Prediction = engine.PredictionResult
	// Assessment bundles a prediction with its recommendations.
	Assessment = engine.Assessment
	// Recommendation is one piece of reduction advice.
	Recommendation = recommend.Recommendation
)

var (
	// ErrMissingArtifact is matched by every bundle loading failure.
	ErrMissingArtifact = bundle.ErrMissingArtifact
	// ErrSchemaMismatch is matched when the bundles disagree on features.
	ErrSchemaMismatch = model.ErrSchemaMismatch
	// ErrInvalidInput is matched when raw input fails boundary validation.
	ErrInvalidInput = features.ErrInvalidInput
)

type options struct {
	strict        bool
	applyDefaults bool
	registerer    prometheus.Registerer
}

// Option configures an Estimator.
type Option func(*options)

// WithStrictBundles rejects unknown fields in bundle files.
func WithStrictBundles(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithDefaults controls whether documented defaults fill absent optional
// inputs. Defaults are applied unless disabled.
func WithDefaults(apply bool) Option {
	return func(o *options) {
		o.applyDefaults = apply
	}
}

// WithMetricsRegisterer records predictions, fallbacks and recommendations
// as Prometheus metrics on r.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// Estimator predicts footprints and recommends reductions. It is safe for
// concurrent use.
type Estimator struct {
	ctx           *engine.Context
	applyDefaults bool
}

// Load reads the model bundle at modelPath and the preprocessor bundle at
// preprocessorPath. Errors match ErrMissingArtifact.
func Load(modelPath, preprocessorPath string, opts ...Option) (*Estimator, error) {
	o := &options{applyDefaults: true}
	for _, opt := range opts {
		opt(o)
	}

	loader, err := bundle.NewLoader(bundle.WithStrict(o.strict))
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{engine.WithLoader(loader)}
	if o.registerer != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(metrics.NewCollectorWithRegistry(o.registerer)))
	}

	ctx, err := engine.Load(modelPath, preprocessorPath, engineOpts...)
	if err != nil {
		return nil, err
	}

	return &Estimator{ctx: ctx, applyDefaults: o.applyDefaults}, nil
}

func (e *Estimator) normalize(raw map[string]any) (features.RawInput, error) {
	n, err := features.Normalize(raw, features.WithDefaults(e.applyDefaults))
	if err != nil {
		return nil, err
	}
	return n.Input, nil
}

// Predict estimates the annual footprint for raw. Keys may be snake_case,
// camelCase or kebab-case. Invalid input fails with an error matching
// ErrInvalidInput.
func (e *Estimator) Predict(raw map[string]any) (*Prediction, error) {
	in, err := e.normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.ctx.PredictFromRawInputs(in)
}

// Recommend ranks reduction advice for raw. The result is never empty.
// predictedValue is accepted for symmetry with Predict and does not change
// the advice.
func (e *Estimator) Recommend(raw map[string]any, predictedValue float64) ([]Recommendation, error) {
	in, err := e.normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.ctx.GetRecommendations(in, predictedValue), nil
}

// Assess predicts and recommends in one call and stamps the result with a
// fresh calculation ID.
func (e *Estimator) Assess(raw map[string]any) (*Assessment, error) {
	in, err := e.normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.ctx.Assess(in)
}

// InputSchema returns the JSON Schema of the accepted raw input.
func InputSchema() *jsonschema.Schema {
	return features.InputSchema()
}
