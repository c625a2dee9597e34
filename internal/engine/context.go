// Package engine holds the inference context: a frozen preprocessor, a
// regressor and a recommendation engine, loaded once and shared by every
// request.
package engine

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/carbonwise/carbonwise/internal/breakdown"
	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/metrics"
	"github.com/carbonwise/carbonwise/internal/model"
	"github.com/carbonwise/carbonwise/internal/pipeline"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Units of every predicted value.
const Units = "kg CO2/year"

// defaultFormatVersion is reported for bundles exported without one.
const defaultFormatVersion = "1.0.0"

// Context is immutable after construction and safe for concurrent use.
type Context struct {
	pre         *bundle.Preprocessor
	art         *bundle.ModelArtifact
	model       *model.Model
	pipeline    *pipeline.Pipeline
	recommender *recommend.Engine
	metrics     *metrics.Collector
	now         func() time.Time
	newID       func() string
}

type config struct {
	loader      *bundle.Loader
	recommender *recommend.Engine
	metrics     *metrics.Collector
	now         func() time.Time
	newID       func() string
}

// Option configures a Context.
type Option func(*config)

// WithLoader sets the bundle loader used by Load.
func WithLoader(l *bundle.Loader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithRecommender replaces the default recommendation engine.
func WithRecommender(r *recommend.Engine) Option {
	return func(c *config) {
		c.recommender = r
	}
}

// WithMetrics records inference activity on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithClock overrides the assessment timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithIDGenerator overrides the assessment ID source.
func WithIDGenerator(newID func() string) Option {
	return func(c *config) {
		c.newID = newID
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.recommender == nil {
		c.recommender = recommend.NewEngine()
	}
	return c
}

// Load reads both bundles and builds a context. Any failure matches
// bundle.ErrMissingArtifact.
func Load(modelPath, preprocessorPath string, opts ...Option) (*Context, error) {
	cfg := newConfig(opts)

	loader := cfg.loader
	if loader == nil {
		l, err := bundle.NewLoader()
		if err != nil {
			return nil, err
		}
		loader = l
	}

	pre, err := loader.LoadPreprocessor(preprocessorPath)
	if err != nil {
		return nil, err
	}

	art, err := loader.LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("model", modelPath).
		Str("preprocessor", preprocessorPath).
		Str("family", string(art.Family)).
		Int("selected_features", len(pre.SelectedFeatures)).
		Msg("Loaded bundles")

	return build(pre, art, cfg)
}

// New builds a context from bundles already in memory. The bundles must not
// be modified afterwards.
func New(pre *bundle.Preprocessor, art *bundle.ModelArtifact, opts ...Option) (*Context, error) {
	if err := pre.Validate(); err != nil {
		return nil, &bundle.ArtifactError{Artifact: "preprocessor", Message: "inconsistent bundle", Err: err}
	}
	if err := art.Validate(); err != nil {
		return nil, &bundle.ArtifactError{Artifact: "model", Message: "inconsistent bundle", Err: err}
	}
	return build(pre, art, newConfig(opts))
}

func build(pre *bundle.Preprocessor, art *bundle.ModelArtifact, cfg *config) (*Context, error) {
	m, err := model.New(art)
	if err != nil {
		return nil, &bundle.ArtifactError{
			Artifact:   "model",
			Path:       art.Source,
			Message:    "cannot build regressor",
			Suggestion: "Check the family parameters against the exported estimator",
			Err:        err,
		}
	}

	if err := m.CheckFeatures(pre.SelectedFeatures); err != nil {
		log.Warn().
			Err(err).
			Str("model", art.Source).
			Str("preprocessor", pre.Source).
			Msg("Model and preprocessor disagree on features, predictions will fail")
	}

	return &Context{
		pre:         pre,
		art:         art,
		model:       m,
		pipeline:    pipeline.New(pre),
		recommender: cfg.recommender,
		metrics:     cfg.metrics,
		now:         cfg.now,
		newID:       cfg.newID,
	}, nil
}

// PredictionResult is the outcome of one prediction.
type PredictionResult struct {
	PredictedValue  float64             `json:"predicted_carbon_footprint" yaml:"predicted_carbon_footprint"`
	Units           string              `json:"prediction_units" yaml:"prediction_units"`
	ConfidenceLabel string              `json:"model_confidence" yaml:"model_confidence"`
	ModelName       string              `json:"model_name" yaml:"model_name"`
	Breakdown       breakdown.Breakdown `json:"breakdown" yaml:"breakdown"`
	Fallbacks       pipeline.Trace      `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// PredictFromRawInputs transforms in and runs the regressor. Input anomalies
// are absorbed and listed in Fallbacks; only a schema mismatch between the
// bundles fails the call.
func (c *Context) PredictFromRawInputs(in features.RawInput) (*PredictionResult, error) {
	done := c.metrics.StartPrediction(string(c.model.Family))

	res, err := c.predict(in)
	done(err)

	return res, err
}

func (c *Context) predict(in features.RawInput) (*PredictionResult, error) {
	if err := c.model.CheckFeatures(c.pipeline.SelectedFeatures()); err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	out := c.pipeline.Transform(in)
	c.logTrace(out.Trace)
	c.metrics.ObserveTrace(out.Trace)

	y, err := c.model.Predict(out.Vector)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	value := math.RoundToEven(y*100) / 100

	return &PredictionResult{
		PredictedValue:  value,
		Units:           Units,
		ConfidenceLabel: c.model.ConfidenceLabel(),
		ModelName:       c.model.Name,
		Breakdown:       breakdown.Compute(in, value),
		Fallbacks:       out.Trace,
	}, nil
}

func (c *Context) logTrace(trace pipeline.Trace) {
	for _, e := range trace {
		log.Debug().
			Str("stage", string(e.Stage)).
			Str("policy", string(e.Policy)).
			Str("feature", e.Feature).
			Str("detail", e.Detail).
			Msg("Applied fallback")
	}
}

// GetRecommendations returns ranked advice for in. The list is never empty.
// predictedValue does not change the advice.
func (c *Context) GetRecommendations(in features.RawInput, predictedValue float64) []recommend.Recommendation {
	recs := c.recommender.Recommend(in, predictedValue)
	c.metrics.ObserveRecommendations(recs)
	return recs
}

// Assessment is a prediction with its recommendations, identified for
// storage by the caller.
type Assessment struct {
	CalculationID   string                     `json:"calculation_id" yaml:"calculation_id"`
	CreatedAt       time.Time                  `json:"created_at" yaml:"created_at"`
	Prediction      *PredictionResult          `json:"prediction" yaml:"prediction"`
	ConfidenceScore float64                    `json:"confidence_score" yaml:"confidence_score"`
	ModelVersion    string                     `json:"model_version" yaml:"model_version"`
	Recommendations []recommend.Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Assess predicts and recommends in one call.
func (c *Context) Assess(in features.RawInput) (*Assessment, error) {
	pred, err := c.PredictFromRawInputs(in)
	if err != nil {
		return nil, err
	}

	return &Assessment{
		CalculationID:   c.newID(),
		CreatedAt:       c.now().UTC(),
		Prediction:      pred,
		ConfidenceScore: math.RoundToEven(c.model.Score*1000) / 1000,
		ModelVersion:    c.ModelVersion(),
		Recommendations: c.GetRecommendations(in, pred.PredictedValue),
	}, nil
}

// ModelVersion is the model bundle's format version.
func (c *Context) ModelVersion() string {
	if c.art.FormatVersion == "" {
		return defaultFormatVersion
	}
	return c.art.FormatVersion
}

// SelectedFeatures returns the model input order.
func (c *Context) SelectedFeatures() []string {
	return slices.Clone(c.pipeline.SelectedFeatures())
}
