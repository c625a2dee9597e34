// Package pipeline turns a validated household record into the ordered
// feature vector a trained regressor consumes.
//
// The steps run in a fixed order: encode categorical values, clamp numeric
// values to their training range, synthesize derived features, align and
// robust-scale against the scaler's feature list, then select the model's
// features. Anomalies never fail a transform; each one is absorbed by a named
// policy and recorded in the returned Trace.
package pipeline

import (
	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/features"
)

// Pipeline applies one preprocessor bundle. It holds no mutable state and is
// safe for concurrent use.
type Pipeline struct {
	pre *bundle.Preprocessor
}

// New returns a pipeline over pre. The bundle must not be modified afterwards.
func New(pre *bundle.Preprocessor) *Pipeline {
	return &Pipeline{pre: pre}
}

// Result is the output of a transform.
type Result struct {
	Vector []float64
	// Scaled is the aligned record the vector was selected from.
	Scaled Record
	Trace  Trace
}

// Transform runs every step on in.
func (p *Pipeline) Transform(in features.RawInput) Result {
	var trace Trace

	rec := Encode(p.pre.Encoders, in, &trace)
	Clamp(p.pre.ClampBounds, rec, &trace)
	rec = Synthesize(rec, &trace)
	scaled := AlignAndScale(rec, p.pre.Scaler, &trace)
	vec := Select(scaled, p.pre.SelectedFeatures, &trace)

	return Result{Vector: vec, Scaled: scaled, Trace: trace}
}

// SelectedFeatures returns the model input order.
func (p *Pipeline) SelectedFeatures() []string {
	return p.pre.SelectedFeatures
}
