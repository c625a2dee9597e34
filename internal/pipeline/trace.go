package pipeline

import (
	"fmt"
	"sort"
)

// Stage names a pipeline step.
type Stage string

const (
	StageEncode     Stage = "encode"
	StageClamp      Stage = "clamp"
	StageSynthesize Stage = "synthesize"
	StageAlign      Stage = "align"
	StageSelect     Stage = "select"
)

// Policy names the fallback that absorbed an anomaly in the input.
type Policy string

const (
	// PolicyUnseenCategory substituted the first training class for an unknown one.
	PolicyUnseenCategory Policy = "unseen_category"
	// PolicyDroppedFeature removed a categorical value the encoders do not know.
	PolicyDroppedFeature Policy = "dropped_feature"
	// PolicyClamped saturated a numeric value to its training range.
	PolicyClamped Policy = "clamped"
	// PolicySkippedDerived left out a derived feature with missing operands.
	PolicySkippedDerived Policy = "skipped_derived"
	// PolicyZeroFill inserted 0 for a feature the scaler or model expects.
	PolicyZeroFill Policy = "zero_fill"
	// PolicyPassthrough kept a feature the scaler was not fit on, unscaled.
	PolicyPassthrough Policy = "unscaled_passthrough"
)

// Event records one fallback taken while transforming a record.
type Event struct {
	Stage   Stage  `json:"stage" yaml:"stage"`
	Policy  Policy `json:"policy" yaml:"policy"`
	Feature string `json:"feature" yaml:"feature"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s/%s %s", e.Stage, e.Policy, e.Feature)
	}
	return fmt.Sprintf("%s/%s %s (%s)", e.Stage, e.Policy, e.Feature, e.Detail)
}

// Trace is the ordered list of fallbacks taken for one record.
type Trace []Event

func (t *Trace) add(stage Stage, policy Policy, feature, detail string) {
	*t = append(*t, Event{Stage: stage, Policy: policy, Feature: feature, Detail: detail})
}

// Has reports whether policy fired for feature.
func (t Trace) Has(policy Policy, feature string) bool {
	for _, e := range t {
		if e.Policy == policy && e.Feature == feature {
			return true
		}
	}
	return false
}

// Filter returns the events for one policy.
func (t Trace) Filter(policy Policy) Trace {
	var out Trace
	for _, e := range t {
		if e.Policy == policy {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of events per policy.
func (t Trace) Counts() map[Policy]int {
	counts := make(map[Policy]int)
	for _, e := range t {
		counts[e.Policy]++
	}
	return counts
}

// Features returns the sorted, distinct features a policy fired for.
func (t Trace) Features(policy Policy) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range t {
		if e.Policy != policy {
			continue
		}
		if _, ok := seen[e.Feature]; ok {
			continue
		}
		seen[e.Feature] = struct{}{}
		out = append(out, e.Feature)
	}
	sort.Strings(out)
	return out
}
