package engine

import (
	"sort"
)

// Importance is one entry of the feature importance ranking.
type Importance struct {
	Feature string  `json:"feature" yaml:"feature"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// Info summarises the loaded bundles.
type Info struct {
	ModelName          string         `json:"model_name" yaml:"model_name"`
	Family             string         `json:"family" yaml:"family"`
	Score              float64        `json:"score" yaml:"score"`
	Confidence         string         `json:"confidence" yaml:"confidence"`
	FormatVersion      string         `json:"format_version" yaml:"format_version"`
	NumFeatures        int            `json:"num_features" yaml:"num_features"`
	SelectedFeatures   []string       `json:"selected_features" yaml:"selected_features"`
	ScalerFeatures     int            `json:"scaler_features" yaml:"scaler_features"`
	ClampedFeatures    int            `json:"clamped_features" yaml:"clamped_features"`
	Encoders           map[string]int `json:"encoders" yaml:"encoders"`
	TopImportances     []Importance   `json:"top_importances,omitempty" yaml:"top_importances,omitempty"`
	ModelSource        string         `json:"model_source,omitempty" yaml:"model_source,omitempty"`
	PreprocessorSource string         `json:"preprocessor_source,omitempty" yaml:"preprocessor_source,omitempty"`
}

// Info describes the context. top bounds the importance ranking; 0 keeps all.
func (c *Context) Info(top int) Info {
	encoders := make(map[string]int, len(c.pre.Encoders))
	for name, classes := range c.pre.Encoders {
		encoders[name] = len(classes)
	}

	return Info{
		ModelName:          c.model.Name,
		Family:             string(c.model.Family),
		Score:              c.model.Score,
		Confidence:         c.model.ConfidenceLabel(),
		FormatVersion:      c.ModelVersion(),
		NumFeatures:        c.model.NumFeatures(),
		SelectedFeatures:   c.SelectedFeatures(),
		ScalerFeatures:     len(c.pre.Scaler.Features),
		ClampedFeatures:    len(c.pre.ClampBounds),
		Encoders:           encoders,
		TopImportances:     rankImportances(c.pre.FeatureImportance, top),
		ModelSource:        c.art.Source,
		PreprocessorSource: c.pre.Source,
	}
}

func rankImportances(weights map[string]float64, top int) []Importance {
	out := make([]Importance, 0, len(weights))
	for name, w := range weights {
		out = append(out, Importance{Feature: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Feature < out[j].Feature
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
