// Package schema provides access to the carbonwise input and output schema
// definitions. It lets third-party applications validate household records
// before sending them, and discover the shape of every result.
//
// The schema information is useful for:
//   - Building input forms with the documented defaults and ranges
//   - Validating records in other services before calling an estimator
//   - Generating client types for the prediction and assessment results
//
// Example usage:
//
//	out, err := schema.GetSchema()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, f := range out.Features {
//		fmt.Printf("%s (%s): %s\n", f.Name, f.Kind, f.Description)
//	}
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/pipeline"
)

// SchemaOutput is the complete schema information for carbonwise.
type SchemaOutput struct {
	// Input is the JSON Schema of the raw household record.
	Input json.RawMessage `json:"input"`
	// Results maps each result name ("prediction", "assessment", "info") to
	// its JSON Schema.
	Results map[string]json.RawMessage `json:"results"`
	// Features documents every recognised input key.
	Features []Feature `json:"features"`
	// DerivedFeatures lists the features synthesised before scaling.
	DerivedFeatures []string `json:"derived_features"`
	// Families lists the supported model families.
	Families []string `json:"families"`
}

// Feature documents one input key.
type Feature struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     *float64 `json:"default,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Levels      []string `json:"levels,omitempty"`
}

// GetSchema assembles the schema information.
func GetSchema() (*SchemaOutput, error) {
	input, err := json.Marshal(features.InputSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}

	results := make(map[string]json.RawMessage)
	for name, s := range engine.ResultSchemas() {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s schema: %w", name, err)
		}
		results[name] = data
	}

	feats := make([]Feature, 0, len(features.Catalog))
	for _, spec := range features.Catalog {
		feats = append(feats, Feature{
			Name:        spec.Name,
			Kind:        string(spec.Kind),
			Description: spec.Description,
			Required:    spec.Required,
			Default:     spec.Default,
			Min:         spec.Min,
			Max:         spec.Max,
			Levels:      spec.Levels,
		})
	}
	sort.Slice(feats, func(i, j int) bool {
		return feats[i].Name < feats[j].Name
	})

	families := make([]string, len(bundle.Families))
	for i, f := range bundle.Families {
		families[i] = string(f)
	}

	return &SchemaOutput{
		Input:           input,
		Results:         results,
		Features:        feats,
		DerivedFeatures: pipeline.DerivedNames(),
		Families:        families,
	}, nil
}
