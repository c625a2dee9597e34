package features

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the household input schema.
const SchemaID = "https://carbonwise.dev/schemas/household-input.json"

// InputSchema describes the accepted raw input as a JSON Schema document built
// from the catalog.
func InputSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	for _, spec := range Catalog {
		props.Set(spec.Name, propertySchema(spec))
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          jsonschema.ID(SchemaID),
		Title:       "Household input",
		Description: "Raw lifestyle and household inputs for a carbon footprint estimate",
		Type:        "object",
		Properties:  props,
		Required:    Required(),
	}
}

func propertySchema(spec Spec) *jsonschema.Schema {
	s := &jsonschema.Schema{Description: spec.Description}

	switch spec.Kind {
	case KindNumber:
		s.Type = "number"
	case KindInteger:
		s.Type = "integer"
	case KindCategory:
		s.Type = "string"
		for _, e := range spec.Examples {
			s.Examples = append(s.Examples, e)
		}
	case KindLevel:
		enum := make([]any, len(spec.Levels))
		for i, l := range spec.Levels {
			enum[i] = l
		}
		s.OneOf = []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Enum: enum},
		}
	}

	if spec.Default != nil {
		s.Default = *spec.Default
	}
	if spec.Min != nil {
		s.Minimum = jsonNumber(*spec.Min)
	}
	if spec.Max != nil {
		s.Maximum = jsonNumber(*spec.Max)
	}

	return s
}

func jsonNumber(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}
