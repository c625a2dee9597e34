package engine

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"
)

// ResultSchemas reflects the JSON Schemas of the prediction outputs.
func ResultSchemas() map[string]*jsonschema.Schema {
	r := &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}

	return map[string]*jsonschema.Schema{
		"prediction": r.Reflect(&PredictionResult{}),
		"assessment": r.Reflect(&Assessment{}),
		"info":       r.Reflect(&Info{}),
	}
}
