package features

import (
	"encoding/json"
	"sort"
	"strconv"
)

type valueKind uint8

const (
	kindNumber valueKind = iota + 1
	kindText
	kindLabel
)

// Value is a single raw input: a number, a category string, or a level label
// that also carries its numeric index.
type Value struct {
	kind   valueKind
	number float64
	text   string
}

// Number returns a numeric value.
func Number(v float64) Value {
	return Value{kind: kindNumber, number: v}
}

// Category returns a categorical value.
func Category(s string) Value {
	return Value{kind: kindText, text: s}
}

// Label returns a level label with its numeric index.
func Label(s string, index int) Value {
	return Value{kind: kindLabel, text: s, number: float64(index)}
}

// Float returns the numeric form of the value. Category strings have none.
func (v Value) Float() (float64, bool) {
	if v.kind == kindNumber || v.kind == kindLabel {
		return v.number, true
	}
	return 0, false
}

// Text returns the string form of the value. Numbers are formatted with the
// shortest representation that round-trips.
func (v Value) Text() string {
	if v.kind == kindNumber {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

// IsZero reports whether v was never set.
func (v Value) IsZero() bool {
	return v.kind == 0
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == kindNumber {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

func (v Value) MarshalYAML() (interface{}, error) {
	if v.kind == kindNumber {
		return v.number, nil
	}
	return v.text, nil
}

// RawInput is a validated household record keyed by snake_case feature name.
type RawInput map[string]Value

// Float returns the numeric form of a feature.
func (in RawInput) Float(name string) (float64, bool) {
	v, ok := in[name]
	if !ok {
		return 0, false
	}
	return v.Float()
}

// FloatOr returns the numeric form of a feature, or def when it is absent or
// not numeric.
func (in RawInput) FloatOr(name string, def float64) float64 {
	if f, ok := in.Float(name); ok {
		return f
	}
	return def
}

// Text returns the string form of a feature.
func (in RawInput) Text(name string) (string, bool) {
	v, ok := in[name]
	if !ok {
		return "", false
	}
	return v.Text(), true
}

// Keys returns the feature names in sorted order.
func (in RawInput) Keys() []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (in RawInput) Clone() RawInput {
	out := make(RawInput, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
