package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/stoewer/go-strcase"
)

// ErrInvalidInput is matched by every boundary validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Problem is a single rejected field.
type Problem struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// InputError reports every problem found in a raw record.
type InputError struct {
	Problems []Problem `json:"problems" yaml:"problems"`
}

func (e *InputError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid input: %s: %s", e.Problems[0].Field, e.Problems[0].Message)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("invalid input (%d problems):", len(e.Problems)))
	for _, p := range e.Problems {
		result.WriteString(fmt.Sprintf("\n  %s: %s", p.Field, p.Message))
	}
	return result.String()
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *InputError) add(field, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Normalized is the result of boundary validation.
type Normalized struct {
	Input RawInput `json:"input" yaml:"input"`
	// Defaulted lists keys filled from their documented default.
	Defaulted []string `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
	// Ignored lists keys that are not part of the catalog.
	Ignored []string `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

type normalizer struct {
	applyDefaults bool
	checkRanges   bool
}

// NormalizeOption configures Normalize.
type NormalizeOption func(*normalizer)

// WithDefaults controls whether documented defaults fill absent keys.
func WithDefaults(apply bool) NormalizeOption {
	return func(n *normalizer) {
		n.applyDefaults = apply
	}
}

// WithRangeChecks controls whether the documented validation ranges apply.
func WithRangeChecks(check bool) NormalizeOption {
	return func(n *normalizer) {
		n.checkRanges = check
	}
}

// Normalize coerces a loosely typed record into a RawInput. Keys are matched
// after snake_case conversion, so householdSize and household-size both map
// to household_size. Every problem is collected before returning.
func Normalize(raw map[string]any, opts ...NormalizeOption) (*Normalized, error) {
	n := &normalizer{applyDefaults: true, checkRanges: true}
	for _, opt := range opts {
		opt(n)
	}

	out := &Normalized{Input: make(RawInput, len(raw))}
	errs := &InputError{}
	origin := make(map[string]string, len(raw))
	rejected := make(map[string]bool)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := strcase.SnakeCase(strings.TrimSpace(key))
		spec, ok := Lookup(name)
		if !ok {
			out.Ignored = append(out.Ignored, key)
			continue
		}
		if prev, dup := origin[name]; dup {
			errs.add(name, "given twice, as %q and %q", prev, key)
			rejected[name] = true
			continue
		}
		origin[name] = key

		value := raw[key]
		if value == nil {
			continue
		}

		v, err := n.coerce(spec, value)
		if err != nil {
			errs.add(name, "%v", err)
			rejected[name] = true
			continue
		}
		out.Input[name] = v
	}

	for _, spec := range Catalog {
		if _, ok := out.Input[spec.Name]; ok {
			continue
		}
		if rejected[spec.Name] {
			continue
		}
		switch {
		case spec.Required:
			errs.add(spec.Name, "is required")
		case n.applyDefaults && spec.Default != nil:
			out.Input[spec.Name] = defaultValue(spec)
			out.Defaulted = append(out.Defaulted, spec.Name)
		}
	}

	if len(errs.Problems) > 0 {
		return nil, errs
	}

	return out, nil
}

func (n *normalizer) coerce(spec Spec, raw any) (Value, error) {
	switch spec.Kind {
	case KindCategory:
		if _, isBool := raw.(bool); isBool {
			return Value{}, fmt.Errorf("expected a category string, got %v", raw)
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return Value{}, fmt.Errorf("expected a category string, got %T", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Value{}, errors.New("must not be empty")
		}
		return Category(s), nil

	case KindLevel:
		if s, ok := raw.(string); ok {
			if i, ok := spec.LevelIndex(strings.TrimSpace(s)); ok {
				return Label(spec.Levels[i], i), nil
			}
			if _, err := cast.ToFloat64E(s); err != nil {
				return Value{}, fmt.Errorf("expected a number or one of %s, got %q", strings.Join(spec.Levels, ", "), s)
			}
		}
		return n.number(spec, raw)

	default:
		return n.number(spec, raw)
	}
}

func (n *normalizer) number(spec Spec, raw any) (Value, error) {
	if _, isBool := raw.(bool); isBool {
		return Value{}, fmt.Errorf("expected a number, got %v", raw)
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return Value{}, fmt.Errorf("expected a number, got %q", fmt.Sprint(raw))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, errors.New("must be a finite number")
	}

	if spec.Kind == KindInteger && f != math.Trunc(f) {
		return Value{}, fmt.Errorf("expected a whole number, got %v", f)
	}

	if n.checkRanges {
		if spec.Min != nil && f < *spec.Min {
			return Value{}, fmt.Errorf("must be at least %v, got %v", *spec.Min, f)
		}
		if spec.Max != nil && f > *spec.Max {
			return Value{}, fmt.Errorf("must be at most %v, got %v", *spec.Max, f)
		}
	}

	return Number(f), nil
}

func defaultValue(spec Spec) Value {
	if spec.Kind == KindLevel {
		i := int(*spec.Default)
		if i >= 0 && i < len(spec.Levels) {
			return Label(spec.Levels[i], i)
		}
	}
	return Number(*spec.Default)
}
