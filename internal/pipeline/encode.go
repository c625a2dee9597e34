package pipeline

import (
	"fmt"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/features"
)

// Record is a working feature record. After encoding every value is numeric.
type Record map[string]float64

// Clone returns a copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Resolution is the outcome of encoding one categorical value.
type Resolution struct {
	Code     int
	Category string
	// Fallback is set when the raw value was not a training class and the
	// first class was substituted.
	Fallback bool
}

// ResolveUnseenCategory encodes raw against the stored class order. Unknown
// values resolve to class 0. classes must not be empty.
func ResolveUnseenCategory(classes []string, raw string) Resolution {
	for i, c := range classes {
		if c == raw {
			return Resolution{Code: i, Category: c}
		}
	}
	return Resolution{Code: 0, Category: classes[0], Fallback: true}
}

// Encode turns a raw input into a numeric record. Features with an encoder are
// label encoded from their string form. Other numeric features pass through;
// other category strings are dropped because no training column holds them.
func Encode(table bundle.EncodingTable, in features.RawInput, trace *Trace) Record {
	rec := make(Record, len(in))

	for _, name := range in.Keys() {
		v := in[name]

		if classes, ok := table.Classes(name); ok && len(classes) > 0 {
			res := ResolveUnseenCategory(classes, v.Text())
			if res.Fallback {
				trace.add(StageEncode, PolicyUnseenCategory, name, fmt.Sprintf("%q -> %q", v.Text(), res.Category))
			}
			rec[name] = float64(res.Code)
			continue
		}

		if f, ok := v.Float(); ok {
			rec[name] = f
			continue
		}

		trace.add(StageEncode, PolicyDroppedFeature, name, "no encoder")
	}

	return rec
}
