package pipeline

import (
	"sort"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

// FillMissingWithDefault returns rec[name], or 0 when the feature is absent.
// filled reports whether the default was used.
func FillMissingWithDefault(rec Record, name string) (value float64, filled bool) {
	if v, ok := rec[name]; ok {
		return v, false
	}
	return 0, true
}

// AlignAndScale robust-scales the features the scaler was fit on, zero-filling
// any that are missing, and keeps every other feature of rec unscaled.
func AlignAndScale(rec Record, params bundle.ScalerParams, trace *Trace) Record {
	out := make(Record, len(rec)+len(params.Features))
	expected := make(map[string]struct{}, len(params.Features))

	for i, name := range params.Features {
		expected[name] = struct{}{}

		v, filled := FillMissingWithDefault(rec, name)
		if filled {
			trace.add(StageAlign, PolicyZeroFill, name, "")
		}
		out[name] = (v - params.Center[i]) / params.Scale[i]
	}

	extra := make([]string, 0)
	for name := range rec {
		if _, ok := expected[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	for _, name := range extra {
		trace.add(StageAlign, PolicyPassthrough, name, "")
		out[name] = rec[name]
	}

	return out
}
