package pipeline

import (
	"fmt"
	"sort"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

// Clamped is the outcome of clamping one value.
type Clamped struct {
	Value float64
	// Applied is set when the value was outside the training range.
	Applied bool
}

// ClampToTrainingRange saturates v to b. Clamping is idempotent.
func ClampToTrainingRange(b bundle.Bounds, v float64) Clamped {
	switch {
	case v < b.Lower:
		return Clamped{Value: b.Lower, Applied: true}
	case v > b.Upper:
		return Clamped{Value: b.Upper, Applied: true}
	default:
		return Clamped{Value: v}
	}
}

// Clamp applies the training clamp bounds to rec in place. Features without
// bounds are left unchanged.
func Clamp(bounds bundle.ClampBounds, rec Record, trace *Trace) {
	names := make([]string, 0, len(bounds))
	for name := range bounds {
		if _, ok := rec[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		res := ClampToTrainingRange(bounds[name], rec[name])
		if res.Applied {
			trace.add(StageClamp, PolicyClamped, name, fmt.Sprintf("%g -> %g", rec[name], res.Value))
			rec[name] = res.Value
		}
	}
}
