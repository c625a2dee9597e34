package pipeline

// Select builds the model input vector in the order of selected, zero-filling
// absent features. The order is the model's input contract.
func Select(rec Record, selected []string, trace *Trace) []float64 {
	vec := make([]float64, len(selected))
	for i, name := range selected {
		v, filled := FillMissingWithDefault(rec, name)
		if filled {
			trace.add(StageSelect, PolicyZeroFill, name, "")
		}
		vec[i] = v
	}
	return vec
}
