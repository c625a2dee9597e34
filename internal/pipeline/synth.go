package pipeline

import (
	"strings"
)

// DerivedKind groups derived features by how they are built.
type DerivedKind string

const (
	KindInteraction DerivedKind = "interaction"
	KindPolynomial  DerivedKind = "polynomial"
	KindRatio       DerivedKind = "ratio"
	KindAdditional  DerivedKind = "additional"
)

// Derivation computes one derived feature from base features. Compute
// returns false when the value is undefined for the given operands.
type Derivation struct {
	Name    string
	Kind    DerivedKind
	Inputs  []string
	Compute func(x []float64) (float64, bool)
}

func product(name, a, b string) Derivation {
	return Derivation{
		Name:   name,
		Kind:   KindInteraction,
		Inputs: []string{a, b},
		Compute: func(x []float64) (float64, bool) {
			return x[0] * x[1], true
		},
	}
}

func square(base string) Derivation {
	return Derivation{
		Name:   base + "_power_2",
		Kind:   KindPolynomial,
		Inputs: []string{base},
		Compute: func(x []float64) (float64, bool) {
			return x[0] * x[0], true
		},
	}
}

// guarded divides by the denominator plus a constant: 1 for counts, 0.1 for
// rates in [0, 1].
func guarded(name string, kind DerivedKind, num, den string, guard float64) Derivation {
	return Derivation{
		Name:   name,
		Kind:   kind,
		Inputs: []string{num, den},
		Compute: func(x []float64) (float64, bool) {
			d := x[1] + guard
			if d == 0 {
				return 0, false
			}
			return x[0] / d, true
		},
	}
}

// perPerson divides by household_size without a guard.
func perPerson(name string, num ...string) Derivation {
	return Derivation{
		Name:   name,
		Kind:   KindAdditional,
		Inputs: append(append([]string{}, num...), "household_size"),
		Compute: func(x []float64) (float64, bool) {
			hs := x[len(x)-1]
			if hs == 0 {
				return 0, false
			}
			var sum float64
			for _, v := range x[:len(x)-1] {
				sum += v
			}
			return sum / hs, true
		},
	}
}

// Derivations is the fixed derived feature set, in computation order.
var Derivations = []Derivation{
	product("electricity_heating_interaction", "electricity_usage_kwh", "heating_efficiency"),
	product("cooling_heating_interaction", "cooling_efficiency", "heating_efficiency"),
	product("vehicle_distance_efficiency", "vehicle_monthly_distance_km", "fuel_efficiency"),
	product("transport_household_interaction", "vehicles_per_household", "vehicle_monthly_distance_km"),
	product("waste_recycling_synergy", "recycling_rate", "composting_rate"),
	product("waste_household_interaction", "waste_per_person", "household_size"),
	product("meat_travel_interaction", "meat_consumption", "air_travel_hours"),
	product("shopping_lifestyle_impact", "shopping_frequency", "lifestyle_impact_score"),
	product("home_size_efficiency", "home_size_sqft", "home_efficiency"),
	product("climate_efficiency_synergy", "climate_impact_factor", "heating_efficiency"),

	square("household_size"),
	square("home_size_sqft"),
	square("heating_days"),
	square("cooling_days"),
	square("electricity_usage_kwh"),

	guarded("electricity_per_person_ratio", KindRatio, "electricity_usage_kwh", "household_size", 1),
	guarded("fuel_to_distance_ratio", KindRatio, "fuel_usage_liters", "vehicle_monthly_distance_km", 1),
	guarded("vehicles_to_household_ratio", KindRatio, "vehicles_per_household", "household_size", 1),
	guarded("waste_to_recycling_ratio", KindRatio, "waste_per_person", "recycling_rate", 0.1),
	guarded("heating_to_cooling_ratio", KindRatio, "heating_days", "cooling_days", 1),

	perPerson("electricity_per_person", "electricity_usage_kwh"),
	guarded("electricity_transport_ratio", KindAdditional, "electricity_usage_kwh", "vehicle_monthly_distance_km", 1),
	{
		Name:   "heating_efficiency_impact",
		Kind:   KindAdditional,
		Inputs: []string{"heating_efficiency", "home_size_sqft"},
		Compute: func(x []float64) (float64, bool) {
			return x[0] * x[1] / 1000, true
		},
	},
	perPerson("carbon_per_person", "electricity_usage_kwh", "vehicle_monthly_distance_km"),
	perPerson("home_size_per_person", "home_size_sqft"),
	guarded("transport_efficiency", KindAdditional, "fuel_efficiency", "vehicle_monthly_distance_km", 1),
}

// Synthesize returns base plus every derived feature whose operands are all
// present. Derived features read only base values, so their order does not
// affect the result.
func Synthesize(base Record, trace *Trace) Record {
	out := base.Clone()
	x := make([]float64, 0, 4)

	for _, d := range Derivations {
		x = x[:0]
		var missing []string
		for _, in := range d.Inputs {
			v, ok := base[in]
			if !ok {
				missing = append(missing, in)
				continue
			}
			x = append(x, v)
		}

		if len(missing) > 0 {
			trace.add(StageSynthesize, PolicySkippedDerived, d.Name, "missing "+strings.Join(missing, ", "))
			continue
		}

		v, ok := d.Compute(x)
		if !ok {
			trace.add(StageSynthesize, PolicySkippedDerived, d.Name, "zero denominator")
			continue
		}
		out[d.Name] = v
	}

	return out
}

// DerivedNames lists the derived feature names in computation order.
func DerivedNames() []string {
	names := make([]string, len(Derivations))
	for i, d := range Derivations {
		names[i] = d.Name
	}
	return names
}
