// Package breakdown splits a predicted footprint into per-category shares.
package breakdown

import (
	"math"

	"github.com/carbonwise/carbonwise/internal/features"
)

// Emission factors in kg CO2 per unit of input.
const (
	ElectricityPerKWh    = 0.4
	TransportationPerKM  = 0.2
	HeatingPerSqft       = 0.1
	WastePerPerson       = 200
	LifestylePerPerson   = 100
	defaultHouseholdSize = 1
)

// Breakdown is the prediction split by category, in kg CO2/year.
type Breakdown struct {
	Electricity    float64 `json:"electricity" yaml:"electricity"`
	Transportation float64 `json:"transportation" yaml:"transportation"`
	Heating        float64 `json:"heating" yaml:"heating"`
	Waste          float64 `json:"waste" yaml:"waste"`
	Lifestyle      float64 `json:"lifestyle" yaml:"lifestyle"`
	Other          float64 `json:"other" yaml:"other"`
}

// Share is one named category of a breakdown.
type Share struct {
	Category string
	Value    float64
}

// Shares lists the categories in display order.
func (b Breakdown) Shares() []Share {
	return []Share{
		{"Electricity", b.Electricity},
		{"Transportation", b.Transportation},
		{"Heating", b.Heating},
		{"Waste", b.Waste},
		{"Lifestyle", b.Lifestyle},
		{"Other", b.Other},
	}
}

// Total sums every category.
func (b Breakdown) Total() float64 {
	return b.Electricity + b.Transportation + b.Heating + b.Waste + b.Lifestyle + b.Other
}

// Compute estimates each category from the raw input with fixed emission
// factors, then rescales the estimates so they add up to total. Whatever the
// estimates cannot account for is reported as Other.
func Compute(in features.RawInput, total float64) Breakdown {
	household := in.FloatOr("household_size", defaultHouseholdSize)

	b := Breakdown{
		Electricity:    in.FloatOr("electricity_usage_kwh", 0) * ElectricityPerKWh,
		Transportation: in.FloatOr("vehicle_monthly_distance_km", 0) * TransportationPerKM,
		Heating:        in.FloatOr("home_size_sqft", 0) * HeatingPerSqft,
		Waste:          household * WastePerPerson,
		Lifestyle:      household * LifestylePerPerson,
	}

	sum := b.Electricity + b.Transportation + b.Heating + b.Waste + b.Lifestyle
	if sum > 0 {
		f := total / sum
		b.Electricity *= f
		b.Transportation *= f
		b.Heating *= f
		b.Waste *= f
		b.Lifestyle *= f
		sum = b.Electricity + b.Transportation + b.Heating + b.Waste + b.Lifestyle
	}

	b.Other = math.Max(0, total-sum)
	return b.round()
}

func (b Breakdown) round() Breakdown {
	r := func(v float64) float64 { return math.RoundToEven(v*100) / 100 }
	return Breakdown{
		Electricity:    r(b.Electricity),
		Transportation: r(b.Transportation),
		Heating:        r(b.Heating),
		Waste:          r(b.Waste),
		Lifestyle:      r(b.Lifestyle),
		Other:          r(b.Other),
	}
}
