package features

import (
	"slices"
	"sort"
)

// Kind is the semantic type a raw input must be coercible to.
type Kind string

const (
	KindNumber   Kind = "number"
	KindInteger  Kind = "integer"
	KindCategory Kind = "category"
	// KindLevel accepts either a number or one of the feature's level labels.
	KindLevel Kind = "level"
)

// Spec describes one recognized raw input key.
type Spec struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	Default     *float64
	Min         *float64
	Max         *float64
	Levels      []string
	Examples    []string
}

func num(v float64) *float64 { return &v }

// MeatLevels are the accepted meat_consumption labels, lowest first. A label's
// numeric value is its index.
var MeatLevels = []string{"None", "Low", "Medium", "High"}

// Catalog lists every raw input the pipeline recognizes.
var Catalog = []Spec{
	// household
	{Name: "household_size", Kind: KindInteger, Required: true, Min: num(1), Max: num(15), Description: "People living in the household"},
	{Name: "home_size_sqft", Kind: KindNumber, Min: num(200), Max: num(5000), Description: "Home floor area in square feet"},
	{Name: "home_age", Kind: KindNumber, Default: num(10), Description: "Age of the home in years"},
	{Name: "home_type", Kind: KindCategory, Description: "Dwelling type", Examples: []string{"apartment", "detached", "terraced"}},
	{Name: "home_efficiency", Kind: KindNumber, Description: "Home energy efficiency rating, 0 to 1"},
	{Name: "income_level", Kind: KindCategory, Description: "Household income band", Examples: []string{"low", "middle", "high"}},

	// energy
	{Name: "electricity_usage_kwh", Kind: KindNumber, Required: true, Min: num(0), Max: num(2000), Description: "Monthly electricity use in kWh"},
	{Name: "renewable_energy_percentage", Kind: KindNumber, Description: "Share of energy from renewable sources, 0 to 1"},
	{Name: "heating_energy_source", Kind: KindCategory, Description: "Primary heating fuel", Examples: []string{"electric", "natural_gas", "oil", "coal"}},
	{Name: "heating_efficiency", Kind: KindNumber, Default: num(0.8), Description: "Heating system efficiency, 0 to 1"},
	{Name: "cooling_efficiency", Kind: KindNumber, Default: num(0.7), Description: "Cooling system efficiency, 0 to 1"},
	{Name: "heating_days", Kind: KindNumber, Default: num(30), Description: "Days per year the heating runs"},
	{Name: "cooling_days", Kind: KindNumber, Default: num(120), Description: "Days per year the cooling runs"},
	{Name: "cooking_method", Kind: KindCategory, Description: "Main cooking appliance", Examples: []string{"electric_stove", "gas_stove", "induction"}},
	{Name: "climate_zone", Kind: KindCategory, Description: "Climate zone of the home", Examples: []string{"temperate", "cold", "tropical", "arid"}},
	{Name: "climate_impact_factor", Kind: KindNumber, Description: "Regional climate multiplier"},

	// transport
	{Name: "vehicle_type", Kind: KindCategory, Description: "Main vehicle type", Examples: []string{"petrol_sedan", "diesel_suv", "electric_car", "hybrid"}},
	{Name: "vehicle_monthly_distance_km", Kind: KindNumber, Default: num(500), Description: "Kilometres driven per month"},
	{Name: "vehicles_per_household", Kind: KindInteger, Default: num(1), Description: "Number of vehicles"},
	{Name: "fuel_usage_liters", Kind: KindNumber, Default: num(30), Description: "Fuel used per month in litres"},
	{Name: "fuel_efficiency", Kind: KindNumber, Default: num(15), Description: "Vehicle fuel efficiency in km per litre"},
	{Name: "public_transport_availability", Kind: KindCategory, Description: "Access to public transport", Examples: []string{"poor", "fair", "good", "excellent"}},
	{Name: "air_travel_hours", Kind: KindNumber, Default: num(10), Description: "Hours flown per year"},

	// waste
	{Name: "recycling_rate", Kind: KindNumber, Default: num(0.6), Description: "Share of waste recycled, 0 to 1"},
	{Name: "composting_rate", Kind: KindNumber, Default: num(0.2), Description: "Share of organic waste composted, 0 to 1"},
	{Name: "waste_per_person", Kind: KindNumber, Default: num(2.0), Description: "Waste per person per day in kg"},
	{Name: "waste_bag_weekly_count", Kind: KindNumber, Default: num(2), Description: "Waste bags put out per week"},
	{Name: "waste_bag_size", Kind: KindNumber, Default: num(0), Description: "Waste bag size code"},
	{Name: "waste_recycling_efficiency", Kind: KindNumber, Description: "Recycling efficiency score"},

	// lifestyle
	{Name: "meat_consumption", Kind: KindLevel, Default: num(0), Levels: MeatLevels, Description: "Meat consumption, as a level label or its index"},
	{Name: "monthly_grocery_bill", Kind: KindNumber, Default: num(15000), Description: "Monthly grocery spending"},
	{Name: "shopping_frequency", Kind: KindNumber, Default: num(0), Description: "Shopping trips per week"},
	{Name: "lifestyle_impact_score", Kind: KindNumber, Default: num(0.5), Description: "Composite lifestyle score, 0 to 1"},
	{Name: "new_clothes_monthly", Kind: KindNumber, Default: num(1), Description: "New clothing items bought per month"},
	{Name: "tv_pc_daily_hours", Kind: KindNumber, Description: "Daily hours of TV and computer use"},
	{Name: "internet_daily_hours", Kind: KindNumber, Description: "Daily hours online"},
	{Name: "social_activity", Kind: KindCategory, Description: "How often the household goes out", Examples: []string{"never", "sometimes", "often"}},
	{Name: "body_type", Kind: KindCategory, Description: "Body type", Examples: []string{"underweight", "normal", "overweight", "obese"}},
	{Name: "sex", Kind: KindCategory, Description: "Sex of the respondent", Examples: []string{"female", "male"}},
	{Name: "cooling_energy_source", Kind: KindCategory, Description: "Cooling energy source", Examples: []string{"electric", "none"}},
	{Name: "fuel_type", Kind: KindCategory, Description: "Vehicle fuel type", Examples: []string{"petrol", "diesel", "electric", "hybrid"}},
	{Name: "recycling_practice", Kind: KindCategory, Description: "Whether the household recycles", Examples: []string{"yes", "sometimes", "no"}},
	{Name: "location_type", Kind: KindCategory, Description: "Urban, suburban or rural", Examples: []string{"urban", "suburban", "rural"}},
	{Name: "public_transport_usage", Kind: KindCategory, Description: "How often public transport is used", Examples: []string{"never", "sometimes", "daily"}},
	{Name: "walking_cycling_distance_km", Kind: KindNumber, Description: "Kilometres walked or cycled per month"},
}

var byName = func() map[string]Spec {
	m := make(map[string]Spec, len(Catalog))
	for _, s := range Catalog {
		m[s.Name] = s
	}
	return m
}()

// Lookup returns the spec for a recognized key.
func Lookup(name string) (Spec, bool) {
	s, ok := byName[name]
	return s, ok
}

// Required returns the names of the required keys, sorted.
func Required() []string {
	var names []string
	for _, s := range Catalog {
		if s.Required {
			names = append(names, s.Name)
		}
	}
	sort.Strings(names)
	return names
}

// LevelIndex returns the numeric value of a level label. Labels are matched
// exactly.
func (s Spec) LevelIndex(label string) (int, bool) {
	i := slices.Index(s.Levels, label)
	return i, i >= 0
}
