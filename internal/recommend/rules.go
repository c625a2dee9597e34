package recommend

import (
	"slices"

	"github.com/carbonwise/carbonwise/internal/features"
)

// tier is one threshold of a graded rule.
type tier struct {
	match func(v float64) bool
	rec   Recommendation
}

func above(limit float64) func(float64) bool {
	return func(v float64) bool { return v > limit }
}

func below(limit float64) func(float64) bool {
	return func(v float64) bool { return v < limit }
}

// graded reads one numeric input, 0 when absent, and emits the first tier
// that matches.
func graded(name, feature string, tiers ...tier) Rule {
	return Rule{
		Name: name,
		Evaluate: func(in features.RawInput) (Recommendation, bool) {
			v := in.FloatOr(feature, 0)
			for _, t := range tiers {
				if t.match(v) {
					return t.rec, true
				}
			}
			return Recommendation{}, false
		},
	}
}

// DefaultRules returns the built-in rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		graded("electricity", "electricity_usage_kwh",
			tier{above(800), Recommendation{
				Category:         "Electricity",
				Icon:             "⚡",
				Action:           "Switch to LED bulbs and energy-efficient appliances",
				PotentialSavings: "15-25% reduction in electricity usage",
				Priority:         PriorityHigh,
			}},
			tier{above(600), Recommendation{
				Category:         "Electricity",
				Icon:             "⚡",
				Action:           "Consider smart thermostats and energy monitoring",
				PotentialSavings: "10-15% reduction in electricity usage",
				Priority:         PriorityMedium,
			}},
		),
		graded("transportation", "vehicle_monthly_distance_km",
			tier{above(1500), Recommendation{
				Category:         "Transportation",
				Icon:             "🚗",
				Action:           "Use public transport or carpool 3-4 times per week",
				PotentialSavings: "25-35% reduction in vehicle emissions",
				Priority:         PriorityHigh,
			}},
			tier{above(1000), Recommendation{
				Category:         "Transportation",
				Icon:             "🚗",
				Action:           "Consider hybrid/electric vehicle or carpooling",
				PotentialSavings: "15-25% reduction in vehicle emissions",
				Priority:         PriorityMedium,
			}},
		),
		graded("heating", "heating_efficiency",
			tier{below(0.7), Recommendation{
				Category:         "Heating",
				Icon:             "🔥",
				Action:           "Improve home insulation and upgrade heating system",
				PotentialSavings: "20-30% reduction in heating emissions",
				Priority:         PriorityHigh,
			}},
			tier{below(0.8), Recommendation{
				Category:         "Heating",
				Icon:             "🔥",
				Action:           "Seal air leaks and add weather stripping",
				PotentialSavings: "10-15% reduction in heating emissions",
				Priority:         PriorityMedium,
			}},
		),
		graded("waste", "recycling_rate",
			tier{below(0.5), Recommendation{
				Category:         "Waste Management",
				Icon:             "♻️",
				Action:           "Increase recycling and start composting program",
				PotentialSavings: "10-20% reduction in waste emissions",
				Priority:         PriorityMedium,
			}},
		),
		dietRule(),
		homeRule(),
		graded("renewable", "renewable_energy_percentage",
			tier{below(0.2), Recommendation{
				Category:         "Renewable Energy",
				Icon:             "☀️",
				Action:           "Consider installing solar panels or switching to green energy",
				PotentialSavings: "20-40% reduction in energy emissions",
				Priority:         PriorityHigh,
			}},
		),
	}
}

// dietRule matches the meat consumption label, not its numeric index.
func dietRule() Rule {
	return Rule{
		Name: "diet",
		Evaluate: func(in features.RawInput) (Recommendation, bool) {
			label, _ := in.Text("meat_consumption")
			if !slices.Contains([]string{"High", "Medium"}, label) {
				return Recommendation{}, false
			}
			return Recommendation{
				Category:         "Diet",
				Icon:             "🥩",
				Action:           "Reduce meat consumption to 2-3 times per week",
				PotentialSavings: "15-25% reduction in food emissions",
				Priority:         PriorityMedium,
			}, true
		},
	}
}

func homeRule() Rule {
	return Rule{
		Name: "home",
		Evaluate: func(in features.RawInput) (Recommendation, bool) {
			home := in.FloatOr("home_size_sqft", 0)
			household := in.FloatOr("household_size", 1)
			if home <= 0 || household <= 0 || home/household <= 800 {
				return Recommendation{}, false
			}
			return Recommendation{
				Category:         "Home Efficiency",
				Icon:             "🏠",
				Action:           "Consider downsizing or improving space utilization",
				PotentialSavings: "10-20% reduction in home emissions",
				Priority:         PriorityLow,
			}, true
		},
	}
}

// GeneralAdvice is emitted when no rule fires.
func GeneralAdvice() []Recommendation {
	return []Recommendation{
		{
			Category:         "General",
			Icon:             "🌱",
			Action:           "Start with small changes: turn off lights, unplug devices",
			PotentialSavings: "5-10% reduction in overall emissions",
			Priority:         PriorityLow,
		},
		{
			Category:         "Monitoring",
			Icon:             "📱",
			Action:           "Track your carbon footprint monthly to see improvements",
			PotentialSavings: "Better awareness leads to better choices",
			Priority:         PriorityLow,
		},
	}
}
