package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/metrics"
	"github.com/carbonwise/carbonwise/internal/model"
	"github.com/carbonwise/carbonwise/internal/pipeline"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/carbonwise/carbonwise/internal/testhelper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLinear(t *testing.T, opts ...Option) *Context {
	t.Helper()
	ctx, err := Load(testhelper.LinearModelPath(), testhelper.PreprocessorPath(), opts...)
	require.NoError(t, err)
	return ctx
}

func scenarioA() map[string]any {
	return map[string]any{
		"household_size":              4,
		"electricity_usage_kwh":       500,
		"vehicle_monthly_distance_km": 800,
		"heating_efficiency":          0.85,
		"recycling_rate":              0.7,
		"renewable_energy_percentage": 0.1,
		"heating_energy_source":       "electric",
		"vehicle_type":                "petrol_sedan",
		"climate_zone":                "temperate",
	}
}

func normalize(t *testing.T, raw map[string]any, opts ...features.NormalizeOption) features.RawInput {
	t.Helper()
	n, err := features.Normalize(raw, opts...)
	require.NoError(t, err)
	return n.Input
}

func TestPredictFromRawInputs_Scenarios(t *testing.T) {
	ctx := loadLinear(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		opts   []features.NormalizeOption
		want   float64
	}{
		{
			name:   "A typical household",
			mutate: func(map[string]any) {},
			want:   6900,
		},
		{
			name: "B heavy electricity",
			mutate: func(m map[string]any) {
				m["electricity_usage_kwh"] = 900
			},
			want: 9100,
		},
		{
			name: "C unseen heating source",
			mutate: func(m map[string]any) {
				m["heating_energy_source"] = "unknown_fuel_type_xyz"
			},
			want: 6850,
		},
		{
			name: "D required inputs only, no defaults",
			mutate: func(m map[string]any) {
				for k := range m {
					if k != "household_size" && k != "electricity_usage_kwh" {
						delete(m, k)
					}
				}
			},
			opts: []features.NormalizeOption{features.WithDefaults(false)},
			want: 5850,
		},
		{
			name: "D required inputs only, documented defaults",
			mutate: func(m map[string]any) {
				for k := range m {
					if k != "household_size" && k != "electricity_usage_kwh" {
						delete(m, k)
					}
				}
			},
			want: 6475,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := scenarioA()
			tt.mutate(raw)

			res, err := ctx.PredictFromRawInputs(normalize(t, raw, tt.opts...))
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.PredictedValue)
			assert.Equal(t, "kg CO2/year", res.Units)
			assert.Equal(t, "91.2%", res.ConfidenceLabel)
			assert.Equal(t, "Ridge Regression", res.ModelName)
			assert.InDelta(t, tt.want, res.Breakdown.Total(), 0.05)
		})
	}
}

func TestPredictFromRawInputs_UnseenCategoryMatchesFirstClass(t *testing.T) {
	ctx := loadLinear(t)

	unseen := scenarioA()
	unseen["heating_energy_source"] = "unknown_fuel_type_xyz"
	first := scenarioA()
	first["heating_energy_source"] = "coal"

	a, err := ctx.PredictFromRawInputs(normalize(t, unseen))
	require.NoError(t, err)
	b, err := ctx.PredictFromRawInputs(normalize(t, first))
	require.NoError(t, err)

	assert.Equal(t, b.PredictedValue, a.PredictedValue)
	assert.True(t, a.Fallbacks.Has(pipeline.PolicyUnseenCategory, "heating_energy_source"))
	assert.False(t, b.Fallbacks.Has(pipeline.PolicyUnseenCategory, "heating_energy_source"))
}

func TestPredictFromRawInputs_Clamped(t *testing.T) {
	ctx := loadLinear(t)

	raw := scenarioA()
	raw["electricity_usage_kwh"] = 1900
	atBound := scenarioA()
	atBound["electricity_usage_kwh"] = 1500

	a, err := ctx.PredictFromRawInputs(normalize(t, raw))
	require.NoError(t, err)
	b, err := ctx.PredictFromRawInputs(normalize(t, atBound))
	require.NoError(t, err)

	assert.Equal(t, b.PredictedValue, a.PredictedValue)
	assert.Equal(t, []string{"electricity_usage_kwh"}, a.Fallbacks.Features(pipeline.PolicyClamped))
}

func TestPredictFromRawInputs_Forest(t *testing.T) {
	ctx, err := Load(testhelper.ForestModelPath(), testhelper.PreprocessorPath())
	require.NoError(t, err)

	a, err := ctx.PredictFromRawInputs(normalize(t, scenarioA()))
	require.NoError(t, err)
	assert.Equal(t, 6500.0, a.PredictedValue)
	assert.Equal(t, "87.4%", a.ConfidenceLabel)

	raw := scenarioA()
	raw["electricity_usage_kwh"] = 900
	b, err := ctx.PredictFromRawInputs(normalize(t, raw))
	require.NoError(t, err)
	assert.Equal(t, 8000.0, b.PredictedValue)
}

func TestPredictFromRawInputs_Deterministic(t *testing.T) {
	ctx := loadLinear(t)
	in := normalize(t, scenarioA())

	first, err := ctx.PredictFromRawInputs(in)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := ctx.PredictFromRawInputs(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictFromRawInputs_Concurrent(t *testing.T) {
	ctx := loadLinear(t)
	in := normalize(t, scenarioA())

	var wg sync.WaitGroup
	results := make([]float64, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := ctx.PredictFromRawInputs(in)
			if err == nil {
				results[i] = res.PredictedValue
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 6900.0, v)
	}
}

func TestPredictFromRawInputs_SchemaMismatch(t *testing.T) {
	ctx, err := Load(testhelper.Fixture("bundle", "model_mismatch.json"), testhelper.PreprocessorPath())
	require.NoError(t, err, "mismatched bundles still load")

	_, err = ctx.PredictFromRawInputs(normalize(t, scenarioA()))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)
	assert.False(t, errors.Is(err, bundle.ErrMissingArtifact))
}

func TestLoad_MissingArtifact(t *testing.T) {
	tests := []struct {
		name         string
		model, pre   string
		wantArtifact string
	}{
		{"missing model", "/nonexistent/model.json", testhelper.PreprocessorPath(), "model"},
		{"missing preprocessor", testhelper.LinearModelPath(), "/nonexistent/pre.yaml", "preprocessor"},
		{"unsupported version", testhelper.Fixture("bundle", "model_v2.json"), testhelper.PreprocessorPath(), "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.model, tt.pre)
			require.Error(t, err)
			assert.ErrorIs(t, err, bundle.ErrMissingArtifact)

			var artErr *bundle.ArtifactError
			require.True(t, errors.As(err, &artErr))
			assert.Equal(t, tt.wantArtifact, artErr.Artifact)
		})
	}
}

func TestNew_InvalidFamilyParams(t *testing.T) {
	pre := &bundle.Preprocessor{
		Encoders:         bundle.EncodingTable{},
		Scaler:           bundle.ScalerParams{Features: []string{"x"}, Center: []float64{0}, Scale: []float64{1}},
		SelectedFeatures: []string{"x"},
	}
	art := &bundle.ModelArtifact{ModelName: "broken", Family: bundle.FamilyLinear}

	_, err := New(pre, art)
	require.Error(t, err)
	assert.ErrorIs(t, err, bundle.ErrMissingArtifact)
	assert.ErrorIs(t, err, model.ErrInvalidParams)
	assert.Contains(t, err.Error(), "cannot build regressor")
}

func TestNew_InMemory(t *testing.T) {
	pre := &bundle.Preprocessor{
		Scaler:           bundle.ScalerParams{Features: []string{"x"}, Center: []float64{10}, Scale: []float64{0}},
		SelectedFeatures: []string{"x"},
	}
	art := &bundle.ModelArtifact{
		ModelName: "tiny",
		Family:    bundle.FamilyLinear,
		Score:     0.5,
		Linear:    &bundle.LinearParams{Coefficients: []float64{2}, Intercept: 1},
	}

	ctx, err := New(pre, art)
	require.NoError(t, err)

	res, err := ctx.PredictFromRawInputs(features.RawInput{"x": features.Number(12.345)})
	require.NoError(t, err)
	// (12.345 - 10) / 1 * 2 + 1, rounded to cents
	assert.Equal(t, 5.69, res.PredictedValue)
	assert.Equal(t, "1.0.0", ctx.ModelVersion())
}

func TestPredictFromRawInputs_RoundsHalfToEven(t *testing.T) {
	pre := &bundle.Preprocessor{
		Scaler:           bundle.ScalerParams{Features: []string{"x"}, Center: []float64{0}, Scale: []float64{1}},
		SelectedFeatures: []string{"x"},
	}
	art := &bundle.ModelArtifact{
		ModelName: "constant",
		Family:    bundle.FamilyLinear,
		Linear:    &bundle.LinearParams{Coefficients: []float64{0}, Intercept: 1234.125},
	}

	ctx, err := New(pre, art)
	require.NoError(t, err)

	res, err := ctx.PredictFromRawInputs(features.RawInput{"x": features.Number(1)})
	require.NoError(t, err)
	assert.Equal(t, 1234.12, res.PredictedValue)
}

func TestGetRecommendations(t *testing.T) {
	registry := prometheus.NewRegistry()
	ctx := loadLinear(t, WithMetrics(metrics.NewCollectorWithRegistry(registry)))

	in := normalize(t, scenarioA())
	recs := ctx.GetRecommendations(in, 6900)

	require.Len(t, recs, 1)
	assert.Equal(t, "Renewable Energy", recs[0].Category)
	assert.Equal(t, recommend.PriorityHigh, recs[0].Priority)

	count, err := testutil.GatherAndCount(registry, "carbonwise_recommendations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetRecommendations_CustomEngine(t *testing.T) {
	ctx := loadLinear(t, WithRecommender(recommend.NewEngine(recommend.WithRules())))

	recs := ctx.GetRecommendations(features.RawInput{}, 0)
	assert.Equal(t, recommend.GeneralAdvice(), recs)
}

func TestAssess(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := loadLinear(t,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "calc-1" }),
	)

	a, err := ctx.Assess(normalize(t, scenarioA()))
	require.NoError(t, err)

	assert.Equal(t, "calc-1", a.CalculationID)
	assert.Equal(t, fixed, a.CreatedAt)
	assert.Equal(t, 6900.0, a.Prediction.PredictedValue)
	assert.Equal(t, 0.912, a.ConfidenceScore)
	assert.Equal(t, "1.0.0", a.ModelVersion)
	assert.NotEmpty(t, a.Recommendations)
}

func TestAssess_DefaultID(t *testing.T) {
	ctx := loadLinear(t)

	a, err := ctx.Assess(normalize(t, scenarioA()))
	require.NoError(t, err)
	b, err := ctx.Assess(normalize(t, scenarioA()))
	require.NoError(t, err)

	assert.Len(t, a.CalculationID, 36)
	assert.NotEqual(t, a.CalculationID, b.CalculationID)
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	ctx := loadLinear(t, WithMetrics(metrics.NewCollectorWithRegistry(registry)))

	raw := scenarioA()
	raw["heating_energy_source"] = "peat"
	_, err := ctx.PredictFromRawInputs(normalize(t, raw))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "carbonwise_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(registry, "carbonwise_fallbacks_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}

func TestInfo(t *testing.T) {
	ctx := loadLinear(t)

	info := ctx.Info(3)
	assert.Equal(t, "Ridge Regression", info.ModelName)
	assert.Equal(t, "linear", info.Family)
	assert.Equal(t, "91.2%", info.Confidence)
	assert.Equal(t, 5, info.NumFeatures)
	assert.Equal(t, 6, info.ScalerFeatures)
	assert.Equal(t, 3, info.ClampedFeatures)
	assert.Equal(t, map[string]int{"heating_energy_source": 4, "vehicle_type": 3, "climate_zone": 4}, info.Encoders)
	assert.Equal(t, []Importance{
		{Feature: "electricity_usage_kwh", Weight: 0.41},
		{Feature: "vehicle_monthly_distance_km", Weight: 0.27},
		{Feature: "electricity_per_person", Weight: 0.16},
	}, info.TopImportances)
	assert.Equal(t, testhelper.LinearModelPath(), info.ModelSource)

	assert.Len(t, ctx.Info(0).TopImportances, 5)
}

func TestSelectedFeaturesIsCopy(t *testing.T) {
	ctx := loadLinear(t)

	sel := ctx.SelectedFeatures()
	sel[0] = "changed"
	assert.Equal(t, "electricity_usage_kwh", ctx.SelectedFeatures()[0])
}

func TestResultSchemas(t *testing.T) {
	schemas := ResultSchemas()

	require.Contains(t, schemas, "prediction")
	pred := schemas["prediction"]
	_, ok := pred.Properties.Get("predicted_carbon_footprint")
	assert.True(t, ok)
	_, ok = pred.Properties.Get("model_confidence")
	assert.True(t, ok)

	_, ok = schemas["assessment"].Properties.Get("calculation_id")
	assert.True(t, ok)
}
