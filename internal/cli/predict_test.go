package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/model"
	"github.com/carbonwise/carbonwise/internal/testhelper"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// input returns a path relative to the package so rendered reports do not
// depend on the checkout location.
func input(name string) string {
	return filepath.Join("..", "..", "testdata", "inputs", name)
}

func TestPredict_Text(t *testing.T) {
	stdout, stderr, err := executeCommand(t, "", bundleArgs("predict", input("scenario_a.json"))...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "6,900.00 kg CO2/year")
	assert.Contains(t, stdout, "Ridge Regression (91.2% confidence)")
	assert.Contains(t, stdout, "☀️ Renewable Energy")
	assert.NotContains(t, stdout, "Fallbacks")
	assert.Contains(t, stderr, "[SPINNER START]")
	assert.Contains(t, stderr, "[SPINNER STOP]")

	snaps.MatchSnapshot(t, stdout)
}

func TestPredict_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("predict", input("scenario_b.yaml"), "--output", "json")...)
	require.NoError(t, err)

	var out PredictOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))

	assert.Equal(t, input("scenario_b.yaml"), out.File)
	assert.Equal(t, 9100.0, out.Prediction.PredictedValue)
	assert.Equal(t, engine.Units, out.Prediction.Units)
	assert.Empty(t, out.Prediction.Fallbacks)
	require.NotEmpty(t, out.Recommendations)
	assert.Equal(t, "Electricity", out.Recommendations[0].Category)
	assert.InDelta(t, 9100.0, out.Prediction.Breakdown.Total(), 0.05)
}

func TestPredict_MultipleFiles(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("predict", input("scenario_a.json"), input("scenario_b.yaml"), "--output", "json")...)
	require.NoError(t, err)

	var out []PredictOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)
	assert.Equal(t, 6900.0, out[0].Prediction.PredictedValue)
	assert.Equal(t, 9100.0, out[1].Prediction.PredictedValue)
}

func TestPredict_Stdin(t *testing.T) {
	data, err := os.ReadFile(input("scenario_b.yaml"))
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, string(data), bundleArgs("predict", "-", "--output", "json")...)
	require.NoError(t, err)

	var out PredictOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "-", out.File)
	assert.Equal(t, 9100.0, out.Prediction.PredictedValue)
}

func TestPredict_Explain(t *testing.T) {
	path := testhelper.WriteFile(t, "household.json", `{
		"household_size": 4,
		"electricity_usage_kwh": 500,
		"heating_energy_source": "unknown_fuel_type_xyz"
	}`)

	stdout, _, err := executeCommand(t, "", bundleArgs("predict", path, "--explain")...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Fallbacks")
	assert.Contains(t, stdout, "encode/unseen_category heating_energy_source")
}

func TestPredict_WithoutDefaults(t *testing.T) {
	path := testhelper.WriteFile(t, "household.yaml", "household_size: 4\nelectricity_usage_kwh: 500\n")

	stdout, _, err := executeCommand(t, "", bundleArgs("predict", path, "--apply-defaults=false", "--output", "json")...)
	require.NoError(t, err)

	var out PredictOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 5850.0, out.Prediction.PredictedValue)
	assert.Empty(t, out.Defaulted)
}

func TestPredict_Metrics(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("predict", input("scenario_a.json"), "--metrics", "--quiet")...)
	require.NoError(t, err)

	assert.Contains(t, stdout, `carbonwise_predictions_total{family="linear",status="success"} 1`)
	assert.Contains(t, stdout, `carbonwise_recommendations_total{category="Renewable Energy",priority="High"} 1`)
	assert.Contains(t, stdout, "# TYPE carbonwise_prediction_duration_seconds histogram")
}

func TestPredict_MetricsWithStructuredOutput(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			stdout, stderr, err := executeCommand(t, "", bundleArgs("predict", input("scenario_a.json"), "--metrics", "--output", format)...)
			require.NoError(t, err)

			var out PredictOutput
			if format == "json" {
				require.NoError(t, json.Unmarshal([]byte(stdout), &out))
			} else {
				require.NoError(t, yaml.Unmarshal([]byte(stdout), &out))
			}
			assert.Equal(t, 6900.0, out.Prediction.PredictedValue)
			assert.NotContains(t, stdout, "# TYPE")

			assert.Contains(t, stderr, `carbonwise_predictions_total{family="linear",status="success"} 1`)
		})
	}
}

func TestPredict_Assess(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("predict", input("scenario_a.json"), "--assess", "--output", "json")...)
	require.NoError(t, err)

	var out []engine.Assessment
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)

	assert.NotEmpty(t, out[0].CalculationID)
	assert.Equal(t, "1.0.0", out[0].ModelVersion)
	assert.Equal(t, 0.912, out[0].ConfidenceScore)
	assert.Equal(t, 6900.0, out[0].Prediction.PredictedValue)
	assert.NotEmpty(t, out[0].Recommendations)
}

func TestPredict_InvalidInput(t *testing.T) {
	_, _, err := executeCommand(t, "", bundleArgs("predict", input("invalid.json"))...)
	require.Error(t, err)

	assert.ErrorIs(t, err, features.ErrInvalidInput)
	assert.NotErrorIs(t, err, bundle.ErrMissingArtifact)
	assert.Contains(t, err.Error(), "electricity_usage_kwh")
}

func TestPredict_MissingModel(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "model.json")

	_, stderr, err := executeCommand(t, "", "predict", input("scenario_a.json"), "--model", missing, "--preprocessor", testhelper.PreprocessorPath())
	require.Error(t, err)

	assert.ErrorIs(t, err, bundle.ErrMissingArtifact)
	assert.Contains(t, stderr, "Failed to load bundles")
}

func TestPredict_SchemaMismatch(t *testing.T) {
	_, _, err := executeCommand(t, "", "predict", input("scenario_a.json"),
		"--model", testhelper.Fixture("bundle", "model_mismatch.json"),
		"--preprocessor", testhelper.PreprocessorPath())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "carbon_per_person")
}

func TestPredict_RequiresInput(t *testing.T) {
	_, _, err := executeCommand(t, "", bundleArgs("predict")...)
	assert.Error(t, err)
}
