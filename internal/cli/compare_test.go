package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("compare", input("scenario_a.json"), input("scenario_b.yaml"))...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "6,900.00 kg CO2/year")
	assert.Contains(t, stdout, "9,100.00 kg CO2/year")
	assert.Contains(t, stdout, "2,200.00 kg CO2/year")
	assert.Contains(t, stdout, "31.9%")
	assert.Contains(t, stdout, "Report changes")
	assert.Contains(t, stdout, "+    1. High   ⚡ Electricity")
}

func TestCompare_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("compare", input("scenario_b.yaml"), input("scenario_a.json"), "--output", "json")...)
	require.NoError(t, err)

	var out CompareOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))

	assert.Equal(t, 9100.0, out.Before.Prediction.PredictedValue)
	assert.Equal(t, 6900.0, out.After.Prediction.PredictedValue)
	assert.Equal(t, -2200.0, out.Delta)
	assert.Equal(t, -24.2, out.DeltaPercent)
	assert.Contains(t, out.ReportChanges, "-  Predicted footprint  9,100.00 kg CO2/year")
	assert.Contains(t, out.ReportChanges, "+  Predicted footprint  6,900.00 kg CO2/year")
}

func TestCompare_Identical(t *testing.T) {
	stdout, _, err := executeCommand(t, "", bundleArgs("compare", input("scenario_a.json"), input("scenario_a.json"))...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "The reports are identical.")
}

func TestCompare_RequiresTwoFiles(t *testing.T) {
	_, _, err := executeCommand(t, "", bundleArgs("compare", input("scenario_a.json"))...)
	assert.Error(t, err)
}

func TestDiffReports(t *testing.T) {
	changes := diffReports("a\nb\nc\n", "a\nx\nc\n")
	assert.Equal(t, []string{"-b", "+x"}, changes)

	assert.Empty(t, diffReports("same\n", "same\n"))
}
