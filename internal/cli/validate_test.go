package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/carbonwise/carbonwise/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "validate", input("scenario_a.json"), input("scenario_b.yaml"), "--show-all")
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ "+input("scenario_a.json"))
	assert.Contains(t, stdout, "All 2 record(s) are valid")
}

func TestValidate_Invalid(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "validate", input("invalid.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errValidationFailed)

	assert.Contains(t, stdout, "✗ "+input("invalid.json"))
	assert.Contains(t, stdout, "household_size: must be at least 1, got 0")
	assert.Contains(t, stdout, "electricity_usage_kwh: expected a number")
	assert.Contains(t, stdout, "vehicle_type: expected a category string")
	assert.Contains(t, stdout, "1 of 1 record(s) failed validation")
	assert.Contains(t, stdout, "Check the input catalog")
}

func TestValidate_Recursive(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "inputs")

	_, _, err := executeCommand(t, "", "validate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --recursive")

	stdout, _, err := executeCommand(t, "", "validate", "-r", dir, "--output", "json")
	require.ErrorIs(t, err, errValidationFailed)

	var summary ValidationSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Valid)
	assert.Equal(t, 1, summary.Invalid)
}

func TestValidate_Warnings(t *testing.T) {
	path := testhelper.WriteFile(t, "household.json", `{"householdSize": 3, "electricity-usage-kwh": 420, "pets": 2}`)

	stdout, _, err := executeCommand(t, "", "validate", path, "--verbose")
	require.NoError(t, err)

	assert.Contains(t, stdout, "pets is not a recognised input and will be ignored")
	assert.Contains(t, stdout, "Detailed results:")
	assert.Contains(t, stdout, "heating_efficiency")
}

func TestValidate_Stdin(t *testing.T) {
	stdout, _, err := executeCommand(t, "household_size: 2\nelectricity_usage_kwh: 300\n", "validate", "-", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid: 1")
}

func TestValidate_NotARecord(t *testing.T) {
	path := testhelper.WriteFile(t, "notes.txt", "hello")

	_, _, err := executeCommand(t, "", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a household record")
}

func TestCollectFiles(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata")

	files, err := collectFiles([]string{dir}, true)
	require.NoError(t, err)

	assert.Contains(t, files, filepath.Join(dir, "inputs", "scenario_a.json"))
	assert.Contains(t, files, filepath.Join(dir, "bundle", "preprocessor.yaml"))
}
