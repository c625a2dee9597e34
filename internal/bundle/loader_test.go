package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/carbonwise/carbonwise/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)
	assert.False(t, l.strict)
	assert.Equal(t, int64(DefaultMaxSize), l.maxSize)
	assert.NotNil(t, l.constraint)
}

func TestNewLoader_WithOptions(t *testing.T) {
	c, err := semver.NewConstraint("~1.2")
	require.NoError(t, err)

	l, err := NewLoader(WithStrict(true), WithMaxSize(10), WithFormatConstraint(c))
	require.NoError(t, err)
	assert.True(t, l.strict)
	assert.Equal(t, int64(10), l.maxSize)
	assert.Same(t, c, l.constraint)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"model.json":        FormatJSON,
		"pre.YAML":          FormatYAML,
		"dir/pre.yml":       FormatYAML,
		"archive/model.pkl": "",
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			got, err := FormatFromPath(path)
			if want == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoader_LoadPreprocessor(t *testing.T) {
	l, err := NewLoader(WithStrict(true))
	require.NoError(t, err)

	pre, err := l.LoadPreprocessor(testhelper.PreprocessorPath())
	require.NoError(t, err)

	assert.Equal(t, testhelper.PreprocessorPath(), pre.Source)
	assert.Equal(t, []string{"coal", "electric", "natural_gas", "oil"}, pre.Encoders["heating_energy_source"])
	assert.Equal(t, Bounds{Lower: 0, Upper: 1500}, pre.ClampBounds["electricity_usage_kwh"])
	assert.Len(t, pre.SelectedFeatures, 5)
	assert.Equal(t, 4, pre.Scaler.Index("electricity_per_person"))
	assert.Equal(t, -1, pre.Scaler.Index("not_a_feature"))

	// Constant columns get a unit scale.
	assert.Equal(t, 1.0, pre.Scaler.Scale[5])

	classes, ok := pre.Encoders.Classes("vehicle_type")
	assert.True(t, ok)
	assert.Len(t, classes, 3)
}

func TestLoader_LoadModel(t *testing.T) {
	l, err := NewLoader(WithStrict(true))
	require.NoError(t, err)

	t.Run("linear", func(t *testing.T) {
		art, err := l.LoadModel(testhelper.LinearModelPath())
		require.NoError(t, err)

		assert.Equal(t, FamilyLinear, art.Family)
		assert.Equal(t, "Ridge Regression", art.ModelName)
		assert.InDelta(t, 0.912, art.Score, 1e-12)
		require.NotNil(t, art.Linear)
		assert.Equal(t, []float64{1000, 500, 200, 50, 100}, art.Linear.Coefficients)
		assert.Nil(t, art.Ensemble)
	})

	t.Run("random forest", func(t *testing.T) {
		art, err := l.LoadModel(testhelper.ForestModelPath())
		require.NoError(t, err)

		assert.Equal(t, FamilyRandomForest, art.Family)
		require.NotNil(t, art.Ensemble)
		assert.Equal(t, 5, art.Ensemble.NumFeatures)
		assert.Len(t, art.Ensemble.Trees, 2)
	})
}

func TestLoader_MissingArtifact(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	tests := []struct {
		name string
		load func() error
		want string
	}{
		{
			name: "missing preprocessor file",
			load: func() error {
				_, err := l.LoadPreprocessor(filepath.Join(t.TempDir(), "nope.yaml"))
				return err
			},
			want: "preprocessor artifact",
		},
		{
			name: "missing model file",
			load: func() error {
				_, err := l.LoadModel(filepath.Join(t.TempDir(), "nope.json"))
				return err
			},
			want: "Check the --model flag",
		},
		{
			name: "unsupported extension",
			load: func() error {
				_, err := l.LoadModel(testhelper.WriteFile(t, "model.pkl", "binary"))
				return err
			},
			want: "unsupported extension",
		},
		{
			name: "empty file",
			load: func() error {
				_, err := l.LoadModel(testhelper.WriteFile(t, "model.json", "  \n"))
				return err
			},
			want: "empty file",
		},
		{
			name: "malformed json",
			load: func() error {
				_, err := l.LoadModel(testhelper.WriteFile(t, "model.json", `{"model_name": `))
				return err
			},
			want: "cannot decode bundle",
		},
		{
			name: "unsupported format version",
			load: func() error {
				_, err := l.LoadModel(testhelper.Fixture("bundle", "model_v2.json"))
				return err
			},
			want: "does not satisfy",
		},
		{
			name: "invalid format version",
			load: func() error {
				_, err := l.LoadModel(testhelper.WriteFile(t, "model.json",
					`{"format_version": "one", "model_name": "m", "family": "linear"}`))
				return err
			},
			want: "invalid format_version",
		},
		{
			name: "unknown family",
			load: func() error {
				_, err := l.LoadModel(testhelper.WriteFile(t, "model.json",
					`{"format_version": "1.0.0", "model_name": "m", "family": "xgboost"}`))
				return err
			},
			want: `unknown family "xgboost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingArtifact))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoader_InconsistentPreprocessor(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	path := testhelper.Fixture("bundle", "preprocessor_broken.yaml")
	_, err = l.LoadPreprocessor(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingArtifact)

	var artErr *ArtifactError
	require.True(t, errors.As(err, &artErr))
	assert.Equal(t, path, artErr.Path)
	assert.Equal(t, "preprocessor", artErr.Artifact)

	var multi *MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 4)

	msg := err.Error()
	assert.Contains(t, msg, "encoder heating_energy_source has no classes")
	assert.Contains(t, msg, "clamp bounds for electricity_usage_kwh are invalid")
	assert.Contains(t, msg, "scaler has 2 features but 1 centers and 2 scales")
	assert.Contains(t, msg, "selected_features lists household_size twice")
}

func TestLoader_Strict(t *testing.T) {
	content := `{"format_version": "1.0.0", "model_name": "m", "family": "linear", "trained_on": "2024-01-01"}`
	path := testhelper.WriteFile(t, "model.json", content)

	lenient, err := NewLoader()
	require.NoError(t, err)
	_, err = lenient.LoadModel(path)
	assert.NoError(t, err)

	strict, err := NewLoader(WithStrict(true))
	require.NoError(t, err)
	_, err = strict.LoadModel(path)
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.Contains(t, err.Error(), "trained_on")
}

func TestLoader_MaxSize(t *testing.T) {
	l, err := NewLoader(WithMaxSize(16))
	require.NoError(t, err)

	_, err = l.LoadModel(testhelper.LinearModelPath())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestLoader_EmptyFormatVersion(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	art, err := l.ParseModel([]byte("model_name: m\nfamily: knn\nscore: 0.5\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, FamilyKNN, art.Family)
	assert.Empty(t, art.Source)
}

func TestPreprocessor_Validate(t *testing.T) {
	pre := &Preprocessor{
		Encoders: EncodingTable{"climate_zone": {"arid", "arid"}},
		ClampBounds: ClampBounds{
			"x": {Lower: 0, Upper: 1},
		},
		Scaler: ScalerParams{
			Features: []string{"x", "y"},
			Center:   []float64{0, 0},
			Scale:    []float64{1, 0},
		},
		SelectedFeatures: []string{"x"},
	}

	err := pre.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `encoder climate_zone lists class "arid" twice`)
	assert.Equal(t, []float64{1, 1}, pre.Scaler.Scale)

	pre.Encoders["climate_zone"] = []string{"arid"}
	assert.NoError(t, pre.Validate())
}

func TestPreprocessor_ValidateOrdersProblems(t *testing.T) {
	pre := &Preprocessor{
		Encoders: EncodingTable{"zone": {}, "fuel": {}, "vehicle": {}, "appliance": {}},
		ClampBounds: ClampBounds{
			"y": {Lower: 2, Upper: 1},
			"b": {Lower: 2, Upper: 1},
			"m": {Lower: 2, Upper: 1},
		},
		Scaler: ScalerParams{
			Features: []string{"x"},
			Center:   []float64{0},
			Scale:    []float64{1},
		},
		SelectedFeatures: []string{"x"},
	}

	want := []string{
		"encoder appliance has no classes",
		"encoder fuel has no classes",
		"encoder vehicle has no classes",
		"encoder zone has no classes",
		"clamp bounds for b are invalid: [2, 1]",
		"clamp bounds for m are invalid: [2, 1]",
		"clamp bounds for y are invalid: [2, 1]",
	}

	for i := 0; i < 20; i++ {
		err := pre.Validate()

		var multi *MultiError
		require.True(t, errors.As(err, &multi))
		got := make([]string, len(multi.Errors))
		for j, e := range multi.Errors {
			got[j] = e.Error()
		}
		require.Equal(t, want, got)
	}
}

func TestModelArtifact_Validate(t *testing.T) {
	art := &ModelArtifact{Family: FamilySVR, Features: []string{"a", "a"}}

	err := art.Validate()
	require.Error(t, err)

	var multi *MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)
	assert.Contains(t, err.Error(), "2 problems:")
}

func TestArtifactError(t *testing.T) {
	inner := os.ErrNotExist
	err := &ArtifactError{
		Artifact:   "model",
		Path:       "/tmp/m.json",
		Message:    "cannot load",
		Suggestion: "Check the path",
		Err:        inner,
	}

	assert.Equal(t, "model artifact /tmp/m.json: cannot load: file does not exist\nSuggestion: Check the path", err.Error())
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMultiError(t *testing.T) {
	errs := &MultiError{}
	assert.NoError(t, errs.ToError())
	assert.Equal(t, "no errors", errs.Error())

	errs.Add(nil)
	assert.False(t, errs.HasErrors())

	errs.Add(errors.New("first"))
	assert.Equal(t, "first", errs.Error())

	errs.Addf("second %d", 2)
	assert.Equal(t, "2 problems:\n  1. first\n  2. second 2", errs.Error())
}
