package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFormatConstraint accepts every 1.x bundle.
	DefaultFormatConstraint = ">= 1.0.0, < 2.0.0"

	// DefaultMaxSize bounds artifact files; forests exported with many trees
	// are large but never this large.
	DefaultMaxSize = 64 * 1024 * 1024
)

// Format is the on-disk encoding of an artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the artifact format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported extension %q: expected .json, .yaml or .yml", filepath.Ext(path))
	}
}

// Loader reads and validates model and preprocessor bundles.
type Loader struct {
	strict     bool
	maxSize    int64
	constraint *semver.Constraints
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithStrict rejects unknown fields in artifact files.
func WithStrict(strict bool) LoaderOption {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithMaxSize overrides the artifact size limit in bytes.
func WithMaxSize(n int64) LoaderOption {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithFormatConstraint sets the accepted format_version range.
func WithFormatConstraint(c *semver.Constraints) LoaderOption {
	return func(l *Loader) {
		l.constraint = c
	}
}

// NewLoader creates a loader with the given options.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.constraint == nil {
		c, err := semver.NewConstraint(DefaultFormatConstraint)
		if err != nil {
			return nil, fmt.Errorf("failed to parse format constraint: %w", err)
		}
		l.constraint = c
	}

	return l, nil
}

// LoadPreprocessor reads the preprocessor bundle at path.
func (l *Loader) LoadPreprocessor(path string) (*Preprocessor, error) {
	data, format, err := l.read("preprocessor", path)
	if err != nil {
		return nil, err
	}

	pre, err := l.ParsePreprocessor(data, format)
	if err != nil {
		var artErr *ArtifactError
		if errors.As(err, &artErr) {
			artErr.Path = path
		}
		return nil, err
	}
	pre.Source = path

	log.Info().
		Str("path", path).
		Int("encoders", len(pre.Encoders)).
		Int("scaler_features", len(pre.Scaler.Features)).
		Int("selected_features", len(pre.SelectedFeatures)).
		Msg("Loaded preprocessor bundle")

	return pre, nil
}

// LoadModel reads the model bundle at path.
func (l *Loader) LoadModel(path string) (*ModelArtifact, error) {
	data, format, err := l.read("model", path)
	if err != nil {
		return nil, err
	}

	art, err := l.ParseModel(data, format)
	if err != nil {
		var artErr *ArtifactError
		if errors.As(err, &artErr) {
			artErr.Path = path
		}
		return nil, err
	}
	art.Source = path

	log.Info().
		Str("path", path).
		Str("family", string(art.Family)).
		Str("model_name", art.ModelName).
		Float64("score", art.Score).
		Msg("Loaded model bundle")

	return art, nil
}

// ParsePreprocessor decodes and validates a preprocessor bundle.
func (l *Loader) ParsePreprocessor(data []byte, format Format) (*Preprocessor, error) {
	var pre Preprocessor
	if err := l.decode(data, format, &pre); err != nil {
		return nil, &ArtifactError{
			Artifact:   "preprocessor",
			Message:    "cannot decode bundle",
			Suggestion: "Re-export the preprocessor from the training run",
			Err:        err,
		}
	}

	if err := l.checkVersion(pre.FormatVersion); err != nil {
		return nil, &ArtifactError{Artifact: "preprocessor", Message: "unsupported bundle", Err: err}
	}

	if err := validatePreprocessor(&pre); err != nil {
		return nil, &ArtifactError{Artifact: "preprocessor", Message: "inconsistent bundle", Err: err}
	}

	return &pre, nil
}

// ParseModel decodes and validates the envelope of a model bundle. The
// family parameters are checked when the regressor is built.
func (l *Loader) ParseModel(data []byte, format Format) (*ModelArtifact, error) {
	var art ModelArtifact
	if err := l.decode(data, format, &art); err != nil {
		return nil, &ArtifactError{
			Artifact:   "model",
			Message:    "cannot decode bundle",
			Suggestion: "Re-export the trained estimator from the training run",
			Err:        err,
		}
	}

	if err := l.checkVersion(art.FormatVersion); err != nil {
		return nil, &ArtifactError{Artifact: "model", Message: "unsupported bundle", Err: err}
	}

	if err := validateModelEnvelope(&art); err != nil {
		return nil, &ArtifactError{Artifact: "model", Message: "inconsistent bundle", Err: err}
	}

	return &art, nil
}

func (l *Loader) read(artifact, path string) ([]byte, Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, "", &ArtifactError{Artifact: artifact, Path: path, Message: "cannot load", Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", &ArtifactError{
			Artifact:   artifact,
			Path:       path,
			Message:    "cannot load",
			Suggestion: fmt.Sprintf("Check the --%s flag or the %s config key", artifact, artifact),
			Err:        err,
		}
	}
	if info.Size() > l.maxSize {
		return nil, "", &ArtifactError{
			Artifact: artifact,
			Path:     path,
			Message:  fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), l.maxSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &ArtifactError{Artifact: artifact, Path: path, Message: "cannot load", Err: err}
	}

	return data, format, nil
}

func (l *Loader) decode(data []byte, format Format, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty file")
	}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if l.strict {
			dec.DisallowUnknownFields()
		}
		return dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(l.strict)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (l *Loader) checkVersion(version string) error {
	if version == "" {
		log.Warn().Msg("Bundle has no format_version, assuming 1.0.0")
		return nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format_version %q: %w", version, err)
	}

	if !l.constraint.Check(v) {
		return fmt.Errorf("format_version %s does not satisfy %s", version, l.constraint.String())
	}

	return nil
}

func validatePreprocessor(pre *Preprocessor) error {
	errs := &MultiError{}

	for _, feature := range slices.Sorted(maps.Keys(pre.Encoders)) {
		classes := pre.Encoders[feature]
		if len(classes) == 0 {
			errs.Addf("encoder %s has no classes", feature)
			continue
		}
		if dup, ok := firstDuplicate(classes); ok {
			errs.Addf("encoder %s lists class %q twice", feature, dup)
		}
	}

	for _, feature := range slices.Sorted(maps.Keys(pre.ClampBounds)) {
		b := pre.ClampBounds[feature]
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || b.Lower > b.Upper {
			errs.Addf("clamp bounds for %s are invalid: [%v, %v]", feature, b.Lower, b.Upper)
		}
	}

	sc := &pre.Scaler
	switch {
	case len(sc.Features) == 0:
		errs.Addf("scaler has no features")
	case len(sc.Center) != len(sc.Features) || len(sc.Scale) != len(sc.Features):
		errs.Addf("scaler has %d features but %d centers and %d scales", len(sc.Features), len(sc.Center), len(sc.Scale))
	default:
		if dup, ok := firstDuplicate(sc.Features); ok {
			errs.Addf("scaler lists feature %s twice", dup)
		}
		for i, s := range sc.Scale {
			switch {
			case math.IsNaN(s) || math.IsInf(s, 0) || math.IsNaN(sc.Center[i]) || math.IsInf(sc.Center[i], 0):
				errs.Addf("scaler statistics for %s are not finite", sc.Features[i])
			case s == 0:
				// Constant training columns keep their offset only.
				sc.Scale[i] = 1
			}
		}
	}

	if len(pre.SelectedFeatures) == 0 {
		errs.Addf("selected_features is empty")
	} else if dup, ok := firstDuplicate(pre.SelectedFeatures); ok {
		errs.Addf("selected_features lists %s twice", dup)
	}

	return errs.ToError()
}

func validateModelEnvelope(art *ModelArtifact) error {
	errs := &MultiError{}

	if art.ModelName == "" {
		errs.Addf("model_name is empty")
	}
	if math.IsNaN(art.Score) || math.IsInf(art.Score, 0) {
		errs.Addf("score is not finite")
	}

	if !slices.Contains(Families, art.Family) {
		errs.Addf("unknown family %q", art.Family)
	}

	if dup, ok := firstDuplicate(art.Features); ok {
		errs.Addf("features lists %s twice", dup)
	}

	return errs.ToError()
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return "", false
}
