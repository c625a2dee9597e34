package bundle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingArtifact is matched by every error that prevents a bundle from
// being loaded. Callers must not serve predictions after seeing it.
var ErrMissingArtifact = errors.New("missing artifact")

// ArtifactError describes why a model or preprocessor bundle could not be loaded.
type ArtifactError struct {
	Artifact   string `json:"artifact"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Err        error  `json:"-"`
}

func (e *ArtifactError) Error() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s artifact", e.Artifact))
	if e.Path != "" {
		result.WriteString(fmt.Sprintf(" %s", e.Path))
	}
	result.WriteString(": ")
	result.WriteString(e.Message)

	if e.Err != nil {
		result.WriteString(fmt.Sprintf(": %v", e.Err))
	}

	if e.Suggestion != "" {
		result.WriteString(fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return result.String()
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

func (e *ArtifactError) Is(target error) bool {
	return target == ErrMissingArtifact
}

// MultiError collects the consistency problems found in a single bundle.
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%d problems:\n", len(e.Errors)))

	for i, err := range e.Errors {
		result.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return strings.TrimSuffix(result.String(), "\n")
}

// Add appends err when it is not nil.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// Addf appends a formatted problem.
func (e *MultiError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Errorf(format, args...))
}

func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil when nothing was collected.
func (e *MultiError) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
