package testhelper

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Root returns the module root directory.
func Root() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// Fixture returns the path of a file under the module's testdata directory.
func Fixture(parts ...string) string {
	return filepath.Join(append([]string{Root(), "testdata"}, parts...)...)
}

// PreprocessorPath is the shared preprocessor bundle fixture.
func PreprocessorPath() string {
	return Fixture("bundle", "preprocessor.yaml")
}

// LinearModelPath is the shared linear model fixture.
func LinearModelPath() string {
	return Fixture("bundle", "model_linear.json")
}

// ForestModelPath is the shared random forest fixture.
func ForestModelPath() string {
	return Fixture("bundle", "model_forest.json")
}

// WriteFile writes content to name inside a test temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func testingBinary() bool {
	return testing.Testing() || strings.HasSuffix(os.Args[0], ".test")
}
