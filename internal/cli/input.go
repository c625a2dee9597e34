package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// stdinPath reads the record from standard input.
const stdinPath = "-"

// readRecord decodes one household record from path, or from stdin when
// path is "-". Standard input is parsed as YAML, which accepts JSON too.
func readRecord(stdin io.Reader, path string) (map[string]any, error) {
	var (
		data   []byte
		format = bundle.FormatYAML
		err    error
	)

	if path == stdinPath {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		format, err = bundle.FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var raw map[string]any
	switch format {
	case bundle.FormatJSON:
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w: empty record", path, features.ErrInvalidInput)
	}

	return raw, nil
}

// loadInput reads and boundary-validates the record at path.
func loadInput(stdin io.Reader, path string, settings *Settings) (*features.Normalized, error) {
	raw, err := readRecord(stdin, path)
	if err != nil {
		return nil, err
	}

	norm, err := features.Normalize(raw, settings.normalizeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(norm.Ignored) > 0 {
		log.Warn().
			Str("file", path).
			Strs("keys", norm.Ignored).
			Msg("Ignoring unrecognised keys")
	}

	return norm, nil
}

// collectFiles expands args into record files. Directories are walked only
// when recursive is set.
func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		if arg == stdinPath {
			files = append(files, arg)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			if !recursive {
				return nil, fmt.Errorf("%s is a directory, use --recursive to validate directories", arg)
			}
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isRecordFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("error walking directory %s: %w", arg, err)
			}
		} else if isRecordFile(arg) {
			files = append(files, arg)
		} else {
			return nil, fmt.Errorf("%s is not a household record (.json, .yaml or .yml)", arg)
		}
	}

	return files, nil
}

func isRecordFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
