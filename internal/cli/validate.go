package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate household records",
	Long: `Validate household records against the input catalog without loading any bundle.

This command checks:
- JSON or YAML syntax
- Required keys are present
- Values have the documented type and lie in the documented range
- Keys are not given twice under different spellings`,
	Example: `
  cwise validate household.json                  # Validate a single file
  cwise validate homes/*.yaml                    # Validate multiple files
  cwise validate --recursive ./homes             # Validate a directory recursively
  cwise validate --output json household.json   # JSON output for CI/CD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateRecords(cmd, args)
	},
}

var (
	recursive bool
	showAll   bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively validate files in directories")
	validateCmd.Flags().BoolVar(&showAll, "show-all", false, "show all validation results, including successful ones")
}

// ValidationResult represents the result of validating one record
type ValidationResult struct {
	File      string             `json:"file" yaml:"file"`
	Valid     bool               `json:"valid" yaml:"valid"`
	Errors    []features.Problem `json:"errors,omitempty" yaml:"errors,omitempty"`
	Defaulted []string           `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
	Warnings  []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Total   int                `json:"total" yaml:"total"`
	Valid   int                `json:"valid" yaml:"valid"`
	Invalid int                `json:"invalid" yaml:"invalid"`
	Results []ValidationResult `json:"results" yaml:"results"`
}

// errValidationFailed is returned when at least one record is invalid.
var errValidationFailed = errors.New("validation failed")

func validateRecords(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	files, err := collectFiles(args, recursive)
	if err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		style.Warning(out, "No household records found to validate")
		return nil
	}

	summary := ValidationSummary{Total: len(files)}
	for _, file := range files {
		result := validateSingleFile(cmd.InOrStdin(), file, settings)
		summary.Results = append(summary.Results, result)

		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}

		if settings.interactive() {
			printValidationResult(out, result)
		}
	}

	if err := writeResult(out, settings.Output, summary, func(w io.Writer) {
		printValidationSummary(w, summary, settings)
	}); err != nil {
		return err
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("%w: %d of %d record(s) are invalid", errValidationFailed, summary.Invalid, summary.Total)
	}
	return nil
}

func validateSingleFile(stdin io.Reader, filename string, settings *Settings) ValidationResult {
	result := ValidationResult{File: filename, Valid: true}

	raw, err := readRecord(stdin, filename)
	if err == nil {
		var norm *features.Normalized
		norm, err = features.Normalize(raw, settings.normalizeOptions()...)
		if norm != nil {
			result.Defaulted = norm.Defaulted
			for _, key := range norm.Ignored {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s is not a recognised input and will be ignored", key))
			}
		}
	}

	if err != nil {
		result.Valid = false
		var inputErr *features.InputError
		if errors.As(err, &inputErr) {
			result.Errors = inputErr.Problems
		} else {
			result.Errors = []features.Problem{{Field: "-", Message: err.Error()}}
		}
	}

	log.Debug().
		Str("file", filename).
		Bool("valid", result.Valid).
		Int("problems", len(result.Errors)).
		Msg("Validated household record")

	return result
}

func printValidationResult(w io.Writer, result ValidationResult) {
	if result.Valid {
		if showAll {
			style.Success(w, result.File)
		}
	} else {
		style.Error(w, result.File)
		for _, p := range result.Errors {
			fmt.Fprintf(w, "  %s %s\n", style.TitleStyle.Render(p.Field+":"), p.Message)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  %s %s\n", style.WarningIcon(), warning)
	}
}

func printValidationSummary(w io.Writer, summary ValidationSummary, settings *Settings) {
	if settings.Quiet {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %d record(s) are valid", summary.Total))
	} else {
		style.Error(w, fmt.Sprintf("%d of %d record(s) failed validation", summary.Invalid, summary.Total))
		fmt.Fprint(w, "\n"+style.RenderSuggestion("Check the input catalog", "every key with its type and range is listed by the schema command", []string{
			"cwise schema",
			"cwise validate --verbose <file>",
		}))
	}

	if settings.Verbose {
		fmt.Fprintf(w, "\nDetailed results:\n")
		rows := make([][]string, len(summary.Results))
		for i, result := range summary.Results {
			status := style.SuccessIcon() + " Valid"
			if !result.Valid {
				status = style.ErrorIcon() + " Invalid"
			}
			rows[i] = []string{result.File, status, fmt.Sprint(len(result.Errors)), strings.Join(result.Defaulted, ", ")}
		}
		printTable(w, []string{"File", "Status", "Problems", "Defaulted"}, rows)
	}
}
