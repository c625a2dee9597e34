package cli

import (
	"fmt"
	"io"

	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/metrics"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	predictExplain bool
	predictMetrics bool
	predictAssess  bool
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict [household.json|-]...",
	Short: "Predict the carbon footprint of household records",
	Long: `Predict the yearly carbon footprint of one or more household records.

Each record is validated, transformed with the preprocessor bundle and scored by the
model bundle. The report shows the prediction, its split by category and ranked
reduction advice.`,
	Example: `
  cwise predict household.json                    # Predict one record
  cat household.yaml | cwise predict -             # Read the record from stdin
  cwise predict a.json b.yaml --output json        # JSON output for automation
  cwise predict household.json --explain           # List every fallback applied
  cwise predict household.json --assess --output json # Emit a storable assessment`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().BoolVar(&predictExplain, "explain", false, "list the fallback policies applied to each record")
	predictCmd.Flags().BoolVar(&predictMetrics, "metrics", false, "print Prometheus metrics for the run after the report")
	predictCmd.Flags().BoolVar(&predictAssess, "assess", false, "emit assessment records with an ID and timestamp")
}

// PredictOutput is the report for one record.
type PredictOutput struct {
	File            string                     `json:"file" yaml:"file"`
	Prediction      *engine.PredictionResult   `json:"prediction" yaml:"prediction"`
	Recommendations []recommend.Recommendation `json:"recommendations" yaml:"recommendations"`
	Defaulted       []string                   `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
	Ignored         []string                   `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		opts     []engine.Option
	)
	if predictMetrics {
		registry = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(metrics.NewCollectorWithRegistry(registry)))
	}

	ctx, err := settings.loadContext(cmd.ErrOrStderr(), opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if predictAssess {
		err = assessRecords(cmd, ctx, settings, args)
	} else {
		err = predictRecords(cmd, ctx, settings, args)
	}
	if err != nil {
		return err
	}

	if registry != nil {
		// json and yaml own stdout.
		if settings.Output != "text" {
			return metrics.WriteText(cmd.ErrOrStderr(), registry)
		}
		fmt.Fprintln(out)
		return metrics.WriteText(out, registry)
	}
	return nil
}

func predictRecords(cmd *cobra.Command, ctx *engine.Context, settings *Settings, paths []string) error {
	results := make([]PredictOutput, 0, len(paths))
	for _, path := range paths {
		res, err := predictRecord(cmd.InOrStdin(), ctx, settings, path)
		if err != nil {
			return err
		}
		results = append(results, *res)
	}

	var data any = results
	if len(results) == 1 {
		data = results[0]
	}

	return writeResult(cmd.OutOrStdout(), settings.Output, data, func(w io.Writer) {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderReport(w, res, predictExplain, settings.Verbose)
		}
	})
}

func predictRecord(stdin io.Reader, ctx *engine.Context, settings *Settings, path string) (*PredictOutput, error) {
	norm, err := loadInput(stdin, path, settings)
	if err != nil {
		return nil, err
	}

	pred, err := ctx.PredictFromRawInputs(norm.Input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().
		Str("file", path).
		Float64("predicted", pred.PredictedValue).
		Int("fallbacks", len(pred.Fallbacks)).
		Msg("Predicted record")

	res := &PredictOutput{
		File:            path,
		Prediction:      pred,
		Recommendations: ctx.GetRecommendations(norm.Input, pred.PredictedValue),
		Defaulted:       norm.Defaulted,
		Ignored:         norm.Ignored,
	}
	if !predictExplain {
		res.Prediction.Fallbacks = nil
	}
	return res, nil
}

func assessRecords(cmd *cobra.Command, ctx *engine.Context, settings *Settings, paths []string) error {
	assessments := make([]*engine.Assessment, 0, len(paths))
	for _, path := range paths {
		norm, err := loadInput(cmd.InOrStdin(), path, settings)
		if err != nil {
			return err
		}
		a, err := ctx.Assess(norm.Input)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		assessments = append(assessments, a)
	}

	return writeResult(cmd.OutOrStdout(), settings.Output, assessments, func(w io.Writer) {
		for i, a := range assessments {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s %s\n", style.FormatFilePath(paths[i]), style.MutedStyle.Render(a.CalculationID))
			renderPrediction(w, a.Prediction, predictExplain)
			renderRecommendations(w, a.Recommendations)
		}
	})
}

// renderReport writes the text report of one record.
func renderReport(w io.Writer, res PredictOutput, explain, verbose bool) {
	fmt.Fprintln(w, style.FormatFilePath(res.File))
	renderPrediction(w, res.Prediction, explain)
	renderRecommendations(w, res.Recommendations)

	if verbose && len(res.Defaulted) > 0 {
		fmt.Fprintf(w, "\n  %s %v\n", style.MutedStyle.Render("Defaults applied:"), res.Defaulted)
	}
	if verbose && len(res.Ignored) > 0 {
		fmt.Fprintf(w, "  %s %v\n", style.MutedStyle.Render("Ignored keys:"), res.Ignored)
	}
}
