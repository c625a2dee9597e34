package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <before> <after>",
	Short: "Compare the footprint of two household scenarios",
	Long: `Predict two household records and show how the reports differ.

Typical use is a before/after pair: the current household and the same household
with a planned change, such as a heat pump or an electric car.`,
	Example: `
  cwise compare today.json heat-pump.json          # Line diff of both reports
  cwise compare today.json ev.yaml --output json   # Delta for automation`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

// CompareOutput holds both predictions and the change between them.
type CompareOutput struct {
	Before        PredictOutput `json:"before" yaml:"before"`
	After         PredictOutput `json:"after" yaml:"after"`
	Delta         float64       `json:"delta" yaml:"delta"`
	DeltaPercent  float64       `json:"delta_percent" yaml:"delta_percent"`
	ReportChanges []string      `json:"report_changes" yaml:"report_changes"`
}

func runCompare(cmd *cobra.Command, before, after string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, err := settings.loadContext(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out, err := compareRecords(cmd.InOrStdin(), ctx, settings, before, after)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), settings.Output, out, func(w io.Writer) {
		renderComparison(w, out)
	})
}

func compareRecords(stdin io.Reader, ctx *engine.Context, settings *Settings, before, after string) (*CompareOutput, error) {
	a, err := predictRecord(stdin, ctx, settings, before)
	if err != nil {
		return nil, err
	}
	b, err := predictRecord(stdin, ctx, settings, after)
	if err != nil {
		return nil, err
	}

	out := &CompareOutput{
		Before: *a,
		After:  *b,
		Delta:  math.RoundToEven((b.Prediction.PredictedValue-a.Prediction.PredictedValue)*100) / 100,
	}
	if a.Prediction.PredictedValue != 0 {
		out.DeltaPercent = math.RoundToEven(out.Delta/a.Prediction.PredictedValue*1000) / 10
	}

	out.ReportChanges = diffReports(
		plain(func(w io.Writer) { renderSections(w, *a) }),
		plain(func(w io.Writer) { renderSections(w, *b) }),
	)
	return out, nil
}

func renderSections(w io.Writer, res PredictOutput) {
	renderPrediction(w, res.Prediction, false)
	renderRecommendations(w, res.Recommendations)
}

// diffReports returns the changed lines of two reports, prefixed with "-"
// or "+".
func diffReports(before, after string) []string {
	dmp := diffmatchpatch.New()
	c1, c2, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lines)

	var changes []string
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			changes = append(changes, prefix+line)
		}
	}
	return changes
}

func renderComparison(w io.Writer, out *CompareOutput) {
	fmt.Fprintf(w, "%s %s %s\n", style.FormatFilePath(out.Before.File), style.MutedStyle.Render("→"), style.FormatFilePath(out.After.File))
	fmt.Fprintf(w, "  %-20s %s\n", "Before", formatKg(out.Before.Prediction.PredictedValue))
	fmt.Fprintf(w, "  %-20s %s\n", "After", formatKg(out.After.Prediction.PredictedValue))

	change := printer.Sprintf("%+.2f %s (%+.1f%%)", out.Delta, engine.Units, out.DeltaPercent)
	switch {
	case out.Delta < 0:
		change = style.SuccessStyle.Render(change)
	case out.Delta > 0:
		change = style.ErrorStyle.Render(change)
	}
	fmt.Fprintf(w, "  %-20s %s\n", "Change", change)

	if len(out.ReportChanges) == 0 {
		fmt.Fprintln(w)
		style.Info(w, "The reports are identical.")
		return
	}

	fmt.Fprintf(w, "\n  %s\n", style.TitleStyle.Render("Report changes"))
	for _, line := range out.ReportChanges {
		switch line[0] {
		case '-':
			fmt.Fprintf(w, "  %s\n", style.ErrorStyle.Render(line))
		default:
			fmt.Fprintf(w, "  %s\n", style.SuccessStyle.Render(line))
		}
	}
}
