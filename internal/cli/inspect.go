package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/spf13/cobra"
)

var inspectTop int

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarise the loaded model and preprocessor bundles",
	Long: `Load the model and preprocessor bundles and describe them: model family, name,
training score, feature counts, categorical encoders and the most important features.`,
	Example: `
  cwise inspect --model models/model.json --preprocessor models/preprocessor.yaml
  cwise inspect --top 10 --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVar(&inspectTop, "top", 5, "number of feature importances to show (0 for all)")
}

func runInspect(cmd *cobra.Command) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, err := settings.loadContext(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	info := ctx.Info(inspectTop)
	return writeResult(cmd.OutOrStdout(), settings.Output, info, func(w io.Writer) {
		renderInfo(w, info, settings.Verbose)
	})
}

func renderInfo(w io.Writer, info engine.Info, verbose bool) {
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", style.MutedStyle.Render(fmt.Sprintf("%-20s", label)), value)
	}

	fmt.Fprintln(w, style.TitleStyle.Render(info.ModelName))
	row("Family", info.Family)
	row("Score", printer.Sprintf("%.3f (%s confidence)", info.Score, info.Confidence))
	row("Format version", info.FormatVersion)
	row("Model features", fmt.Sprint(info.NumFeatures))
	row("Scaler features", fmt.Sprint(info.ScalerFeatures))
	row("Clamped features", fmt.Sprint(info.ClampedFeatures))

	if verbose {
		row("Selected features", strings.Join(info.SelectedFeatures, ", "))
		row("Model bundle", info.ModelSource)
		row("Preprocessor bundle", info.PreprocessorSource)
	}

	if len(info.Encoders) > 0 {
		names := make([]string, 0, len(info.Encoders))
		for name := range info.Encoders {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name, fmt.Sprint(info.Encoders[name])}
		}
		fmt.Fprintf(w, "\n%s\n", style.TitleStyle.Render("Encoders"))
		printTable(w, []string{"Feature", "Classes"}, rows)
	}

	if len(info.TopImportances) > 0 {
		top := info.TopImportances[0].Weight
		fmt.Fprintf(w, "\n%s\n", style.TitleStyle.Render("Feature importance"))
		for _, imp := range info.TopImportances {
			fraction := 0.0
			if top > 0 {
				fraction = imp.Weight / top
			}
			fmt.Fprintf(w, "  %-32s %s %s\n", imp.Feature, style.RenderBar(fraction, barWidth), style.MutedStyle.Render(printer.Sprintf("%.3f", imp.Weight)))
		}
	}
}
