package cli

import (
	"fmt"
	"io"

	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/spf13/cobra"
)

var recommendValue float64

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend [household.json|-]",
	Short: "Suggest ways to reduce a household's footprint",
	Long: `Rank reduction advice for a household record without running the model.

The rules read the record directly, so no bundles are loaded.`,
	Example: `
  cwise recommend household.json               # Ranked advice
  cwise recommend household.json --value 7200  # Attach a known prediction
  cwise recommend - --output yaml < home.yaml  # Read from stdin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecommend(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Float64Var(&recommendValue, "value", 0, "predicted footprint in kg CO2/year, if already known")
}

// RecommendOutput is the advice for one record.
type RecommendOutput struct {
	File            string                     `json:"file" yaml:"file"`
	PredictedValue  float64                    `json:"predicted_value,omitempty" yaml:"predicted_value,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations" yaml:"recommendations"`
}

func runRecommend(cmd *cobra.Command, path string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	norm, err := loadInput(cmd.InOrStdin(), path, settings)
	if err != nil {
		return err
	}

	res := RecommendOutput{
		File:            path,
		PredictedValue:  recommendValue,
		Recommendations: recommend.NewEngine().Recommend(norm.Input, recommendValue),
	}

	return writeResult(cmd.OutOrStdout(), settings.Output, res, func(w io.Writer) {
		fmt.Fprintln(w, style.FormatFilePath(res.File))
		if res.PredictedValue > 0 {
			fmt.Fprintf(w, "  %s %s\n", style.MutedStyle.Render("Predicted footprint"), formatKg(res.PredictedValue))
		}
		renderRecommendations(w, res.Recommendations)
	})
}
