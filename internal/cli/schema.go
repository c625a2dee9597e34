package cli

import (
	"fmt"

	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/carbonwise/carbonwise/pkg/schema"
	"github.com/spf13/cobra"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Output JSON schema and definitions",
	Long: `Output the JSON schema of household records and of every result, together with
the input catalog, the derived features and the supported model families.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := schema.GetSchema()
		if err != nil {
			return fmt.Errorf("error generating schema: %w", err)
		}

		return style.PrintJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
