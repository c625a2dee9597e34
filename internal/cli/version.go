package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for cwise, including build details and the bundle format it reads.`,
	Example: `
  cwise version               # Show basic version info
  cwise version --output json # Show version info as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`

	// BundleFormat is the accepted format_version range of model bundles.
	BundleFormat string `json:"bundle_format" yaml:"bundle_format"`
}

func showVersion(cmd *cobra.Command) error {
	versionInfo := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),

		BundleFormat: bundle.DefaultFormatConstraint,
	}

	switch viper.GetString("output") {
	case "json":
		return style.PrintJSON(cmd.OutOrStdout(), versionInfo)
	case "yaml":
		return style.PrintYAML(cmd.OutOrStdout(), versionInfo)
	default:
		printText(cmd.OutOrStdout(), versionInfo, viper.GetBool("verbose"))
		return nil
	}
}

func printText(w io.Writer, info VersionInfo, verbose bool) {
	if !verbose {
		fmt.Fprintln(w, info.Version)
		return
	}
	fmt.Fprintf(w, "cwise %s\n", info.Version)
	fmt.Fprintf(w, "  commit:        %s\n", info.Commit)
	fmt.Fprintf(w, "  built:         %s by %s\n", info.Date, info.BuiltBy)
	fmt.Fprintf(w, "  go:            %s (%s)\n", info.GoVersion, info.Platform)
	fmt.Fprintf(w, "  bundle format: %s\n", info.BundleFormat)
}
