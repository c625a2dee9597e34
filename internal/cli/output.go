package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands in rendered quantities.
var printer = message.NewPrinter(language.English)

const barWidth = 20

// writeResult encodes data in the configured format, falling back to text.
func writeResult(w io.Writer, format string, data any, text func(io.Writer)) error {
	switch format {
	case "json":
		return style.PrintJSON(w, data)
	case "yaml":
		return style.PrintYAML(w, data)
	default:
		text(w)
		return nil
	}
}

func formatKg(v float64) string {
	return printer.Sprintf("%.2f %s", v, engine.Units)
}

// renderPrediction writes the headline figures and the category breakdown.
func renderPrediction(w io.Writer, res *engine.PredictionResult, explain bool) {
	fmt.Fprintf(w, "  %s %s\n", style.MutedStyle.Render(fmt.Sprintf("%-20s", "Predicted footprint")), style.HeadlineStyle.Render(formatKg(res.PredictedValue)))
	fmt.Fprintf(w, "  %s %s %s\n", style.MutedStyle.Render(fmt.Sprintf("%-20s", "Model")), res.ModelName, style.MutedStyle.Render("("+res.ConfidenceLabel+" confidence)"))

	fmt.Fprintf(w, "\n  %s\n", style.TitleStyle.Render("Breakdown"))
	for _, share := range res.Breakdown.Shares() {
		fraction := 0.0
		if res.PredictedValue > 0 {
			fraction = share.Value / res.PredictedValue
		}
		fmt.Fprintf(w, "    %-15s %12s  %s %s\n",
			share.Category,
			printer.Sprintf("%.2f", share.Value),
			style.RenderBar(fraction, barWidth),
			style.MutedStyle.Render(printer.Sprintf("%5.1f%%", fraction*100)),
		)
	}

	if explain {
		fmt.Fprintf(w, "\n  %s\n", style.TitleStyle.Render("Fallbacks"))
		if len(res.Fallbacks) == 0 {
			fmt.Fprintf(w, "    %s\n", style.MutedStyle.Render("none"))
		}
		for _, e := range res.Fallbacks {
			fmt.Fprintf(w, "    %s %s\n", style.GetSeverityIcon("info"), e.String())
		}
	}
}

// renderRecommendations writes a numbered list, highest priority first.
func renderRecommendations(w io.Writer, recs []recommend.Recommendation) {
	fmt.Fprintf(w, "\n  %s\n", style.TitleStyle.Render("Recommendations"))
	for i, rec := range recs {
		priority := style.GetPriorityStyle(string(rec.Priority)).Render(fmt.Sprintf("%-6s", rec.Priority))
		fmt.Fprintf(w, "    %d. %s %s\n", i+1, priority, style.TitleStyle.Render(rec.Title()))
		fmt.Fprintf(w, "       %s\n", style.MessageStyle.Render(rec.Action))
		fmt.Fprintf(w, "       %s %s\n", style.MutedStyle.Render("Potential savings:"), rec.PotentialSavings)
	}
}

// plain renders fn without terminal styling.
func plain(fn func(io.Writer)) string {
	var b strings.Builder
	fn(&b)
	return ansi.Strip(b.String())
}

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = ansi.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && ansi.StringWidth(cell) > widths[i] {
				widths[i] = ansi.StringWidth(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i < len(widths) {
				fmt.Fprint(w, cell+strings.Repeat(" ", widths[i]-ansi.StringWidth(cell))+"  ")
			}
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separators)
	for _, row := range rows {
		writeRow(row)
	}
}
