package style

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"gopkg.in/yaml.v3"
)

var (
	// Color palette
	PrimaryTextColor = lipgloss.Color("#E4E4E7")
	ErrorColor       = lipgloss.Color("#FF6B6B")
	ErrorBgColor     = lipgloss.Color("#3D2020")
	WarningColor     = lipgloss.Color("#FFA726")
	SuccessColor     = lipgloss.Color("#66BB6A")
	InfoColor        = lipgloss.Color("#42A5F5")
	MutedColor       = lipgloss.Color("#6C757D")
	AccentColor      = lipgloss.Color("#2E9E6B")
	CodeColor        = lipgloss.Color("#D4D4D4")

	// Base styles
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)

	// Component styles
	FileStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Underline(true)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	HeadlineStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(PrimaryTextColor)

	SuggestionTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	SuggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B8BCC2"))

	BarStyle = lipgloss.NewStyle().
			Foreground(AccentColor)
)

// GetPriorityStyle returns the style for a recommendation priority.
func GetPriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "High":
		return ErrorStyle
	case "Medium":
		return WarningStyle
	case "Low":
		return InfoStyle
	default:
		return MutedStyle
	}
}

// GetSeverityIcon returns the appropriate icon for the severity level
func GetSeverityIcon(severity string) string {
	switch severity {
	case "error":
		return ErrorStyle.Render("✗")
	case "warning":
		return WarningStyle.Render("⚠")
	case "info":
		return InfoStyle.Render("ℹ")
	default:
		return MutedStyle.Render("•")
	}
}

// RenderSuggestion renders a suggestion with proper styling
func RenderSuggestion(title, description string, examples []string) string {
	var result strings.Builder

	result.WriteString(SuggestionTitleStyle.Render("💡 " + title))
	if description != "" {
		result.WriteString(SuggestionStyle.Render(": " + description))
	}
	result.WriteString("\n")

	if len(examples) > 0 {
		result.WriteString(MutedStyle.Render("    Examples:") + "\n")
		for _, example := range examples {
			result.WriteString("      " + MessageStyle.Render(example) + "\n")
		}
	}

	return result.String()
}

// RenderBar draws a horizontal bar of width cells for a fraction in [0, 1].
func RenderBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return BarStyle.Render(strings.Repeat("█", filled)) + MutedStyle.Render(strings.Repeat("░", width-filled))
}

// FormatFilePath formats a file path with proper styling
func FormatFilePath(path string) string {
	return FileStyle.Render(path)
}

// PrintJSON outputs data as formatted JSON
func PrintJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

// PrintYAML outputs data as YAML
func PrintYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("error encoding YAML: %w", err)
	}
	return encoder.Close()
}

// Success prints a success message with styling
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", SuccessIcon(), lipgloss.NewStyle().Foreground(SuccessColor).Render(message))
}

func SuccessIcon() string {
	return lipgloss.NewStyle().Foreground(SuccessColor).Bold(true).Render("✓")
}

func ErrorIcon() string {
	return lipgloss.NewStyle().Foreground(ErrorColor).Bold(true).Render("✗")
}

// Error prints an error message with styling
func Error(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorIcon(), lipgloss.NewStyle().Foreground(ErrorColor).Render(message))
}

func WarningIcon() string {
	return lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠")
}

// Warning prints a warning message with styling
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", WarningIcon(), lipgloss.NewStyle().Foreground(WarningColor).Render(message))
}

// Info prints an info message with styling
func Info(w io.Writer, message string) {
	icon := lipgloss.NewStyle().Foreground(InfoColor).Bold(true).Render("ℹ")
	fmt.Fprintf(w, "%s %s\n", icon, lipgloss.NewStyle().Foreground(InfoColor).Render(message))
}
