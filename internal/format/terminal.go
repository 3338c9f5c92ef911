package format

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TerminalStyles are the styles used by the terminal pipeline
type TerminalStyles struct {
	CodeBlock  lipgloss.Style
	InlineCode lipgloss.Style
	Bold       lipgloss.Style
	Emphasis   lipgloss.Style
}

// DefaultTerminalStyles returns styles that read well on dark and light backgrounds
func DefaultTerminalStyles() TerminalStyles {
	return TerminalStyles{
		CodeBlock:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).PaddingLeft(2),
		InlineCode: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9e64")),
		Bold:       lipgloss.NewStyle().Bold(true),
		Emphasis:   lipgloss.NewStyle().Italic(true),
	}
}

// TerminalRules returns the markup rules rendered with lipgloss styles
func TerminalRules(styles TerminalStyles) []Rule {
	return []Rule{
		{Name: "fenced_code", Pattern: fencedPattern, Replace: func(g []string) string {
			return "\n" + styles.CodeBlock.Render(strings.Trim(g[1], "\n")) + "\n"
		}},
		{Name: "inline_code", Pattern: inlinePattern, Replace: func(g []string) string {
			return styles.InlineCode.Render(g[1])
		}},
		{Name: "bold", Pattern: boldPattern, Replace: func(g []string) string {
			return styles.Bold.Render(g[1])
		}},
		{Name: "emphasis", Pattern: emPattern, Replace: func(g []string) string {
			return styles.Emphasis.Render(g[1])
		}},
	}
}

// Terminal formats text for display in a terminal
func Terminal(text string) string {
	return NewPipeline(TerminalRules(DefaultTerminalStyles())...).Apply(text)
}
