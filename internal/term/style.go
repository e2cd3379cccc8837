package term

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme renders the status lines autobuild prints for humans. It is not a
// logger: diagnostics go through apex/log on stderr.
type Theme struct {
	titleStyle   lipgloss.Style
	sectionStyle lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	mutedStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
	linkStyle    lipgloss.Style
}

func NewTheme() Theme {
	return Theme{
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		sectionStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		labelStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		valueStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		mutedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warnStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		errorStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		successStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
		linkStyle:    lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
	}
}

func (t Theme) Title(value string) string {
	return t.titleStyle.Render(value)
}

func (t Theme) Section(value string) string {
	return t.sectionStyle.Render(value)
}

func (t Theme) Label(value string) string {
	return t.labelStyle.Render(value)
}

func (t Theme) Value(value string) string {
	return t.valueStyle.Render(value)
}

func (t Theme) Muted(value string) string {
	return t.mutedStyle.Render(value)
}

func (t Theme) Warning(value string) string {
	return t.warnStyle.Render("[warn] " + value)
}

func (t Theme) Error(value string) string {
	return t.errorStyle.Render("[error] " + value)
}

func (t Theme) Success(value string) string {
	return t.successStyle.Render(value)
}

func (t Theme) Link(value string) string {
	return t.linkStyle.Render(value)
}

// KV prints an aligned "label: value" line. Empty values are shown as "-".
func (t Theme) KV(out io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(out, "  %s %s\n", t.Label(fmt.Sprintf("%-14s", label+":")), t.Value(value))
}
