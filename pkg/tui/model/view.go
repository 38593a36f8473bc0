package model

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/modoterra/devconsole/pkg/console"
	"github.com/modoterra/devconsole/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cursorBackground = lipgloss.Color("57")

	selectedStyle = lipgloss.NewStyle().Bold(true)
	echoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	copyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Underline(true)

	severityForeground = map[core.Severity]lipgloss.Color{
		core.SeverityWarning:   lipgloss.Color("220"),
		core.SeverityError:     lipgloss.Color("203"),
		core.SeverityException: lipgloss.Color("196"),
		core.SeverityAssert:    lipgloss.Color("197"),
	}
)

// rowBackground flattens a translucent row tint onto a black terminal.
// Fully transparent tints report false.
func rowBackground(c color.RGBA) (lipgloss.Color, bool) {
	if c.A == 0 {
		return "", false
	}
	tint := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	black := colorful.Color{}
	return lipgloss.Color(black.BlendRgb(tint, float64(c.A)/255).Hex()), true
}

// render rebuilds the viewport content from the console rows.
func (a *App) render() {
	rows := a.console.Rows()
	if a.cursor >= len(rows) {
		a.cursor = max(len(rows)-1, 0)
	}

	atBottom := a.log.AtBottom()
	width := max(a.width, 1)

	var b strings.Builder
	a.lineRows = a.lineRows[:0]
	for i, row := range rows {
		block := a.renderRow(row, width, a.activePane == PaneLog && i == a.cursor)
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block)
		for range lipgloss.Height(block) {
			a.lineRows = append(a.lineRows, i)
		}
	}

	a.log.SetContent(b.String())
	if atBottom && a.activePane == PaneInput {
		a.log.GotoBottom()
	}
}

func (a App) renderRow(row console.Row, width int, cursor bool) string {
	style := lipgloss.NewStyle().Width(width)
	if bg, ok := rowBackground(row.Color); ok {
		style = style.Background(bg)
	}

	var text string
	switch row.Kind {
	case console.RowDetail:
		stack := row.Entry.StackTrace
		if stack == "" {
			stack = dimStyle.Render("(no stack trace)")
		}
		text = copyStyle.Render("[copy]") + "\n" + indent(stack, "    ")
	default:
		e := row.Entry
		msg := e.Message
		switch {
		case e.IsEcho():
			msg = echoStyle.Render(msg)
		case severityForeground[e.Severity] != "":
			msg = lipgloss.NewStyle().Foreground(severityForeground[e.Severity]).Render(msg)
		}
		marker := " "
		if row.Selected {
			marker = "▾"
			msg = selectedStyle.Render(msg)
		}
		text = fmt.Sprintf("%s %s %s", marker, dimStyle.Render(e.Time.Format("15:04:05")), msg)
	}

	if cursor {
		style = style.Background(cursorBackground)
	}
	return style.Render(text)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	header := titleStyle.Render(a.title) + dimStyle.Render(fmt.Sprintf("  %d entries", a.entryCount()))

	body := a.log.View()
	if !a.console.Active() {
		body = lipgloss.NewStyle().Height(a.log.Height).Render(dimStyle.Render("log hidden, press ` to show"))
	}

	parts := []string{header, body, a.input.View(), a.renderHelp()}
	if margin := int(a.console.ViewMargin() + 0.5); margin > 0 {
		parts = append(parts, strings.Repeat("\n", margin-1))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// entryCount counts log rows, leaving out the detail row.
func (a App) entryCount() int {
	n := 0
	for _, r := range a.console.Rows() {
		if r.Kind == console.RowLog {
			n++
		}
	}
	return n
}

func (a App) renderHelp() string {
	bindings := keys.help(a.activePane == PaneLog)
	items := make([]string, len(bindings))
	for i, b := range bindings {
		items[i] = b.Help().Key + " " + b.Help().Desc
	}
	return helpStyle.Render(strings.Join(items, " • "))
}
