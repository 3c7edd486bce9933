package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vculaunch/internal/model"
	"vculaunch/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")) // Pinkish

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")) // Sky Blue/Cyan

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.NormalBorder())

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))
)

func (m AppModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("VCU Compile Launcher"))
	b.WriteString("\n\n")

	for _, v := range model.Variants {
		p := m.Paths.For(v)
		shown := pathStyle.Render(p)
		if p == "" {
			shown = dimStyle.Render("(not resolved yet)")
		}
		b.WriteString(labelStyle.Render(v.Name+" path:") + " " + shown + "\n")
	}
	b.WriteString("\n")

	if m.Browsing {
		b.WriteString(dimStyle.Render("Browse: "+m.Picker.CurrentDirectory) + "\n\n")
		b.WriteString(m.Picker.View())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter: select • →/l: open folder • ←/h: back • esc: cancel"))
		return b.String()
	}

	b.WriteString(m.Input.View())
	b.WriteString("\n")

	if m.Banner != "" {
		style := bannerStyle.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196"))
		icon := model.IconError
		if m.Warn {
			style = bannerStyle.BorderForeground(lipgloss.Color("208")).Foreground(lipgloss.Color("208"))
			icon = model.IconWarn
		}
		b.WriteString(style.Render(icon + " " + m.Banner))
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(logBoxStyle.Render(m.Log.View()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m AppModel) statusBar() string {
	if m.Running != JobNone {
		return m.Spinner.View() + " " + m.Status
	}
	return dimStyle.Render(model.IconInfo) + " " + m.Status
}

func (m AppModel) help() string {
	keys := []string{"enter: compile", "ctrl+u: update paths", "ctrl+o: browse", "ctrl+l: clear log"}
	if m.Input.Focused() {
		keys = append(keys, "esc: leave input", "ctrl+c: quit")
	} else {
		keys = append(keys, "i: edit path", "q: quit")
	}
	return strings.Join(keys, " • ")
}

// refreshLog re-renders the log lines into the viewport and follows the tail.
func (m *AppModel) refreshLog() {
	rendered := make([]string, len(m.Lines))
	for i, ln := range m.Lines {
		rendered[i] = renderLine(ln)
	}
	m.Log.SetContent(strings.Join(rendered, "\n"))
	m.Log.GotoBottom()
}

func renderLine(ln report.Line) string {
	switch ln.Level {
	case report.LevelError:
		return errorStyle.Render(ln.Text)
	case report.LevelWarn:
		return warnStyle.Render(ln.Text)
	case report.LevelDebug:
		return dimStyle.Render(ln.Text)
	}
	return ln.Text
}
