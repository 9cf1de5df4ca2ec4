package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/braunma/dem-console/internal/constants"
)

func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render("DEM Console") + " " + mutedStyle.Render(m.loc.Ref())
	if m.loc.Type == constants.TypeTarget && m.loc.Value == "" {
		title += " " + actionStyle.Render("filter: "+constants.FilterLabels[m.loc.FilterName()])
	}
	b.WriteString(title + "\n")

	switch m.state {
	case stateForm:
		panels := []string{m.form.view()}
		if len(m.form.errors) > 0 {
			panels = append(panels, errorPanelStyle.Render(strings.Join(m.form.errors, "\n")))
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, panels...) + "\n")
	default:
		b.WriteString(m.viewport.View() + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errorPanelStyle.Render(m.err.Error()) + "\n")
	case m.state == stateLoading:
		b.WriteString(mutedStyle.Render("loading...") + "\n")
	case m.status != "":
		b.WriteString(successStyle.Render("✓ "+m.status) + "\n")
	}

	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) helpView() string {
	var km help.KeyMap = browseHelp{}
	if m.state == stateForm {
		km = formHelp{confirmation: m.form.dialog.IsConfirmation()}
	}
	return m.help.View(km)
}

// renderRows draws the browser lines, highlighting the cursor row
func (m Model) renderRows() string {
	lines := make([]string, 0, len(m.rows))
	for i, r := range m.rows {
		indent := strings.Repeat("  ", r.depth)
		text := r.text
		switch {
		case i == m.cursor && r.selectable():
			text = selectedStyle.Render("> " + text)
		case r.heading:
			text = headingStyle.Render("  " + text)
		default:
			text = "  " + text
		}
		if actions := labels(r.actions); actions != "" {
			style := mutedStyle
			if i == m.cursor {
				style = actionStyle
			}
			text += " " + style.Render(actions)
		}
		lines = append(lines, indent+text)
	}
	return strings.Join(lines, "\n")
}
