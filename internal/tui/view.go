package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitstore/internal/errors"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit:
		content = m.form.View()
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.viewHabits()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewHeader() string {
	today := m.svc.Now().Format("Monday, Jan 2")
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("habitstore"),
		statusStyle.Render(today),
	)
}

func (m Model) viewHabits() string {
	if !m.loaded {
		return docStyle.Render("Loading habits...")
	}
	return docStyle.Render(m.habitsModel.View())
}

func (m Model) viewConfirmDelete() string {
	return docStyle.Render(fmt.Sprintf("%s\n\nDelete %q? (y/n)",
		dangerStyle.Render("Delete habit"), m.deleting.Title))
}

func (m Model) viewStatus() string {
	if m.lastErr != nil {
		return warningStyle.Render(errors.Format(m.lastErr))
	}
	return statusStyle.Render(fmt.Sprintf("%d habits", m.habitsModel.Len()))
}
