package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/tui/components/habits"
)

const resubscribeDelay = 2 * time.Second

type resubscribeMsg struct{}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case subscribedMsg:
		m.watch.set(msg.sub)
		return m, waitForSnapshot(msg.sub)

	case snapshotMsg:
		if msg.sub != m.watch.current() {
			return m, nil
		}
		m.loaded = true
		m.lastErr = nil
		cmd := m.habitsModel.SetHabits(msg.habits, m.svc.Now())
		return m, tea.Batch(cmd, waitForSnapshot(msg.sub))

	case subscriptionEndedMsg:
		if msg.sub != m.watch.current() || m.quitting {
			return m, nil
		}
		if msg.err == nil {
			return m, nil
		}
		logger.Warn("Habit subscription ended, resubscribing", "error", msg.err)
		m.lastErr = msg.err
		return m, tea.Tick(resubscribeDelay, func(time.Time) tea.Msg { return resubscribeMsg{} })

	case resubscribeMsg:
		return m, subscribe(m.svc)

	case errMsg:
		m.lastErr = msg.err
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.watch.close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habits.ToggleHabitMsg:
		svc := m.svc
		return m, func() tea.Msg {
			if _, err := svc.Toggle(context.Background(), msg.ID); err != nil {
				return errMsg{err: err}
			}
			return nil
		}

	case habits.DeleteHabitMsg:
		m.deleting = msg
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	m.habitsModel, cmd = m.habitsModel.Update(msg)
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateHabits
		svc := m.svc
		title := strings.TrimSpace(m.habitForm.Title)
		description := m.habitForm.Description
		return m, tea.Batch(cmd, func() tea.Msg {
			if _, err := svc.Create(context.Background(), title, description); err != nil {
				return errMsg{err: err}
			}
			return nil
		})
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.state = StateHabits
		svc := m.svc
		id := m.deleting.ID
		return m, func() tea.Msg {
			if err := svc.Delete(context.Background(), id); err != nil {
				return errMsg{err: err}
			}
			return nil
		}
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateHabits
	}
	return m, nil
}
