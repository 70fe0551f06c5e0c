package habits

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitstore/internal/constants"
	habitsvc "github.com/julianstephens/habitstore/internal/habits"
	"github.com/julianstephens/habitstore/internal/models"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID    string
	Title string
}

type Item struct {
	Habit    models.Habit
	DoneNow  bool
	Streak   int
	AtRisk   bool
	MissRate float64
}

func (i Item) Title() string {
	mark := "○ "
	if i.DoneNow {
		mark = "✓ "
	}
	return mark + i.Habit.TitleOrEmpty()
}

func (i Item) Description() string {
	desc := fmt.Sprintf("streak %d", i.Streak)
	if i.AtRisk {
		desc += fmt.Sprintf(" · at risk (missed %.0f%%)", i.MissRate*100)
	}
	if i.Habit.Description != nil {
		desc += " · " + *i.Habit.Description
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.TitleOrEmpty() }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle today"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete}
	}

	return Model{
		list: l,
		keys: keys,
	}
}

// Items builds list items for a snapshot as seen at now.
func Items(habits []models.Habit, now time.Time) []list.Item {
	today := now.Format(constants.DateFormat)
	items := make([]list.Item, len(habits))
	for i, h := range habits {
		risk := habitsvc.AssessRisk(h, now)
		items[i] = Item{
			Habit:    h,
			DoneNow:  h.CompletedDates.Has(today),
			Streak:   habitsvc.CurrentStreak(h.CompletedDates, now),
			AtRisk:   risk.AtRisk,
			MissRate: risk.MissRate,
		}
	}
	return items
}

// SetHabits replaces the list contents with a new snapshot.
func (m *Model) SetHabits(habits []models.Habit, now time.Time) tea.Cmd {
	return m.list.SetItems(Items(habits, now))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: i.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID, Title: i.Habit.TitleOrEmpty()} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Len returns the number of habits shown.
func (m Model) Len() int {
	return len(m.list.Items())
}
