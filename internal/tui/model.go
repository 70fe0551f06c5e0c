package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	habitsvc "github.com/julianstephens/habitstore/internal/habits"
	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
	"github.com/julianstephens/habitstore/internal/tui/components/habits"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateAddHabit
	StateConfirmDelete
)

type HabitFormModel struct {
	Title       string
	Description string
}

// watcher owns the live subscription. It is shared by every copy of Model.
type watcher struct {
	mu  sync.Mutex
	sub *storage.Subscription
}

func (w *watcher) set(sub *storage.Subscription) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		w.sub.Close()
	}
	w.sub = sub
}

func (w *watcher) current() *storage.Subscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sub
}

func (w *watcher) close() {
	w.set(nil)
}

type Model struct {
	svc         *habitsvc.Service
	watch       *watcher
	state       SessionState
	keys        KeyMap
	help        help.Model
	habitsModel habits.Model
	form        *huh.Form
	habitForm   *HabitFormModel
	deleting    habits.DeleteHabitMsg
	lastErr     error
	loaded      bool
	quitting    bool
	width       int
	height      int
}

func NewModel(svc *habitsvc.Service) Model {
	return Model{
		svc:         svc,
		watch:       &watcher{},
		state:       StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return subscribe(m.svc)
}

// Close releases the live subscription.
func (m Model) Close() {
	m.watch.close()
}

// validateTitle applies the same rule as Service.Create.
func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return habitsvc.ErrEmptyTitle
	}
	return nil
}

func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(validateTitle),
			huh.NewText().
				Title("Description (optional)").
				Value(&fm.Description),
		),
	).WithTheme(huh.ThemeDracula())
}

type subscribedMsg struct {
	sub *storage.Subscription
}

type snapshotMsg struct {
	sub    *storage.Subscription
	habits []models.Habit
}

type subscriptionEndedMsg struct {
	sub *storage.Subscription
	err error
}

type errMsg struct {
	err error
}

func subscribe(svc *habitsvc.Service) tea.Cmd {
	return func() tea.Msg {
		sub, err := svc.Watch(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return subscribedMsg{sub: sub}
	}
}

// waitForSnapshot blocks until sub emits its next snapshot or ends.
func waitForSnapshot(sub *storage.Subscription) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-sub.Updates()
		if !ok {
			return subscriptionEndedMsg{sub: sub, err: sub.Err()}
		}
		return snapshotMsg{sub: sub, habits: snapshot}
	}
}
