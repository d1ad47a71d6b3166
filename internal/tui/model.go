package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dearbaby/internal/journal"
	"github.com/julianstephens/dearbaby/internal/notify"
	"github.com/julianstephens/dearbaby/internal/reminder"
	"github.com/julianstephens/dearbaby/internal/ticker"
	"github.com/julianstephens/dearbaby/internal/tui/components/reminderlist"
	"github.com/julianstephens/dearbaby/internal/utils"
	"github.com/julianstephens/dearbaby/internal/voice"
)

type SessionState int

const (
	StateUpcoming SessionState = iota
	StateUnlocked
	StateDetail
	StateAdd
	StateNotes
	StateConfirmDelete
)

// EventsMsg carries countdown changes from the ticker.
type EventsMsg []ticker.Event

// AlertMsg is a reminder notification that fired while the TUI was open.
type AlertMsg notify.Request

type playbackDoneMsg struct {
	ref string
	err error
}

type AddFormModel struct {
	MemoryTitle   string
	Description   string
	UnlockAt      string
	ReminderTitle string
	Notes         string
}

type NotesFormModel struct {
	Text string
}

// Deps are the services the TUI drives.
type Deps struct {
	Journal   *journal.Journal
	Reminders *reminder.Store
	Voice     *voice.Manager
	Dates     *utils.DateParser
	Location  *time.Location
	BabyID    string
}

type Model struct {
	deps          Deps
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	upcoming      reminderlist.Model
	unlocked      reminderlist.Model
	form          *huh.Form
	addForm       *AddFormModel
	notesForm     *NotesFormModel
	formError     string
	target        string
	targetTitle   string
	detail        reminder.Entry
	recording     *voice.Recording
	recordingFor  string
	status        string
	err           error
	width         int
	height        int
	quitting      bool
}

func NewModel(deps Deps) Model {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Dates == nil {
		deps.Dates = utils.NewDateParser()
	}
	m := Model{
		deps:     deps,
		state:    StateUpcoming,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		upcoming: reminderlist.New(0, 0, deps.Location, "\n  Nothing waiting to unlock.\n  Press 'a' to add a reminder."),
		unlocked: reminderlist.New(0, 0, deps.Location, "\n  Nothing unlocked yet."),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateDetail:
		return []key.Binding{m.keys.Back, m.keys.Stop, m.keys.Quit}
	case StateConfirmDelete:
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case StateAdd, StateNotes:
		return []key.Binding{m.keys.Back}
	}
	keys := []key.Binding{m.keys.Tab, m.keys.Stop, m.keys.Quit, m.keys.Help}
	return append(keys, m.activeList().ShortHelp()...)
}

func (m Model) FullHelp() [][]key.Binding {
	switch m.state {
	case StateUpcoming, StateUnlocked:
		groups := [][]key.Binding{{m.keys.Tab, m.keys.ShiftTab, m.keys.Stop, m.keys.Quit, m.keys.Help}}
		return append(groups, m.activeList().FullHelp()...)
	}
	return [][]key.Binding{m.ShortHelp()}
}

func (m Model) activeList() reminderlist.Model {
	if m.listState() == StateUnlocked {
		return m.unlocked
	}
	return m.upcoming
}

// listState is the tab a form or dialog returns to.
func (m Model) listState() SessionState {
	switch m.state {
	case StateUpcoming, StateUnlocked:
		return m.state
	}
	return m.previousState
}

// refresh reloads both tabs from the reminder store.
func (m *Model) refresh() tea.Cmd {
	upcoming, err := m.deps.Reminders.Upcoming(m.deps.BabyID)
	if err != nil {
		m.err = err
		return nil
	}
	unlocked, err := m.deps.Reminders.Unlocked(m.deps.BabyID)
	if err != nil {
		m.err = err
		return nil
	}

	if m.state == StateDetail {
		if view, err := m.deps.Reminders.View(m.detail.Memory.ID); err == nil {
			m.detail.View = view
		}
	}
	return tea.Batch(m.upcoming.SetEntries(upcoming), m.unlocked.SetEntries(unlocked))
}

func (m *Model) resize() {
	// tabs, header, status and help
	h := m.height - 7
	if h < 0 {
		h = 0
	}
	m.upcoming.SetSize(m.width-4, h)
	m.unlocked.SetSize(m.width-4, h)
}
