package reminderlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dearbaby/internal/reminder"
	"github.com/julianstephens/dearbaby/internal/utils"
)

type AddReminderMsg struct{}

type AppendNotesMsg struct {
	MemoryID string
}

type DeleteReminderMsg struct {
	MemoryID string
	Title    string
}

type OpenReminderMsg struct {
	Entry reminder.Entry
}

type RecordMsg struct {
	MemoryID string
}

type PlayMsg struct {
	MemoryID string
}

type RemoveVoiceMsg struct {
	MemoryID string
}

type Item struct {
	Entry    reminder.Entry
	Location *time.Location
}

func (i Item) Title() string {
	icon := "🔒"
	if i.Entry.View.Unlocked() {
		icon = "🔓"
	}
	title := fmt.Sprintf("%s %s", icon, i.Entry.Memory.Title)
	if i.Entry.View.VoiceNote != nil {
		title += " 🎙"
	}
	return title
}

func (i Item) Description() string {
	v := i.Entry.View
	if !v.Unlocked() {
		return fmt.Sprintf("%s | unlocks in %s (%s)", v.Title, v.Remaining, utils.FormatUnlock(v.Date, i.Location))
	}
	first, _, _ := strings.Cut(v.Notes, "\n")
	if first == "" {
		first = "No notes"
	}
	return fmt.Sprintf("%s | %s", v.Title, first)
}

func (i Item) FilterValue() string { return i.Entry.Memory.Title }

type KeyMap struct {
	Add    key.Binding
	Notes  key.Binding
	Delete key.Binding
	Open   key.Binding
	Record key.Binding
	Play   key.Binding
	Remove key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Notes: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add notes"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "record"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove voice note"),
		),
	}
}

type Model struct {
	list     list.Model
	keys     KeyMap
	location *time.Location
	empty    string
}

// New builds an empty list. empty is shown when there is nothing to list.
func New(width, height int, loc *time.Location, empty string) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the parent model

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Notes, keys.Delete, keys.Record, keys.Play}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Notes, keys.Delete, keys.Open, keys.Record, keys.Play, keys.Remove}
	}

	return Model{list: l, keys: keys, location: loc, empty: empty}
}

// SetEntries replaces the items, keeping the cursor where it was when possible.
func (m *Model) SetEntries(entries []reminder.Entry) tea.Cmd {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e, Location: m.location}
	}
	return m.list.SetItems(items)
}

func (m Model) Selected() (reminder.Entry, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return reminder.Entry{}, false
	}
	return i.Entry, true
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddReminderMsg{} }
		}
		i, ok := m.list.SelectedItem().(Item)
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Notes):
			return m, func() tea.Msg { return AppendNotesMsg{MemoryID: i.Entry.Memory.ID} }
		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg {
				return DeleteReminderMsg{MemoryID: i.Entry.Memory.ID, Title: i.Entry.Memory.Title}
			}
		case key.Matches(msg, m.keys.Open):
			return m, func() tea.Msg { return OpenReminderMsg{Entry: i.Entry} }
		case key.Matches(msg, m.keys.Record):
			return m, func() tea.Msg { return RecordMsg{MemoryID: i.Entry.Memory.ID} }
		case key.Matches(msg, m.keys.Remove):
			return m, func() tea.Msg { return RemoveVoiceMsg{MemoryID: i.Entry.Memory.ID} }
		case key.Matches(msg, m.keys.Play):
			if i.Entry.View.VoiceNote != nil {
				return m, func() tea.Msg { return PlayMsg{MemoryID: i.Entry.Memory.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return m.empty
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) ShortHelp() []key.Binding {
	return m.list.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.list.FullHelp()
}
