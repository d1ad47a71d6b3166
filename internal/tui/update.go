package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/models"
	"github.com/julianstephens/dearbaby/internal/tui/components/reminderlist"
)

const playingStatus = "▶ Playing voice note"

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()

	case EventsMsg:
		cmd := m.handleEvents(msg)
		return m, cmd

	case AlertMsg:
		m.status = "🔔 " + msg.Title
		return m, nil

	case playbackDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else if m.status == playingStatus {
			m.status = ""
		}
		return m, nil
	}

	switch m.state {
	case StateAdd:
		cmd := m.updateAddForm(msg)
		return m, cmd
	case StateNotes:
		cmd := m.updateNotesForm(msg)
		return m, cmd
	case StateConfirmDelete:
		cmd := m.updateConfirmDelete(msg)
		return m, cmd
	case StateDetail:
		cmd := m.updateDetail(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case reminderlist.AddReminderMsg:
		cmd := m.openAddForm()
		return m, cmd
	case reminderlist.AppendNotesMsg:
		cmd := m.openNotesForm(msg.MemoryID)
		return m, cmd
	case reminderlist.DeleteReminderMsg:
		m.previousState = m.state
		m.target = msg.MemoryID
		m.targetTitle = msg.Title
		m.state = StateConfirmDelete
		return m, nil
	case reminderlist.OpenReminderMsg:
		m.previousState = m.state
		m.detail = msg.Entry
		m.state = StateDetail
		return m, nil
	case reminderlist.RecordMsg:
		cmd := m.toggleRecording(msg.MemoryID)
		return m, cmd
	case reminderlist.PlayMsg:
		cmd := m.play(msg.MemoryID)
		return m, cmd
	case reminderlist.RemoveVoiceMsg:
		if m.recordingFor == msg.MemoryID {
			m.cancelRecording()
		}
		if _, err := m.deps.Reminders.RemoveVoiceNote(context.Background(), msg.MemoryID); err != nil {
			m.err = err
		} else {
			m.status = "Voice note removed"
		}
		cmd := m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if m.activeList().Filtering() {
			break
		}
		m.err = nil
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stopAudio()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
			if m.state == StateUpcoming {
				m.state = StateUnlocked
			} else {
				m.state = StateUpcoming
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Stop):
			m.stopAudio()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.state == StateUnlocked {
		m.unlocked, cmd = m.unlocked.Update(msg)
	} else {
		m.upcoming, cmd = m.upcoming.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleEvents(events EventsMsg) tea.Cmd {
	for _, ev := range events {
		if ev.JustUnlocked {
			m.status = fmt.Sprintf("🔓 %q just unlocked", ev.Title)
		}
	}
	return m.refresh()
}

func (m *Model) openAddForm() tea.Cmd {
	m.previousState = m.state
	m.addForm = &AddFormModel{}
	m.formError = ""
	m.form = NewAddForm(m.addForm, m.deps.Dates, m.deps.Reminders.Clock().Now, m.deps.Location)
	m.state = StateAdd
	return m.form.Init()
}

func (m *Model) openNotesForm(memoryID string) tea.Cmd {
	memory, err := m.deps.Journal.Memory(memoryID)
	if err != nil {
		m.err = err
		return nil
	}
	m.previousState = m.state
	m.target = memoryID
	m.notesForm = &NotesFormModel{}
	m.formError = ""
	m.form = NewNotesForm(m.notesForm, memory.Title)
	m.state = StateNotes
	return m.form.Init()
}

// updateForm forwards msg to the open form. Esc abandons it.
func (m *Model) updateForm(msg tea.Msg) (tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		m.state = m.previousState
		m.form = nil
		m.formError = ""
		return nil, false
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return cmd, true
	case huh.StateAborted:
		m.state = m.previousState
		m.form = nil
	}
	return cmd, false
}

func (m *Model) updateAddForm(msg tea.Msg) tea.Cmd {
	cmd, done := m.updateForm(msg)
	if !done {
		return cmd
	}

	ctx := context.Background()
	fm := m.addForm
	now := m.deps.Reminders.Clock().Now()
	date, err := m.deps.Dates.Parse(fm.UnlockAt, now, m.deps.Location)
	if err != nil {
		return m.keepForm(cmd, err)
	}

	memory, err := m.deps.Journal.CreateMemory(m.deps.BabyID, strings.TrimSpace(fm.MemoryTitle), now, models.Image{}, fm.Description)
	if err != nil {
		return m.keepForm(cmd, err)
	}
	if _, err := m.deps.Reminders.CreateReminder(ctx, memory.ID, date, fm.ReminderTitle, strings.TrimSpace(fm.Notes), nil); err != nil {
		if derr := m.deps.Journal.DeleteMemory(ctx, memory.ID); derr != nil {
			logger.Warn("Failed to roll back memory", "memory_id", memory.ID, "error", derr)
		}
		return m.keepForm(cmd, err)
	}

	m.status = fmt.Sprintf("🔒 %q sealed until %s", memory.Title, date.In(m.deps.Location).Format("Jan 2, 2006 15:04"))
	m.closeForm()
	return tea.Batch(cmd, m.refresh())
}

func (m *Model) updateNotesForm(msg tea.Msg) tea.Cmd {
	cmd, done := m.updateForm(msg)
	if !done {
		return cmd
	}

	if _, err := m.deps.Reminders.AppendNotes(context.Background(), m.target, strings.TrimSpace(m.notesForm.Text)); err != nil {
		return m.keepForm(cmd, err)
	}
	m.status = "Notes added"
	m.closeForm()
	return tea.Batch(cmd, m.refresh())
}

// keepForm reports err and leaves the form open for another attempt.
func (m *Model) keepForm(cmd tea.Cmd, err error) tea.Cmd {
	m.formError = errors.Format(err)
	m.form.State = huh.StateNormal
	return cmd
}

func (m *Model) closeForm() {
	m.formError = ""
	m.form = nil
	m.state = m.previousState
}

func (m *Model) updateConfirmDelete(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if m.recordingFor == m.target {
			m.cancelRecording()
		}
		if err := m.deps.Journal.DeleteMemory(context.Background(), m.target); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("Deleted %q", m.targetTitle)
		}
		m.state = m.previousState
		m.target = ""
		return m.refresh()
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = m.previousState
		m.target = ""
	}
	return nil
}

func (m *Model) updateDetail(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.stopAudio()
		m.quitting = true
		return tea.Quit
	case key.Matches(keyMsg, m.keys.Back):
		m.state = m.previousState
	case key.Matches(keyMsg, m.keys.Stop):
		m.stopAudio()
	case keyMsg.String() == "p" && m.detail.View.VoiceNote != nil:
		return m.play(m.detail.Memory.ID)
	}
	return nil
}

// toggleRecording starts a capture for memoryID, or stops the running one and
// attaches it as the reminder's voice note.
func (m *Model) toggleRecording(memoryID string) tea.Cmd {
	ctx := context.Background()

	if m.recording != nil && m.recordingFor == memoryID {
		rec := m.recording
		m.recording = nil
		m.recordingFor = ""

		note, err := m.deps.Voice.StopRecording(ctx, rec)
		if err != nil {
			m.err = err
			return nil
		}
		if _, err := m.deps.Reminders.ReplaceVoiceNote(ctx, memoryID, note); err != nil {
			m.err = err
		} else {
			m.status = "🎙 Voice note saved"
		}
		return m.refresh()
	}

	if m.recording != nil {
		m.cancelRecording()
	}
	rec, err := m.deps.Voice.StartRecording(ctx)
	if err != nil {
		m.err = err
		return nil
	}
	m.recording = rec
	m.recordingFor = memoryID
	m.err = nil
	return nil
}

func (m *Model) play(memoryID string) tea.Cmd {
	view, err := m.deps.Reminders.View(memoryID)
	if err != nil {
		m.err = err
		return nil
	}
	if view.VoiceNote == nil {
		return nil
	}

	// Playback preempts any capture
	if m.recording != nil {
		m.cancelRecording()
	}

	p, err := m.deps.Voice.Play(context.Background(), view.VoiceNote.Ref)
	if err != nil {
		m.err = err
		return nil
	}
	m.status = playingStatus
	return func() tea.Msg {
		return playbackDoneMsg{ref: p.Ref, err: p.Wait()}
	}
}

func (m *Model) cancelRecording() {
	m.deps.Voice.CancelRecording()
	m.recording = nil
	m.recordingFor = ""
}

func (m *Model) stopAudio() {
	if m.recording != nil {
		m.cancelRecording()
		m.status = "Recording discarded"
	}
	m.deps.Voice.Stop()
}

// errorText renders m.err for the status line.
func (m Model) errorText() string {
	if m.err == nil {
		return ""
	}
	if stderrors.Is(m.err, errors.ErrDeviceUnavailable) {
		return "No microphone available: " + m.err.Error()
	}
	return errors.Format(m.err)
}
