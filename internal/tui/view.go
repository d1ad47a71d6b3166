package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dearbaby/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateUpcoming:
		content = docStyle.Render(m.upcoming.View())
	case StateUnlocked:
		content = docStyle.Render(m.unlocked.View())
	case StateDetail:
		content = m.viewDetail()
	case StateAdd, StateNotes:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
	return ui
}

func (m Model) viewHeader() string {
	baby, err := m.deps.Journal.Baby(m.deps.BabyID)
	if err != nil {
		return headerStyle.Render("Dear Baby")
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		headerStyle.Render("Dear "+baby.Name),
		ageStyle.Render(baby.Age(m.deps.Reminders.Clock().Now())),
	)
}

func (m Model) viewTabs() string {
	current := m.listState()
	var tabs []string
	for i, title := range []string{
		fmt.Sprintf("Upcoming (%d)", m.upcoming.Len()),
		fmt.Sprintf("Unlocked (%d)", m.unlocked.Len()),
	} {
		if current == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	var lines []string
	if m.recording != nil {
		lines = append(lines, recordingStyle.Render("● Recording, press r again to save"))
	}
	if m.formError != "" {
		lines = append(lines, dangerStyle.Render("  "+m.formError))
	}
	if text := m.errorText(); text != "" {
		lines = append(lines, dangerStyle.Render("  "+text))
	} else if m.status != "" {
		lines = append(lines, statusStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewDetail() string {
	memory := m.detail.Memory
	view := m.detail.View

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(memory.Title))
	fmt.Fprintf(&b, "%s\n\n", memory.Description)
	fmt.Fprintf(&b, "Reminder: %s\n", view.Title)
	fmt.Fprintf(&b, "Unlocks:  %s\n\n", utils.FormatUnlock(view.Date, m.deps.Location))

	if !view.Unlocked() {
		b.WriteString(lockedStyle.Render(fmt.Sprintf("🔒 Sealed for another %s", view.Remaining)))
		return docStyle.Render(cardStyle.Render(b.String()))
	}

	if view.Notes == "" {
		b.WriteString(lockedStyle.Render("No notes"))
	} else {
		b.WriteString(view.Notes)
	}
	if view.VoiceNote != nil {
		fmt.Fprintf(&b, "\n\n🎙 Voice note recorded %s, press p to play",
			view.VoiceNote.CreatedAt.In(m.deps.Location).Format("Jan 2, 2006"))
	}
	return docStyle.Render(cardStyle.Render(b.String()))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-6,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and its reminder?", m.targetTitle)),
			warningStyle.Render("Notes and voice note are removed for good."),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
