package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dearbaby/internal/utils"
)

// NewAddForm asks for a memory and the reminder that seals it. now is consulted
// when the form validates so that "in 3 days" is relative to submission.
func NewAddForm(fm *AddFormModel, dates *utils.DateParser, now func() time.Time, loc *time.Location) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Memory").
				Description("What happened?").
				Value(&fm.MemoryTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Unlock on").
				Description("YYYY-MM-DD, YYYY-MM-DD HH:MM, or e.g. \"in 2 weeks\"").
				Value(&fm.UnlockAt).
				Validate(func(s string) error {
					t, err := dates.Parse(s, now(), loc)
					if err != nil {
						return err
					}
					if !t.After(now()) {
						return fmt.Errorf("unlock date must be in the future")
					}
					return nil
				}),
			huh.NewInput().
				Title("Reminder title").
				Description("Leave empty to use the memory title").
				Value(&fm.ReminderTitle),
			huh.NewText().
				Title("Notes").
				Description("Sealed until the unlock date").
				Value(&fm.Notes),
		),
	)
}

func NewNotesForm(fm *NotesFormModel, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Add to " + title).
				Value(&fm.Text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("notes cannot be empty")
					}
					return nil
				}),
		),
	)
}
