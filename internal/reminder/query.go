package reminder

import (
	"sort"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/models"
)

// Entry pairs a memory with its reminder and the reminder's current view. While
// the view is locked, Reminder carries no Notes or VoiceNote either.
type Entry struct {
	Memory   models.Memory
	Reminder models.Reminder
	View     UnlockView
}

// ListForBaby returns every reminder on the baby's memories, soonest unlock first.
// Reminders unlocking at the same instant are ordered by id.
func (s *Store) ListForBaby(babyID string) ([]Entry, error) {
	memories, err := s.data.GetMemoriesForBaby(babyID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entries := make([]Entry, 0, len(memories))
	for _, m := range memories {
		if !m.HasReminder() {
			continue
		}
		r, err := s.data.GetReminder(m.ReminderID)
		if err != nil {
			// Deleted between the two reads
			continue
		}
		view := Unlock(r, now, s.latch)
		if !view.Unlocked() {
			r.Notes = ""
			r.VoiceNote = nil
		}
		entries = append(entries, Entry{Memory: m, Reminder: r, View: view})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Reminder, entries[j].Reminder
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	return entries, nil
}

// Upcoming returns the baby's reminders that are still locked.
func (s *Store) Upcoming(babyID string) ([]Entry, error) {
	return s.filter(babyID, constants.StateLocked)
}

// Unlocked returns the baby's reminders whose contents may be shown.
func (s *Store) Unlocked(babyID string) ([]Entry, error) {
	return s.filter(babyID, constants.StateUnlocked)
}

func (s *Store) filter(babyID string, state constants.UnlockState) ([]Entry, error) {
	all, err := s.ListForBaby(babyID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.View.State == state {
			out = append(out, e)
		}
	}
	return out, nil
}
