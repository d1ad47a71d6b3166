// Package reminder owns the time-locked reminder attached to a memory: creating,
// editing and deleting it, and deciding when its contents may be revealed.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/models"
	"github.com/julianstephens/dearbaby/internal/notify"
	"github.com/julianstephens/dearbaby/internal/storage"
)

// VoiceNotes is the voice-note lifecycle the store delegates to.
type VoiceNotes interface {
	Delete(ctx context.Context, ref string) error
	Replace(ctx context.Context, old *models.VoiceNote, next models.VoiceNote, commit func(models.VoiceNote) error) error
}

// Store is the single writer for Memory→Reminder state. Every operation runs under
// one mutex so concurrent callers cannot break the one-reminder-per-memory rule.
type Store struct {
	mu        sync.Mutex
	data      storage.Provider
	scheduler notify.Scheduler
	voice     VoiceNotes
	clock     clock.Clock
	latch     *Latch
}

func NewStore(data storage.Provider, scheduler notify.Scheduler, voice VoiceNotes, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.System{}
	}
	return &Store{
		data:      data,
		scheduler: scheduler,
		voice:     voice,
		clock:     clk,
		latch:     NewLatch(),
	}
}

// Latch returns the store's unlock latch.
func (s *Store) Latch() *Latch { return s.latch }

// Clock returns the store's time source.
func (s *Store) Clock() clock.Clock { return s.clock }

// CreateReminder attaches a new reminder to memoryID and schedules its alert. A
// blank title falls back to the memory title.
func (s *Store) CreateReminder(ctx context.Context, memoryID string, date time.Time, title, notes string, voiceNote *models.VoiceNote) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, err := s.data.GetMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}
	now := s.clock.Now()
	if !date.After(now) {
		return models.Reminder{}, fmt.Errorf("%s is not after %s: %w", date.Format(constants.DateTimeFormat), now.Format(constants.DateTimeFormat), errors.ErrInvalidDate)
	}
	if memory.HasReminder() {
		return models.Reminder{}, fmt.Errorf("memory %s: %w", memoryID, errors.ErrAlreadyExists)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = memory.Title
	}

	r := models.NewReminder(memoryID, date, title, notes, voiceNote, now)
	if err := s.data.AddReminder(r); err != nil {
		return models.Reminder{}, err
	}

	s.schedule(ctx, memory, r)
	logger.Info("Reminder created", "memory", memoryID, "reminder", r.ID, "unlocks", r.Date)
	return r, nil
}

// AppendNotes adds text to the reminder's notes, separated from existing notes by
// a blank line. The scheduled alert is left as is.
func (s *Store) AppendNotes(ctx context.Context, memoryID, text string) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.data.GetReminderForMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}

	if r.Notes == "" {
		r.Notes = text
	} else {
		r.Notes = r.Notes + constants.NotesSeparator + text
	}
	r.UpdatedAt = s.clock.Now()

	if err := s.data.UpdateReminder(r); err != nil {
		return models.Reminder{}, err
	}
	logger.Debug("Reminder notes appended", "memory", memoryID, "reminder", r.ID)
	return r, nil
}

// UpdateReminder changes the unlock date and title. The alert is rescheduled, under
// the same id, only when the date moves.
func (s *Store) UpdateReminder(ctx context.Context, memoryID string, date time.Time, title string) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, err := s.data.GetMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}
	r, err := s.data.GetReminderForMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}

	now := s.clock.Now()
	dateChanged := !date.Equal(r.Date)
	if dateChanged {
		// Unlocking is one-way
		if Unlock(r, now, s.latch).Unlocked() {
			return models.Reminder{}, fmt.Errorf("reminder %s has already unlocked: %w", r.ID, errors.ErrInvalidDate)
		}
		if !date.After(now) {
			return models.Reminder{}, fmt.Errorf("%s is not after %s: %w", date.Format(constants.DateTimeFormat), now.Format(constants.DateTimeFormat), errors.ErrInvalidDate)
		}
	}

	if title = strings.TrimSpace(title); title != "" {
		r.Title = title
	}
	r.Date = date
	r.UpdatedAt = now

	if err := s.data.UpdateReminder(r); err != nil {
		return models.Reminder{}, err
	}
	if dateChanged {
		s.schedule(ctx, memory, r)
	}
	return r, nil
}

// ReplaceVoiceNote attaches next to the reminder and then releases the previous
// voice note. If releasing fails the new note stays attached and the error is
// returned alongside the updated reminder.
func (s *Store) ReplaceVoiceNote(ctx context.Context, memoryID string, next models.VoiceNote) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.data.GetReminderForMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}

	old := r.VoiceNote
	committed := false
	commit := func(vn models.VoiceNote) error {
		updated := r
		updated.VoiceNote = &vn
		updated.UpdatedAt = s.clock.Now()
		if err := s.data.UpdateReminder(updated); err != nil {
			return err
		}
		r = updated
		committed = true
		return nil
	}

	if err := s.voice.Replace(ctx, old, next, commit); err != nil {
		if committed {
			logger.Warn("Previous voice note could not be released", "memory", memoryID, "error", err)
			return r, err
		}
		return models.Reminder{}, err
	}
	logger.Debug("Voice note replaced", "memory", memoryID, "ref", next.Ref)
	return r, nil
}

// RemoveVoiceNote detaches and releases the reminder's voice note, if any.
func (s *Store) RemoveVoiceNote(ctx context.Context, memoryID string) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.data.GetReminderForMemory(memoryID)
	if err != nil {
		return models.Reminder{}, err
	}
	if !r.HasVoiceNote() {
		return r, nil
	}

	ref := r.VoiceNote.Ref
	r.VoiceNote = nil
	r.UpdatedAt = s.clock.Now()
	if err := s.data.UpdateReminder(r); err != nil {
		return models.Reminder{}, err
	}
	if err := s.voice.Delete(ctx, ref); err != nil {
		return r, err
	}
	return r, nil
}

// DeleteReminder releases the voice note, cancels the alert and removes the
// reminder. Deleting when there is no reminder is a no-op.
func (s *Store) DeleteReminder(ctx context.Context, memoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, memoryID)
}

// DeleteReminders deletes the reminders of every memory in memoryIDs. One failure
// does not stop the rest; all failures are returned as an *errors.BatchError.
func (s *Store) DeleteReminders(ctx context.Context, memoryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures := make(map[string]error)
	for _, id := range memoryIDs {
		if err := s.deleteLocked(ctx, id); err != nil {
			logger.Warn("Failed to delete reminder", "memory", id, "error", err)
			failures[id] = err
		}
	}
	if len(failures) > 0 {
		return &errors.BatchError{Failures: failures}
	}
	return nil
}

// DeleteForMemory removes memoryID together with its reminder.
func (s *Store) DeleteForMemory(ctx context.Context, memoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteLocked(ctx, memoryID); err != nil {
		return err
	}
	return s.data.DeleteMemory(memoryID)
}

func (s *Store) deleteLocked(ctx context.Context, memoryID string) error {
	memory, err := s.data.GetMemory(memoryID)
	if err != nil {
		return err
	}
	if !memory.HasReminder() {
		return nil
	}
	r, err := s.data.GetReminder(memory.ReminderID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// A voice note that cannot be released leaves the reminder and its alert intact
	if r.HasVoiceNote() {
		if err := s.voice.Delete(ctx, r.VoiceNote.Ref); err != nil {
			return fmt.Errorf("release voice note for reminder %s: %w", r.ID, err)
		}
	}

	if err := s.scheduler.Cancel(ctx, r.ID); err != nil {
		logger.Warn("Failed to cancel notification", "reminder", r.ID, "error", err)
	}

	if err := s.data.DeleteReminder(r.ID); err != nil {
		return err
	}
	s.latch.Forget(r.ID)
	logger.Info("Reminder deleted", "memory", memoryID, "reminder", r.ID)
	return nil
}

// Get returns the full reminder for memoryID, including locked content.
func (s *Store) Get(memoryID string) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetReminderForMemory(memoryID)
}

// View returns the reminder for memoryID as it may be shown right now.
func (s *Store) View(memoryID string) (UnlockView, error) {
	r, err := s.Get(memoryID)
	if err != nil {
		return UnlockView{}, err
	}
	return Unlock(r, s.clock.Now(), s.latch), nil
}

// schedule registers the alert for r. Failures are logged and never fail the caller.
func (s *Store) schedule(ctx context.Context, memory models.Memory, r models.Reminder) {
	req := notify.NewRequest(r.ID, r.Date, memory.Title, r.Notes)
	if err := s.scheduler.Schedule(ctx, req); err != nil {
		logger.Warn("Failed to schedule notification", "reminder", r.ID, "error", err)
	}
}
