package storage

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/models"
)

// MemoryStore keeps everything in maps keyed by id. Memories refer to their reminder
// by id only, so a reminder has exactly one stored copy.
type MemoryStore struct {
	mu        sync.RWMutex
	babies    map[string]models.Baby
	memories  map[string]models.Memory
	reminders map[string]models.Reminder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		babies:    make(map[string]models.Baby),
		memories:  make(map[string]models.Memory),
		reminders: make(map[string]models.Reminder),
	}
}

func (s *MemoryStore) AddBaby(baby models.Baby) error {
	if err := baby.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.babies[baby.ID]; ok {
		return fmt.Errorf("baby %s: %w", baby.ID, errors.ErrAlreadyExists)
	}
	s.babies[baby.ID] = cloneBaby(baby)
	return nil
}

func (s *MemoryStore) GetBaby(id string) (models.Baby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	baby, ok := s.babies[id]
	if !ok {
		return models.Baby{}, fmt.Errorf("baby %s: %w", id, errors.ErrNotFound)
	}
	return cloneBaby(baby), nil
}

func (s *MemoryStore) GetAllBabies() ([]models.Baby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	babies := make([]models.Baby, 0, len(s.babies))
	for _, b := range s.babies {
		babies = append(babies, cloneBaby(b))
	}
	sort.Slice(babies, func(i, j int) bool {
		if babies[i].Name != babies[j].Name {
			return babies[i].Name < babies[j].Name
		}
		return babies[i].ID < babies[j].ID
	})
	return babies, nil
}

func (s *MemoryStore) UpdateBaby(baby models.Baby) error {
	if err := baby.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.babies[baby.ID]; !ok {
		return fmt.Errorf("baby %s: %w", baby.ID, errors.ErrNotFound)
	}
	s.babies[baby.ID] = cloneBaby(baby)
	return nil
}

func (s *MemoryStore) AddMemory(memory models.Memory) error {
	if err := memory.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	baby, ok := s.babies[memory.BabyID]
	if !ok {
		return fmt.Errorf("baby %s: %w", memory.BabyID, errors.ErrNotFound)
	}
	if _, ok := s.memories[memory.ID]; ok {
		return fmt.Errorf("memory %s: %w", memory.ID, errors.ErrAlreadyExists)
	}

	// A new memory never arrives with a reminder; those go through AddReminder
	memory.ReminderID = ""
	s.memories[memory.ID] = cloneMemory(memory)

	// Newest memory first
	baby.MemoryIDs = append([]string{memory.ID}, baby.MemoryIDs...)
	s.babies[baby.ID] = baby
	return nil
}

func (s *MemoryStore) GetMemory(id string) (models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memory, ok := s.memories[id]
	if !ok {
		return models.Memory{}, fmt.Errorf("memory %s: %w", id, errors.ErrNotFound)
	}
	return cloneMemory(memory), nil
}

func (s *MemoryStore) GetMemoriesForBaby(babyID string) ([]models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	baby, ok := s.babies[babyID]
	if !ok {
		return nil, fmt.Errorf("baby %s: %w", babyID, errors.ErrNotFound)
	}

	memories := make([]models.Memory, 0, len(baby.MemoryIDs))
	for _, id := range baby.MemoryIDs {
		if m, ok := s.memories[id]; ok {
			memories = append(memories, cloneMemory(m))
		}
	}
	return memories, nil
}

func (s *MemoryStore) UpdateMemory(memory models.Memory) error {
	if err := memory.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.memories[memory.ID]
	if !ok {
		return fmt.Errorf("memory %s: %w", memory.ID, errors.ErrNotFound)
	}

	// Ownership and the reminder link are managed by the store, not by callers
	memory.BabyID = existing.BabyID
	memory.ReminderID = existing.ReminderID
	s.memories[memory.ID] = cloneMemory(memory)
	return nil
}

func (s *MemoryStore) DeleteMemory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, ok := s.memories[id]
	if !ok {
		return fmt.Errorf("memory %s: %w", id, errors.ErrNotFound)
	}

	if memory.ReminderID != "" {
		delete(s.reminders, memory.ReminderID)
	}
	delete(s.memories, id)

	if baby, ok := s.babies[memory.BabyID]; ok {
		baby.MemoryIDs = slices.DeleteFunc(baby.MemoryIDs, func(mid string) bool { return mid == id })
		s.babies[baby.ID] = baby
	}
	return nil
}

func (s *MemoryStore) AddReminder(reminder models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, ok := s.memories[reminder.MemoryID]
	if !ok {
		return fmt.Errorf("memory %s: %w", reminder.MemoryID, errors.ErrNotFound)
	}
	if memory.ReminderID != "" {
		return fmt.Errorf("memory %s: %w", reminder.MemoryID, errors.ErrAlreadyExists)
	}
	if _, ok := s.reminders[reminder.ID]; ok {
		return fmt.Errorf("reminder %s: %w", reminder.ID, errors.ErrAlreadyExists)
	}

	s.reminders[reminder.ID] = cloneReminder(reminder)
	memory.ReminderID = reminder.ID
	s.memories[memory.ID] = memory
	return nil
}

func (s *MemoryStore) GetReminder(id string) (models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return models.Reminder{}, fmt.Errorf("reminder %s: %w", id, errors.ErrNotFound)
	}
	return cloneReminder(reminder), nil
}

func (s *MemoryStore) GetReminderForMemory(memoryID string) (models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memory, ok := s.memories[memoryID]
	if !ok {
		return models.Reminder{}, fmt.Errorf("memory %s: %w", memoryID, errors.ErrNotFound)
	}
	reminder, ok := s.reminders[memory.ReminderID]
	if memory.ReminderID == "" || !ok {
		return models.Reminder{}, fmt.Errorf("reminder for memory %s: %w", memoryID, errors.ErrNotFound)
	}
	return cloneReminder(reminder), nil
}

func (s *MemoryStore) GetAllReminders() ([]models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminders := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		reminders = append(reminders, cloneReminder(r))
	}
	sort.Slice(reminders, func(i, j int) bool {
		if !reminders[i].Date.Equal(reminders[j].Date) {
			return reminders[i].Date.Before(reminders[j].Date)
		}
		return reminders[i].ID < reminders[j].ID
	})
	return reminders, nil
}

func (s *MemoryStore) UpdateReminder(reminder models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reminders[reminder.ID]
	if !ok {
		return fmt.Errorf("reminder %s: %w", reminder.ID, errors.ErrNotFound)
	}

	// The owning memory never changes
	reminder.MemoryID = existing.MemoryID
	s.reminders[reminder.ID] = cloneReminder(reminder)
	return nil
}

func (s *MemoryStore) DeleteReminder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return fmt.Errorf("reminder %s: %w", id, errors.ErrNotFound)
	}
	delete(s.reminders, id)

	if memory, ok := s.memories[reminder.MemoryID]; ok && memory.ReminderID == id {
		memory.ReminderID = ""
		s.memories[memory.ID] = memory
	}
	return nil
}

func cloneBaby(b models.Baby) models.Baby {
	b.MemoryIDs = slices.Clone(b.MemoryIDs)
	return b
}

func cloneMemory(m models.Memory) models.Memory {
	m.AdditionalImages = slices.Clone(m.AdditionalImages)
	if m.SpaceImage != nil {
		img := *m.SpaceImage
		m.SpaceImage = &img
	}
	return m
}

func cloneReminder(r models.Reminder) models.Reminder {
	if r.VoiceNote != nil {
		vn := *r.VoiceNote
		r.VoiceNote = &vn
	}
	return r
}
