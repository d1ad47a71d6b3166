package storage

import "github.com/julianstephens/dearbaby/internal/models"

// Provider holds the in-memory Baby/Memory/Reminder collection. Implementations
// perform no side effects beyond their own state; scheduling and voice-note files are
// handled by the services layered on top.
type Provider interface {
	// Babies
	AddBaby(models.Baby) error
	GetBaby(id string) (models.Baby, error)
	GetAllBabies() ([]models.Baby, error)
	UpdateBaby(models.Baby) error

	// Memories
	AddMemory(models.Memory) error
	GetMemory(id string) (models.Memory, error)
	// GetMemoriesForBaby returns the baby's memories newest first.
	GetMemoriesForBaby(babyID string) ([]models.Memory, error)
	UpdateMemory(models.Memory) error
	// DeleteMemory removes the memory, its reminder record and its place in the
	// owning baby's list.
	DeleteMemory(id string) error

	// Reminders
	// AddReminder stores the reminder and links it to its memory. It fails if the
	// memory is unknown or already has a reminder.
	AddReminder(models.Reminder) error
	GetReminder(id string) (models.Reminder, error)
	GetReminderForMemory(memoryID string) (models.Reminder, error)
	GetAllReminders() ([]models.Reminder, error)
	UpdateReminder(models.Reminder) error
	// DeleteReminder removes the reminder and unlinks it from its memory.
	DeleteReminder(id string) error
}
