package models

import (
	"time"

	"github.com/google/uuid"
)

// VoiceNote references a single audio attachment held in voice-note storage.
type VoiceNote struct {
	Ref       string    `json:"ref"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type Reminder struct {
	ID        string     `json:"id"` // stable across edits; doubles as the notification id
	MemoryID  string     `json:"memory_id"`
	Date      time.Time  `json:"date"` // unlock instant
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	VoiceNote *VoiceNote `json:"voice_note,omitempty"`
	// IsCompleted is reserved; nothing sets it yet.
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewReminder builds a reminder with a fresh id.
func NewReminder(memoryID string, date time.Time, title, notes string, voiceNote *VoiceNote, now time.Time) Reminder {
	return Reminder{
		ID:        uuid.New().String(),
		MemoryID:  memoryID,
		Date:      date,
		Title:     title,
		Notes:     notes,
		VoiceNote: voiceNote,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasVoiceNote reports whether an audio attachment is present
func (r *Reminder) HasVoiceNote() bool {
	return r.VoiceNote != nil && r.VoiceNote.Ref != ""
}
