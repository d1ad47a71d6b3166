package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
)

// Image is an opaque picture attached to a memory.
type Image struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

type Memory struct {
	ID               string    `json:"id"`
	BabyID           string    `json:"baby_id"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Image            Image     `json:"image"`
	AdditionalImages []Image   `json:"additional_images,omitempty"`
	Description      string    `json:"description"`
	IsInSpace        bool      `json:"is_in_space"`
	SpaceImage       *Image    `json:"space_image,omitempty"`
	ReminderID       string    `json:"reminder_id,omitempty"` // index into the reminder arena
	CreatedAt        time.Time `json:"created_at"`
}

// NewMemory builds a memory with a fresh id. Blank descriptions fall back to the
// placeholder text.
func NewMemory(babyID, title string, date time.Time, image Image, description string, now time.Time) Memory {
	if strings.TrimSpace(description) == "" {
		description = constants.DefaultDescription
	}
	return Memory{
		ID:          uuid.New().String(),
		BabyID:      babyID,
		Title:       strings.TrimSpace(title),
		Date:        date,
		Image:       image,
		Description: description,
		CreatedAt:   now,
	}
}

func (m *Memory) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.ErrInvalidTitle
	}
	if n := m.ImageCount(); n > constants.MaxImagesPerMemory {
		return fmt.Errorf("memory has %d images (max %d): %w", n, constants.MaxImagesPerMemory, errors.ErrImageLimit)
	}
	return nil
}

// ImageCount returns the primary image plus any additional images
func (m *Memory) ImageCount() int {
	return 1 + len(m.AdditionalImages)
}

// AddImage appends an additional image, rejecting the one that would exceed the cap
func (m *Memory) AddImage(img Image) error {
	if m.ImageCount() >= constants.MaxImagesPerMemory {
		return fmt.Errorf("memory %s already has %d images: %w", m.ID, m.ImageCount(), errors.ErrImageLimit)
	}
	m.AdditionalImages = append(m.AdditionalImages, img)
	return nil
}

// Images returns the primary image followed by the additional ones
func (m *Memory) Images() []Image {
	images := make([]Image, 0, m.ImageCount())
	images = append(images, m.Image)
	return append(images, m.AdditionalImages...)
}

// HasReminder reports whether a reminder is attached
func (m *Memory) HasReminder() bool {
	return m.ReminderID != ""
}
