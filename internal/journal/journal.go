// Package journal manages babies and their memories. Reminder state is delegated to
// the reminder store so a deleted memory never leaves a schedule or voice note behind.
package journal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/models"
	"github.com/julianstephens/dearbaby/internal/reminder"
	"github.com/julianstephens/dearbaby/internal/storage"
)

type Journal struct {
	mu        sync.Mutex
	data      storage.Provider
	reminders *reminder.Store
	clock     clock.Clock
}

func New(data storage.Provider, reminders *reminder.Store, clk clock.Clock) *Journal {
	if clk == nil {
		clk = clock.System{}
	}
	return &Journal{data: data, reminders: reminders, clock: clk}
}

func (j *Journal) AddBaby(name string, birthDate time.Time, gender constants.Gender) (models.Baby, error) {
	baby := models.NewBaby(name, birthDate, gender)
	if err := j.data.AddBaby(baby); err != nil {
		return models.Baby{}, err
	}
	logger.Info("Baby added", "id", baby.ID, "name", baby.Name)
	return baby, nil
}

func (j *Journal) Baby(id string) (models.Baby, error) {
	return j.data.GetBaby(id)
}

func (j *Journal) Babies() ([]models.Baby, error) {
	return j.data.GetAllBabies()
}

// Age renders how old the baby is today, e.g. "4 months old".
func (j *Journal) Age(babyID string) (string, error) {
	baby, err := j.data.GetBaby(babyID)
	if err != nil {
		return "", err
	}
	return baby.Age(j.clock.Now()), nil
}

// CreateMemory records a new memory for babyID. It becomes the baby's newest memory.
func (j *Journal) CreateMemory(babyID, title string, date time.Time, image models.Image, description string) (models.Memory, error) {
	if strings.TrimSpace(title) == "" {
		return models.Memory{}, errors.ErrInvalidTitle
	}

	m := models.NewMemory(babyID, title, date, image, description, j.clock.Now())
	if err := j.data.AddMemory(m); err != nil {
		return models.Memory{}, err
	}
	logger.Debug("Memory created", "id", m.ID, "baby", babyID)
	return m, nil
}

func (j *Journal) Memory(id string) (models.Memory, error) {
	return j.data.GetMemory(id)
}

// EditMemory changes a memory's title and description. A blank description resets
// to the placeholder text.
func (j *Journal) EditMemory(id, title, description string) (models.Memory, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	m, err := j.data.GetMemory(id)
	if err != nil {
		return models.Memory{}, err
	}
	m.Title = strings.TrimSpace(title)
	if strings.TrimSpace(description) == "" {
		description = constants.DefaultDescription
	}
	m.Description = description

	if err := j.data.UpdateMemory(m); err != nil {
		return models.Memory{}, err
	}
	return m, nil
}

// AddImage attaches another picture to the memory, up to the per-memory cap.
func (j *Journal) AddImage(memoryID string, img models.Image) (models.Memory, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	m, err := j.data.GetMemory(memoryID)
	if err != nil {
		return models.Memory{}, err
	}
	if err := m.AddImage(img); err != nil {
		return models.Memory{}, err
	}
	if err := j.data.UpdateMemory(m); err != nil {
		return models.Memory{}, err
	}
	return m, nil
}

// MoveToSpace promotes the memory into the space journey. There is no way back.
func (j *Journal) MoveToSpace(memoryID string, spaceImage models.Image) (models.Memory, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	m, err := j.data.GetMemory(memoryID)
	if err != nil {
		return models.Memory{}, err
	}
	if m.IsInSpace {
		return m, nil
	}

	m.IsInSpace = true
	m.SpaceImage = &spaceImage
	if err := j.data.UpdateMemory(m); err != nil {
		return models.Memory{}, err
	}
	logger.Debug("Memory moved to space", "id", memoryID)
	return m, nil
}

// DeleteMemory removes the memory, cancelling its reminder and releasing its voice note.
func (j *Journal) DeleteMemory(ctx context.Context, memoryID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.reminders.DeleteForMemory(ctx, memoryID); err != nil {
		return err
	}
	logger.Info("Memory deleted", "id", memoryID)
	return nil
}

// ListMemories returns the baby's memories newest first.
func (j *Journal) ListMemories(babyID string) ([]models.Memory, error) {
	return j.data.GetMemoriesForBaby(babyID)
}

// SpaceMemories returns only the memories promoted to the space journey.
func (j *Journal) SpaceMemories(babyID string) ([]models.Memory, error) {
	all, err := j.data.GetMemoriesForBaby(babyID)
	if err != nil {
		return nil, err
	}
	var out []models.Memory
	for _, m := range all {
		if m.IsInSpace {
			out = append(out, m)
		}
	}
	return out, nil
}
