package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	dberrors "github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/models"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*MemoryStore, models.Baby) {
	t.Helper()
	s := NewMemoryStore()
	baby := models.NewBaby("Ada", testNow.AddDate(0, -3, 0), constants.GenderGirl)
	if err := s.AddBaby(baby); err != nil {
		t.Fatalf("failed to add baby: %v", err)
	}
	return s, baby
}

func addMemory(t *testing.T, s *MemoryStore, babyID, title string) models.Memory {
	t.Helper()
	m := models.NewMemory(babyID, title, testNow, models.Image{Name: title + ".jpg"}, "", testNow)
	if err := s.AddMemory(m); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	return m
}

func TestMemoryStore_MemoriesNewestFirst(t *testing.T) {
	s, baby := setupStore(t)

	first := addMemory(t, s, baby.ID, "First bath")
	second := addMemory(t, s, baby.ID, "First smile")

	memories, err := s.GetMemoriesForBaby(baby.ID)
	if err != nil {
		t.Fatalf("get memories: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(memories))
	}
	if memories[0].ID != second.ID || memories[1].ID != first.ID {
		t.Errorf("expected newest memory first, got %s then %s", memories[0].Title, memories[1].Title)
	}
}

func TestMemoryStore_AddMemoryUnknownBaby(t *testing.T) {
	s := NewMemoryStore()
	m := models.NewMemory("nope", "Lost", testNow, models.Image{}, "", testNow)

	err := s.AddMemory(m)
	if !errors.Is(err, dberrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ReminderLinking(t *testing.T) {
	s, baby := setupStore(t)
	m := addMemory(t, s, baby.ID, "First word")

	r := models.NewReminder(m.ID, testNow.AddDate(1, 0, 0), "Open at 1yo", "", nil, testNow)
	if err := s.AddReminder(r); err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	got, err := s.GetMemory(m.ID)
	if err != nil {
		t.Fatalf("get memory: %v", err)
	}
	if got.ReminderID != r.ID {
		t.Errorf("expected memory to reference reminder %s, got %q", r.ID, got.ReminderID)
	}

	byMemory, err := s.GetReminderForMemory(m.ID)
	if err != nil || byMemory.ID != r.ID {
		t.Fatalf("GetReminderForMemory = %v, %v", byMemory.ID, err)
	}

	// Second reminder for the same memory is rejected
	dup := models.NewReminder(m.ID, testNow.AddDate(2, 0, 0), "again", "", nil, testNow)
	if err := s.AddReminder(dup); !errors.Is(err, dberrors.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	if err := s.DeleteReminder(r.ID); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}
	got, _ = s.GetMemory(m.ID)
	if got.ReminderID != "" {
		t.Errorf("expected reminder link to be cleared, got %q", got.ReminderID)
	}
	if _, err := s.GetReminderForMemory(m.ID); !errors.Is(err, dberrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_DeleteMemoryRemovesReminder(t *testing.T) {
	s, baby := setupStore(t)
	m := addMemory(t, s, baby.ID, "Crawling")
	r := models.NewReminder(m.ID, testNow.AddDate(0, 1, 0), "", "", nil, testNow)
	if err := s.AddReminder(r); err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	if err := s.DeleteMemory(m.ID); err != nil {
		t.Fatalf("delete memory: %v", err)
	}

	if _, err := s.GetReminder(r.ID); !errors.Is(err, dberrors.ErrNotFound) {
		t.Errorf("expected reminder to be gone, got %v", err)
	}
	updated, _ := s.GetBaby(baby.ID)
	if len(updated.MemoryIDs) != 0 {
		t.Errorf("expected baby memory list to be empty, got %v", updated.MemoryIDs)
	}
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	s, baby := setupStore(t)
	m := addMemory(t, s, baby.ID, "Beach")

	got, _ := s.GetMemory(m.ID)
	got.AdditionalImages = append(got.AdditionalImages, models.Image{Name: "extra"})
	got.Title = "changed"

	again, _ := s.GetMemory(m.ID)
	if again.Title != "Beach" || len(again.AdditionalImages) != 0 {
		t.Error("mutating a returned memory must not change the store")
	}

	r := models.NewReminder(m.ID, testNow.Add(time.Hour), "", "", &models.VoiceNote{Ref: "a"}, testNow)
	_ = s.AddReminder(r)
	gotR, _ := s.GetReminder(r.ID)
	gotR.VoiceNote.Ref = "b"
	againR, _ := s.GetReminder(r.ID)
	if againR.VoiceNote.Ref != "a" {
		t.Error("mutating a returned voice note must not change the store")
	}
}

func TestMemoryStore_UpdateKeepsLinks(t *testing.T) {
	s, baby := setupStore(t)
	m := addMemory(t, s, baby.ID, "Park")
	r := models.NewReminder(m.ID, testNow.Add(time.Hour), "", "", nil, testNow)
	_ = s.AddReminder(r)

	m.Title = "Park day"
	m.ReminderID = ""
	m.BabyID = "someone-else"
	if err := s.UpdateMemory(m); err != nil {
		t.Fatalf("update memory: %v", err)
	}

	got, _ := s.GetMemory(m.ID)
	if got.Title != "Park day" {
		t.Errorf("title not updated: %q", got.Title)
	}
	if got.ReminderID != r.ID || got.BabyID != baby.ID {
		t.Error("update must not change ownership or reminder link")
	}

	r.MemoryID = "other"
	r.Notes = "hello"
	if err := s.UpdateReminder(r); err != nil {
		t.Fatalf("update reminder: %v", err)
	}
	gotR, _ := s.GetReminder(r.ID)
	if gotR.MemoryID != m.ID || gotR.Notes != "hello" {
		t.Errorf("unexpected reminder after update: %+v", gotR)
	}
}

func TestMemoryStore_GetAllRemindersSorted(t *testing.T) {
	s, baby := setupStore(t)
	late := addMemory(t, s, baby.ID, "late")
	early := addMemory(t, s, baby.ID, "early")

	_ = s.AddReminder(models.NewReminder(late.ID, testNow.AddDate(0, 2, 0), "", "", nil, testNow))
	_ = s.AddReminder(models.NewReminder(early.ID, testNow.AddDate(0, 1, 0), "", "", nil, testNow))

	all, err := s.GetAllReminders()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 || all[0].MemoryID != early.ID {
		t.Errorf("expected reminders ascending by date, got %+v", all)
	}
}
