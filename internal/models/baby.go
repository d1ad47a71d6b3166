package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dearbaby/internal/constants"
)

type Baby struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	BirthDate time.Time        `json:"birth_date"`
	Gender    constants.Gender `json:"gender"`
	Image     Image            `json:"image"`
	MemoryIDs []string         `json:"memory_ids"` // newest first
}

func NewBaby(name string, birthDate time.Time, gender constants.Gender) Baby {
	return Baby{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		BirthDate: birthDate,
		Gender:    gender,
	}
}

func (b *Baby) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("baby name cannot be empty")
	}
	switch b.Gender {
	case constants.GenderBoy, constants.GenderGirl:
	default:
		return fmt.Errorf("invalid gender: %q", b.Gender)
	}
	return nil
}

// Age renders the largest whole calendar unit between the birth date and now,
// e.g. "1 year old", "3 months old", "Just born".
func (b *Baby) Age(now time.Time) string {
	years, months, days := calendarDiff(b.BirthDate, now)
	switch {
	case years > 0:
		return plural(years, "year") + " old"
	case months > 0:
		return plural(months, "month") + " old"
	case days > 0:
		return plural(days, "day") + " old"
	}
	return "Just born"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// calendarDiff returns the whole years, months and days between from and to
func calendarDiff(from, to time.Time) (years, months, days int) {
	if to.Before(from) {
		return 0, 0, 0
	}

	years = to.Year() - from.Year()
	if from.AddDate(years, 0, 0).After(to) {
		years--
	}
	anchor := from.AddDate(years, 0, 0)

	for !anchor.AddDate(0, months+1, 0).After(to) {
		months++
	}
	anchor = anchor.AddDate(0, months, 0)

	days = int(to.Sub(anchor).Hours() / 24)
	return years, months, days
}
