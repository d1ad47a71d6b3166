package models

import (
	"testing"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
)

func TestBaby_Age(t *testing.T) {
	birth := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	b := Baby{Name: "Ada", BirthDate: birth, Gender: constants.GenderGirl}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"same day", birth.Add(3 * time.Hour), "Just born"},
		{"one day", birth.AddDate(0, 0, 1), "1 day old"},
		{"several days", birth.AddDate(0, 0, 20), "20 days old"},
		{"one month", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC), "1 month old"},
		{"eleven months", time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC), "11 months old"},
		{"one year", time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC), "1 year old"},
		{"two years", time.Date(2027, 6, 1, 8, 0, 0, 0, time.UTC), "2 years old"},
		{"clock before birth", birth.AddDate(0, 0, -2), "Just born"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Age(tt.now); got != tt.want {
				t.Errorf("Age(%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}

func TestBaby_Validate(t *testing.T) {
	good := NewBaby("Ada", time.Now(), constants.GenderGirl)
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noName := NewBaby("  ", time.Now(), constants.GenderBoy)
	if err := noName.Validate(); err == nil {
		t.Error("expected error for blank name")
	}

	badGender := NewBaby("Ada", time.Now(), "other")
	if err := badGender.Validate(); err == nil {
		t.Error("expected error for unknown gender")
	}
}
