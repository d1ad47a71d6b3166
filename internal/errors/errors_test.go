package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "sentinel error",
			err:      ErrInvalidDate,
			expected: "Error: unlock date must be in the future",
		},
		{
			name:     "wrapped error",
			err:      fmt.Errorf("create reminder: %w", ErrNotFound),
			expected: "Error: create reminder: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	result := Formatf("memory %s has %d images", "m-1", 6)
	if result != "Error: memory m-1 has 6 images" {
		t.Errorf("Formatf() = %q", result)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidDate, ErrAlreadyExists, ErrDeviceUnavailable,
		ErrStorageFailure, ErrImageLimit, ErrInvalidTitle, ErrNoActiveRecording,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}

func TestBatchError(t *testing.T) {
	err := &BatchError{Failures: map[string]error{
		"m-2": fmt.Errorf("release voice note: %w", ErrStorageFailure),
		"m-1": ErrNotFound,
	}}

	msg := err.Error()
	if !strings.HasPrefix(msg, "2 item(s) failed") {
		t.Errorf("unexpected message: %q", msg)
	}
	if strings.Index(msg, "m-1") > strings.Index(msg, "m-2") {
		t.Errorf("failures should be listed in id order: %q", msg)
	}

	if !Is(err, ErrStorageFailure) {
		t.Error("expected batch error to match ErrStorageFailure")
	}
	if !Is(err, ErrNotFound) {
		t.Error("expected batch error to match ErrNotFound")
	}
	if Is(err, ErrInvalidDate) {
		t.Error("batch error should not match ErrInvalidDate")
	}
}
