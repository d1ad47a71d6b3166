package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/julianstephens/dearbaby/internal/logger"
)

var (
	// ErrNotFound is returned when a memory, baby, reminder or voice note does not exist
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidDate is returned when a reminder unlock date is not in the future
	ErrInvalidDate = stderrors.New("unlock date must be in the future")
	// ErrAlreadyExists is returned when a memory already has a reminder attached
	ErrAlreadyExists = stderrors.New("reminder already exists")
	// ErrDeviceUnavailable is returned when the audio session cannot be acquired
	ErrDeviceUnavailable = stderrors.New("audio device unavailable")
	// ErrStorageFailure is returned when voice-note storage cannot be written or removed
	ErrStorageFailure = stderrors.New("voice note storage failure")
	// ErrImageLimit is returned when a memory already holds the maximum number of images
	ErrImageLimit = stderrors.New("image limit reached")
	// ErrInvalidTitle is returned when a memory title is blank
	ErrInvalidTitle = stderrors.New("title cannot be empty")
	// ErrNoActiveRecording is returned when stopping a recording that is not running
	ErrNoActiveRecording = stderrors.New("no active recording")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// BatchError collects per-item failures from a best-effort batch operation
type BatchError struct {
	Failures map[string]error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failures[id]))
	}
	return fmt.Sprintf("%d item(s) failed: %s", len(ids), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
