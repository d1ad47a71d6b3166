package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notifier"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *Context) (warning string, err error)
	// gate failures skip every later needsConfig check
	gate        bool
	needsConfig bool
}

var doctorChecks = []check{
	{name: "Configuration", run: checkConfig, gate: true},
	{name: "Log directory", run: checkLogDir},
	{name: "Voice-note storage", run: checkVoiceStorage, needsConfig: true},
	{name: "Backups present", run: checkBackupsPresent, needsConfig: true},
	{name: "Capture source", run: checkCaptureSource},
	{name: "Notifications", run: checkNotifications, needsConfig: true},
	{name: "Clock/timezone", run: checkClockTimezone, needsConfig: true},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	out := ctx.Out
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	configValid := true

	for _, c := range doctorChecks {
		if c.needsConfig && !configValid {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (invalid configuration)\n", c.name)
			continue
		}

		warning, err := c.run(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(out, "   Error: %v\n", err)
			hasError = true
			if c.gate {
				configValid = false
			}
		case warning != "":
			fmt.Fprintf(out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(out, "   %s\n", warning)
		default:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func checkConfig(ctx *Context) (string, error) {
	return "", ctx.Config.Validate()
}

func checkLogDir(ctx *Context) (string, error) {
	dir := filepath.Join(ctx.Config.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return "", fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return "", nil
}

// checkVoiceStorage round-trips a probe blob through the configured backend.
func checkVoiceStorage(ctx *Context) (string, error) {
	store, err := newBlobStore(ctx.Config)
	if err != nil {
		return "", err
	}
	defer store.Close()

	bg := context.Background()
	info, err := store.Create(bg, strings.NewReader("doctor"))
	if err != nil {
		return "", fmt.Errorf("write failed: %w", err)
	}
	defer store.Delete(bg, info.Ref)

	rc, err := store.Open(bg, info.Ref)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	if string(data) != "doctor" {
		return "", fmt.Errorf("read back %q, want %q", data, "doctor")
	}
	return "", nil
}

func checkBackupsPresent(ctx *Context) (string, error) {
	if ctx.Config.VoiceNotes.Backend != constants.VoiceNoteBackendSQLite || ctx.Config.VoiceNoteDSN() == ":memory:" {
		return "", nil
	}
	mgr, err := backupManager(ctx)
	if err != nil {
		return "", err
	}
	backups, err := mgr.List()
	if err != nil {
		return "", fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Sprintf("no backups found, consider creating one with '%s backup create'", constants.AppName), nil
	}
	return "", nil
}

func checkCaptureSource(ctx *Context) (string, error) {
	input := ctx.Config.VoiceNotes.Input
	if input == "" {
		return "no voice_notes.input configured, recording is unavailable", nil
	}
	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("capture source: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("capture source %s is a directory", input)
	}
	return "", nil
}

func checkNotifications(ctx *Context) (string, error) {
	if ctx.Config.Notifications.Backend != constants.NotificationBackendTray {
		return "", nil
	}
	if err := notifier.NewTrayDeliverer().Available(); err != nil {
		return fmt.Sprintf("tray companion unavailable (%v), alerts will be printed instead", err), nil
	}
	return "", nil
}

func checkClockTimezone(ctx *Context) (string, error) {
	loc, err := ctx.Config.Location()
	if err != nil {
		return "", err
	}

	now := time.Now().In(loc)
	if now.Year() < 2020 || now.Year() > 2100 {
		return "", fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if loc == time.UTC {
		return "timezone is UTC, unlock dates are interpreted in UTC", nil
	}
	return "", nil
}
