package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/dearbaby/internal/blob"
	"github.com/julianstephens/dearbaby/internal/config"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notify"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.Default()
	cfg.ConfigDir = t.TempDir()
	cfg.Timezone = "UTC"
	return cfg
}

func newTestContext(t *testing.T, cfg config.Config) (*Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx := NewContext(cfg, &out)
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out
}

func TestOpen_Backends(t *testing.T) {
	tests := []struct {
		name    string
		backend constants.VoiceNoteBackend
		check   func(t *testing.T, ctx *Context)
	}{
		{
			name:    "file",
			backend: constants.VoiceNoteBackendFile,
			check: func(t *testing.T, ctx *Context) {
				fs, ok := ctx.Blobs.(*blob.FileStore)
				if !ok {
					t.Fatalf("expected *blob.FileStore, got %T", ctx.Blobs)
				}
				if fs.Dir() != ctx.Config.VoiceNoteDir() {
					t.Errorf("expected dir %s, got %s", ctx.Config.VoiceNoteDir(), fs.Dir())
				}
			},
		},
		{
			name:    "sqlite",
			backend: constants.VoiceNoteBackendSQLite,
			check: func(t *testing.T, ctx *Context) {
				if _, ok := ctx.Blobs.(*blob.SQLiteStore); !ok {
					t.Fatalf("expected *blob.SQLiteStore, got %T", ctx.Blobs)
				}
				if _, err := os.Stat(filepath.Join(ctx.Config.ConfigDir, "voice-notes.db")); err != nil {
					t.Errorf("expected database file: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.VoiceNotes.Backend = tt.backend
			ctx, _ := newTestContext(t, cfg)

			if err := ctx.Open(Options{}); err != nil {
				t.Fatalf("open: %v", err)
			}
			if ctx.Journal == nil || ctx.Reminders == nil || ctx.Voice == nil || ctx.Scheduler == nil {
				t.Fatal("expected every service to be built")
			}
			if _, ok := ctx.Scheduler.(*notify.LocalScheduler); !ok {
				t.Errorf("expected local scheduler, got %T", ctx.Scheduler)
			}
			tt.check(t, ctx)
		})
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifications.Backend = "pager"
	ctx, _ := newTestContext(t, cfg)

	if err := ctx.Open(Options{}); err == nil {
		t.Fatal("expected invalid backend to be rejected")
	}
	if ctx.Journal != nil {
		t.Error("expected no services on failure")
	}
}

func TestOpen_SchedulerOverride(t *testing.T) {
	ctx, _ := newTestContext(t, testConfig(t))
	rec := notify.NewRecorder()

	if err := ctx.Open(Options{Scheduler: rec}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if ctx.Scheduler != rec {
		t.Errorf("expected recorder to be used, got %T", ctx.Scheduler)
	}
}

func TestNotifyTestCmd_Log(t *testing.T) {
	ctx, out := newTestContext(t, testConfig(t))

	cmd := &NotifyTestCmd{Title: "First bath"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, constants.NotificationTitlePrefix+"First bath") {
		t.Errorf("expected alert title in output, got %q", got)
	}
	if !strings.Contains(got, constants.DefaultNotificationBody) {
		t.Errorf("expected default body in output, got %q", got)
	}
}

func TestNotifyTestCmd_TrayFallsBackToLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifications.Backend = constants.NotificationBackendTray
	ctx, out := newTestContext(t, cfg)

	cmd := &NotifyTestCmd{Title: "First bath", Body: "Look!"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	if !strings.Contains(out.String(), "Look!") {
		t.Errorf("expected fallback output, got %q", out.String())
	}
}

func TestDoctorCmd_Healthy(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "mic.m4a")
	if err := os.WriteFile(input, []byte("coo"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg.VoiceNotes.Input = input
	ctx, out := newTestContext(t, cfg)

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor failed on a healthy setup: %v\n%s", err, out.String())
	}
	for _, want := range []string{"✓ Configuration: OK", "✓ Voice-note storage: OK", "✓ Capture source: OK"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestDoctorCmd_MissingCaptureSourceWarns(t *testing.T) {
	ctx, out := newTestContext(t, testConfig(t))

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("a missing capture source should only warn: %v", err)
	}
	if !strings.Contains(out.String(), "⚠ Capture source: WARNING") {
		t.Errorf("expected capture warning:\n%s", out.String())
	}
}

func TestDoctorCmd_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.VoiceNotes.Backend = "tape"
	ctx, out := newTestContext(t, cfg)

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Fatal("expected doctor to fail")
	}
	if !strings.Contains(out.String(), "⊘ Voice-note storage: SKIPPED") {
		t.Errorf("expected storage check to be skipped:\n%s", out.String())
	}
}

func TestDemoCmd(t *testing.T) {
	ctx, out := newTestContext(t, testConfig(t))

	if err := (&DemoCmd{Days: 3}).Run(ctx); err != nil {
		t.Fatalf("demo: %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{
		"A second reminder is refused",
		"A past unlock date is refused",
		"sealed, 3 days to go",
		"just unlocked",
		"Grandma says you have her dimples.",
		"Voice note played",
		"alert cancelled: true, voice note kept: false",
		"Memory deleted, 1 left",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in demo output:\n%s", want, got)
		}
	}
}

func TestDemoCmd_RejectsZeroDays(t *testing.T) {
	ctx, _ := newTestContext(t, testConfig(t))
	if err := (&DemoCmd{Days: 0}).Run(ctx); err == nil {
		t.Error("expected --days 0 to be rejected")
	}
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.VoiceNotes.Backend = constants.VoiceNoteBackendSQLite
	return cfg
}

func TestBackupCmds(t *testing.T) {
	cfg := sqliteConfig(t)
	ctx, out := newTestContext(t, cfg)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("expected empty listing, got %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: voice-notes-") {
		t.Errorf("unexpected create output %q", out.String())
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created: "))

	out.Reset()
	ctx.In = strings.NewReader("n\n")
	if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out.String(), "Restore cancelled.") {
		t.Errorf("expected restore to be cancelled, got %q", out.String())
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Voice notes restored successfully!") {
		t.Errorf("unexpected restore output %q", out.String())
	}
}

func TestBackupCmds_NeedSQLite(t *testing.T) {
	ctx, _ := newTestContext(t, testConfig(t))
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected the file backend to be rejected")
	}
}

func TestDoctorCmd_WarnsWithoutBackups(t *testing.T) {
	ctx, out := newTestContext(t, sqliteConfig(t))

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "⚠ Backups present: WARNING") {
		t.Errorf("expected backup warning:\n%s", out.String())
	}
}
