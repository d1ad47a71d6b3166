package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notify"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	userConfigDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userConfigDirFunc = old })
	return dir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
	t.Cleanup(func() { findProcessFunc = old })
}

func TestTrayConfigDir(t *testing.T) {
	base := withConfigDir(t)
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)

	dir, err := TrayConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != trayDir {
		t.Errorf("expected %s, got %s", trayDir, dir)
	}

	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	custom := "/custom/dearbaby/dir"
	settings := fmt.Sprintf(`{"settings": {"lockfile_dir": %q}}`, custom)
	if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = TrayConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != custom {
		t.Errorf("expected %s, got %s", custom, dir)
	}
}

func TestParseLockfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"two parts", "8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "8080|12345|", "secret"},
		{"empty port", "|12345|s3cret", "port"},
		{"non-numeric port", "http|12345|s3cret", "port"},
		{"port out of range", "99999|12345|s3cret", "range"},
		{"bad pid", "8080|abc|s3cret", "process ID"},
		{"valid", "8080|12345|s3cret\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := parseLockfile(tt.content)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if ep.port != 8080 || ep.pid != 12345 || ep.secret != "s3cret" {
					t.Errorf("unexpected endpoint: %+v", ep)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func writeLockfile(t *testing.T, base, content string) {
	t.Helper()
	dir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, constants.NotifierLockfileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestTrayDeliverer_Discover(t *testing.T) {
	base := withConfigDir(t)
	d := NewTrayDeliverer()

	if err := d.Available(); err != ErrTrayNotRunning {
		t.Errorf("expected ErrTrayNotRunning without lockfile, got %v", err)
	}

	writeLockfile(t, base, "8080|12345|s3cret")

	withProcess(t, "")
	if err := d.Available(); err != ErrTrayNotRunning {
		t.Errorf("expected ErrTrayNotRunning for dead pid, got %v", err)
	}

	withProcess(t, "other-app")
	if err := d.Available(); err == nil || !strings.Contains(err.Error(), "not dearbaby-tray") {
		t.Errorf("expected wrong executable error, got %v", err)
	}

	withProcess(t, "dearbaby-tray")
	if err := d.Available(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTrayDeliverer_Deliver(t *testing.T) {
	var got trayPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Dearbaby-Secret") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())

	base := withConfigDir(t)
	withProcess(t, "dearbaby-tray")
	d := NewTrayDeliverer()
	ctx := context.Background()
	req := notify.NewRequest("r1", time.Now(), "First bath", "")

	writeLockfile(t, base, fmt.Sprintf("%d|1|s3cret", port))
	if err := d.Deliver(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "r1" || got.Title != "Memory Reminder: First bath" || got.Text != "Tap to view this memory" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.DurationMs != constants.NotificationDurationMs {
		t.Errorf("expected duration %d, got %d", constants.NotificationDurationMs, got.DurationMs)
	}

	writeLockfile(t, base, fmt.Sprintf("%d|1|wrong", port))
	if err := d.Deliver(ctx, req); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected unauthorized error, got %v", err)
	}

	writeLockfile(t, base, fmt.Sprintf("%d|1|s3cret", port))
	req.Body = "fail"
	if err := d.Deliver(ctx, req); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestLogDeliverer(t *testing.T) {
	var buf bytes.Buffer
	clk := clock.NewManual(time.Date(2026, 1, 31, 8, 30, 0, 0, time.UTC))
	d := NewLogDeliverer(&buf, clk)

	req := notify.NewRequest("r1", clk.Now(), "First tooth", "Look how you smiled")
	if err := d.Deliver(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"2026-01-31 08:30", "Memory Reminder: First tooth", "Look how you smiled"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}
