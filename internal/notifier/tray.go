// Package notifier delivers fired reminder alerts to the user.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notify"
)

const trayExecutable = "dearbaby-tray"

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

var ErrTrayNotRunning = fmt.Errorf("dearbaby-tray is not running: %w", notify.ErrUnavailable)

// TrayDeliverer posts alerts to the desktop tray companion, which shows them as
// native notifications.
type TrayDeliverer struct {
	client *http.Client
}

type trayPayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

type trayEndpoint struct {
	port   int
	pid    int
	secret string
}

func NewTrayDeliverer() *TrayDeliverer {
	return &TrayDeliverer{client: &http.Client{Timeout: 5 * time.Second}}
}

func (d *TrayDeliverer) Deliver(ctx context.Context, req notify.Request) error {
	ep, err := d.discover()
	if err != nil {
		return err
	}
	return d.send(ctx, ep, trayPayload{
		ID:         req.ID,
		Title:      req.Title,
		Text:       req.Body,
		DurationMs: constants.NotificationDurationMs,
	})
}

// Available reports whether a tray companion could be found, with the reason if not.
func (d *TrayDeliverer) Available() error {
	_, err := d.discover()
	return err
}

// discover locates and validates the running tray companion.
func (d *TrayDeliverer) discover() (trayEndpoint, error) {
	dir, err := TrayConfigDir()
	if err != nil {
		return trayEndpoint{}, err
	}

	content, err := os.ReadFile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return trayEndpoint{}, ErrTrayNotRunning
	}

	ep, err := parseLockfile(string(content))
	if err != nil {
		return trayEndpoint{}, err
	}

	process, err := findProcessFunc(ep.pid)
	if err != nil || process == nil {
		return trayEndpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), trayExecutable) {
		return trayEndpoint{}, fmt.Errorf("process with PID %d is not %s (is %s)", ep.pid, trayExecutable, process.Executable())
	}
	return ep, nil
}

// TrayConfigDir returns the tray companion's config directory, honouring a custom
// lockfile_dir from its settings.json.
func TrayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayDir, "settings.json"))
	if err != nil {
		return trayDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if json.Unmarshal(data, &store) == nil && store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
		return *store.Settings.LockfileDir, nil
	}
	return trayDir, nil
}

// parseLockfile reads the "port|pid|secret" line written by the tray app
func parseLockfile(content string) (trayEndpoint, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return trayEndpoint{}, errors.New("lockfile is malformed")
	}

	portStr := strings.TrimSpace(parts[0])
	if portStr == "" {
		return trayEndpoint{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return trayEndpoint{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return trayEndpoint{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return trayEndpoint{}, errors.New("invalid process ID in lockfile")
	}

	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return trayEndpoint{}, errors.New("secret in lockfile is empty")
	}

	return trayEndpoint{port: port, pid: pid, secret: secret}, nil
}

func (d *TrayDeliverer) send(ctx context.Context, ep trayEndpoint, payload trayPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://127.0.0.1:%d", ep.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dearbaby-Secret", ep.secret)

	res, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("tray request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
}
