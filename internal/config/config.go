// Package config loads dearbaby settings from defaults, an optional YAML file, .env
// files and DEARBABY_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/dearbaby/internal/constants"
)

type Config struct {
	Debug         bool                `yaml:"debug"`
	ConfigDir     string              `yaml:"config_dir"`
	Timezone      string              `yaml:"timezone"`
	TickInterval  time.Duration       `yaml:"tick_interval"`
	VoiceNotes    VoiceNotesConfig    `yaml:"voice_notes"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type VoiceNotesConfig struct {
	Backend constants.VoiceNoteBackend `yaml:"backend"`
	// Dir holds voice-note files for the file backend; defaults to <config_dir>/voice-notes
	Dir string `yaml:"dir"`
	// DSN is the sqlite database for the sqlite backend; ":memory:" keeps notes in memory
	DSN string `yaml:"dsn"`
	// Input is the audio file used as the capture source
	Input string `yaml:"input"`
}

type NotificationsConfig struct {
	Backend    constants.NotificationBackend `yaml:"backend"`
	MaxRetries int                           `yaml:"max_retries"`
	RetryDelay time.Duration                 `yaml:"retry_delay"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ConfigDir:    constants.DefaultConfigDir,
		Timezone:     "Local",
		TickInterval: constants.DefaultTickInterval,
		VoiceNotes: VoiceNotesConfig{
			Backend: constants.VoiceNoteBackendFile,
		},
		Notifications: NotificationsConfig{
			Backend:    constants.NotificationBackendLog,
			MaxRetries: constants.NotifyMaxRetries,
			RetryDelay: constants.NotifyRetryDelay,
		},
	}
}

// Load builds the configuration. A missing file at path is not an error; an
// unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = constants.DefaultConfigPath
	}
	path = ExpandHome(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// .env files never override variables already set in the environment
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(ExpandHome(cfg.ConfigDir), ".env"))

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.ConfigDir = ExpandHome(cfg.ConfigDir)
	cfg.VoiceNotes.Dir = ExpandHome(cfg.VoiceNotes.Dir)
	cfg.VoiceNotes.Input = ExpandHome(cfg.VoiceNotes.Input)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ConfigDir = getenv("CONFIG_DIR", c.ConfigDir)
	c.Timezone = getenv("TIMEZONE", c.Timezone)
	c.VoiceNotes.Backend = constants.VoiceNoteBackend(getenv("VOICE_NOTES_BACKEND", string(c.VoiceNotes.Backend)))
	c.VoiceNotes.Dir = getenv("VOICE_NOTES_DIR", c.VoiceNotes.Dir)
	c.VoiceNotes.DSN = getenv("VOICE_NOTES_DSN", c.VoiceNotes.DSN)
	c.VoiceNotes.Input = getenv("VOICE_NOTES_INPUT", c.VoiceNotes.Input)
	c.Notifications.Backend = constants.NotificationBackend(getenv("NOTIFICATIONS_BACKEND", string(c.Notifications.Backend)))

	var err error
	if c.Debug, err = getbool("DEBUG", c.Debug); err != nil {
		return err
	}
	if c.TickInterval, err = getduration("TICK_INTERVAL", c.TickInterval); err != nil {
		return err
	}
	if c.Notifications.RetryDelay, err = getduration("NOTIFICATIONS_RETRY_DELAY", c.Notifications.RetryDelay); err != nil {
		return err
	}
	if v := getenv("NOTIFICATIONS_MAX_RETRIES", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sNOTIFICATIONS_MAX_RETRIES %q: %w", constants.EnvPrefix, v, err)
		}
		c.Notifications.MaxRetries = n
	}
	return nil
}

// Validate rejects unknown backends and non-positive intervals.
func (c *Config) Validate() error {
	switch c.VoiceNotes.Backend {
	case constants.VoiceNoteBackendFile, constants.VoiceNoteBackendSQLite:
	default:
		return fmt.Errorf("unknown voice_notes.backend %q (want file or sqlite)", c.VoiceNotes.Backend)
	}
	switch c.Notifications.Backend {
	case constants.NotificationBackendLog, constants.NotificationBackendTray:
	default:
		return fmt.Errorf("unknown notifications.backend %q (want log or tray)", c.Notifications.Backend)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.Notifications.MaxRetries <= 0 {
		return fmt.Errorf("notifications.max_retries must be positive, got %d", c.Notifications.MaxRetries)
	}
	if c.Notifications.RetryDelay <= 0 {
		return fmt.Errorf("notifications.retry_delay must be positive, got %s", c.Notifications.RetryDelay)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// VoiceNoteDir is where the file backend keeps audio.
func (c *Config) VoiceNoteDir() string {
	if c.VoiceNotes.Dir != "" {
		return c.VoiceNotes.Dir
	}
	return filepath.Join(c.ConfigDir, "voice-notes")
}

// VoiceNoteDSN is the sqlite database used by the sqlite backend.
func (c *Config) VoiceNoteDSN() string {
	if c.VoiceNotes.DSN != "" {
		return c.VoiceNotes.DSN
	}
	return filepath.Join(c.ConfigDir, "voice-notes.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(constants.EnvPrefix + key))
	if v == "" {
		return def
	}
	return v
}

func getbool(key string, def bool) (bool, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s %q: %w", constants.EnvPrefix, key, v, err)
	}
	return b, nil
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s %q: %w", constants.EnvPrefix, key, v, err)
	}
	return d, nil
}
