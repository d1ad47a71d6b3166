package constants

import "time"

// UnlockState represents whether a reminder's content may be revealed
type UnlockState string

// Gender represents a baby's gender, used for theming
type Gender string

// NotificationBackend selects how due reminders reach the user
type NotificationBackend string

// VoiceNoteBackend selects where voice-note audio is stored
type VoiceNoteBackend string

const (
	AppName           = "dearbaby"
	Version           = "v0.1.0"
	DefaultConfigPath = "~/.config/dearbaby/config.yaml"
	DefaultConfigDir  = "~/.config/dearbaby"
	EnvPrefix         = "DEARBABY_"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DateTimeFormat is used when printing unlock instants
	DateTimeFormat = "2006-01-02 15:04"

	// Memory constants
	MaxImagesPerMemory     = 6
	DefaultDescription     = "No description"
	NotesSeparator         = "\n\n"
	VoiceNoteFileExtension = ".m4a"

	// Notification payload constants
	NotificationTitlePrefix = "Memory Reminder: "
	DefaultNotificationBody = "Tap to view this memory"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "dearbaby-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.dearbaby"

	// Countdown constants
	DefaultTickInterval = time.Second
	RemainingNow        = "Now"

	// Unlock states
	StateLocked   UnlockState = "locked"
	StateUnlocked UnlockState = "unlocked"

	// Genders
	GenderBoy  Gender = "boy"
	GenderGirl Gender = "girl"

	// Backends
	NotificationBackendLog  NotificationBackend = "log"
	NotificationBackendTray NotificationBackend = "tray"
	VoiceNoteBackendFile    VoiceNoteBackend    = "file"
	VoiceNoteBackendSQLite  VoiceNoteBackend    = "sqlite"
)
