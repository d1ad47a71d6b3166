// Package backup keeps rotated snapshots of the voice-note database.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dearbaby/internal/logger"
)

const (
	// MaxBackups is the number of snapshots kept after rotation
	MaxBackups = 14
	DirName    = "backups"
	FilePrefix = "voice-notes-"
	FileSuffix = ".db"

	timestampFormat = "20060102-150405"
)

// Snapshotter writes a consistent copy of a live database.
type Snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	dbPath string
	dir    string
	now    func() time.Time
}

// NewManager manages backups of the database at dbPath, kept in a backups
// directory next to it.
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), DirName),
		now:    time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create snapshots src into a new timestamped file and rotates old snapshots.
func (m *Manager) Create(ctx context.Context, src Snapshotter) (Info, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, ts, err := m.nextPath()
	if err != nil {
		return Info{}, err
	}
	if err := src.Snapshot(ctx, path); err != nil {
		return Info{}, err
	}

	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.dir, "error", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	logger.Info("Backup created", "path", path, "size", st.Size())
	return Info{Path: path, Timestamp: ts, Size: st.Size()}, nil
}

// nextPath picks an unused file name for the current time.
func (m *Manager) nextPath() (string, time.Time, error) {
	ts := m.now().Truncate(time.Second)
	base := FilePrefix + ts.Format(timestampFormat)
	for i := 0; i <= 100; i++ {
		name := base + FileSuffix
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, FileSuffix)
		}
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, ts, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("failed to generate unique backup filename")
}

// List returns the snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	seq := make(map[string]int)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileSuffix)
		if len(stamp) < len(timestampFormat) {
			continue
		}
		ts, err := time.ParseInLocation(timestampFormat, stamp[:len(timestampFormat)], time.Local)
		if err != nil {
			continue
		}
		st, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.dir, name)
		// same-second snapshots carry a -N counter
		if rest := strings.TrimPrefix(stamp[len(timestampFormat):], "-"); rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil {
				continue
			}
			seq[path] = n
		}
		backups = append(backups, Info{Path: path, Timestamp: ts, Size: st.Size()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return seq[backups[i].Path] > seq[backups[j].Path]
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the database with the snapshot at path. The current database,
// if any, is kept as a backup first. The database must not be open.
func (m *Manager) Restore(path string) (previous string, err error) {
	if err := verify(path); err != nil {
		return "", fmt.Errorf("backup %s is not a voice-note database: %w", filepath.Base(path), err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		if err := os.MkdirAll(m.dir, 0700); err != nil {
			return "", err
		}
		var ts time.Time
		previous, ts, err = m.nextPath()
		if err != nil {
			return "", err
		}
		if err := copyFile(m.dbPath, previous); err != nil {
			return "", fmt.Errorf("failed to back up current database: %w", err)
		}
		logger.Info("Saved current database before restore", "path", previous, "at", ts)
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to restore database: %w", err)
	}
	return previous, nil
}

// verify checks that path is a sqlite database holding voice notes.
func verify(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	err = db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'voice_notes'`).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no voice_notes table")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
