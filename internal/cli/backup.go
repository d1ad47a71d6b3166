package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/dearbaby/internal/backup"
	"github.com/julianstephens/dearbaby/internal/blob"
	"github.com/julianstephens/dearbaby/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Snapshot the voice-note database." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List voice-note backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore the voice-note database from a backup."`
}

// backupManager returns the manager for the on-disk sqlite voice-note database.
func backupManager(ctx *Context) (*backup.Manager, error) {
	if ctx.Config.VoiceNotes.Backend != constants.VoiceNoteBackendSQLite {
		return nil, fmt.Errorf("backups need voice_notes.backend: sqlite (file notes live in %s)", ctx.Config.VoiceNoteDir())
	}
	dsn := ctx.Config.VoiceNoteDSN()
	if dsn == ":memory:" {
		return nil, fmt.Errorf("an in-memory voice-note database cannot be backed up")
	}
	return backup.NewManager(dsn), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	store, err := blob.NewSQLiteStore(ctx.Config.VoiceNoteDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := mgr.Create(context.Background(), store)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(info.Path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		fmt.Fprintf(ctx.Out, "  %s  %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	fmt.Fprintf(ctx.Out, "\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	path := c.BackupFile
	if !filepath.IsAbs(path) {
		if candidate := filepath.Join(mgr.Dir(), path); fileExists(candidate) {
			path = candidate
		}
	}
	if !fileExists(path) {
		return fmt.Errorf("backup file not found: %s", c.BackupFile)
	}

	if !c.Yes {
		fmt.Fprintln(ctx.Out, "⚠️  WARNING: This will replace your voice notes with the backup.")
		fmt.Fprintln(ctx.Out, "A backup of the current database will be created before restoring.")
		fmt.Fprintf(ctx.Out, "\nRestore from: %s\n", filepath.Base(path))
		fmt.Fprint(ctx.Out, "Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.in()).ReadString('\n')
		if err != nil && response == "" {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	previous, err := mgr.Restore(path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if previous != "" {
		fmt.Fprintf(ctx.Out, "Saved current database as %s\n", filepath.Base(previous))
	}
	fmt.Fprintln(ctx.Out, "✓ Voice notes restored successfully!")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
