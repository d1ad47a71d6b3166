package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/dearbaby/internal/blob"
)

func setupStore(t *testing.T) (*blob.SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "voice-notes.db")
	store, err := blob.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := store.Create(context.Background(), strings.NewReader("lullaby")); err != nil {
		t.Fatalf("failed to add voice note: %v", err)
	}
	return store, dbPath
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestCreate(t *testing.T) {
	store, dbPath := setupStore(t)
	mgr := NewManager(dbPath)

	info, err := mgr.Create(context.Background(), store)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(info.Path) != filepath.Join(filepath.Dir(dbPath), DirName) {
		t.Errorf("unexpected backup location %s", info.Path)
	}
	if info.Size == 0 {
		t.Error("expected a non-empty backup")
	}

	snap, err := blob.NewSQLiteStore(info.Path)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	defer snap.Close()
	if n, err := snap.Count(context.Background()); err != nil || n != 1 {
		t.Errorf("expected 1 voice note in backup, got %d (%v)", n, err)
	}
}

func TestCreate_SameSecondGetsUniqueName(t *testing.T) {
	store, dbPath := setupStore(t)
	mgr := NewManager(dbPath)
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.Local)
	mgr.now = fixedClock(at)

	first, err := mgr.Create(context.Background(), store)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := mgr.Create(context.Background(), store)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Path == second.Path {
		t.Fatal("expected distinct backup files")
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second.Path {
		t.Errorf("expected the later file first, got %s", backups[0].Path)
	}
}

func TestList_NewestFirstAndIgnoresStrays(t *testing.T) {
	store, dbPath := setupStore(t)
	mgr := NewManager(dbPath)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.Local)
	mgr.now = fixedClock(base, base.Add(time.Hour), base.Add(2*time.Hour))

	for i := 0; i < 3; i++ {
		if _, err := mgr.Create(context.Background(), store); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first: %v", backups)
		}
	}
}

func TestList_NoDirectory(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "voice-notes.db"))
	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestCreate_Rotates(t *testing.T) {
	store, dbPath := setupStore(t)
	mgr := NewManager(dbPath)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	var times []time.Time
	for i := 0; i < MaxBackups+3; i++ {
		times = append(times, base.Add(time.Duration(i)*time.Minute))
	}
	mgr.now = fixedClock(times...)

	for i := range times {
		if _, err := mgr.Create(context.Background(), store); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", MaxBackups, len(backups))
	}
	oldest := backups[len(backups)-1].Timestamp
	if !oldest.Equal(times[3]) {
		t.Errorf("expected oldest kept backup at %s, got %s", times[3], oldest)
	}
}

func TestRestore(t *testing.T) {
	store, dbPath := setupStore(t)
	mgr := NewManager(dbPath)

	snap, err := mgr.Create(context.Background(), store)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(context.Background(), strings.NewReader("second")); err != nil {
		t.Fatalf("add: %v", err)
	}
	store.Close()

	previous, err := mgr.Restore(snap.Path)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if previous == "" {
		t.Error("expected the replaced database to be kept")
	}

	restored, err := blob.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer restored.Close()
	if n, err := restored.Count(context.Background()); err != nil || n != 1 {
		t.Errorf("expected 1 voice note after restore, got %d (%v)", n, err)
	}
}

func TestRestore_RejectsForeignFile(t *testing.T) {
	_, dbPath := setupStore(t)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []string{bogus, filepath.Join(t.TempDir(), "missing.db")}
	for i, path := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			if _, err := mgr.Restore(path); err == nil {
				t.Errorf("expected %s to be rejected", path)
			}
		})
	}
}
