package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dberrors "github.com/julianstephens/dearbaby/internal/errors"
)

func newFileStore(t *testing.T) Store {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "voice"))
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("create sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	stores := map[string]func(*testing.T) Store{
		"file":   newFileStore,
		"sqlite": newSQLiteStore,
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func readAll(t *testing.T, s Store, ref string) string {
	t.Helper()
	rc, err := s.Open(context.Background(), ref)
	if err != nil {
		t.Fatalf("open %s: %v", ref, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return string(b)
}

func TestStore_CreateOpenDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		info, err := s.Create(ctx, strings.NewReader("hello baby"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if info.Ref == "" {
			t.Fatal("expected non-empty ref")
		}
		if info.Size != int64(len("hello baby")) {
			t.Errorf("expected size %d, got %d", len("hello baby"), info.Size)
		}

		if got := readAll(t, s, info.Ref); got != "hello baby" {
			t.Errorf("expected 'hello baby', got %q", got)
		}

		ok, err := s.Exists(ctx, info.Ref)
		if err != nil || !ok {
			t.Errorf("Exists = %v, %v", ok, err)
		}

		if err := s.Delete(ctx, info.Ref); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Open(ctx, info.Ref); !errors.Is(err, dberrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		// Second delete is a no-op
		if err := s.Delete(ctx, info.Ref); err != nil {
			t.Errorf("second delete should be a no-op, got %v", err)
		}
	})
}

func TestStore_RefsAreUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			info, err := s.Create(ctx, strings.NewReader("x"))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if seen[info.Ref] {
				t.Fatalf("duplicate ref %s", info.Ref)
			}
			seen[info.Ref] = true
		}
	})
}

func TestStore_UnknownRef(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if _, err := s.Open(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, dberrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		ok, err := s.Exists(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		if err != nil || ok {
			t.Errorf("Exists = %v, %v", ok, err)
		}
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("mic unplugged") }

func TestStore_CreateFailureIsStorageFailure(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Create(context.Background(), failingReader{})
		if !errors.Is(err, dberrors.ErrStorageFailure) {
			t.Errorf("expected ErrStorageFailure, got %v", err)
		}
	})
}

func TestFileStore_NoPartialFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "voice")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	if _, err := s.Create(context.Background(), failingReader{}); err == nil {
		t.Fatal("expected error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after failed create, found %d", len(entries))
	}
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	if _, err := s.Open(ctx, "../../etc/passwd"); !errors.Is(err, dberrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for bad ref, got %v", err)
	}
	if err := s.Delete(ctx, "../../etc/passwd"); err != nil {
		t.Errorf("delete of bad ref should be a no-op, got %v", err)
	}
}

func TestSQLiteStore_OnDisk(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sub", "voice.db")
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Create(ctx, strings.NewReader("a")); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}
	if _, err := os.Stat(dsn); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}
