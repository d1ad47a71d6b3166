package blob

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dearbaby/internal/errors"
)

// SQLiteStore keeps voice notes as BLOB rows. Use ":memory:" for an ephemeral store.
type SQLiteStore struct {
	dsn string
	db  *sql.DB
	ids *idSource
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
			return nil, fmt.Errorf("failed to create voice note directory: %w: %v", errors.ErrStorageFailure, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %v", errors.ErrStorageFailure, err)
	}
	// Every pooled connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{dsn: dsn, db: db, ids: newIDSource()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS voice_notes (
		ref        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		size       INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, r io.Reader) (Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("read voice note: %w: %v", errors.ErrStorageFailure, err)
	}

	now := time.Now().UTC()
	info := Info{Ref: s.ids.newID(now), Size: int64(len(data)), CreatedAt: now}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO voice_notes (ref, data, size, created_at) VALUES (?, ?, ?, ?)`,
		info.Ref, data, info.Size, now.Format(time.RFC3339Nano))
	if err != nil {
		return Info{}, fmt.Errorf("insert voice note: %w: %v", errors.ErrStorageFailure, err)
	}
	return info, nil
}

func (s *SQLiteStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM voice_notes WHERE ref = ?`, ref).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("voice note %s: %w", ref, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ref string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM voice_notes WHERE ref = ?`, ref); err != nil {
		return fmt.Errorf("delete voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, ref string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM voice_notes WHERE ref = ?`, ref).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return count > 0, nil
}

// Count returns the number of stored voice notes
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM voice_notes`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Snapshot writes a consistent copy of the database to path, which must not exist.
func (s *SQLiteStore) Snapshot(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("snapshot voice notes: %w: %v", errors.ErrStorageFailure, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
