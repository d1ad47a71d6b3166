package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
)

// FileStore keeps one file per voice note in a directory.
type FileStore struct {
	dir string
	ids *idSource
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create voice note directory: %w: %v", errors.ErrStorageFailure, err)
	}
	return &FileStore{dir: dir, ids: newIDSource()}, nil
}

func (s *FileStore) path(ref string) string {
	return filepath.Join(s.dir, ref+constants.VoiceNoteFileExtension)
}

func (s *FileStore) Create(ctx context.Context, r io.Reader) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	now := time.Now().UTC()
	ref := s.ids.newID(now)

	// Write to a temp file and rename so a half-written note is never visible
	tmp, err := os.CreateTemp(s.dir, ".recording-*")
	if err != nil {
		return Info{}, fmt.Errorf("create temp file: %w: %v", errors.ErrStorageFailure, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		cleanup()
		return Info{}, fmt.Errorf("write voice note: %w: %v", errors.ErrStorageFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return Info{}, fmt.Errorf("sync voice note: %w: %v", errors.ErrStorageFailure, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return Info{}, fmt.Errorf("close voice note: %w: %v", errors.ErrStorageFailure, err)
	}
	if err := os.Rename(tmpName, s.path(ref)); err != nil {
		cleanup()
		return Info{}, fmt.Errorf("commit voice note: %w: %v", errors.ErrStorageFailure, err)
	}

	return Info{Ref: ref, Size: size, CreatedAt: now}, nil
}

func (s *FileStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := validRef(ref); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	}
	f, err := os.Open(s.path(ref))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("voice note %s: %w", ref, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return f, nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if err := validRef(ref); err != nil {
		// Nothing with that name can exist here
		return nil
	}
	err := os.Remove(s.path(ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := validRef(ref); err != nil {
		return false, nil
	}
	_, err := os.Stat(s.path(ref))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat voice note %s: %w: %v", ref, errors.ErrStorageFailure, err)
	}
	return true, nil
}

func (s *FileStore) Close() error { return nil }

// Dir returns the directory holding the voice notes
func (s *FileStore) Dir() string { return s.dir }
