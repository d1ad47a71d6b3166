// Package blob stores voice-note audio as opaque blobs addressed by ULID references.
package blob

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Info describes a stored blob.
type Info struct {
	Ref       string
	Size      int64
	CreatedAt time.Time
}

// Store is the voice-note storage contract: create, read for playback, delete.
type Store interface {
	// Create durably writes the contents of r and returns its reference. The blob is
	// only visible once Create returns without error.
	Create(ctx context.Context, r io.Reader) (Info, error)

	// Open returns a reader over the blob. Returns errors.ErrNotFound for unknown refs.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting an unknown or already-deleted ref is a no-op.
	Delete(ctx context.Context, ref string) error

	// Exists reports whether the blob is present.
	Exists(ctx context.Context, ref string) (bool, error)

	Close() error
}

type idSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDSource() *idSource {
	return &idSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *idSource) newID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// validRef rejects anything that is not a ULID, which also keeps refs from escaping
// the storage directory.
func validRef(ref string) error {
	if _, err := ulid.ParseStrict(ref); err != nil {
		return fmt.Errorf("invalid voice note ref %q: %w", ref, err)
	}
	return nil
}
