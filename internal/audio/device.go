// Package audio abstracts the microphone and speaker behind a small device interface.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/dearbaby/internal/errors"
)

// Device is a source of recorded audio and a sink for playback.
type Device interface {
	// Capture opens the input. The returned stream yields audio until it is closed
	// or the input runs out.
	Capture(ctx context.Context) (io.ReadCloser, error)

	// Render plays r until EOF or until ctx is cancelled.
	Render(ctx context.Context, r io.Reader) error
}

// FileDevice "records" by streaming a prepared audio file and "plays" by copying
// audio to Out. It stands in for a microphone on machines without one.
type FileDevice struct {
	Source string
	Out    io.Writer
}

func (d *FileDevice) Capture(ctx context.Context) (io.ReadCloser, error) {
	if d.Source == "" {
		return nil, fmt.Errorf("no capture source configured: %w", errors.ErrDeviceUnavailable)
	}
	f, err := os.Open(d.Source)
	if err != nil {
		return nil, fmt.Errorf("open capture source: %w: %v", errors.ErrDeviceUnavailable, err)
	}
	return f, nil
}

func (d *FileDevice) Render(ctx context.Context, r io.Reader) error {
	out := d.Out
	if out == nil {
		out = io.Discard
	}
	return copyContext(ctx, out, r)
}

// Unavailable is a device with no hardware behind it.
type Unavailable struct{}

func (Unavailable) Capture(context.Context) (io.ReadCloser, error) {
	return nil, errors.ErrDeviceUnavailable
}

func (Unavailable) Render(context.Context, io.Reader) error {
	return errors.ErrDeviceUnavailable
}

// copyContext copies in small chunks so cancellation stops playback promptly
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
