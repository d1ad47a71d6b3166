// Package voice manages the single voice-note attachment a reminder may carry:
// recording, playback, deletion and replacement.
package voice

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/dearbaby/internal/audio"
	"github.com/julianstephens/dearbaby/internal/blob"
	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/models"
)

type Manager struct {
	blobs   blob.Store
	device  audio.Device
	session *Session
	clock   clock.Clock

	mu        sync.Mutex
	recording *Recording
	playback  *Playback
}

func NewManager(blobs blob.Store, device audio.Device, session *Session, clk clock.Clock) *Manager {
	if session == nil {
		session = NewSession()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Manager{
		blobs:   blobs,
		device:  device,
		session: session,
		clock:   clk,
	}
}

// Recording is an in-progress capture. Audio is buffered until StopRecording
// commits it to storage.
type Recording struct {
	StartedAt time.Time

	lease   *Lease
	src     io.ReadCloser
	buf     bytes.Buffer
	copied  chan struct{}
	copyErr error
	closing atomic.Bool
	once    sync.Once
}

// finish closes the input, waits for buffered audio and releases the session
func (r *Recording) finish() {
	r.once.Do(func() {
		r.closing.Store(true)
		r.src.Close()
		<-r.copied
		r.lease.Release()
	})
}

// StartRecording acquires the audio session, stopping any playback or earlier
// recording, and starts capturing.
func (m *Manager) StartRecording(ctx context.Context) (*Recording, error) {
	// The previous holder has let go of the device once Acquire returns
	lease := m.session.Acquire(context.WithoutCancel(ctx), ModeRecording)
	src, err := m.device.Capture(ctx)
	if err != nil {
		lease.Release()
		if !stderrors.Is(err, errors.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", errors.ErrDeviceUnavailable, err)
		}
		return nil, err
	}

	rec := &Recording{
		StartedAt: m.clock.Now(),
		lease:     lease,
		src:       src,
		copied:    make(chan struct{}),
	}

	go func() {
		_, err := io.Copy(&rec.buf, src)
		if err != nil && !rec.closing.Load() {
			rec.copyErr = err
		}
		close(rec.copied)
	}()
	go func() {
		// Preemption by another acquire ends the capture
		<-lease.Context().Done()
		rec.finish()
	}()

	m.mu.Lock()
	m.recording = rec
	m.mu.Unlock()

	logger.Debug("Recording started")
	return rec, nil
}

// StopRecording ends the capture and durably stores the audio.
func (m *Manager) StopRecording(ctx context.Context, rec *Recording) (models.VoiceNote, error) {
	m.mu.Lock()
	active := rec != nil && m.recording == rec
	if active {
		m.recording = nil
	}
	m.mu.Unlock()

	if !active || rec.lease.Context().Err() != nil {
		return models.VoiceNote{}, errors.ErrNoActiveRecording
	}

	rec.finish()

	if rec.copyErr != nil {
		return models.VoiceNote{}, fmt.Errorf("capture failed: %w: %v", errors.ErrDeviceUnavailable, rec.copyErr)
	}

	info, err := m.blobs.Create(ctx, bytes.NewReader(rec.buf.Bytes()))
	if err != nil {
		return models.VoiceNote{}, err
	}

	logger.Debug("Recording stored", "ref", info.Ref, "size", info.Size)
	return models.VoiceNote{Ref: info.Ref, Size: info.Size, CreatedAt: info.CreatedAt}, nil
}

// CancelRecording ends the capture in progress, if any, without storing it.
func (m *Manager) CancelRecording() {
	m.mu.Lock()
	rec := m.recording
	m.recording = nil
	m.mu.Unlock()

	if rec != nil {
		rec.finish()
		logger.Debug("Recording discarded")
	}
}

// Recording reports whether a capture is in progress.
func (m *Manager) Recording() bool {
	return m.session.Current() == ModeRecording
}

// Playback is an in-progress play of a voice note.
type Playback struct {
	Ref string

	lease *Lease
	done  chan struct{}
	err   error
}

// Wait blocks until playback finishes or is stopped. A stopped playback returns nil.
func (p *Playback) Wait() error {
	<-p.done
	return p.err
}

// Play starts playing ref. Any current playback or recording is stopped first.
func (m *Manager) Play(ctx context.Context, ref string) (*Playback, error) {
	rc, err := m.blobs.Open(ctx, ref)
	if err != nil {
		return nil, err
	}

	lease := m.session.Acquire(ctx, ModePlaying)
	p := &Playback{Ref: ref, lease: lease, done: make(chan struct{})}

	m.mu.Lock()
	m.playback = p
	m.mu.Unlock()

	go func() {
		err := m.device.Render(lease.Context(), rc)
		rc.Close()
		if err != nil && !stderrors.Is(err, context.Canceled) {
			p.err = err
			logger.Warn("Playback failed", "ref", ref, "error", err)
		}
		lease.Release()

		m.mu.Lock()
		if m.playback == p {
			m.playback = nil
		}
		m.mu.Unlock()
		close(p.done)
	}()

	logger.Debug("Playback started", "ref", ref)
	return p, nil
}

// Stop ends the current playback, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	p := m.playback
	m.mu.Unlock()

	if m.session.Interrupt(ModePlaying) && p != nil {
		<-p.done
	}
}

// Playing returns the ref currently being played.
func (m *Manager) Playing() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playback == nil {
		return "", false
	}
	return m.playback.Ref, true
}

// Delete removes the stored audio for ref. Deleting an already-deleted ref is a no-op.
func (m *Manager) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if playing, ok := m.Playing(); ok && playing == ref {
		m.Stop()
	}
	if err := m.blobs.Delete(ctx, ref); err != nil {
		return err
	}
	logger.Debug("Voice note deleted", "ref", ref)
	return nil
}

// Replace commits next through commit and only then deletes old. If commit fails
// the new audio is discarded and old is left untouched.
func (m *Manager) Replace(ctx context.Context, old *models.VoiceNote, next models.VoiceNote, commit func(models.VoiceNote) error) error {
	if err := commit(next); err != nil {
		if derr := m.blobs.Delete(ctx, next.Ref); derr != nil {
			logger.Warn("Failed to discard uncommitted voice note", "ref", next.Ref, "error", derr)
		}
		return err
	}

	if old == nil || old.Ref == "" || old.Ref == next.Ref {
		return nil
	}
	if err := m.Delete(ctx, old.Ref); err != nil {
		return fmt.Errorf("release previous voice note %s: %w", old.Ref, err)
	}
	return nil
}
