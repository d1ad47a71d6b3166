package voice

import (
	"context"
	"sync"
)

// Mode is what the audio session is currently being used for.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeRecording Mode = "recording"
	ModePlaying   Mode = "playing"
)

// Session is the single audio resource shared by recording and playback. Only one
// lease exists at a time; acquiring a new one stops the current holder first.
type Session struct {
	mu      sync.Mutex
	current *Lease
}

// Lease is held by whoever currently owns the audio session.
type Lease struct {
	mode    Mode
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	session *Session
}

func NewSession() *Session {
	return &Session{}
}

// Acquire takes the session for mode. A current holder is cancelled and Acquire
// waits until it has released before returning.
func (s *Session) Acquire(parent context.Context, mode Mode) *Lease {
	ctx, cancel := context.WithCancel(parent)
	l := &Lease{
		mode:    mode,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		session: s,
	}

	s.mu.Lock()
	prev := s.current
	s.current = l
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}
	return l
}

// Current returns the mode of the active lease.
func (s *Session) Current() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ModeIdle
	}
	return s.current.mode
}

// Interrupt stops the current holder if it is using the session for mode and waits
// for it to release. It returns false when nothing matching was active.
func (s *Session) Interrupt(mode Mode) bool {
	s.mu.Lock()
	l := s.current
	s.mu.Unlock()

	if l == nil || l.mode != mode {
		return false
	}
	l.cancel()
	<-l.done
	return true
}

// Context is cancelled when the lease is preempted or released.
func (l *Lease) Context() context.Context { return l.ctx }

// Mode returns what the lease was acquired for.
func (l *Lease) Mode() Mode { return l.mode }

// Release gives the session back. Safe to call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.session.mu.Lock()
		if l.session.current == l {
			l.session.current = nil
		}
		l.session.mu.Unlock()
		l.cancel()
		close(l.done)
	})
}

// Done is closed once the lease has been released.
func (l *Lease) Done() <-chan struct{} { return l.done }
