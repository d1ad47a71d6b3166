package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/logger"
)

// LocalScheduler keeps one in-process timer per reminder id and hands fired
// requests to a Deliverer.
type LocalScheduler struct {
	deliverer Deliverer
	clock     clock.Clock

	mu      sync.Mutex
	pending map[string]*entry
	seq     uint64
	closed  bool
	wg      sync.WaitGroup
}

type entry struct {
	req   Request
	timer *time.Timer
	seq   uint64
}

func NewLocalScheduler(d Deliverer, clk clock.Clock) *LocalScheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &LocalScheduler{
		deliverer: d,
		clock:     clk,
		pending:   make(map[string]*entry),
	}
}

func (s *LocalScheduler) Schedule(ctx context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if prev, ok := s.pending[req.ID]; ok {
		prev.timer.Stop()
	}

	delay := req.FireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.seq++
	e := &entry{req: req, seq: s.seq}
	e.timer = time.AfterFunc(delay, func() { s.fire(req.ID, e.seq) })
	s.pending[req.ID] = e

	logger.Debug("Notification scheduled", "id", req.ID, "fire_at", req.FireAt, "delay", delay)
	return nil
}

func (s *LocalScheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.pending[id]; ok {
		e.timer.Stop()
		delete(s.pending, id)
		logger.Debug("Notification cancelled", "id", id)
	}
	return nil
}

func (s *LocalScheduler) fire(id string, seq uint64) {
	s.mu.Lock()
	e, ok := s.pending[id]
	// A replaced or cancelled timer may still run if Stop lost the race
	if !ok || e.seq != seq || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.deliverer.Deliver(context.Background(), e.req); err != nil {
		logger.Warn("Failed to deliver notification", "id", id, "error", err)
		return
	}
	logger.Info("Notification delivered", "id", id, "title", e.req.Title)
}

// Pending returns the ids still waiting to fire, sorted.
func (s *LocalScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every pending timer and waits for in-flight deliveries.
func (s *LocalScheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
