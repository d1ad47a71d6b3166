package notify

import (
	"context"
	"sync"
)

// Call is one invocation seen by a Recorder.
type Call struct {
	Op      string // "schedule" or "cancel"
	Request Request
}

// Recorder is a Scheduler that only remembers what it was asked to do. It keeps
// the same replace-by-id semantics as a real scheduler.
type Recorder struct {
	// Err, when set, is returned from every call after it is recorded
	Err error

	mu      sync.Mutex
	calls   []Call
	pending map[string]Request
}

func NewRecorder() *Recorder {
	return &Recorder{pending: make(map[string]Request)}
}

func (r *Recorder) Schedule(ctx context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "schedule", Request: req})
	if r.Err != nil {
		return r.Err
	}
	r.pending[req.ID] = req
	return nil
}

func (r *Recorder) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "cancel", Request: Request{ID: id}})
	if r.Err != nil {
		return r.Err
	}
	delete(r.pending, id)
	return nil
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Scheduled returns only the schedule calls.
func (r *Recorder) Scheduled() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Request
	for _, c := range r.calls {
		if c.Op == "schedule" {
			out = append(out, c.Request)
		}
	}
	return out
}

// Pending returns the request currently registered for id.
func (r *Recorder) Pending(id string) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[id]
	return req, ok
}

// Reset forgets all calls and pending requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.pending = make(map[string]Request)
}
