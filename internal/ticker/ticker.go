// Package ticker drives reminder countdowns. Each tick re-reads the reminders,
// recomputes their views and reports only what changed since the previous tick.
package ticker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/reminder"
)

// Event reports a change in one reminder's countdown.
type Event struct {
	ReminderID string
	MemoryID   string
	Title      string
	State      constants.UnlockState
	Remaining  string
	// JustUnlocked is set on the tick a watched reminder goes from locked to unlocked
	JustUnlocked bool
	// Removed is set when a previously watched reminder no longer exists
	Removed bool
}

// Source returns the current view of every watched reminder.
type Source func() ([]reminder.UnlockView, error)

// BabySource watches every reminder on babyID's memories.
func BabySource(store *reminder.Store, babyID string) Source {
	return func() ([]reminder.UnlockView, error) {
		entries, err := store.ListForBaby(babyID)
		if err != nil {
			return nil, err
		}
		views := make([]reminder.UnlockView, len(entries))
		for i, e := range entries {
			views[i] = e.View
		}
		return views, nil
	}
}

type Ticker struct {
	source   Source
	interval time.Duration

	mu     sync.Mutex
	last   map[string]reminder.UnlockView
	cancel context.CancelFunc
}

func New(source Source, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = constants.DefaultTickInterval
	}
	return &Ticker{
		source:   source,
		interval: interval,
		last:     make(map[string]reminder.UnlockView),
	}
}

// Poll runs one diff pass.
func (t *Ticker) Poll() ([]Event, error) {
	views, err := t.source()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var events []Event
	seen := make(map[string]bool, len(views))
	for _, v := range views {
		seen[v.ReminderID] = true
		prev, ok := t.last[v.ReminderID]
		if ok && prev.State == v.State && prev.Remaining == v.Remaining && prev.Title == v.Title {
			continue
		}
		events = append(events, Event{
			ReminderID:   v.ReminderID,
			MemoryID:     v.MemoryID,
			Title:        v.Title,
			State:        v.State,
			Remaining:    v.Remaining,
			JustUnlocked: ok && !prev.Unlocked() && v.Unlocked(),
		})
		t.last[v.ReminderID] = v
	}

	var removed []string
	for id := range t.last {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		prev := t.last[id]
		delete(t.last, id)
		events = append(events, Event{ReminderID: id, MemoryID: prev.MemoryID, Title: prev.Title, Removed: true})
	}
	return events, nil
}

// Run polls every interval until ctx is done or Stop is called. Ticks that arrive
// while emit is still busy are dropped rather than queued.
func (t *Ticker) Run(ctx context.Context, emit func([]Event)) error {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	t.tick(emit)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Countdown ticker stopped")
			return nil
		case <-tk.C:
			t.tick(emit)
		}
	}
}

func (t *Ticker) tick(emit func([]Event)) {
	events, err := t.Poll()
	if err != nil {
		logger.Warn("Countdown refresh failed", "error", err)
		return
	}
	if len(events) > 0 {
		emit(events)
	}
}

// Stop ends a running Run. Safe to call when not running.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset forgets every previously seen view so the next poll reports all of them.
func (t *Ticker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = make(map[string]reminder.UnlockView)
}
