package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/models"
)

// Evaluate returns Locked while now is before date and Unlocked from date onward.
func Evaluate(date, now time.Time) constants.UnlockState {
	if now.Before(date) {
		return constants.StateLocked
	}
	return constants.StateUnlocked
}

// Remaining renders the time left until date using its largest non-zero unit,
// e.g. "3 days" or "1 minute". It returns "Now" once nothing whole is left.
func Remaining(date, now time.Time) string {
	d := date.Sub(now)
	if d < time.Second {
		return constants.RemainingNow
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d % (24 * time.Hour) / time.Hour)
	minutes := int64(d % time.Hour / time.Minute)
	seconds := int64(d % time.Minute / time.Second)

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// UnlockView is what callers are allowed to see of a reminder at a given instant.
// Notes and VoiceNote are withheld while the reminder is locked.
type UnlockView struct {
	ReminderID string
	MemoryID   string
	Title      string
	Date       time.Time
	State      constants.UnlockState
	Remaining  string
	Notes      string
	VoiceNote  *models.VoiceNote
}

func (v UnlockView) Unlocked() bool {
	return v.State == constants.StateUnlocked
}

// Unlock evaluates r at now. A reminder with less than a whole second left counts
// as unlocked, matching its "Now" countdown. If latch is non-nil, a reminder it has
// already seen unlocked stays unlocked even if the clock moves backwards.
func Unlock(r models.Reminder, now time.Time, latch *Latch) UnlockView {
	v := UnlockView{
		ReminderID: r.ID,
		MemoryID:   r.MemoryID,
		Title:      r.Title,
		Date:       r.Date,
		State:      Evaluate(r.Date, now),
		Remaining:  Remaining(r.Date, now),
	}

	if v.Remaining == constants.RemainingNow {
		v.State = constants.StateUnlocked
	}
	if latch != nil {
		if v.Unlocked() {
			latch.Observe(r.ID)
		} else if latch.Seen(r.ID) {
			v.State = constants.StateUnlocked
			v.Remaining = constants.RemainingNow
		}
	}

	if v.Unlocked() {
		v.Notes = r.Notes
		if r.VoiceNote != nil {
			vn := *r.VoiceNote
			v.VoiceNote = &vn
		}
	}
	return v
}

// Latch remembers which reminders have been observed unlocked in this process.
type Latch struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewLatch() *Latch {
	return &Latch{seen: make(map[string]struct{})}
}

func (l *Latch) Observe(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[id] = struct{}{}
}

func (l *Latch) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Forget drops id, used when its reminder is deleted.
func (l *Latch) Forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, id)
}
