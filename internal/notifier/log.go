package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/notify"
)

// LogDeliverer prints alerts to a writer and the application log. Used when no
// tray companion is installed.
type LogDeliverer struct {
	mu    sync.Mutex
	out   io.Writer
	clock clock.Clock
}

func NewLogDeliverer(out io.Writer, clk clock.Clock) *LogDeliverer {
	if out == nil {
		out = os.Stdout
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &LogDeliverer{out: out, clock: clk}
}

func (d *LogDeliverer) Deliver(ctx context.Context, req notify.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	logger.Info("Reminder unlocked", "id", req.ID, "title", req.Title)
	_, err := fmt.Fprintf(d.out, "🔔 [%s] %s\n   %s\n", d.clock.Now().Format(constants.DateTimeFormat), req.Title, req.Body)
	return err
}
