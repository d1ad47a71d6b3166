package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/dearbaby/internal/audio"
	"github.com/julianstephens/dearbaby/internal/blob"
	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/config"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/journal"
	"github.com/julianstephens/dearbaby/internal/logger"
	"github.com/julianstephens/dearbaby/internal/notifier"
	"github.com/julianstephens/dearbaby/internal/notify"
	"github.com/julianstephens/dearbaby/internal/reminder"
	"github.com/julianstephens/dearbaby/internal/storage"
	"github.com/julianstephens/dearbaby/internal/utils"
	"github.com/julianstephens/dearbaby/internal/voice"
)

// Context is handed to every command's Run. Service fields stay nil until Open.
type Context struct {
	Config config.Config
	Out    io.Writer
	In     io.Reader

	Clock     clock.Clock
	Location  *time.Location
	Dates     *utils.DateParser
	Data      *storage.MemoryStore
	Blobs     blob.Store
	Device    audio.Device
	Voice     *voice.Manager
	Deliverer notify.Deliverer
	Scheduler notify.Scheduler
	Reminders *reminder.Store
	Journal   *journal.Journal

	local *notify.LocalScheduler
}

// Options overrides the collaborators Open would otherwise build from config.
type Options struct {
	Clock     clock.Clock
	Scheduler notify.Scheduler
	Device    audio.Device
	// Deliverer replaces the log sink used for fired alerts
	Deliverer notify.Deliverer
}

func NewContext(cfg config.Config, out io.Writer) *Context {
	if out == nil {
		out = os.Stdout
	}
	return &Context{Config: cfg, Out: out}
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Open wires the services: blob store, audio device, voice manager, deliverer,
// scheduler, reminder store and journal.
func (c *Context) Open(opts Options) error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	loc, err := c.Config.Location()
	if err != nil {
		return err
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}

	blobs, err := newBlobStore(c.Config)
	if err != nil {
		return err
	}

	device := opts.Device
	if device == nil {
		device = &audio.FileDevice{Source: c.Config.VoiceNotes.Input, Out: io.Discard}
	}

	c.Clock = clk
	c.Location = loc
	c.Dates = utils.NewDateParser()
	c.Data = storage.NewMemoryStore()
	c.Blobs = blobs
	c.Device = device
	c.Voice = voice.NewManager(blobs, device, voice.NewSession(), clk)
	sink := opts.Deliverer
	if sink == nil {
		sink = notifier.NewLogDeliverer(c.Out, clk)
	}
	c.Deliverer = newDeliverer(c.Config, sink)

	c.Scheduler = opts.Scheduler
	if c.Scheduler == nil {
		c.local = notify.NewLocalScheduler(c.Deliverer, clk)
		c.Scheduler = c.local
	}

	c.Reminders = reminder.NewStore(c.Data, c.Scheduler, c.Voice, clk)
	c.Journal = journal.New(c.Data, c.Reminders, clk)

	logger.Debug("Services ready",
		"voice_backend", c.Config.VoiceNotes.Backend,
		"notify_backend", c.Config.Notifications.Backend,
		"timezone", loc.String())
	return nil
}

// Close stops pending timers and audio, then closes the blob store.
func (c *Context) Close() error {
	var errs []error
	if c.Voice != nil {
		c.Voice.CancelRecording()
		c.Voice.Stop()
	}
	if c.local != nil {
		if err := c.local.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Blobs != nil {
		if err := c.Blobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close voice-note store: %w", err))
		}
	}
	return stderrors.Join(errs...)
}

func newBlobStore(cfg config.Config) (blob.Store, error) {
	switch cfg.VoiceNotes.Backend {
	case constants.VoiceNoteBackendSQLite:
		s, err := blob.NewSQLiteStore(cfg.VoiceNoteDSN())
		if err != nil {
			return nil, fmt.Errorf("open voice-note database: %w", err)
		}
		return s, nil
	default:
		s, err := blob.NewFileStore(cfg.VoiceNoteDir())
		if err != nil {
			return nil, fmt.Errorf("open voice-note directory: %w", err)
		}
		return s, nil
	}
}

// newDeliverer picks the alert sink. The tray backend retries failed posts and
// falls back to the log sink when the companion cannot be reached.
func newDeliverer(cfg config.Config, logSink notify.Deliverer) notify.Deliverer {
	if cfg.Notifications.Backend != constants.NotificationBackendTray {
		return logSink
	}

	tray := notify.NewRetrying(notifier.NewTrayDeliverer(), cfg.Notifications.MaxRetries, cfg.Notifications.RetryDelay)
	return notify.DelivererFunc(func(ctx context.Context, req notify.Request) error {
		err := tray.Deliver(ctx, req)
		if err == nil {
			return nil
		}
		logger.Warn("Tray delivery failed, printing instead", "id", req.ID, "error", err)
		return logSink.Deliver(ctx, req)
	})
}
