package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/dearbaby/internal/audio"
	"github.com/julianstephens/dearbaby/internal/clock"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/models"
	"github.com/julianstephens/dearbaby/internal/notify"
	"github.com/julianstephens/dearbaby/internal/ticker"
	"github.com/julianstephens/dearbaby/internal/utils"
)

// DemoCmd walks through the reminder lifecycle on a simulated clock. Nothing is
// written outside a temporary directory.
type DemoCmd struct {
	Days int `help:"Days until the demo reminder unlocks." default:"3"`
}

type demo struct {
	out   io.Writer
	ctx   *Context
	clock *clock.Manual
	sched *notify.Recorder
	step  int
}

func (c *DemoCmd) Run(ctx *Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	tmp, err := os.MkdirTemp("", "dearbaby-demo-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	input, err := os.CreateTemp(tmp, "lullaby-*"+constants.VoiceNoteFileExtension)
	if err != nil {
		return err
	}
	if _, err := input.WriteString("hush little baby, don't say a word"); err != nil {
		input.Close()
		return err
	}
	input.Close()

	ctx.Config.VoiceNotes.Backend = constants.VoiceNoteBackendSQLite
	ctx.Config.VoiceNotes.DSN = ":memory:"

	d := &demo{
		out:   ctx.Out,
		ctx:   ctx,
		clock: clock.NewManual(time.Now().Truncate(time.Minute)),
		sched: notify.NewRecorder(),
	}
	if err := ctx.Open(Options{
		Clock:     d.clock,
		Scheduler: d.sched,
		Device:    &audio.FileDevice{Source: input.Name(), Out: io.Discard},
	}); err != nil {
		return err
	}
	defer ctx.Close()

	return d.run(context.Background(), c.Days)
}

func (d *demo) printf(format string, args ...interface{}) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *demo) section(title string) {
	d.step++
	d.printf("\n%d. %s\n", d.step, title)
}

func (d *demo) run(ctx context.Context, days int) error {
	svc := d.ctx
	loc := svc.Location
	now := d.clock.Now()

	d.section("Add a baby")
	baby, err := svc.Journal.AddBaby("Ada", now.AddDate(0, -4, 0), constants.GenderGirl)
	if err != nil {
		return err
	}
	d.printf("   ✓ %s, %s\n", baby.Name, baby.Age(now))

	d.section("Capture a memory")
	memory, err := svc.Journal.CreateMemory(baby.ID, "First smile", now, models.Image{Name: "smile.jpg"}, "At the cat, of course.")
	if err != nil {
		return err
	}
	d.printf("   ✓ %q (%s)\n", memory.Title, memory.Description)

	d.section("Seal it with a reminder")
	unlockAt := now.Add(time.Duration(days) * 24 * time.Hour)
	r, err := svc.Reminders.CreateReminder(ctx, memory.ID, unlockAt, "", "You smiled at the cat before you smiled at us.", nil)
	if err != nil {
		return err
	}
	d.printf("   ✓ Unlocks %s\n", utils.FormatUnlock(r.Date, loc))
	if req, ok := d.sched.Pending(r.ID); ok {
		d.printf("   ✓ Alert scheduled: %q / %q at %s\n", req.Title, req.Body, utils.FormatUnlock(req.FireAt, loc))
	}

	d.section("Rules")
	if _, err := svc.Reminders.CreateReminder(ctx, memory.ID, unlockAt, "", "", nil); stderrors.Is(err, errors.ErrAlreadyExists) {
		d.printf("   ✓ A second reminder is refused: %v\n", err)
	}
	other, err := svc.Journal.CreateMemory(baby.ID, "First tooth", now, models.Image{}, "")
	if err != nil {
		return err
	}
	if _, err := svc.Reminders.CreateReminder(ctx, other.ID, now.Add(-time.Hour), "", "", nil); stderrors.Is(err, errors.ErrInvalidDate) {
		d.printf("   ✓ A past unlock date is refused: %v\n", err)
	}

	d.section("Keep writing while it is sealed")
	if _, err := svc.Reminders.AppendNotes(ctx, memory.ID, "Grandma says you have her dimples."); err != nil {
		return err
	}
	rec, err := svc.Voice.StartRecording(ctx)
	if err != nil {
		return err
	}
	note, err := svc.Voice.StopRecording(ctx, rec)
	if err != nil {
		return err
	}
	if _, err := svc.Reminders.ReplaceVoiceNote(ctx, memory.ID, note); err != nil {
		return err
	}
	d.printf("   ✓ Notes appended and a %d byte voice note attached\n", note.Size)
	if err := d.printView(memory.ID); err != nil {
		return err
	}

	d.section(fmt.Sprintf("Wait %d days", days))
	tk := ticker.New(ticker.BabySource(svc.Reminders, baby.ID), svc.Config.TickInterval)
	if _, err := tk.Poll(); err != nil {
		return err
	}
	d.clock.Advance(time.Duration(days) * 24 * time.Hour)
	events, err := tk.Poll()
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.JustUnlocked {
			d.printf("   🔓 %q just unlocked\n", ev.Title)
		}
	}
	if err := d.printView(memory.ID); err != nil {
		return err
	}
	view, err := svc.Reminders.View(memory.ID)
	if err != nil {
		return err
	}
	if view.VoiceNote != nil {
		p, err := svc.Voice.Play(ctx, view.VoiceNote.Ref)
		if err != nil {
			return err
		}
		if err := p.Wait(); err != nil {
			return err
		}
		d.printf("   ▶ Voice note played\n")
	}

	d.section("Clean up")
	if err := svc.Reminders.DeleteReminder(ctx, memory.ID); err != nil {
		return err
	}
	exists, err := svc.Blobs.Exists(ctx, note.Ref)
	if err != nil {
		return err
	}
	d.printf("   ✓ Reminder deleted, alert cancelled: %t, voice note kept: %t\n", d.cancelled(r.ID), exists)
	if err := svc.Journal.DeleteMemory(ctx, memory.ID); err != nil {
		return err
	}
	memories, err := svc.Journal.ListMemories(baby.ID)
	if err != nil {
		return err
	}
	d.printf("   ✓ Memory deleted, %d left\n", len(memories))
	return nil
}

func (d *demo) printView(memoryID string) error {
	view, err := d.ctx.Reminders.View(memoryID)
	if err != nil {
		return err
	}
	if !view.Unlocked() {
		d.printf("   🔒 %s: sealed, %s to go\n", view.Title, view.Remaining)
		return nil
	}
	d.printf("   🔓 %s:\n", view.Title)
	d.printf("      %s\n", strings.ReplaceAll(view.Notes, "\n", "\n      "))
	return nil
}

func (d *demo) cancelled(id string) bool {
	_, pending := d.sched.Pending(id)
	return !pending
}
