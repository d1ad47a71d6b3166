package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notify"
	"github.com/julianstephens/dearbaby/internal/ticker"
	"github.com/julianstephens/dearbaby/internal/tui"
)

type TuiCmd struct {
	Baby   string `help:"Baby's name." default:"Baby"`
	Born   string `help:"Birth date (YYYY-MM-DD or e.g. \"3 months ago\")." default:"today"`
	Gender string `help:"Baby's gender." enum:"boy,girl" default:"girl"`
}

func (c *TuiCmd) Run(ctx *Context) error {
	var program *tea.Program

	// Fired alerts go to the status line instead of stdout
	ctx.Out = io.Discard
	alerts := notify.DelivererFunc(func(_ context.Context, req notify.Request) error {
		if program != nil {
			program.Send(tui.AlertMsg(req))
		}
		return nil
	})
	if err := ctx.Open(Options{Deliverer: alerts}); err != nil {
		return err
	}
	defer ctx.Close()

	born, err := ctx.Dates.Parse(c.Born, ctx.Clock.Now(), ctx.Location)
	if err != nil {
		return fmt.Errorf("invalid --born: %w", err)
	}
	baby, err := ctx.Journal.AddBaby(c.Baby, born, constants.Gender(c.Gender))
	if err != nil {
		return err
	}

	model := tui.NewModel(tui.Deps{
		Journal:   ctx.Journal,
		Reminders: ctx.Reminders,
		Voice:     ctx.Voice,
		Dates:     ctx.Dates,
		Location:  ctx.Location,
		BabyID:    baby.ID,
	})
	program = tea.NewProgram(model, tea.WithAltScreen())

	tk := ticker.New(ticker.BabySource(ctx.Reminders, baby.ID), ctx.Config.TickInterval)
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = tk.Run(runCtx, func(events []ticker.Event) {
			program.Send(tui.EventsMsg(events))
		})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	tk.Stop()
	return nil
}
