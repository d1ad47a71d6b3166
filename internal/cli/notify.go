package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/notify"
)

// NotifyTestCmd sends one alert through the configured deliverer.
type NotifyTestCmd struct {
	Title string `help:"Memory title shown in the alert." default:"Test memory"`
	Body  string `help:"Alert body. Defaults to the standard reminder text."`
}

func (c *NotifyTestCmd) Run(ctx *Context) error {
	if err := ctx.Open(Options{}); err != nil {
		return err
	}
	defer ctx.Close()

	req := notify.NewRequest("notify-test", ctx.Clock.Now(), c.Title, c.Body)
	if err := ctx.Deliverer.Deliver(context.Background(), req); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if ctx.Config.Notifications.Backend == constants.NotificationBackendTray {
		fmt.Fprintln(ctx.Out, "✓ Notification sent")
	}
	return nil
}
