package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dearbaby/internal/cli"
	"github.com/julianstephens/dearbaby/internal/config"
	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/errors"
	"github.com/julianstephens/dearbaby/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	Debug   bool   `help:"Enable debug logging (also mirrored to stderr)."`

	Tui        cli.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"withargs"`
	Demo       cli.DemoCmd       `cmd:"" help:"Walk through the reminder lifecycle on a simulated clock."`
	Doctor     cli.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	NotifyTest cli.NotifyTestCmd `cmd:"" name:"notify-test" help:"Send a test notification."`
	Backup     cli.BackupCmd     `cmd:"" help:"Manage voice-note database backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Seal memories for your baby until the day they unlock"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	logger.Debug("Configuration loaded", "config", CLI.Config, "config_dir", cfg.ConfigDir)

	appCtx := cli.NewContext(cfg, os.Stdout)
	if err := ctx.Run(appCtx); err != nil {
		errors.Fatal(err)
	}
}
