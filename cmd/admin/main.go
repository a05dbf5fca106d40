package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ayush/consciousday/backend/internal/cli"
	"github.com/ayush/consciousday/backend/internal/config"
	"github.com/ayush/consciousday/backend/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool `help:"Log at debug level."`

	Users         cli.UsersCmd         `cmd:"" help:"List users and their roles."`
	SetRole       cli.SetRoleCmd       `cmd:"" help:"Change a user's role."`
	ClearUsers    cli.ClearUsersCmd    `cmd:"" help:"Remove every user except demo."`
	Stats         cli.StatsCmd         `cmd:"" help:"Show entry statistics for a user."`
	Migrate       cli.MigrateCmd       `cmd:"" help:"Create or upgrade the entries schema."`
	PurgeArchives cli.PurgeArchivesCmd `cmd:"" help:"Delete a user's archived insights and exports."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("consciousday-admin"),
		kong.Description("Operator tool for the ConsciousDay journaling service"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg := config.Load()
	if err := logger.Init(logger.Config{Debug: CLI.Debug || cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := ctx.Run(&cli.Context{Config: cfg, Out: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
