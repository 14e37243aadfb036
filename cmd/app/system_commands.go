package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/textdrop/cmd/app/commands"
	"github.com/allisson/textdrop/internal/app"
	"github.com/allisson/textdrop/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create the records table of the postgres and mysql storage drivers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.SQLDriver(), cfg.DBConnectionString)
			},
		},
	}
}
