package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/textdrop/cmd/app/commands"
)

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server-url",
			Aliases: []string{"u"},
			Value:   "https://localhost:8080",
			Sources: cli.EnvVars("TEXTDROP_URL"),
			Usage:   "Base URL of the textdrop server",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Value: false,
			Usage: "Allow a plain http server URL",
		},
		&cli.StringFlag{
			Name:     "code",
			Aliases:  []string{"c"},
			Required: true,
			Usage:    "Fetch code: the shared secret that locates and encrypts the text",
		},
	}
}

func getTextCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "save",
			Usage: "Encrypt a text locally and store it under a fetch code",
			Flags: append(clientFlags(), &cli.StringFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "Text to save (read from stdin when omitted)",
			}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				textClient, err := commands.NewTextClient(cmd.String("server-url"), cmd.Bool("insecure"))
				if err != nil {
					return err
				}
				return commands.RunSave(ctx, textClient, commands.DefaultIO(), cmd.String("code"), cmd.String("text"))
			},
		},
		{
			Name:  "fetch",
			Usage: "Fetch the text stored under a fetch code and decrypt it locally",
			Flags: clientFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				textClient, err := commands.NewTextClient(cmd.String("server-url"), cmd.Bool("insecure"))
				if err != nil {
					return err
				}
				return commands.RunFetch(ctx, textClient, commands.DefaultIO().Writer, cmd.String("code"))
			},
		},
	}
}
