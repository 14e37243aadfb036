package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/allisson/textdrop/cmd/app/commands"
	"github.com/allisson/textdrop/internal/app"
	"github.com/allisson/textdrop/internal/config"
	cryptoService "github.com/allisson/textdrop/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-server-key",
			Usage: "Generate a new server key, optionally wrapped with a KMS key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-provider",
					Value: "",
					Usage: "KMS provider (" + strings.Join(cryptoService.KMSProviders(), ", ") + ")",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateServerKey(
					ctx,
					cryptoService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}
