package api

import (
	"github.com/travigo/treni/pkg/database"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/tracking"
	"github.com/travigo/treni/pkg/util"
	"github.com/travigo/treni/pkg/viaggiatreno"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					server := &Server{
						Fetcher:  viaggiatreno.NewClient(),
						Engine:   engine.New(util.GetEnvironmentVariable("TRENI_LOCALE", "it")),
						Registry: tracking.NewMongoRegistry(),
						Auth:     EnsureValidToken(),
					}

					return server.Listen(c.String("listen"))
				},
			},
		},
	}
}
