package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/api"
	"github.com/travigo/treni/pkg/events"
	"github.com/travigo/treni/pkg/notify"
	"github.com/travigo/treni/pkg/poller"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRENI_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRENI_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "treni",
		Description: "Single binary for Treni - follows Italian trains and notifies their travellers",

		Commands: []*cli.Command{
			inspectCommand(),
			poller.RegisterCLI(),
			events.RegisterCLI(),
			notify.RegisterCLI(),
			api.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
