package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kr/pretty"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/viaggiatreno"
	"github.com/urfave/cli/v2"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Adapt a train status payload and print the result",
		ArgsUsage: "<payload file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "train",
				Usage: "fetch the live payload for this train number instead of reading a file",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "origin station code of the run",
			},
			&cli.StringFlag{
				Name:  "technicalid",
				Usage: "NUMBER-ORIGINCODE-TIMESTAMP identifier of the run",
			},
			&cli.StringFlag{
				Name:  "now",
				Usage: "evaluate as of this RFC3339 time",
			},
			&cli.StringFlag{
				Name:  "locale",
				Value: "it",
				Usage: "language of the state labels",
			},
		},
		Action: func(c *cli.Context) error {
			now := time.Now()
			if c.String("now") != "" {
				parsed, err := time.Parse(time.RFC3339, c.String("now"))
				if err != nil {
					return err
				}
				now = parsed
			}

			selection := ctdf.SelectionContext{
				OriginCode:  c.String("origin"),
				TechnicalID: c.String("technicalid"),
			}

			var payload []byte
			var err error

			switch {
			case c.String("train") != "":
				payload, selection, err = viaggiatreno.NewClient().Fetch(c.Context, c.String("train"), selection)
			case c.Args().Len() == 1:
				payload, err = os.ReadFile(c.Args().First())
			default:
				return errors.New("expected a payload file or --train")
			}
			if err != nil {
				return err
			}

			trainEngine := engine.New(c.String("locale"))
			trainEngine.Adapter.Resolver.Now = func() time.Time {
				return now
			}

			outcome := trainEngine.Process(payload, selection, now.UnixMilli())

			fmt.Printf("%s (%s)\n", outcome.Kind, outcome.Shape)
			pretty.Println(outcome)

			if outcome.IsError() {
				return outcome.Err
			}

			return nil
		},
	}
}
