package poller

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/database"
	"github.com/travigo/treni/pkg/elastic_client"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/events"
	"github.com/travigo/treni/pkg/notify"
	"github.com/travigo/treni/pkg/redis_client"
	"github.com/travigo/treni/pkg/tracking"
	"github.com/travigo/treni/pkg/util"
	"github.com/travigo/treni/pkg/viaggiatreno"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "poller",
		Usage: "Polls tracked trains and raises notification events",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the poller",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "seeds",
						Usage: "directory of tracking registration seeds",
						Value: "data/tracking/",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}
					defer elastic_client.WaitUntilQueueEmpty()

					interval, err := IntervalFromEnvironment()
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					registry := tracking.NewMongoRegistry()
					if _, err := os.Stat(c.String("seeds")); err == nil {
						if err := tracking.SeedRegistry(ctx, registry, c.String("seeds"), time.Now()); err != nil {
							return err
						}
					}

					eventsQueue, err := redis_client.QueueConnection.OpenQueue(events.EventsQueueName)
					if err != nil {
						return err
					}

					poller := New(
						viaggiatreno.NewClient(),
						registry,
						tracking.NewRedisStateStore(redis_client.Client),
						&notify.Notifier{
							Publisher: &notify.Publisher{Queue: eventsQueue},
							Scheduler: notify.NewRedisScheduler(redis_client.Client),
						},
					)
					poller.Interval = interval
					poller.Engine = engine.New(util.GetEnvironmentVariable("TRENI_LOCALE", "it"))

					log.Info().Dur("interval", interval).Msg("Starting poller")
					go poller.Run(ctx)

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals

					return nil
				},
			},
		},
	}
}
