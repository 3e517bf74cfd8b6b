package events

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/consumer"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

const (
	EventsQueueName = "events-queue"
	NotifyQueueName = "notify-queue"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Provides the events runner",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run events server",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					notifyQueue, err := redis_client.QueueConnection.OpenQueue(NotifyQueueName)
					if err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       EventsQueueName,
						NumberConsumers: 5,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewEventsBatchConsumer(notifyQueue),
						StatsAddress:    ":3334",
					}
					redisConsumer.Setup()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "test-event",
				Usage: "generate a test event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "user to notify",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "locale",
						Value: "it",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					eventsQueue, err := redis_client.QueueConnection.OpenQueue(EventsQueueName)
					if err != nil {
						log.Fatal().Err(err).Msg("Failed to start event queue")
					}

					event := ctdf.NewEvent(ctdf.EventTypeTrainDelayChanged, time.Now(), ctdf.TrainEvent{
						UserID:      c.String("user"),
						Locale:      c.String("locale"),
						TrainNumber: "9544",
						KindLabel:   "FR",
						Origin:      "Milano Centrale",
						Destination: "Roma Termini",
						DelayFrom:   ctdf.Minutes(3),
						DelayTo:     ctdf.Minutes(12),
					})

					eventBytes, _ := json.Marshal(event)

					return eventsQueue.PublishBytes(eventBytes)
				},
			},
		},
	}
}
