package notify

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/travigo/treni/pkg/consumer"
	"github.com/travigo/treni/pkg/database"
	"github.com/travigo/treni/pkg/events"
	"github.com/travigo/treni/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Provides the notification system",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run notify server",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					pushManager := &PushManager{}
					if err := pushManager.Setup(); err != nil {
						return err
					}

					eventsQueue, err := redis_client.QueueConnection.OpenQueue(events.EventsQueueName)
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					dispatcher := &Dispatcher{
						Scheduler: NewRedisScheduler(redis_client.Client),
						Publisher: &Publisher{Queue: eventsQueue},
						Interval:  5 * time.Second,
					}
					go dispatcher.Run(ctx)

					redisConsumer := consumer.RedisConsumer{
						QueueName:       events.NotifyQueueName,
						NumberConsumers: 5,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewNotifyBatchConsumer(pushManager),
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

					cancel()
					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
		},
	}
}
