package notify

import (
	"context"
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
)

type Sender interface {
	SendPush(ctx context.Context, notification ctdf.Notification) error
}

type NotifyBatchConsumer struct {
	Sender Sender
}

func NewNotifyBatchConsumer(sender Sender) *NotifyBatchConsumer {
	return &NotifyBatchConsumer{Sender: sender}
}

func (c *NotifyBatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var notification ctdf.Notification
		if err := json.Unmarshal([]byte(delivery.Payload()), &notification); err != nil {
			log.Error().Err(err).Msg("Failed to decode notification")
			reject(delivery)
			continue
		}

		if notification.Type != ctdf.NotificationTypePush {
			log.Debug().Str("type", string(notification.Type)).Msg("Unsupported notification type")
			ack(delivery)
			continue
		}

		if err := c.Sender.SendPush(context.Background(), notification); err != nil {
			log.Error().Err(err).Str("target", notification.TargetUser).Msg("Failed to send push notification")
			reject(delivery)
			continue
		}

		ack(delivery)
	}
}

func ack(delivery rmq.Delivery) {
	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Msg("Failed to ack notification")
	}
}

func reject(delivery rmq.Delivery) {
	if err := delivery.Reject(); err != nil {
		log.Error().Err(err).Msg("Failed to reject notification")
	}
}
