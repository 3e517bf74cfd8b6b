package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
)

// Queue is the part of an rmq.Queue used to hand notifications on.
type Queue interface {
	PublishBytes(payload ...[]byte) error
}

// EventsBatchConsumer turns train events into user notifications and
// queues them for delivery.
type EventsBatchConsumer struct {
	NotifyQueue Queue
}

func NewEventsBatchConsumer(notifyQueue Queue) *EventsBatchConsumer {
	return &EventsBatchConsumer{NotifyQueue: notifyQueue}
}

func (c *EventsBatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var event ctdf.Event
		if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode event")
			c.reject(delivery)
			continue
		}

		notification, ok := Notification(&event)
		if !ok {
			log.Debug().Str("type", string(event.Type)).Str("id", event.ID).Msg("Event has no notification")
			c.ack(delivery)
			continue
		}

		notificationBytes, _ := json.Marshal(notification)
		if err := c.NotifyQueue.PublishBytes(notificationBytes); err != nil {
			log.Error().Err(err).Str("id", event.ID).Msg("Failed to queue notification")
			c.reject(delivery)
			continue
		}

		c.ack(delivery)
	}
}

// Notification builds the push notification for an event, false when the
// event has nobody to notify or nothing to say.
func Notification(event *ctdf.Event) (ctdf.Notification, bool) {
	if event.Body.UserID == "" && event.Body.PushToken == "" {
		return ctdf.Notification{}, false
	}

	data := GetNotificationData(event, event.Body.Locale)
	if data.Title == "" {
		return ctdf.Notification{}, false
	}

	return ctdf.Notification{
		TargetUser:  event.Body.UserID,
		TargetToken: event.Body.PushToken,
		Type:        ctdf.NotificationTypePush,
		Title:       data.Title,
		Message:     data.Message,
	}, true
}

func (c *EventsBatchConsumer) ack(delivery rmq.Delivery) {
	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Msg("Failed to ack event")
	}
}

func (c *EventsBatchConsumer) reject(delivery rmq.Delivery) {
	if err := delivery.Reject(); err != nil {
		log.Error().Err(err).Msg("Failed to reject event")
	}
}
