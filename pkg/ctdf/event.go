package ctdf

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Body      TrainEvent
}

type EventType string

const (
	EventTypeTrainDelayChanged       EventType = "TrainDelayChanged"
	EventTypeTrainStatusChanged      EventType = "TrainStatusChanged"
	EventTypeTrainArrivalApproaching EventType = "TrainArrivalApproaching"
)

// TrainEvent describes a notification trigger for a tracked run. Only the
// fields relevant to the event type are set.
type TrainEvent struct {
	TrackingKey string
	UserID      string
	PushToken   string
	Locale      string

	TrainNumber string
	KindLabel   string
	Origin      string
	Destination string

	DelayFrom *int `json:",omitempty"`
	DelayTo   *int `json:",omitempty"`

	StatusFrom JourneyStateCode `json:",omitempty"`
	StatusTo   JourneyStateCode `json:",omitempty"`

	TerminatedAtStation string `json:",omitempty"`

	StopName         string `json:",omitempty"`
	ThresholdMinutes int    `json:",omitempty"`
	MinutesToArrival int    `json:",omitempty"`
	ArrivalEpochMs   int64  `json:",omitempty"`
}

func NewEvent(eventType EventType, timestamp time.Time, body TrainEvent) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: timestamp,
		Body:      body,
	}
}

type EventNotificationData struct {
	Title   string
	Message string
}
