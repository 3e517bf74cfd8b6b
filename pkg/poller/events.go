package poller

import (
	"time"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/timeline"
	"github.com/travigo/treni/pkg/tracking"
)

// Events turns a diff into the events a registration may be told about.
func Events(registration *tracking.Registration, snapshot *ctdf.TrainSnapshot, result tracking.DiffResult, now time.Time) []ctdf.Event {
	base := ctdf.TrainEvent{
		TrackingKey: registration.TrackingKey,
		UserID:      registration.UserID,
		Locale:      registration.Locale,
		TrainNumber: snapshot.Number,
		KindLabel:   snapshot.KindLabel,
		Origin:      snapshot.Origin,
		Destination: snapshot.Destination,
	}

	var events []ctdf.Event

	if result.DelayChanged {
		body := base
		body.DelayFrom = result.DelayFrom
		body.DelayTo = result.DelayTo

		events = append(events, ctdf.NewEvent(ctdf.EventTypeTrainDelayChanged, now, body))
	}

	if result.StatusTransition != nil {
		body := base
		body.StatusFrom = result.StatusTransition.From
		body.StatusTo = result.StatusTransition.To
		body.TerminatedAtStation = snapshot.Disruption.TerminatedAtStation

		events = append(events, ctdf.NewEvent(ctdf.EventTypeTrainStatusChanged, now, body))
	}

	for _, crossing := range result.ETACrossings {
		body := base
		body.StopName = crossing.StopName
		body.ThresholdMinutes = crossing.Schedule.ThresholdMinutes
		body.MinutesToArrival = crossing.MinutesToArrival
		body.ArrivalEpochMs = crossing.Schedule.ArrivalEpochMs

		events = append(events, ctdf.NewEvent(ctdf.EventTypeTrainArrivalApproaching, now, body))
	}

	return events
}

func nextStopName(snapshot *ctdf.TrainSnapshot, state ctdf.TimelineState) string {
	if index := timeline.NextStopIndex(snapshot.Stops, state); index >= 0 {
		return snapshot.Stops[index].StationName
	}

	return ""
}
