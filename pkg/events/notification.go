package events

import (
	"fmt"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/journeystate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var translations = map[string]map[language.Tag]string{
	"Train %s: delay update": {
		language.Italian: "Treno %s: aggiornamento ritardo",
		language.English: "Train %s: delay update",
	},
	"%s now running %d min late (was %d)": {
		language.Italian: "%s viaggia ora con %d min di ritardo (prima %d)",
		language.English: "%s now running %d min late (was %d)",
	},
	"%s now running on time": {
		language.Italian: "%s viaggia ora in orario",
		language.English: "%s now running on time",
	},
	"%s now running %d min early": {
		language.Italian: "%s viaggia ora in anticipo di %d min",
		language.English: "%s now running %d min early",
	},
	"Train %s cancelled": {
		language.Italian: "Treno %s cancellato",
		language.English: "Train %s cancelled",
	},
	"%s has been cancelled": {
		language.Italian: "%s è stato cancellato",
		language.English: "%s has been cancelled",
	},
	"Train %s partially cancelled": {
		language.Italian: "Treno %s cancellato parzialmente",
		language.English: "Train %s partially cancelled",
	},
	"%s terminates at %s": {
		language.Italian: "%s termina la corsa a %s",
		language.English: "%s terminates at %s",
	},
	"%s will not reach its destination": {
		language.Italian: "%s non raggiungerà la destinazione",
		language.English: "%s will not reach its destination",
	},
	"Train %s arrived": {
		language.Italian: "Treno %s arrivato",
		language.English: "Train %s arrived",
	},
	"%s has arrived at %s": {
		language.Italian: "%s è arrivato a %s",
		language.English: "%s has arrived at %s",
	},
	"Arriving at %s": {
		language.Italian: "In arrivo a %s",
		language.English: "Arriving at %s",
	},
	"%s arrives at %s in %d min": {
		language.Italian: "%s arriva a %s tra %d min",
		language.English: "%s arrives at %s in %d min",
	},
}

func init() {
	for key, languages := range translations {
		for tag, text := range languages {
			if err := message.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
}

// GetNotificationData renders the title and message of an event in the
// language closest to locale.
func GetNotificationData(e *ctdf.Event, locale string) ctdf.EventNotificationData {
	printer := message.NewPrinter(journeystate.LabelsFor(locale).Tag)
	eventNotificationData := ctdf.EventNotificationData{}

	body := e.Body
	train := trainName(body)
	route := train
	if body.Origin != "" && body.Destination != "" {
		route = fmt.Sprintf("%s %s → %s", train, body.Origin, body.Destination)
	}

	switch e.Type {
	case ctdf.EventTypeTrainDelayChanged:
		eventNotificationData.Title = printer.Sprintf("Train %s: delay update", train)

		delay := 0
		if body.DelayTo != nil {
			delay = *body.DelayTo
		}

		switch {
		case delay == 0:
			eventNotificationData.Message = printer.Sprintf("%s now running on time", route)
		case delay < 0:
			eventNotificationData.Message = printer.Sprintf("%s now running %d min early", route, -delay)
		default:
			previous := 0
			if body.DelayFrom != nil {
				previous = *body.DelayFrom
			}
			eventNotificationData.Message = printer.Sprintf("%s now running %d min late (was %d)", route, delay, previous)
		}
	case ctdf.EventTypeTrainStatusChanged:
		switch body.StatusTo {
		case ctdf.JourneyStateCancelled:
			eventNotificationData.Title = printer.Sprintf("Train %s cancelled", train)
			eventNotificationData.Message = printer.Sprintf("%s has been cancelled", route)
		case ctdf.JourneyStatePartial:
			eventNotificationData.Title = printer.Sprintf("Train %s partially cancelled", train)
			if body.TerminatedAtStation != "" {
				eventNotificationData.Message = printer.Sprintf("%s terminates at %s", route, body.TerminatedAtStation)
			} else {
				eventNotificationData.Message = printer.Sprintf("%s will not reach its destination", route)
			}
		case ctdf.JourneyStateCompleted:
			eventNotificationData.Title = printer.Sprintf("Train %s arrived", train)
			eventNotificationData.Message = printer.Sprintf("%s has arrived at %s", train, body.Destination)
		}
	case ctdf.EventTypeTrainArrivalApproaching:
		eventNotificationData.Title = printer.Sprintf("Arriving at %s", body.StopName)
		eventNotificationData.Message = printer.Sprintf("%s arrives at %s in %d min", train, body.StopName, body.MinutesToArrival)
	}

	return eventNotificationData
}

func trainName(body ctdf.TrainEvent) string {
	if body.KindLabel == "" {
		return body.TrainNumber
	}

	return fmt.Sprintf("%s %s", body.KindLabel, body.TrainNumber)
}
