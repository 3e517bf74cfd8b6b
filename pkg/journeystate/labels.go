package journeystate

import (
	"fmt"

	"github.com/travigo/treni/pkg/ctdf"
	"golang.org/x/text/language"
)

// Labels are the display strings of each state in one language.
type Labels struct {
	Tag language.Tag

	Planned          string
	PlannedDeparture string
	Departing        string
	Running          string
	Partial          string
	Cancelled        string
	Completed        string
	Unknown          string
}

var labelSets = []Labels{
	{
		Tag:              language.Italian,
		Planned:          "Programmato",
		PlannedDeparture: "Parte tra %d min",
		Departing:        "In partenza",
		Running:          "In viaggio",
		Partial:          "Cancellato parzialmente",
		Cancelled:        "Cancellato",
		Completed:        "Arrivato",
		Unknown:          "Stato non disponibile",
	},
	{
		Tag:              language.English,
		Planned:          "Scheduled",
		PlannedDeparture: "Departs in %d min",
		Departing:        "Departing",
		Running:          "Running",
		Partial:          "Partially cancelled",
		Cancelled:        "Cancelled",
		Completed:        "Arrived",
		Unknown:          "Status unavailable",
	},
}

var labelMatcher = language.NewMatcher(func() []language.Tag {
	var tags []language.Tag
	for _, set := range labelSets {
		tags = append(tags, set.Tag)
	}
	return tags
}())

// LabelsFor picks the closest supported language for an Accept-Language
// style locale string, defaulting to Italian.
func LabelsFor(locale string) Labels {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return labelSets[0]
	}

	_, index, _ := labelMatcher.Match(tags...)

	return labelSets[index]
}

func (l Labels) Label(state ctdf.JourneyState) string {
	switch state.Code {
	case ctdf.JourneyStatePlanned:
		if state.MinutesToDeparture == nil {
			return l.Planned
		}
		if *state.MinutesToDeparture <= 0 {
			return l.Departing
		}
		return fmt.Sprintf(l.PlannedDeparture, *state.MinutesToDeparture)
	case ctdf.JourneyStateRunning:
		return l.Running
	case ctdf.JourneyStatePartial:
		return l.Partial
	case ctdf.JourneyStateCancelled:
		return l.Cancelled
	case ctdf.JourneyStateCompleted:
		return l.Completed
	}

	return l.Unknown
}
