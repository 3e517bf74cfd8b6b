// Package journeystate classifies a snapshot into the coarse state of its
// run: planned, running, partially cancelled, cancelled or unknown.
package journeystate

import (
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/util"
)

type Classifier struct {
	Labels Labels
}

func NewClassifier(locale string) *Classifier {
	return &Classifier{
		Labels: LabelsFor(locale),
	}
}

var defaultClassifier = NewClassifier("it")

// Classify uses the Italian labels.
func Classify(snapshot *ctdf.TrainSnapshot, now int64) ctdf.JourneyState {
	return defaultClassifier.Classify(snapshot, now)
}

// Classify evaluates the rules in priority order, first match wins. It is
// a pure function of the snapshot and now.
func (c *Classifier) Classify(snapshot *ctdf.TrainSnapshot, now int64) ctdf.JourneyState {
	state := ctdf.JourneyState{Code: ctdf.JourneyStateUnknown}

	switch {
	case snapshot == nil:
	case snapshot.Disruption.Type == ctdf.DisruptionTypeFullSuppression:
		state.Code = ctdf.JourneyStateCancelled
	case snapshot.Disruption.Type == ctdf.DisruptionTypeSegment:
		state.Code = ctdf.JourneyStatePartial
	case len(snapshot.Stops) == 0:
		// Nothing to place the run against
	case snapshot.PastCount() == 0:
		state.Code = ctdf.JourneyStatePlanned

		if departure, ok := snapshot.ScheduledDeparture(); ok && departure > now {
			minutes := util.MsToMinutes(departure - now)
			state.MinutesToDeparture = &minutes
		}
	default:
		state.Code = ctdf.JourneyStateRunning
	}

	state.Label = c.Labels.Label(state)

	return state
}

// Effective folds the timeline into the journey state: a run whose
// timeline is done has completed.
func (c *Classifier) Effective(state ctdf.JourneyState, timeline ctdf.TimelineState) ctdf.JourneyState {
	if timeline.Mode != ctdf.TimelineModeDone {
		return state
	}

	switch state.Code {
	case ctdf.JourneyStateRunning, ctdf.JourneyStateUnknown:
		state.Code = ctdf.JourneyStateCompleted
		state.MinutesToDeparture = nil
		state.Label = c.Labels.Label(state)
	}

	return state
}

func Effective(state ctdf.JourneyState, timeline ctdf.TimelineState) ctdf.JourneyState {
	return defaultClassifier.Effective(state, timeline)
}
