// Package timeline places a run on its stop list using only confirmed
// timestamps: which stop it is standing at, or which segment it is moving
// along and how far.
package timeline

import (
	"math"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/util"
)

// Progress shown for a segment whose arrival is not confirmed yet but
// whose ratio would otherwise round to complete.
const unconfirmedProgressCap = 0.98

// Compute derives the timeline of a run. Positions are only asserted from
// confirmed times at or before now; the scan starts from the furthest stop
// with such evidence, so later polls of the same run never move backwards.
func Compute(stops []*ctdf.StopRecord, journeyCode ctdf.JourneyStateCode, globalDelayMinutes *int, now int64) ctdf.TimelineState {
	if journeyCode == ctdf.JourneyStatePlanned {
		state := ctdf.TimelineState{Mode: ctdf.TimelineModePre, CurrentIndex: -1}
		if len(stops) > 0 && stops[0].Platform.Actual != "" {
			state.CurrentIndex = 0
		}

		return state
	}

	unknown := ctdf.TimelineState{Mode: ctdf.TimelineModeUnknown, CurrentIndex: -1}

	frontier := ctdf.LastEvidenceIndex(stops, now)
	if frontier == -1 {
		return unknown
	}

	terminal := effectiveTerminal(stops)
	stop := stops[frontier]

	if frontier != terminal && stop.Arrival.RealBy(now) && !stop.Departure.RealBy(now) {
		return ctdf.TimelineState{Mode: ctdf.TimelineModeStopped, CurrentIndex: frontier}
	}

	if departure, ok := stop.Departure.Real(); ok && departure <= now {
		if next := NextServedIndex(stops, frontier); next != -1 {
			return ctdf.TimelineState{
				Mode:         ctdf.TimelineModeMoving,
				CurrentIndex: frontier,
				ActiveSegment: &ctdf.ActiveSegment{
					FromIndex: frontier,
					ToIndex:   next,
					Progress:  segmentProgress(departure, stops[next], globalDelayMinutes, now),
				},
			}
		}
	}

	if terminal >= 0 && stops[terminal].Arrival.RealBy(now) {
		return ctdf.TimelineState{Mode: ctdf.TimelineModeDone, CurrentIndex: terminal}
	}

	return unknown
}

func segmentProgress(departure int64, next *ctdf.StopRecord, globalDelayMinutes *int, now int64) float64 {
	arrival, ok := PredictedArrival(next, globalDelayMinutes)
	_, arrived := next.Arrival.Real()

	var progress float64
	switch {
	case !ok:
		progress = 0
	case arrival <= departure:
		progress = 1
	default:
		progress = float64(now-departure) / float64(arrival-departure)
	}

	progress = math.Max(0, math.Min(1, progress))

	if !arrived && math.Round(progress*100) >= 100 {
		progress = unconfirmedProgressCap
	}

	return progress
}

// PredictedArrival is the best estimate of when a run reaches a stop: the
// confirmed time, the backend's prediction, or the schedule shifted by the
// effective delay.
func PredictedArrival(stop *ctdf.StopRecord, globalDelayMinutes *int) (int64, bool) {
	event := stop.Arrival
	if event == nil {
		return 0, false
	}

	if actual, ok := event.Real(); ok {
		return actual, true
	}
	if event.PredictedEpoch != nil {
		return *event.PredictedEpoch, true
	}
	if event.ScheduledEpoch == nil {
		return 0, false
	}

	delay, _ := ctdf.EffectiveDelay(stop, globalDelayMinutes)

	return *event.ScheduledEpoch + util.MinutesToMs(delay), true
}

// NextServedIndex is the first stop after index that the run still calls
// at, or -1.
func NextServedIndex(stops []*ctdf.StopRecord, index int) int {
	for i := index + 1; i < len(stops); i++ {
		if !stops[i].IsSuppressed {
			return i
		}
	}

	return -1
}

// NextStopIndex is the next stop the run will call at given its timeline,
// or -1 once it has finished.
func NextStopIndex(stops []*ctdf.StopRecord, state ctdf.TimelineState) int {
	switch state.Mode {
	case ctdf.TimelineModeDone:
		return -1
	case ctdf.TimelineModeMoving:
		if state.ActiveSegment != nil {
			return state.ActiveSegment.ToIndex
		}
	case ctdf.TimelineModeStopped:
		return NextServedIndex(stops, state.CurrentIndex)
	}

	for i, stop := range stops {
		if !stop.IsSuppressed && !stop.HasRealEvidence() {
			return i
		}
	}

	return -1
}

// effectiveTerminal is the last stop the run still calls at. A fully
// suppressed list keeps its scheduled terminal.
func effectiveTerminal(stops []*ctdf.StopRecord) int {
	for i := len(stops) - 1; i >= 0; i-- {
		if !stops[i].IsSuppressed {
			return i
		}
	}

	return len(stops) - 1
}
