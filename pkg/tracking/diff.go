// Package tracking compares successive polls of a tracked run and decides
// which changes deserve a notification.
package tracking

import (
	"strings"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/timeline"
	"github.com/travigo/treni/pkg/util"
	"golang.org/x/exp/slices"
)

// Codes a run can move into that are worth telling the user about.
var alertStates = []ctdf.JourneyStateCode{
	ctdf.JourneyStateCancelled,
	ctdf.JourneyStateCompleted,
	ctdf.JourneyStatePartial,
}

type StatusTransition struct {
	From ctdf.JourneyStateCode
	To   ctdf.JourneyStateCode
}

type ETACrossing struct {
	Schedule         *ctdf.NotificationSchedule
	StopName         string
	MinutesToArrival int
}

type DiffResult struct {
	DelayChanged bool
	DelayFrom    *int
	DelayTo      *int

	StatusTransition *StatusTransition

	ETACrossings []ETACrossing

	// Schedules for a target stop that is no longer tracked
	InvalidatedSchedules []*ctdf.NotificationSchedule

	// State to persist for the next poll
	NextState *ctdf.TrackedTrainState
}

// Diff compares the previous state of a tracked run with a new poll. The
// previous state is never modified; a nil previous state is a first
// observation and never fires delay or status alerts.
func Diff(previous *ctdf.TrackedTrainState, snapshot *ctdf.TrainSnapshot, journey ctdf.JourneyState, state ctdf.TimelineState, now int64) DiffResult {
	next := &ctdf.TrackedTrainState{}
	if previous != nil {
		if err := copier.CopyWithOption(next, previous, copier.Option{DeepCopy: true}); err != nil {
			log.Error().Err(err).Str("key", previous.TrackingKey).Msg("Failed to copy tracked state")
		}
	}
	if next.TrackingKey == "" {
		next.TrackingKey = ctdf.TrackingKey(snapshot.Number, snapshot.SelectionContext)
	}

	result := DiffResult{NextState: next}

	delay := CurrentDelay(snapshot, now)
	if previous != nil && previous.LastDelayMinutes != nil && delay != nil && *previous.LastDelayMinutes != *delay {
		result.DelayChanged = true
		result.DelayFrom = previous.LastDelayMinutes
		result.DelayTo = delay
	}

	if previous != nil && previous.LastJourneyStateCode != "" &&
		previous.LastJourneyStateCode != journey.Code && slices.Contains(alertStates, journey.Code) {
		result.StatusTransition = &StatusTransition{
			From: previous.LastJourneyStateCode,
			To:   journey.Code,
		}
	}

	result.InvalidatedSchedules, result.ETACrossings = etaCrossings(next, snapshot, now)

	if delay != nil {
		next.LastDelayMinutes = delay
	}
	next.LastJourneyStateCode = journey.Code
	next.LastNextStopName = ""
	if index := timeline.NextStopIndex(snapshot.Stops, state); index >= 0 {
		next.LastNextStopName = snapshot.Stops[index].StationName
	}
	next.LastUpdatedEpochMs = now

	return result
}

// etaCrossings drops schedules for a stale target from next and adds one
// for every threshold the target's arrival has just come within.
func etaCrossings(next *ctdf.TrackedTrainState, snapshot *ctdf.TrainSnapshot, now int64) ([]*ctdf.NotificationSchedule, []ETACrossing) {
	var invalidated []*ctdf.NotificationSchedule
	var crossings []ETACrossing

	target := next.Target
	kept := next.Schedules[:0]

	for _, schedule := range next.Schedules {
		if target == nil || schedule.StopIdentity != target.Identity() {
			invalidated = append(invalidated, schedule)
			continue
		}

		kept = append(kept, schedule)
	}
	next.Schedules = kept

	if target == nil {
		return invalidated, nil
	}

	index := TargetIndex(snapshot.Stops, target)
	if index == -1 || snapshot.Stops[index].IsSuppressed {
		return invalidated, nil
	}

	stop := snapshot.Stops[index]
	if _, arrived := stop.Arrival.Real(); arrived {
		return invalidated, nil
	}

	arrival, ok := timeline.PredictedArrival(stop, snapshot.GlobalDelayMinutes)
	if !ok || arrival < now {
		return invalidated, nil
	}

	thresholds := util.RemoveDuplicateInts(target.ThresholdsMinutes)
	slices.Sort(thresholds)

	for _, threshold := range thresholds {
		if threshold <= 0 || arrival-now > util.MinutesToMs(threshold) {
			continue
		}

		schedule := &ctdf.NotificationSchedule{
			StopIdentity:     target.Identity(),
			ThresholdMinutes: threshold,
			ArrivalEpochMs:   arrival,
		}

		if slices.ContainsFunc(next.Schedules, func(existing *ctdf.NotificationSchedule) bool {
			return existing.Key(next.TrackingKey) == schedule.Key(next.TrackingKey)
		}) {
			continue
		}

		next.Schedules = append(next.Schedules, schedule)

		// Several thresholds crossed in one poll only alert for the closest
		if len(crossings) > 0 {
			continue
		}

		crossings = append(crossings, ETACrossing{
			Schedule:         schedule,
			StopName:         stop.StationName,
			MinutesToArrival: util.MsToMinutes(arrival - now),
		})
	}

	return invalidated, crossings
}

// CurrentDelay is the run wide delay, or the delay at the furthest stop
// with a confirmed time when the backend did not report one.
func CurrentDelay(snapshot *ctdf.TrainSnapshot, now int64) *int {
	if snapshot.GlobalDelayMinutes != nil {
		delay := *snapshot.GlobalDelayMinutes
		return &delay
	}

	index := snapshot.LastEvidenceIndex(now)
	if index == -1 {
		return nil
	}

	delay, ok := ctdf.EffectiveDelay(snapshot.Stops[index], nil)
	if !ok {
		return nil
	}

	return &delay
}

// TargetIndex finds the tracked stop by code, then by name.
func TargetIndex(stops []*ctdf.StopRecord, target *ctdf.TrackedTarget) int {
	for i, stop := range stops {
		if target.StationCode != "" && strings.EqualFold(stop.StationCode, target.StationCode) {
			return i
		}
	}

	for i, stop := range stops {
		if strings.EqualFold(stop.StationName, strings.TrimSpace(target.StationName)) {
			return i
		}
	}

	return -1
}
