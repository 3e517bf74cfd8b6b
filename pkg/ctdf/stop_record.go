package ctdf

import "github.com/travigo/treni/pkg/util"

type StopRecord struct {
	StationName string `groups:"basic"`
	StationCode string `groups:"basic" json:",omitempty"`

	Arrival   *StopEvent `groups:"basic" json:",omitempty"`
	Departure *StopEvent `groups:"basic" json:",omitempty"`

	Platform Platform `groups:"basic"`

	IsSuppressed bool `groups:"basic"`

	// Delay reported by the backend for this stop only
	DelayMinutes *int `groups:"detailed" json:",omitempty"`
}

// StopEvent holds the times of an arrival or departure in epoch milliseconds.
type StopEvent struct {
	ScheduledEpoch *int64 `groups:"basic" json:",omitempty"`
	PredictedEpoch *int64 `groups:"basic" json:",omitempty"`
	ActualEpoch    *int64 `groups:"basic" json:",omitempty"`
}

// Real returns the actual time if the backend confirmed it.
func (e *StopEvent) Real() (int64, bool) {
	if e == nil || e.ActualEpoch == nil {
		return 0, false
	}

	return *e.ActualEpoch, true
}

// RealBy reports whether a confirmed time exists at or before now.
func (e *StopEvent) RealBy(now int64) bool {
	actual, ok := e.Real()
	return ok && actual <= now
}

// Best returns the most authoritative known time: actual, then predicted, then scheduled.
func (e *StopEvent) Best() (int64, bool) {
	if e == nil {
		return 0, false
	}

	switch {
	case e.ActualEpoch != nil:
		return *e.ActualEpoch, true
	case e.PredictedEpoch != nil:
		return *e.PredictedEpoch, true
	case e.ScheduledEpoch != nil:
		return *e.ScheduledEpoch, true
	}

	return 0, false
}

func (e *StopEvent) IsEmpty() bool {
	return e == nil || (e.ScheduledEpoch == nil && e.PredictedEpoch == nil && e.ActualEpoch == nil)
}

type Platform struct {
	Planned string `groups:"basic" json:",omitempty"`
	Actual  string `groups:"basic" json:",omitempty"`
}

// Identity is the stable key of a stop used for notification schedules.
func (s *StopRecord) Identity() string {
	if s.StationCode != "" {
		return s.StationCode
	}

	return s.StationName
}

// HasRealEvidence is true when either event carries a confirmed time.
func (s *StopRecord) HasRealEvidence() bool {
	_, arrived := s.Arrival.Real()
	_, departed := s.Departure.Real()

	return arrived || departed
}

func Epoch(ms int64) *int64 {
	return &ms
}

func Minutes(m int) *int {
	return &m
}

// EffectiveDelay picks the delay used to predict times at a stop. The stop's
// own value wins when it is non-zero or the stop already has confirmed
// times; a delay derived from a confirmed arrival comes next; the train wide
// delay is only used while the stop has no confirmed time, because feeds
// keep reporting a stale zero at stops the train has not reached.
func EffectiveDelay(stop *StopRecord, global *int) (int, bool) {
	hasEvidence := stop.HasRealEvidence()

	if stop.DelayMinutes != nil && (*stop.DelayMinutes != 0 || hasEvidence || global == nil) {
		return *stop.DelayMinutes, true
	}

	if actual, ok := stop.Arrival.Real(); ok && stop.Arrival.ScheduledEpoch != nil {
		return util.MsToMinutes(actual - *stop.Arrival.ScheduledEpoch), true
	}

	if !hasEvidence && global != nil {
		return *global, true
	}

	if stop.DelayMinutes != nil {
		return *stop.DelayMinutes, true
	}

	return 0, false
}
