package ctdf

// TrainSnapshot is the schema independent status of one run.
type TrainSnapshot struct {
	Number      string `groups:"basic"`
	KindLabel   string `groups:"basic"`
	Origin      string `groups:"basic"`
	Destination string `groups:"basic"`

	Stops []*StopRecord `groups:"basic"`

	GlobalDelayMinutes *int `groups:"basic" json:",omitempty"`

	Disruption DisruptionInfo     `groups:"basic"`
	Evidence   DisruptionEvidence `groups:"internal" json:"-"`

	LastDetection LastDetection `groups:"basic"`

	SelectionContext SelectionContext `groups:"detailed"`
}

type LastDetection struct {
	StationName string `groups:"basic" json:",omitempty"`
	EpochMs     *int64 `groups:"basic" json:",omitempty"`
}

// PastCount is the number of stops with a confirmed arrival or departure.
func (t *TrainSnapshot) PastCount() int {
	count := 0
	for _, stop := range t.Stops {
		if stop.HasRealEvidence() {
			count++
		}
	}

	return count
}

// LastEvidenceIndex returns the index of the furthest stop with a confirmed
// time at or before now, or -1.
func (t *TrainSnapshot) LastEvidenceIndex(now int64) int {
	return LastEvidenceIndex(t.Stops, now)
}

func LastEvidenceIndex(stops []*StopRecord, now int64) int {
	last := -1
	for i, stop := range stops {
		if stop.Arrival.RealBy(now) || stop.Departure.RealBy(now) {
			last = i
		}
	}

	return last
}

// HasDeparted is true if the origin has a confirmed departure or any stop
// has a confirmed arrival. A confirmed departure further down the line
// counts as well, even when the feed lost the matching arrival.
func (t *TrainSnapshot) HasDeparted() bool {
	for _, stop := range t.Stops {
		if stop.HasRealEvidence() {
			return true
		}
	}

	return false
}

// ScheduledDeparture is the timetabled departure from the origin.
func (t *TrainSnapshot) ScheduledDeparture() (int64, bool) {
	if len(t.Stops) == 0 || t.Stops[0].Departure == nil || t.Stops[0].Departure.ScheduledEpoch == nil {
		return 0, false
	}

	return *t.Stops[0].Departure.ScheduledEpoch, true
}

func (t *TrainSnapshot) StopIndexByName(name string) int {
	for i, stop := range t.Stops {
		if stop.StationName == name {
			return i
		}
	}

	return -1
}
