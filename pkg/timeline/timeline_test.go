package timeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
)

const tenAM = int64(1792396800000) // 2026-10-19 10:00 Europe/Rome

func at(minutes int) int64 {
	return tenAM + int64(minutes)*60*1000
}

func TestComputeMovingScenario(t *testing.T) {
	stops := []*ctdf.StopRecord{
		{
			StationName: "Origin",
			Departure:   &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(0)), ActualEpoch: ctdf.Epoch(at(2))},
		},
		{
			StationName: "Mid",
			Arrival:     &ctdf.StopEvent{PredictedEpoch: ctdf.Epoch(at(30))},
			Departure:   &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(32))},
		},
		{
			StationName: "End",
			Arrival:     &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(60))},
		},
	}

	state := Compute(stops, ctdf.JourneyStateRunning, ctdf.Minutes(2), at(15))

	assert.Equal(t, ctdf.TimelineModeMoving, state.Mode)
	assert.Equal(t, 0, state.CurrentIndex)
	require.NotNil(t, state.ActiveSegment)
	assert.Equal(t, 0, state.ActiveSegment.FromIndex)
	assert.Equal(t, 1, state.ActiveSegment.ToIndex)
	assert.InDelta(t, 0.46, state.ActiveSegment.Progress, 0.01)
}

// line is a four stop run where each stop is an hour apart and confirmed
// times are only revealed once they are in the past.
func line(now int64, delay int) []*ctdf.StopRecord {
	var stops []*ctdf.StopRecord

	for i := 0; i < 4; i++ {
		stop := &ctdf.StopRecord{StationName: []string{"Milano Centrale", "Bologna Centrale", "Firenze Santa Maria Novella", "Roma Termini"}[i]}
		arrival := at(i*60 + delay)
		departure := at(i*60 + 2 + delay)

		if i > 0 {
			stop.Arrival = &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(i * 60))}
			if arrival <= now {
				stop.Arrival.ActualEpoch = ctdf.Epoch(arrival)
			}
		}
		if i < 3 {
			stop.Departure = &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(i*60 + 2))}
			if departure <= now {
				stop.Departure.ActualEpoch = ctdf.Epoch(departure)
			}
		}

		stops = append(stops, stop)
	}

	return stops
}

func TestComputeModes(t *testing.T) {
	tests := []struct {
		name     string
		now      int64
		code     ctdf.JourneyStateCode
		mode     ctdf.TimelineMode
		index    int
		segment  bool
		fromStop int
		toStop   int
	}{
		{"before departure", at(-10), ctdf.JourneyStateRunning, ctdf.TimelineModeUnknown, -1, false, 0, 0},
		{"left origin", at(10), ctdf.JourneyStateRunning, ctdf.TimelineModeMoving, 0, true, 0, 1},
		{"standing at bologna", at(61), ctdf.JourneyStateRunning, ctdf.TimelineModeStopped, 1, false, 0, 0},
		{"between florence and rome", at(150), ctdf.JourneyStateRunning, ctdf.TimelineModeMoving, 2, true, 2, 3},
		{"arrived", at(200), ctdf.JourneyStateRunning, ctdf.TimelineModeDone, 3, false, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := Compute(line(tc.now, 0), tc.code, nil, tc.now)

			assert.Equal(t, tc.mode, state.Mode)
			assert.Equal(t, tc.index, state.CurrentIndex)

			if !tc.segment {
				assert.Nil(t, state.ActiveSegment)
				return
			}

			require.NotNil(t, state.ActiveSegment)
			assert.Equal(t, tc.fromStop, state.ActiveSegment.FromIndex)
			assert.Equal(t, tc.toStop, state.ActiveSegment.ToIndex)
		})
	}
}

func TestComputePlanned(t *testing.T) {
	stops := line(at(-30), 0)

	state := Compute(stops, ctdf.JourneyStatePlanned, nil, at(-30))
	assert.Equal(t, ctdf.TimelineModePre, state.Mode)
	assert.Equal(t, -1, state.CurrentIndex)

	stops[0].Platform.Actual = "7"
	state = Compute(stops, ctdf.JourneyStatePlanned, nil, at(-30))
	assert.Equal(t, ctdf.TimelineModePre, state.Mode)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Nil(t, state.ActiveSegment)

	assert.Equal(t, -1, Compute(nil, ctdf.JourneyStatePlanned, nil, at(0)).CurrentIndex)
}

func TestComputeFutureActualIsIgnored(t *testing.T) {
	stops := line(at(10), 0)
	stops[1].Arrival.ActualEpoch = ctdf.Epoch(at(58))

	state := Compute(stops, ctdf.JourneyStateRunning, nil, at(10))

	assert.Equal(t, ctdf.TimelineModeMoving, state.Mode)
	assert.Equal(t, 0, state.CurrentIndex)
}

func TestComputeOverdueSegmentIsCapped(t *testing.T) {
	state := Compute(line(at(59), 0), ctdf.JourneyStateRunning, nil, at(90))

	require.NotNil(t, state.ActiveSegment)
	assert.Equal(t, unconfirmedProgressCap, state.ActiveSegment.Progress)
}

func TestComputeSuppressedStopsAreSkipped(t *testing.T) {
	stops := line(at(70), 0)
	stops[2].IsSuppressed = true

	state := Compute(stops, ctdf.JourneyStateRunning, nil, at(70))

	require.NotNil(t, state.ActiveSegment)
	assert.Equal(t, 1, state.ActiveSegment.FromIndex)
	assert.Equal(t, 3, state.ActiveSegment.ToIndex)
}

func TestComputeTerminatedRunIsDone(t *testing.T) {
	stops := line(at(61), 0)
	stops[2].IsSuppressed = true
	stops[3].IsSuppressed = true

	state := Compute(stops, ctdf.JourneyStatePartial, nil, at(61))

	assert.Equal(t, ctdf.TimelineModeDone, state.Mode)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestProgressIsBounded(t *testing.T) {
	random := rand.New(rand.NewSource(19))

	for i := 0; i < 500; i++ {
		delay := random.Intn(90) - 10
		now := at(random.Intn(300) - 30)

		stops := line(now, delay)
		if random.Intn(3) == 0 {
			// Predictions that contradict the confirmed departure
			stops[1].Arrival.PredictedEpoch = ctdf.Epoch(at(random.Intn(60) - 60))
		}

		state := Compute(stops, ctdf.JourneyStateRunning, ctdf.Minutes(random.Intn(40)), now)
		if state.ActiveSegment == nil {
			continue
		}

		assert.GreaterOrEqual(t, state.ActiveSegment.Progress, 0.0)
		assert.LessOrEqual(t, state.ActiveSegment.Progress, 1.0)
	}
}

func TestCurrentIndexNeverRegresses(t *testing.T) {
	previous := -1

	for minute := 0; minute <= 200; minute += 3 {
		now := at(minute)
		stops := line(now, 7)

		// Feeds sometimes drop a confirmed departure already reported
		if minute%9 == 0 && stops[0].Departure.ActualEpoch != nil && minute > 80 {
			stops[0].Departure.ActualEpoch = nil
		}

		state := Compute(stops, ctdf.JourneyStateRunning, ctdf.Minutes(7), now)
		if state.CurrentIndex == -1 {
			continue
		}

		assert.GreaterOrEqual(t, state.CurrentIndex, previous, "regressed at minute %d", minute)
		previous = state.CurrentIndex
	}

	assert.Equal(t, 3, previous)
}

func TestPredictedArrival(t *testing.T) {
	stop := &ctdf.StopRecord{
		StationName: "Bologna Centrale",
		Arrival:     &ctdf.StopEvent{ScheduledEpoch: ctdf.Epoch(at(60))},
	}

	arrival, ok := PredictedArrival(stop, ctdf.Minutes(4))
	assert.True(t, ok)
	assert.Equal(t, at(64), arrival)

	stop.DelayMinutes = ctdf.Minutes(9)
	arrival, _ = PredictedArrival(stop, ctdf.Minutes(4))
	assert.Equal(t, at(69), arrival)

	stop.Arrival.ActualEpoch = ctdf.Epoch(at(71))
	arrival, _ = PredictedArrival(stop, ctdf.Minutes(4))
	assert.Equal(t, at(71), arrival)

	_, ok = PredictedArrival(&ctdf.StopRecord{StationName: "Milano Centrale"}, nil)
	assert.False(t, ok)
}

func TestNextStopIndex(t *testing.T) {
	stops := line(at(61), 0)

	assert.Equal(t, 2, NextStopIndex(stops, ctdf.TimelineState{Mode: ctdf.TimelineModeStopped, CurrentIndex: 1}))
	assert.Equal(t, 3, NextStopIndex(stops, ctdf.TimelineState{
		Mode:          ctdf.TimelineModeMoving,
		CurrentIndex:  2,
		ActiveSegment: &ctdf.ActiveSegment{FromIndex: 2, ToIndex: 3},
	}))
	assert.Equal(t, -1, NextStopIndex(stops, ctdf.TimelineState{Mode: ctdf.TimelineModeDone, CurrentIndex: 3}))
	assert.Equal(t, 2, NextStopIndex(stops, ctdf.TimelineState{Mode: ctdf.TimelineModeUnknown, CurrentIndex: -1}))
}
