package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/schema"
)

const runDayMs = int64(1792360800000) // 2026-10-19 00:00 Europe/Rome

func at(hour int, minute int) int64 {
	return runDayMs + int64(hour*60+minute)*60*1000
}

func testEngine(locale string) *Engine {
	engine := New(locale)
	engine.Adapter.Resolver.Now = func() time.Time {
		return time.UnixMilli(at(9, 20))
	}

	return engine
}

func fixture(t *testing.T, name string) []byte {
	payload, err := os.ReadFile(filepath.Join("..", "schema", "testdata", name))
	require.NoError(t, err)

	return payload
}

func TestProcessRunningTrain(t *testing.T) {
	outcome := testEngine("it").Process(fixture(t, "journey_9544.json"), ctdf.SelectionContext{}, at(9, 20))

	require.Equal(t, schema.KindTrain, outcome.Kind)
	require.NotNil(t, outcome.Snapshot)
	assert.Equal(t, ctdf.DisruptionTypeNone, outcome.Snapshot.Disruption.Type)
	assert.Equal(t, ctdf.JourneyStateRunning, outcome.Journey.Code)
	assert.Equal(t, "In viaggio", outcome.Journey.Label)

	// Arrived at Bologna, departure not confirmed yet
	assert.Equal(t, ctdf.TimelineModeStopped, outcome.Timeline.Mode)
	assert.Equal(t, 1, outcome.Timeline.CurrentIndex)
	assert.False(t, outcome.IsError())
}

func TestProcessEquivalentShapesAgree(t *testing.T) {
	engine := testEngine("en")

	journey := engine.Process(fixture(t, "journey_9544.json"), ctdf.SelectionContext{}, at(9, 20))
	andamento := engine.Process(fixture(t, "andamento_9544.json"), ctdf.SelectionContext{}, at(9, 20))

	assert.Equal(t, journey.Journey, andamento.Journey)
	assert.Equal(t, journey.Timeline, andamento.Timeline)
	assert.Equal(t, "Running", journey.Journey.Label)
}

func TestProcessCompletedRun(t *testing.T) {
	payload := []byte(`{
		"train": {"number": "2101", "category": "RV", "origin": "BRESCIA", "destination": "MILANO CENTRALE"},
		"stops": [
			{"station": "BRESCIA", "departure": {"scheduled": "2026-10-19T07:00:00+02:00", "actual": "2026-10-19T07:01:00+02:00"}},
			{"station": "MILANO CENTRALE", "arrival": {"scheduled": "2026-10-19T08:00:00+02:00", "actual": "2026-10-19T08:04:00+02:00"}}
		]
	}`)

	outcome := testEngine("it").Process(payload, ctdf.SelectionContext{}, at(9, 20))

	require.Equal(t, schema.KindTrain, outcome.Kind)
	assert.Equal(t, ctdf.TimelineModeDone, outcome.Timeline.Mode)
	assert.Equal(t, ctdf.JourneyStateCompleted, outcome.Journey.Code)
	assert.Equal(t, "Arrivato", outcome.Journey.Label)
}

func TestProcessFullSuppression(t *testing.T) {
	payload := []byte(`{
		"train": {
			"number": "2101", "category": "RV", "origin": "BRESCIA", "destination": "MILANO CENTRALE",
			"status": {"cancelled": true, "subtitle": "Treno cancellato"}
		},
		"stops": [
			{"station": "BRESCIA", "departure": {"scheduled": "2026-10-19T10:00:00+02:00"}},
			{"station": "MILANO CENTRALE", "arrival": {"scheduled": "2026-10-19T11:00:00+02:00"}}
		]
	}`)

	outcome := testEngine("it").Process(payload, ctdf.SelectionContext{}, at(9, 20))

	require.Equal(t, schema.KindTrain, outcome.Kind)
	assert.Equal(t, ctdf.DisruptionTypeFullSuppression, outcome.Snapshot.Disruption.Type)
	assert.Equal(t, ctdf.JourneyStateCancelled, outcome.Journey.Code)
	for _, stop := range outcome.Snapshot.Stops {
		assert.True(t, stop.IsSuppressed, stop.StationName)
	}
}

func TestProcessSelection(t *testing.T) {
	outcome := testEngine("it").Process(fixture(t, "autocomplete_9544.txt"), ctdf.SelectionContext{}, at(9, 20))

	assert.Equal(t, schema.KindSelection, outcome.Kind)
	assert.Nil(t, outcome.Snapshot)
	require.Len(t, outcome.Choices, 2)
	assert.NotEqual(t, outcome.Choices[0].SelectionContext, outcome.Choices[1].SelectionContext)
}

func TestProcessEmptyAndError(t *testing.T) {
	empty := testEngine("it").Process([]byte("[]"), ctdf.SelectionContext{}, at(9, 20))
	assert.Equal(t, schema.KindEmpty, empty.Kind)
	assert.ErrorIs(t, empty.Err, ctdf.ErrNoData)
	assert.False(t, empty.IsError())

	broken := testEngine("it").Process([]byte(`{"foo": "bar"}`), ctdf.SelectionContext{}, at(9, 20))
	assert.Equal(t, schema.KindError, broken.Kind)
	assert.True(t, broken.IsError())

	var upstreamError *ctdf.UpstreamError
	assert.True(t, errors.As(broken.Err, &upstreamError))
}

func TestProcessIsIdempotent(t *testing.T) {
	engine := testEngine("it")
	payload := fixture(t, "journey_9544.json")

	first := engine.Process(payload, ctdf.SelectionContext{}, at(9, 20))
	second := engine.Process(payload, ctdf.SelectionContext{}, at(9, 20))

	assert.Equal(t, first.Journey, second.Journey)
	assert.Equal(t, first.Timeline, second.Timeline)
	assert.Equal(t, first.Snapshot, second.Snapshot)

	again, _ := engine.Evaluate(first.Snapshot, at(9, 20))
	assert.Equal(t, first.Journey, again)
}

func TestProcessParallel(t *testing.T) {
	engine := testEngine("it")
	payload := fixture(t, "journey_9544.json")
	expected := engine.Process(payload, ctdf.SelectionContext{}, at(9, 20))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			outcome := engine.Process(payload, ctdf.SelectionContext{}, at(9, 20))
			assert.Equal(t, expected.Timeline, outcome.Timeline)
		}()
	}
	wg.Wait()
}
