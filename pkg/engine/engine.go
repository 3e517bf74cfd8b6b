// Package engine chains the schema adapter, the disruption detector, the
// journey state classifier and the timeline into a single call per poll.
package engine

import (
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/disruption"
	"github.com/travigo/treni/pkg/journeystate"
	"github.com/travigo/treni/pkg/schema"
	"github.com/travigo/treni/pkg/timeline"
)

// Outcome is everything a caller needs to render one poll of a run. Only
// the fields matching Kind are set.
type Outcome struct {
	Kind  schema.Kind `groups:"basic"`
	Shape string      `groups:"internal"`

	Snapshot *ctdf.TrainSnapshot `groups:"basic" json:",omitempty"`
	Journey  ctdf.JourneyState   `groups:"basic"`
	Timeline ctdf.TimelineState  `groups:"basic"`

	Choices []ctdf.Choice `groups:"basic" json:",omitempty"`

	Message string `groups:"basic" json:",omitempty"`
	Err     error  `groups:"internal" json:"-"`
}

// Engine holds no per-request state, one instance can serve any number of
// goroutines.
type Engine struct {
	Adapter    *schema.Adapter
	Classifier *journeystate.Classifier
}

func New(locale string) *Engine {
	return &Engine{
		Adapter:    schema.NewAdapter(),
		Classifier: journeystate.NewClassifier(locale),
	}
}

var defaultEngine = New("it")

func Process(payload []byte, request ctdf.SelectionContext, now int64) Outcome {
	return defaultEngine.Process(payload, request, now)
}

// Process adapts a raw backend payload and, when it describes a single run,
// classifies it and places it on its stop list as of now.
func (e *Engine) Process(payload []byte, request ctdf.SelectionContext, now int64) Outcome {
	result := e.Adapter.Adapt(payload, request)

	outcome := Outcome{
		Kind:    result.Kind,
		Shape:   result.Shape,
		Choices: result.Choices,
		Message: result.Message,
		Err:     result.Err,
	}

	if result.Kind != schema.KindTrain || result.Snapshot == nil {
		return outcome
	}

	outcome.Snapshot = result.Snapshot
	outcome.Journey, outcome.Timeline = e.Evaluate(result.Snapshot, now)

	return outcome
}

// Evaluate runs the post adaptation stages on a snapshot. The snapshot's
// disruption and suppressed stops are updated in place.
func (e *Engine) Evaluate(snapshot *ctdf.TrainSnapshot, now int64) (ctdf.JourneyState, ctdf.TimelineState) {
	snapshot.Disruption = disruption.Detect(snapshot)
	disruption.MarkSuppressed(snapshot)

	journey := e.Classifier.Classify(snapshot, now)
	state := timeline.Compute(snapshot.Stops, journey.Code, snapshot.GlobalDelayMinutes, now)

	return e.Classifier.Effective(journey, state), state
}

// IsError reports whether the outcome should be shown to the user as a
// failure. Cancelled requests never are.
func (o Outcome) IsError() bool {
	return o.Kind == schema.KindError && !ctdf.IsCancelled(o.Err)
}
