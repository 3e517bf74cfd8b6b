package schema

import (
	"strings"

	"github.com/travigo/treni/pkg/ctdf"
)

// journeyDetector handles the envelope served by the newer proxy API:
// {"train": {...}, "stops": [...]}, {"choices": [...]} or {"error": "..."}.
type journeyDetector struct{}

type journeyEnvelope struct {
	Train   optional[journeyTrain] `json:"train"`
	Stops   list[journeyStop]      `json:"stops"`
	Choices list[journeyChoice]    `json:"choices"`
	Error   text                   `json:"error"`
}

type journeyTrain struct {
	Number      any  `json:"number"`
	Category    text `json:"category"`
	Origin      text `json:"origin"`
	Destination text `json:"destination"`

	DelayMinutes any  `json:"delayMinutes"`
	DelayText    text `json:"delayText"`

	Status optional[journeyStatus] `json:"status"`

	LastDetection optional[struct {
		Station text `json:"station"`
		Time    any  `json:"time"`
	}] `json:"lastDetection"`

	Context optional[journeyContext] `json:"context"`
}

type journeyStatus struct {
	Cancelled       flag  `json:"cancelled"`
	Partial         flag  `json:"partial"`
	Subtitle        text  `json:"subtitle"`
	Variation       text  `json:"variation"`
	Notices         texts `json:"notices"`
	SuppressedStops texts `json:"suppressedStops"`
}

type journeyContext struct {
	TechnicalID text `json:"technicalId"`
	OriginCode  text `json:"originCode"`
	Timestamp   any  `json:"timestamp"`
	Date        text `json:"date"`
}

type journeyStop struct {
	Station text `json:"station"`
	Code    text `json:"code"`

	Arrival   optional[journeyTimes] `json:"arrival"`
	Departure optional[journeyTimes] `json:"departure"`

	Platform optional[struct {
		Planned text `json:"planned"`
		Actual  text `json:"actual"`
	}] `json:"platform"`

	Suppressed   flag `json:"suppressed"`
	Type         text `json:"type"`
	DelayMinutes any  `json:"delayMinutes"`
}

type journeyTimes struct {
	Scheduled any `json:"scheduled"`
	Predicted any `json:"predicted"`
	Actual    any `json:"actual"`
}

type journeyChoice struct {
	Label text `json:"label"`
	journeyContext
}

func (journeyDetector) Name() string {
	return "journey"
}

func (journeyDetector) Detect(p *Probe) bool {
	return p.Has("train") || p.Has("choices") || p.Has("error")
}

func (journeyDetector) Extract(p *Probe, x *Extractor) Result {
	var envelope journeyEnvelope
	if err := p.Decode(&envelope); err != nil {
		return upstreamError("malformed journey payload: %s", err)
	}

	if envelope.Error != "" {
		return upstreamError("%s", envelope.Error)
	}

	if !envelope.Train.Set {
		if len(envelope.Choices) == 0 {
			return emptyResult()
		}

		var choices []ctdf.Choice
		for _, choice := range envelope.Choices {
			choices = append(choices, ctdf.Choice{
				Label:            strings.TrimSpace(string(choice.Label)),
				SelectionContext: choice.journeyContext.selection(x),
			})
		}

		return Result{Kind: KindSelection, Choices: choices}
	}

	train := envelope.Train.Value
	status := train.Status.Value
	runContext := train.Context.Value

	raw := rawTrain{
		Number:      train.Number,
		KindLabel:   string(train.Category),
		Origin:      string(train.Origin),
		Destination: string(train.Destination),

		Delay:     train.DelayMinutes,
		DelayText: []string{string(train.DelayText)},

		Evidence: ctdf.DisruptionEvidence{
			CancelledFlag:   bool(status.Cancelled),
			PartialFlag:     bool(status.Partial),
			Subtitle:        string(status.Subtitle),
			VariationText:   string(status.Variation),
			Notices:         status.Notices,
			SuppressedStops: status.SuppressedStops,
		},

		LastDetectionStation: string(train.LastDetection.Value.Station),
		LastDetectionTime:    train.LastDetection.Value.Time,

		Selection:  runContext.selection(x),
		AnchorRaws: []any{runContext.Timestamp, string(runContext.Date)},
	}

	for _, stop := range envelope.Stops {
		rawStop := rawStop{
			Name:            string(stop.Station),
			Code:            string(stop.Code),
			PlatformPlanned: string(stop.Platform.Value.Planned),
			PlatformActual:  string(stop.Platform.Value.Actual),
			Suppressed:      bool(stop.Suppressed),
			TypeMarker:      string(stop.Type),
			Delay:           stop.DelayMinutes,
		}

		if stop.Arrival.Set {
			rawStop.ArrivalScheduled = stop.Arrival.Value.Scheduled
			rawStop.ArrivalPredicted = stop.Arrival.Value.Predicted
			rawStop.ArrivalActual = stop.Arrival.Value.Actual
		}
		if stop.Departure.Set {
			rawStop.DepartureScheduled = stop.Departure.Value.Scheduled
			rawStop.DeparturePredicted = stop.Departure.Value.Predicted
			rawStop.DepartureActual = stop.Departure.Value.Actual
		}

		raw.Stops = append(raw.Stops, rawStop)
	}

	return x.Build(raw)
}

func (c journeyContext) selection(x *Extractor) ctdf.SelectionContext {
	return ctdf.SelectionContext{
		TechnicalID:          strings.TrimSpace(string(c.TechnicalID)),
		OriginCode:           strings.TrimSpace(string(c.OriginCode)),
		ReferenceTimestampMs: epochPointer(x.Resolver, c.Timestamp),
		Date:                 strings.TrimSpace(string(c.Date)),
	}
}
