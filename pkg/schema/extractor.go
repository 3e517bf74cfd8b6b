package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/stations"
	"github.com/travigo/treni/pkg/timeresolver"
	"github.com/travigo/treni/pkg/util"
	"golang.org/x/exp/slices"
)

var (
	delayWithUnitRegex = regexp.MustCompile(`([+-]?)\s*(\d{1,4})\s*(?:min(?:uti|utes|uto|ute|s)?\.?|m\b|')`)
	onTimeRegex        = regexp.MustCompile(`\b(?:in orario|on time|puntuale)\b`)

	suppressedMarkers = []string{"3", "soppressa", "soppresso", "suppressed", "cancelled", "cancellata"}
)

const overnightRollback = 12 * time.Hour

// Extractor holds the shape independent reduction shared by every detector.
type Extractor struct {
	Resolver *timeresolver.Resolver
	Stations *stations.Registry
	Request  ctdf.SelectionContext
}

// rawTrain is what a detector pulls out of its shape before normalisation.
type rawTrain struct {
	Number      any
	KindLabel   string
	Origin      string
	Destination string

	Delay     any
	DelayText []string

	Evidence ctdf.DisruptionEvidence

	LastDetectionStation string
	LastDetectionTime    any

	Selection ctdf.SelectionContext

	// Absolute timestamps tried before the stop times when anchoring bare times
	AnchorRaws []any

	Stops []rawStop
}

type rawStop struct {
	Name string
	Code string

	ArrivalScheduled any
	ArrivalPredicted any
	ArrivalActual    any

	DepartureScheduled any
	DeparturePredicted any
	DepartureActual    any

	PlatformPlanned string
	PlatformActual  string

	Suppressed bool
	TypeMarker string

	Delay any
}

func (x *Extractor) Build(train rawTrain) Result {
	number := stringValue(train.Number)
	if number == "" && x.Request.TechnicalID != "" {
		number, _, _ = ctdf.ParseTechnicalID(x.Request.TechnicalID)
	}
	if number == "" {
		return upstreamError("payload has no train number")
	}

	snapshot := &ctdf.TrainSnapshot{
		Number:    number,
		KindLabel: strings.ToUpper(util.CollapseSpaces(train.KindLabel)),
	}

	evidence := train.Evidence
	evidence.Subtitle = util.CollapseSpaces(evidence.Subtitle)
	evidence.VariationText = util.CollapseSpaces(evidence.VariationText)
	evidence.Notices = util.RemoveDuplicateStrings(trimAll(evidence.Notices), nil)
	evidence.SuppressedStops = util.RemoveDuplicateStrings(normaliseAll(evidence.SuppressedStops), nil)
	snapshot.Evidence = evidence

	snapshot.GlobalDelayMinutes = resolveDelay(train.Delay, train.DelayText)

	anchor := x.Resolver.AnchorDay(append(train.AnchorRaws, stopTimes(train.Stops)...)...)
	sequence := &timeSequence{resolver: x.Resolver, anchor: anchor}

	for i, raw := range train.Stops {
		stop := &ctdf.StopRecord{
			StationName:  NormaliseStationName(raw.Name),
			StationCode:  strings.ToUpper(strings.TrimSpace(raw.Code)),
			DelayMinutes: resolveDelay(raw.Delay, nil),
			Platform: ctdf.Platform{
				Planned: cleanPlatform(raw.PlatformPlanned),
				Actual:  cleanPlatform(raw.PlatformActual),
			},
		}

		if stop.StationCode == "" {
			stop.StationCode, _ = x.Stations.CodeForName(stop.StationName)
		}

		arrival := sequence.event(raw.ArrivalScheduled, raw.ArrivalPredicted, raw.ArrivalActual)
		departure := sequence.event(raw.DepartureScheduled, raw.DeparturePredicted, raw.DepartureActual)

		if i > 0 && !arrival.IsEmpty() {
			stop.Arrival = arrival
		}
		if i < len(train.Stops)-1 && !departure.IsEmpty() {
			stop.Departure = departure
		}

		stop.IsSuppressed = raw.Suppressed ||
			slices.Contains(suppressedMarkers, strings.ToLower(strings.TrimSpace(raw.TypeMarker))) ||
			slices.Contains(evidence.SuppressedStops, stop.StationName)

		snapshot.Stops = append(snapshot.Stops, stop)
	}

	fillPredicted(snapshot)

	snapshot.Origin = NormaliseStationName(train.Origin)
	snapshot.Destination = NormaliseStationName(train.Destination)
	if len(snapshot.Stops) > 0 {
		if snapshot.Origin == "" {
			snapshot.Origin = snapshot.Stops[0].StationName
		}
		if snapshot.Destination == "" {
			snapshot.Destination = snapshot.Stops[len(snapshot.Stops)-1].StationName
		}
	}

	if station := NormaliseStationName(train.LastDetectionStation); station != "" && station != "--" {
		snapshot.LastDetection.StationName = station
	}
	// A bare sighting time earlier than the first stop belongs to the next day
	detection := &timeSequence{resolver: x.Resolver, anchor: anchor, previous: sequence.first}
	snapshot.LastDetection.EpochMs = detection.resolve(train.LastDetectionTime)

	snapshot.SelectionContext = x.selection(number, train.Selection)

	return Result{
		Kind:     KindTrain,
		Snapshot: snapshot,
	}
}

// selection echoes the request over what the payload carried and derives
// the remaining identifiers so equivalent payloads agree.
func (x *Extractor) selection(number string, extracted ctdf.SelectionContext) ctdf.SelectionContext {
	selection := x.Request

	if selection.TechnicalID == "" {
		selection.TechnicalID = extracted.TechnicalID
	}
	if selection.OriginCode == "" {
		selection.OriginCode = extracted.OriginCode
	}
	if selection.ReferenceTimestampMs == nil {
		selection.ReferenceTimestampMs = extracted.ReferenceTimestampMs
	}
	if selection.Date == "" {
		selection.Date = extracted.Date
	}

	selection = selection.Resolved()
	selection.OriginCode = strings.ToUpper(selection.OriginCode)

	if selection.TechnicalID == "" && selection.OriginCode != "" && selection.ReferenceTimestampMs != nil {
		selection.TechnicalID = fmt.Sprintf("%s-%s-%d", number, selection.OriginCode, *selection.ReferenceTimestampMs)
	}
	selection.Date = selection.RunDate()

	return selection
}

// timeSequence resolves stop times in timetable order, rolling bare times
// past midnight when they jump backwards.
type timeSequence struct {
	resolver *timeresolver.Resolver
	anchor   time.Time
	previous int64
	first    int64
}

func (s *timeSequence) resolve(raw any) *int64 {
	if epoch, ok := s.resolver.ResolveAbsolute(raw); ok {
		return &epoch
	}

	epoch, ok := s.resolver.Resolve(raw, &s.anchor)
	if !ok {
		return nil
	}

	if s.previous != 0 && epoch+overnightRollback.Milliseconds() < s.previous {
		epoch += (24 * time.Hour).Milliseconds()
	}

	return &epoch
}

func (s *timeSequence) event(scheduled any, predicted any, actual any) *ctdf.StopEvent {
	event := &ctdf.StopEvent{
		ScheduledEpoch: s.resolve(scheduled),
		PredictedEpoch: s.resolve(predicted),
		ActualEpoch:    s.resolve(actual),
	}

	if event.ActualEpoch != nil {
		event.PredictedEpoch = nil
	}

	if best, ok := event.Best(); ok && best > s.previous {
		s.previous = best
	}
	if event.ScheduledEpoch != nil && *event.ScheduledEpoch > s.previous {
		s.previous = *event.ScheduledEpoch
	}
	if s.first == 0 {
		s.first = s.previous
	}

	return event
}

// fillPredicted sets predicted = scheduled + effective delay on events
// without a confirmed time.
func fillPredicted(snapshot *ctdf.TrainSnapshot) {
	for _, stop := range snapshot.Stops {
		delay, ok := ctdf.EffectiveDelay(stop, snapshot.GlobalDelayMinutes)
		if !ok {
			continue
		}

		for _, event := range []*ctdf.StopEvent{stop.Arrival, stop.Departure} {
			if event == nil || event.ActualEpoch != nil || event.PredictedEpoch != nil || event.ScheduledEpoch == nil {
				continue
			}

			event.PredictedEpoch = ctdf.Epoch(*event.ScheduledEpoch + util.MinutesToMs(delay))
		}
	}
}

// resolveDelay takes the first explicit number, then the first text with a
// signed amount and a unit, otherwise reports absent.
func resolveDelay(value any, texts []string) *int {
	if minutes, ok := numericInt(value); ok {
		return &minutes
	}

	candidates := texts
	if text, ok := value.(string); ok {
		candidates = append([]string{text}, texts...)
	}

	for _, text := range candidates {
		if minutes, ok := ParseDelayText(text); ok {
			return &minutes
		}
	}

	return nil
}

// ParseDelayText reads delays such as "+5 min", "ritardo 5 min.",
// "anticipo 3'" or "in orario".
func ParseDelayText(text string) (int, bool) {
	lower := strings.ToLower(util.CollapseSpaces(text))
	if lower == "" {
		return 0, false
	}

	if matches := delayWithUnitRegex.FindStringSubmatch(lower); matches != nil {
		minutes, err := strconv.Atoi(matches[2])
		if err != nil {
			return 0, false
		}

		if matches[1] == "-" || strings.Contains(lower, "anticipo") || strings.Contains(lower, "early") {
			minutes = -minutes
		}

		return minutes, true
	}

	if onTimeRegex.MatchString(lower) {
		return 0, true
	}

	return 0, false
}

// NormaliseStationName is the station spelling used in snapshots.
func NormaliseStationName(name string) string {
	return stations.NormaliseName(name)
}

func normaliseAll(names []string) []string {
	normalised := make([]string, 0, len(names))
	for _, name := range names {
		normalised = append(normalised, NormaliseStationName(name))
	}

	return normalised
}

func trimAll(texts []string) []string {
	trimmed := make([]string, 0, len(texts))
	for _, text := range texts {
		trimmed = append(trimmed, util.CollapseSpaces(text))
	}

	return trimmed
}

func cleanPlatform(platform string) string {
	platform = util.CollapseSpaces(platform)
	if platform == "--" || platform == "0" {
		return ""
	}

	return platform
}

func stopTimes(stops []rawStop) []any {
	var raws []any
	for _, stop := range stops {
		raws = append(raws,
			stop.ArrivalScheduled, stop.ArrivalPredicted, stop.ArrivalActual,
			stop.DepartureScheduled, stop.DeparturePredicted, stop.DepartureActual,
		)
	}

	return raws
}

func numericInt(value any) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil {
			return int(math.Round(f)), true
		}
	case float64:
		return int(math.Round(v)), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}

	return 0, false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}

	return ""
}

func boolValue(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}

	if n, ok := numericInt(value); ok {
		return n != 0
	}

	return false
}

func epochPointer(resolver *timeresolver.Resolver, value any) *int64 {
	if epoch, ok := resolver.ResolveAbsolute(value); ok {
		return &epoch
	}

	return nil
}
