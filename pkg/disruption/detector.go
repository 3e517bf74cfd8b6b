// Package disruption classifies a snapshot's cancellation evidence into no
// disruption, a full suppression or a cancelled segment.
package disruption

import (
	"regexp"
	"strings"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/stations"
)

var (
	cancellationStems = []string{"cancell", "soppress"}
	partialStems      = []string{"limitat", "termina", "fermo a", "interrott"}

	// Notices about single skipped stops are partial evidence, they do not
	// cancel the run
	stopSuppressionPhrase = regexp.MustCompile(`(?i)\bfermat[ae]\b[^.;]*?\b(?:soppress|cancellat)\w*|\b(?:soppress|cancellat)\w*\s+(?:la|le)\s+fermat[ae]\b|\bstops?\b[^.;]*?\b(?:cancell?ed|suppressed)\b`)
)

// Detect classifies the disruption evidence of a snapshot. It never mutates
// the snapshot.
func Detect(snapshot *ctdf.TrainSnapshot) ctdf.DisruptionInfo {
	evidence := snapshot.Evidence
	texts := evidence.Texts()

	info := ctdf.DisruptionInfo{
		Type:       ctdf.DisruptionTypeNone,
		ReasonText: strings.Join(texts, "; "),
	}

	var runTexts []string
	for _, text := range texts {
		runTexts = append(runTexts, stopSuppressionPhrase.ReplaceAllString(text, " "))
	}

	cancelled := evidence.CancelledFlag || containsStem(runTexts, cancellationStems)
	partial := !cancelled && (evidence.PartialFlag ||
		containsStem(texts, partialStems) ||
		containsStem(texts, cancellationStems) ||
		len(evidence.SuppressedStops) > 0 ||
		anySuppressed(snapshot.Stops))

	switch {
	case cancelled && !snapshot.HasDeparted():
		info.Type = ctdf.DisruptionTypeFullSuppression
		info.CancelledFromStation = snapshot.Origin
		info.CancelledToStation = snapshot.Destination
	case cancelled || partial:
		info.Type = ctdf.DisruptionTypeSegment
		boundary := segmentBoundary(snapshot, texts)
		info.TerminatedAtStation = boundary.TerminatedAt
		info.CancelledFromStation = boundary.CancelledFrom
		info.CancelledToStation = boundary.CancelledTo
	}

	return info
}

// segmentBoundary tries the notices first, then the span of suppressed
// stops, then the furthest stop with a confirmed time.
func segmentBoundary(snapshot *ctdf.TrainSnapshot, texts []string) PartialBoundary {
	if boundary, ok := parseAll(texts); ok {
		return completeBoundary(snapshot, boundary)
	}

	if boundary, ok := suppressedSpan(snapshot); ok {
		return boundary
	}

	boundary, _ := lastEvidenceBoundary(snapshot)

	return boundary
}

// completeBoundary fills what a notice left implicit: a run limited at a
// station is cancelled from there to its destination, and a run cancelled up
// to its destination terminates where the cancellation starts.
func completeBoundary(snapshot *ctdf.TrainSnapshot, boundary PartialBoundary) PartialBoundary {
	switch {
	case boundary.CancelledFrom == "" && boundary.TerminatedAt != "":
		boundary.CancelledFrom = boundary.TerminatedAt
	case boundary.TerminatedAt == "" && boundary.CancelledFrom != "" &&
		(boundary.CancelledTo == "" || isDestination(snapshot, boundary.CancelledTo)):
		boundary.TerminatedAt = boundary.CancelledFrom
	}

	if boundary.CancelledTo == "" {
		boundary.CancelledTo = snapshot.Destination
	}

	return boundary
}

// suppressedSpan turns the first run of suppressed stops into a boundary:
// the last served stop before it and the first served stop after it, or the
// destination when the run never resumes.
func suppressedSpan(snapshot *ctdf.TrainSnapshot) (PartialBoundary, bool) {
	first, last := -1, -1
	for i, stop := range snapshot.Stops {
		if !stop.IsSuppressed {
			if first != -1 {
				break
			}
			continue
		}

		if first == -1 {
			first = i
		}
		last = i
	}

	if first == -1 {
		return PartialBoundary{}, false
	}

	stops := snapshot.Stops
	var boundary PartialBoundary

	if first > 0 {
		boundary.CancelledFrom = stops[first-1].StationName
	} else {
		boundary.CancelledFrom = stops[first].StationName
	}

	if last < len(stops)-1 {
		boundary.CancelledTo = stops[last+1].StationName
	} else {
		boundary.CancelledTo = stops[last].StationName
		boundary.TerminatedAt = boundary.CancelledFrom
	}

	return boundary, true
}

func lastEvidenceBoundary(snapshot *ctdf.TrainSnapshot) (PartialBoundary, bool) {
	last := -1
	for i, stop := range snapshot.Stops {
		if stop.HasRealEvidence() {
			last = i
		}
	}

	if last == -1 {
		return PartialBoundary{}, false
	}

	name := snapshot.Stops[last].StationName

	return PartialBoundary{
		CancelledFrom: name,
		TerminatedAt:  name,
		CancelledTo:   snapshot.Destination,
	}, true
}

// MarkSuppressed flags the stops a segment cancellation skips: everything
// after the termination station, or the stops strictly between the two
// boundary stations when the run resumes. Stops with a confirmed time are
// never flagged.
func MarkSuppressed(snapshot *ctdf.TrainSnapshot) {
	info := snapshot.Disruption

	from, to := -1, len(snapshot.Stops)

	switch info.Type {
	case ctdf.DisruptionTypeFullSuppression:
		from = -1
	case ctdf.DisruptionTypeSegment:
		if info.TerminatedAtStation != "" {
			from = StopIndex(snapshot.Stops, info.TerminatedAtStation)
		} else {
			from = StopIndex(snapshot.Stops, info.CancelledFromStation)
			to = StopIndex(snapshot.Stops, info.CancelledToStation)
		}

		if from == -1 || to == -1 || to <= from {
			return
		}
	default:
		return
	}

	for i := from + 1; i < to; i++ {
		if !snapshot.Stops[i].HasRealEvidence() {
			snapshot.Stops[i].IsSuppressed = true
		}
	}
}

// StopIndex finds the stop a notice refers to. Notices often shorten names
// ("Milano" for "Milano Centrale"), so a whole word prefix also matches.
func StopIndex(stops []*ctdf.StopRecord, name string) int {
	if name == "" {
		return -1
	}

	for i, stop := range stops {
		if sameStation(stop.StationName, name) {
			return i
		}
	}

	code, hasCode := stations.Default().CodeForName(name)
	for i, stop := range stops {
		if hasCode && stop.StationCode == code {
			return i
		}
	}

	prefix := strings.ToUpper(name) + " "
	for i, stop := range stops {
		if strings.HasPrefix(strings.ToUpper(stop.StationName)+" ", prefix) {
			return i
		}
	}

	return -1
}

func isDestination(snapshot *ctdf.TrainSnapshot, name string) bool {
	if sameStation(name, snapshot.Destination) {
		return true
	}

	return len(snapshot.Stops) > 0 && StopIndex(snapshot.Stops, name) == len(snapshot.Stops)-1
}

func sameStation(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsStem(texts []string, stems []string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, stem := range stems {
			if strings.Contains(lower, stem) {
				return true
			}
		}
	}

	return false
}

func anySuppressed(stops []*ctdf.StopRecord) bool {
	for _, stop := range stops {
		if stop.IsSuppressed {
			return true
		}
	}

	return false
}
