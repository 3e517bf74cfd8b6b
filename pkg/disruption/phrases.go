package disruption

import (
	"regexp"
	"strings"

	"github.com/travigo/treni/pkg/stations"
)

// PartialBoundary is what a notice says about where a run stops running.
// Any field may be empty when the text does not mention it.
type PartialBoundary struct {
	CancelledFrom string
	CancelledTo   string
	TerminatedAt  string
}

func (b PartialBoundary) IsEmpty() bool {
	return b.CancelledFrom == "" && b.CancelledTo == "" && b.TerminatedAt == ""
}

// merge fills the fields of b that are still empty from other
func (b PartialBoundary) merge(other PartialBoundary) PartialBoundary {
	if b.CancelledFrom == "" {
		b.CancelledFrom = other.CancelledFrom
	}
	if b.CancelledTo == "" {
		b.CancelledTo = other.CancelledTo
	}
	if b.TerminatedAt == "" {
		b.TerminatedAt = other.TerminatedAt
	}

	return b
}

const (
	stationPattern = `([\p{L}\d][\p{L}\d.'’ -]*?)`
	phraseEnd      = `(?:[.,;:](?:\s|$)|\s*[()]|\s+anzich[eé]|\s+(?:per|causa|a causa|dovut[oa]|due|because|invece|instead|alle|ore|at \d)\b|$)`

	cancelVerbs = `(?:cancellat[oaie]|soppress[oaie]|cancell?ed|suppressed|interrott[oaie]|non effettuat[oaie])`
	endVerbs    = `(?:limitat[oaie]|limited|termina(?:\s+la\s+(?:propria\s+)?corsa)?|terminates|terminated|ends|fermo|ferma|interrott[oaie])`
)

var (
	// "cancellato da Milano a Roma", "soppresso nel tratto tra Bologna e Firenze"
	segmentPhrase = regexp.MustCompile(`(?i)` + cancelVerbs + `\b[^.;]*?\b(?:da|tra|fra|from|between)\s+` + stationPattern + `\s+(?:a|ad|e|ed|to|and)\s+` + stationPattern + phraseEnd)

	// "limitato a Bologna", "termina la corsa a Firenze", "terminates at Prato"
	terminationPhrase = regexp.MustCompile(`(?i)` + endVerbs + `\s+(?:a|ad|in|at|to|presso)\s+` + stationPattern + phraseEnd)

	// "cancellato da Bologna"
	cancelledFromPhrase = regexp.MustCompile(`(?i)` + cancelVerbs + `\s+(?:da|from)\s+` + stationPattern + phraseEnd)
)

// ParsePhrases extracts a boundary from one free text notice. Not finding a
// boundary is not an error: callers fall back to the stop list.
func ParsePhrases(text string) (PartialBoundary, bool) {
	text = strings.Join(strings.Fields(text), " ")

	var boundary PartialBoundary

	if matches := segmentPhrase.FindStringSubmatch(text); matches != nil {
		boundary.CancelledFrom = stations.NormaliseName(matches[1])
		boundary.CancelledTo = stations.NormaliseName(matches[2])
	} else if matches := cancelledFromPhrase.FindStringSubmatch(text); matches != nil {
		boundary.CancelledFrom = stations.NormaliseName(matches[1])
	}

	if matches := terminationPhrase.FindStringSubmatch(text); matches != nil {
		boundary.TerminatedAt = stations.NormaliseName(matches[1])
	}

	return boundary, !boundary.IsEmpty()
}

// parseAll merges the boundaries found across every notice, earlier
// notices winning.
func parseAll(texts []string) (PartialBoundary, bool) {
	var boundary PartialBoundary

	for _, text := range texts {
		if found, ok := ParsePhrases(text); ok {
			boundary = boundary.merge(found)
		}
	}

	return boundary, !boundary.IsEmpty()
}
