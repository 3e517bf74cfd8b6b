// Package schema recognises the response shapes of the supported rail
// backends and reduces each of them to a ctdf.TrainSnapshot.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/stations"
	"github.com/travigo/treni/pkg/timeresolver"
)

type Kind string

const (
	KindTrain     Kind = "train"
	KindSelection Kind = "selection"
	KindEmpty     Kind = "empty"
	KindError     Kind = "error"
)

type Result struct {
	Kind  Kind
	Shape string

	Snapshot *ctdf.TrainSnapshot
	Choices  []ctdf.Choice

	Message string
	Err     error
}

// Detector recognises one backend shape and extracts its fields.
type Detector interface {
	Name() string
	Detect(p *Probe) bool
	Extract(p *Probe, x *Extractor) Result
}

// DefaultDetectors is the fixed detection order: richest and most recent
// shape first, flattest last. A payload matching more than one shape always
// resolves to the earliest detector in this list.
func DefaultDetectors() []Detector {
	return []Detector{
		journeyDetector{},
		andamentoDetector{},
		legacyDetector{},
		autocompleteDetector{},
		minimalDetector{},
		emptyDetector{},
	}
}

type Adapter struct {
	Resolver  *timeresolver.Resolver
	Stations  *stations.Registry
	Detectors []Detector
}

func NewAdapter() *Adapter {
	return &Adapter{
		Resolver:  timeresolver.New(),
		Stations:  stations.Default(),
		Detectors: DefaultDetectors(),
	}
}

// Adapt maps a raw payload to exactly one result. The request context is
// only echoed into the snapshot's selection context.
func (a *Adapter) Adapt(payload []byte, request ctdf.SelectionContext) Result {
	probe := NewProbe(payload)
	extractor := &Extractor{
		Resolver: a.Resolver,
		Stations: a.Stations,
		Request:  request,
	}

	for _, detector := range a.Detectors {
		if !detector.Detect(probe) {
			continue
		}

		result := detector.Extract(probe, extractor)
		result.Shape = detector.Name()

		return result
	}

	return upstreamError("unrecognised payload shape")
}

func upstreamError(format string, args ...any) Result {
	message := fmt.Sprintf(format, args...)

	return Result{
		Kind:    KindError,
		Message: message,
		Err:     &ctdf.UpstreamError{Message: message},
	}
}

// Probe is a payload decoded just enough to decide which shape it is.
type Probe struct {
	Raw  []byte
	Text string

	Object map[string]json.RawMessage
	Array  []json.RawMessage

	IsJSON bool
}

func NewProbe(payload []byte) *Probe {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf")))

	probe := &Probe{
		Raw:  trimmed,
		Text: string(trimmed),
	}

	if len(trimmed) == 0 {
		return probe
	}

	switch trimmed[0] {
	case '{':
		if json.Unmarshal(trimmed, &probe.Object) == nil {
			probe.IsJSON = true
		}
	case '[':
		if json.Unmarshal(trimmed, &probe.Array) == nil {
			probe.IsJSON = true
		}
	case 'n':
		probe.IsJSON = string(trimmed) == "null"
	}

	return probe
}

func (p *Probe) Has(keys ...string) bool {
	if p.Object == nil {
		return false
	}

	for _, key := range keys {
		value, ok := p.Object[key]
		if !ok || string(value) == "null" {
			return false
		}
	}

	return true
}

// Decode unmarshals the whole payload keeping numbers as json.Number.
func (p *Probe) Decode(out any) error {
	return decodeJSON(p.Raw, out)
}

func (p *Probe) Lines() []string {
	var lines []string
	for _, line := range strings.Split(p.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
