package schema

import "github.com/travigo/treni/pkg/ctdf"

// minimalDetector accepts an unknown JSON object as long as it names a
// train number, producing a best effort snapshot without stops.
type minimalDetector struct{}

var minimalNumberKeys = []string{"trainNumber", "numeroTreno", "numero", "number"}

type minimalTrain struct {
	TrainNumber any  `json:"trainNumber"`
	Numero      any  `json:"numero"`
	Number      any  `json:"number"`
	Category    text `json:"category"`
	Categoria   text `json:"categoria"`
	Origin      text `json:"origin"`
	Destination text `json:"destination"`
	Delay       any  `json:"delay"`
}

func (minimalDetector) Name() string {
	return "minimal"
}

func (minimalDetector) Detect(p *Probe) bool {
	for _, key := range minimalNumberKeys {
		if p.Has(key) {
			return true
		}
	}

	return false
}

func (minimalDetector) Extract(p *Probe, x *Extractor) Result {
	var train minimalTrain
	if err := p.Decode(&train); err != nil {
		return upstreamError("malformed payload: %s", err)
	}

	number := train.TrainNumber
	for _, candidate := range []any{train.Numero, train.Number} {
		if stringValue(number) == "" {
			number = candidate
		}
	}

	return x.Build(rawTrain{
		Number:      number,
		KindLabel:   firstNonEmpty(train.Category, train.Categoria),
		Origin:      string(train.Origin),
		Destination: string(train.Destination),
		Delay:       train.Delay,
		Evidence:    ctdf.DisruptionEvidence{},
	})
}
