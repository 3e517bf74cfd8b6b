package schema

import "github.com/travigo/treni/pkg/ctdf"

// emptyDetector recognises a backend that answered without any train.
type emptyDetector struct{}

func (emptyDetector) Name() string {
	return "empty"
}

func (emptyDetector) Detect(p *Probe) bool {
	if len(p.Raw) == 0 || p.Text == "null" {
		return true
	}

	return p.IsJSON && len(p.Object) == 0 && len(p.Array) == 0
}

func (emptyDetector) Extract(_ *Probe, _ *Extractor) Result {
	return emptyResult()
}

func emptyResult() Result {
	return Result{
		Kind:    KindEmpty,
		Message: "no train found for this request",
		Err:     ctdf.ErrNoData,
	}
}
