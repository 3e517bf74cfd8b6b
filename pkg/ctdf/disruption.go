package ctdf

type DisruptionType string

const (
	DisruptionTypeNone            DisruptionType = "NONE"
	DisruptionTypeFullSuppression DisruptionType = "FULL_SUPPRESSION"
	DisruptionTypeSegment         DisruptionType = "SEGMENT"
)

type DisruptionInfo struct {
	Type DisruptionType `groups:"basic"`

	TerminatedAtStation  string `groups:"basic" json:",omitempty"`
	CancelledFromStation string `groups:"basic" json:",omitempty"`
	CancelledToStation   string `groups:"basic" json:",omitempty"`

	ReasonText string `groups:"basic" json:",omitempty"`
}

// DisruptionEvidence is the raw, unclassified material a backend reports
// about cancellations. It is produced by the schema adapter and consumed by
// the disruption detector.
type DisruptionEvidence struct {
	CancelledFlag bool
	PartialFlag   bool

	Subtitle      string
	VariationText string
	Notices       []string

	SuppressedStops []string
}

func (e DisruptionEvidence) Texts() []string {
	var texts []string

	for _, text := range append([]string{e.Subtitle, e.VariationText}, e.Notices...) {
		if text != "" {
			texts = append(texts, text)
		}
	}

	return texts
}
