package ctdf

type JourneyStateCode string

const (
	JourneyStatePlanned   JourneyStateCode = "PLANNED"
	JourneyStateRunning   JourneyStateCode = "RUNNING"
	JourneyStatePartial   JourneyStateCode = "PARTIAL"
	JourneyStateCancelled JourneyStateCode = "CANCELLED"
	JourneyStateCompleted JourneyStateCode = "COMPLETED"
	JourneyStateUnknown   JourneyStateCode = "UNKNOWN"
)

type JourneyState struct {
	Code  JourneyStateCode `groups:"basic"`
	Label string           `groups:"basic"`

	MinutesToDeparture *int `groups:"basic" json:",omitempty"`
}

// IsTerminal reports whether no further updates are expected for the run.
func (c JourneyStateCode) IsTerminal() bool {
	return c == JourneyStateCancelled || c == JourneyStateCompleted
}
