package ctdf

type TimelineMode string

const (
	TimelineModePre     TimelineMode = "PRE"
	TimelineModeStopped TimelineMode = "STOPPED"
	TimelineModeMoving  TimelineMode = "MOVING"
	TimelineModeDone    TimelineMode = "DONE"
	TimelineModeUnknown TimelineMode = "UNKNOWN"
)

type TimelineState struct {
	Mode         TimelineMode `groups:"basic"`
	CurrentIndex int          `groups:"basic"`

	ActiveSegment *ActiveSegment `groups:"basic" json:",omitempty"`
}

type ActiveSegment struct {
	FromIndex int     `groups:"basic"`
	ToIndex   int     `groups:"basic"`
	Progress  float64 `groups:"basic"`
}
