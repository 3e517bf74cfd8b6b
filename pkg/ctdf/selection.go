package ctdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var TrackingKeyFormat = "TRACK:%s:%s:%s"

// SelectionContext carries the identifiers needed to request the same
// specific run again.
type SelectionContext struct {
	Choice               *int   `groups:"basic" json:",omitempty" bson:",omitempty"`
	TechnicalID          string `groups:"basic" json:",omitempty" bson:",omitempty"`
	OriginCode           string `groups:"basic" json:",omitempty" bson:",omitempty"`
	ReferenceTimestampMs *int64 `groups:"basic" json:",omitempty" bson:",omitempty"`
	Date                 string `groups:"basic" json:",omitempty" bson:",omitempty"`
}

type Choice struct {
	Label            string           `groups:"basic"`
	SelectionContext SelectionContext `groups:"basic"`
}

// ParseTechnicalID splits the NUMBER-ORIGINCODE-TIMESTAMP identifier used by
// ViaggiaTreno. Missing parts are returned empty.
func ParseTechnicalID(technicalID string) (number string, originCode string, timestamp *int64) {
	parts := strings.Split(strings.TrimSpace(technicalID), "-")

	if len(parts) > 0 {
		number = parts[0]
	}
	if len(parts) > 1 {
		originCode = parts[1]
	}
	if len(parts) > 2 {
		if n, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			timestamp = &n
		}
	}

	return
}

// Resolved fills empty fields from the technical identifier without
// overriding values that were given explicitly.
func (s SelectionContext) Resolved() SelectionContext {
	if s.TechnicalID == "" {
		return s
	}

	_, originCode, timestamp := ParseTechnicalID(s.TechnicalID)
	if s.OriginCode == "" {
		s.OriginCode = originCode
	}
	if s.ReferenceTimestampMs == nil {
		s.ReferenceTimestampMs = timestamp
	}

	return s
}

// runDateLayouts are the encodings backends use for a run's calendar day.
var runDateLayouts = []string{"2006-01-02", "20060102", "02/01/2006", "02/01/06", "2006/01/02"}

// RunDate is the Europe/Rome calendar day the run belongs to, formatted as
// 2006-01-02, or empty. The reference timestamp wins over the date text.
func (s SelectionContext) RunDate() string {
	if s.ReferenceTimestampMs != nil {
		return time.UnixMilli(*s.ReferenceTimestampMs).In(RomeLocation).Format("2006-01-02")
	}

	date := strings.TrimSpace(s.Date)
	if date == "" {
		return ""
	}

	if parsed, err := time.Parse(time.RFC3339, date); err == nil {
		return parsed.In(RomeLocation).Format("2006-01-02")
	}
	for _, layout := range runDateLayouts {
		if parsed, err := time.ParseInLocation(layout, date, RomeLocation); err == nil {
			return parsed.Format("2006-01-02")
		}
	}

	return date
}

// TrackingKey derives the stable persistence key of a run. Identical runs
// map to the same key whichever optional identifiers were present.
func TrackingKey(number string, selection SelectionContext) string {
	selection = selection.Resolved()

	if number == "" && selection.TechnicalID != "" {
		number, _, _ = ParseTechnicalID(selection.TechnicalID)
	}

	origin := selection.OriginCode
	date := selection.RunDate()

	if origin == "" && date == "" && selection.Choice != nil {
		origin = fmt.Sprintf("choice%d", *selection.Choice)
	}

	if origin == "" {
		origin = "-"
	}
	if date == "" {
		date = "-"
	}

	return fmt.Sprintf(TrackingKeyFormat, strings.TrimSpace(number), strings.ToUpper(origin), date)
}
