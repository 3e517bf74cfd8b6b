package ctdf

import (
	"encoding/json"
	"fmt"
)

// TrackedTrainState is persisted between polls of a tracked run.
type TrackedTrainState struct {
	TrackingKey string `json:"tracking_key"`

	LastDelayMinutes     *int             `json:"last_delay_minutes,omitempty"`
	LastJourneyStateCode JourneyStateCode `json:"last_journey_state_code,omitempty"`
	LastNextStopName     string           `json:"last_next_stop_name,omitempty"`
	LastUpdatedEpochMs   int64            `json:"last_updated_epoch_ms"`

	Target    *TrackedTarget          `json:"target,omitempty"`
	Schedules []*NotificationSchedule `json:"schedules,omitempty"`
}

func (s *TrackedTrainState) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *TrackedTrainState) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// TrackedTarget is the stop a user wants arrival reminders for.
type TrackedTarget struct {
	StationName string `json:"station_name" yaml:"StationName" groups:"basic"`
	StationCode string `json:"station_code,omitempty" yaml:"StationCode" groups:"basic"`

	ThresholdsMinutes []int `json:"thresholds_minutes" yaml:"ThresholdsMinutes" groups:"basic"`
}

func (t *TrackedTarget) Identity() string {
	if t.StationCode != "" {
		return t.StationCode
	}

	return t.StationName
}

// NotificationSchedule records a reminder already handed to the scheduler.
type NotificationSchedule struct {
	StopIdentity     string `json:"stop_identity"`
	ThresholdMinutes int    `json:"threshold_minutes"`
	ArrivalEpochMs   int64  `json:"arrival_epoch_ms"`
}

// Key is unique per (train, stop, threshold); rescheduling the same key
// replaces the previous schedule.
func (s *NotificationSchedule) Key(trackingKey string) string {
	return fmt.Sprintf("%s:%s:%d", trackingKey, s.StopIdentity, s.ThresholdMinutes)
}
