package poller

import (
	"time"

	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/treni/pkg/util"
)

const defaultInterval = "PT60S"

// IntervalFromEnvironment reads TRENI_POLL_INTERVAL as an ISO 8601
// duration, for example PT30S or PT2M.
func IntervalFromEnvironment() (time.Duration, error) {
	env := util.GetEnvironmentVariables()

	value := env["TRENI_POLL_INTERVAL"]
	if value == "" {
		value = defaultInterval
	}

	return ParseInterval(value, time.Now())
}

func ParseInterval(value string, from time.Time) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, err
	}

	return duration.Shift(from).Sub(from), nil
}
