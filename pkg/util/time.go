package util

import (
	"time"
)

func AddTimeToDate(date time.Time, sourceTime time.Time) time.Time {
	newDateTime := time.Date(date.Year(), date.Month(), date.Day(), sourceTime.Hour(), sourceTime.Minute(), sourceTime.Second(), sourceTime.Nanosecond(), date.Location())

	return newDateTime
}

const minuteMs = int64(time.Minute / time.Millisecond)

// MinutesToMs converts whole minutes into milliseconds.
func MinutesToMs(minutes int) int64 {
	return int64(minutes) * minuteMs
}

// MsToMinutes converts a millisecond span into minutes rounded half away from zero.
func MsToMinutes(ms int64) int {
	if ms < 0 {
		return -int((-ms + minuteMs/2) / minuteMs)
	}

	return int((ms + minuteMs/2) / minuteMs)
}
