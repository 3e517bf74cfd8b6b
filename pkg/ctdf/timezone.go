package ctdf

import (
	"time"

	_ "time/tzdata"
)

// RomeLocation is the wall clock every Italian rail backend reports in.
var RomeLocation = mustLoadLocation("Europe/Rome")

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}

	return location
}
