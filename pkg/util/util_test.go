package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMsToMinutes(t *testing.T) {
	assert.Equal(t, 0, MsToMinutes(0))
	assert.Equal(t, 1, MsToMinutes(30*1000))
	assert.Equal(t, 0, MsToMinutes(29*1000))
	assert.Equal(t, -1, MsToMinutes(-30*1000))
	assert.Equal(t, 15, MsToMinutes(15*60*1000))
}

func TestAddTimeToDate(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Rome")
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, location)
	clock := time.Date(0, 1, 1, 10, 32, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 19, 10, 32, 0, 0, location), AddTimeToDate(date, clock))
}

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5}
	InPlaceFilter(&values, func(v int) bool { return v%2 == 1 })

	assert.Equal(t, []int{1, 3, 5}, values)
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "MILANO CENTRALE", CollapseSpaces("  MILANO \t CENTRALE "))
}
