// Package timeresolver turns the timestamp encodings used by the Italian rail
// backends into epoch milliseconds.
package timeresolver

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/util"
)

const (
	minEpochMs = int64(946684800000)  // 2000-01-01
	maxEpochMs = int64(4102444800000) // 2100-01-01
)

var (
	wrappedEpochRegex = regexp.MustCompile(`^/?Date\((-?\d+)(?:[+-]\d{4})?\)/?$`)
	bareTimeRegex     = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?::(\d{2}))?$`)
)

var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/06 15:04",
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
}

type Resolver struct {
	Location *time.Location
	Now      func() time.Time
}

func New() *Resolver {
	return &Resolver{
		Location: ctdf.RomeLocation,
		Now:      time.Now,
	}
}

// Resolve converts raw into epoch milliseconds. Bare HH:mm values are
// anchored to baseDay, or to the current day when baseDay is nil. It never
// fails: unusable input reports false.
func (r *Resolver) Resolve(raw any, baseDay *time.Time) (int64, bool) {
	if epoch, ok := r.ResolveAbsolute(raw); ok {
		return epoch, true
	}

	text, ok := asString(raw)
	if !ok {
		return 0, false
	}

	clock, ok := parseBareTime(text)
	if !ok {
		return 0, false
	}

	day := r.today()
	if baseDay != nil {
		day = r.BaseDay(baseDay.UnixMilli())
	}

	return util.AddTimeToDate(day, clock).UnixMilli(), true
}

// ResolveAbsolute only accepts inputs that carry their own date.
func (r *Resolver) ResolveAbsolute(raw any) (int64, bool) {
	switch value := raw.(type) {
	case nil:
		return 0, false
	case *int64:
		if value == nil {
			return 0, false
		}
		return fromNumber(*value)
	case int64:
		return fromNumber(value)
	case int:
		return fromNumber(int64(value))
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, false
		}
		return fromNumber(int64(value))
	case json.Number:
		return r.ResolveAbsolute(string(value))
	case string:
		return r.parseAbsoluteString(value)
	}

	return 0, false
}

// BaseDay returns midnight of the local day containing epochMs.
func (r *Resolver) BaseDay(epochMs int64) time.Time {
	t := time.UnixMilli(epochMs).In(r.location())

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.location())
}

// FirstAbsolute returns the first value that resolves without an anchor day.
func (r *Resolver) FirstAbsolute(raws ...any) (int64, bool) {
	for _, raw := range raws {
		if epoch, ok := r.ResolveAbsolute(raw); ok {
			return epoch, true
		}
	}

	return 0, false
}

// AnchorDay is the base day for bare times: the day of the first absolute
// timestamp, otherwise today.
func (r *Resolver) AnchorDay(raws ...any) time.Time {
	if epoch, ok := r.FirstAbsolute(raws...); ok {
		return r.BaseDay(epoch)
	}

	return r.today()
}

func (r *Resolver) parseAbsoluteString(raw string) (int64, bool) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "--" || strings.EqualFold(text, "null") {
		return 0, false
	}

	if matches := wrappedEpochRegex.FindStringSubmatch(text); matches != nil {
		n, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return fromNumber(n)
	}

	if isDigits(text) {
		switch len(text) {
		case 8, 12, 14:
			return r.parseCompact(text)
		case 10, 13:
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return 0, false
			}
			return fromNumber(n)
		}

		return 0, false
	}

	for _, layout := range absoluteLayouts {
		var t time.Time
		var err error

		if strings.Contains(layout, "Z07") {
			t, err = time.Parse(layout, text)
		} else {
			t, err = time.ParseInLocation(layout, text, r.location())
		}

		if err == nil {
			return t.UnixMilli(), true
		}
	}

	return 0, false
}

// parseCompact reads YYYYMMDD[HHmm[ss]].
func (r *Resolver) parseCompact(text string) (int64, bool) {
	layout := map[int]string{
		8:  "20060102",
		12: "200601021504",
		14: "20060102150405",
	}[len(text)]

	t, err := time.ParseInLocation(layout, text, r.location())
	if err != nil {
		return 0, false
	}

	return t.UnixMilli(), true
}

func (r *Resolver) today() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	return r.BaseDay(now().UnixMilli())
}

func (r *Resolver) location() *time.Location {
	if r.Location == nil {
		return ctdf.RomeLocation
	}

	return r.Location
}

func fromNumber(n int64) (int64, bool) {
	switch {
	case n >= minEpochMs && n < maxEpochMs:
		return n, true
	case n >= minEpochMs/1000 && n < maxEpochMs/1000:
		return n * 1000, true
	}

	return 0, false
}

// parseBareTime accepts HH:mm, H:mm, HH.mm, HH:mm:ss and HHmm.
func parseBareTime(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)

	var hour, minute, second int

	if isDigits(text) && len(text) == 4 {
		hour, _ = strconv.Atoi(text[:2])
		minute, _ = strconv.Atoi(text[2:])
	} else if matches := bareTimeRegex.FindStringSubmatch(text); matches != nil {
		hour, _ = strconv.Atoi(matches[1])
		minute, _ = strconv.Atoi(matches[2])
		if matches[3] != "" {
			second, _ = strconv.Atoi(matches[3])
		}
	} else {
		return time.Time{}, false
	}

	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	return time.Date(0, 1, 1, hour, minute, second, 0, time.UTC), true
}

func asString(raw any) (string, bool) {
	switch value := raw.(type) {
	case string:
		return value, true
	case json.Number:
		return string(value), true
	}

	return "", false
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}

	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
