// Package timeutil implements the posting-window math used by the
// scheduler and dispatcher.
//
// All instants passing through this package are UTC; the configured
// timezone is consulted only to find local day boundaries and window
// edges, which are then converted back. Windows whose end is at or before
// their start wrap past local midnight.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoWindowSpacingSeconds is the per-chat spacing applied when no posting
// window is configured.
const NoWindowSpacingSeconds = 1800

// ParseHHMM parses a 24-hour "HH:MM" string.
func ParseHHMM(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(value, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", value)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// ValidHHMM reports whether value is a well-formed 24-hour "HH:MM".
func ValidHHMM(value string) bool {
	_, _, err := ParseHHMM(value)
	return err == nil
}

// Window is a daily local-time posting interval. The zero value is not
// usable; construct with NewWindow.
type Window struct {
	startHour, startMin int
	endHour, endMin     int
}

// NewWindow builds a Window from "HH:MM" edges.
func NewWindow(start, end string) (Window, error) {
	var w Window
	var err error
	if w.startHour, w.startMin, err = ParseHHMM(start); err != nil {
		return Window{}, err
	}
	if w.endHour, w.endMin, err = ParseHHMM(end); err != nil {
		return Window{}, err
	}
	return w, nil
}

// BoundsOn returns the window edges as local instants on ref's local day.
// When the window wraps, the end lands on the following day.
func (w Window) BoundsOn(ref time.Time, loc *time.Location) (start, end time.Time) {
	local := ref.In(loc)
	y, m, d := local.Date()
	start = time.Date(y, m, d, w.startHour, w.startMin, 0, 0, loc)
	end = time.Date(y, m, d, w.endHour, w.endMin, 0, 0, loc)
	if !end.After(start) {
		end = time.Date(y, m, d+1, w.endHour, w.endMin, 0, 0, loc)
	}
	return start, end
}

// Contains reports whether t falls inside the window on t's local day.
// Both edges are inclusive.
func (w Window) Contains(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	start, end := w.BoundsOn(local, loc)
	return !local.Before(start) && !local.After(end)
}

// NextStart returns the earliest instant at or after `after` that lies
// within the window: today's start when `after` precedes it, `after`
// itself when already inside, otherwise tomorrow's start. UTC in, UTC out.
func (w Window) NextStart(after time.Time, loc *time.Location) time.Time {
	local := after.In(loc)
	start, end := w.BoundsOn(local, loc)
	if !local.After(start) {
		return start.UTC()
	}
	if !local.After(end) {
		return after.UTC()
	}
	y, m, d := local.Date()
	nextDay := time.Date(y, m, d+1, w.startHour, w.startMin, 0, 0, loc)
	return nextDay.UTC()
}

// DurationSeconds is the window length with the wrap adjustment, floored
// at five minutes.
func (w Window) DurationSeconds() int {
	startMinutes := w.startHour*60 + w.startMin
	endMinutes := w.endHour*60 + w.endMin
	if endMinutes <= startMinutes {
		endMinutes += 24 * 60
	}
	seconds := (endMinutes - startMinutes) * 60
	if seconds < 300 {
		seconds = 300
	}
	return seconds
}

// SpacingSeconds derives the minimum per-chat spacing from the daily post
// target, floored at three minutes.
func (w Window) SpacingSeconds(dailyPostTarget int) int {
	if dailyPostTarget < 1 {
		dailyPostTarget = 1
	}
	spacing := w.DurationSeconds() / dailyPostTarget
	if spacing < 180 {
		spacing = 180
	}
	return spacing
}

// DayBoundsUTC returns the UTC window edges on ref's local day, the range
// the daily sent/queued counts are taken over.
func (w Window) DayBoundsUTC(ref time.Time, loc *time.Location) (start, end time.Time) {
	s, e := w.BoundsOn(ref.In(loc), loc)
	return s.UTC(), e.UTC()
}
