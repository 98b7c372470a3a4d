// Package mobility loads weekly per-identity schedules and infers where an
// identity probably is at a given moment.
package mobility

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Clock is a time of day with nanosecond resolution.
type Clock struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// ParseClock parses a 24-hour HH:MM value.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// SinceMidnight returns the time elapsed since midnight.
func (c Clock) SinceMidnight() time.Duration {
	return time.Duration(c.Hour)*time.Hour +
		time.Duration(c.Minute)*time.Minute +
		time.Duration(c.Second)*time.Second +
		time.Duration(c.Nanosecond)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Entry is one schedule row: identity is at Place on Days between Start and End.
type Entry struct {
	Identity  string   `json:"identity"`
	PlaceName string   `json:"place_name"`
	PlaceType string   `json:"place_type"`
	Days      []string `json:"days"`
	Start     Clock    `json:"-"`
	End       Clock    `json:"-"`
	Weight    float64  `json:"weight"`
	// Line is the source line the entry was read from.
	Line int `json:"-"`
}

// WrapsMidnight reports whether the window spans midnight (e.g. 22:00 to 06:00).
func (e Entry) WrapsMidnight() bool {
	return e.Start.SinceMidnight() > e.End.SinceMidnight()
}

// OnDay reports whether the weekday abbreviation (Mon..Sun) is listed in Days.
func (e Entry) OnDay(day string) bool {
	return slices.Contains(e.Days, day)
}

// InWindow reports whether c falls in [Start, End], both bounds inclusive.
func (e Entry) InWindow(c Clock) bool {
	t, start, end := c.SinceMidnight(), e.Start.SinceMidnight(), e.End.SinceMidnight()
	if start <= end {
		return start <= t && t <= end
	}
	return t >= start || t <= end
}

// ActiveAt reports whether the entry applies at now. The weekday is taken from
// now itself, so a wrapped window only continues past midnight when the next
// day is listed too.
func (e Entry) ActiveAt(now time.Time) bool {
	return e.OnDay(now.Format("Mon")) && e.InWindow(ClockOf(now))
}

// Window formats the time window as "HH:MM-HH:MM".
func (e Entry) Window() string {
	return e.Start.String() + "-" + e.End.String()
}
