// Package schedule holds the consultation calendar rules shared by the
// server and the booking client: the fixed daily slots, the booking
// horizon and the closed weekday.
package schedule

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultHorizonDays is how far ahead a consultation may be booked.
	DefaultHorizonDays = 30
	SlotMinutes        = 30
	DefaultTimezone    = "Asia/Kolkata"
)

// Slot is one bookable 30 minute window.
type Slot struct {
	Time     string `json:"time"`
	Label    string `json:"label"`
	Duration int    `json:"duration"`
}

var slots = buildSlots(17*60, 20*60)

func buildSlots(fromMinute, toMinute int) []Slot {
	var out []Slot
	for m := fromMinute; m+SlotMinutes <= toMinute; m += SlotMinutes {
		start := clock(m)
		end := clock(m + SlotMinutes)
		out = append(out, Slot{
			Time:     start.Format(TimeLayout),
			Label:    start.Format("3:04 PM") + " - " + end.Format("3:04 PM"),
			Duration: SlotMinutes,
		})
	}
	return out
}

func clock(minute int) time.Time {
	return time.Date(2000, 1, 1, minute/60, minute%60, 0, 0, time.UTC)
}

// Slots returns the six daily windows 17:00 through 19:30.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// FindSlot returns the slot starting at hhmm.
func FindSlot(hhmm string) (Slot, bool) {
	for _, s := range slots {
		if s.Time == hhmm {
			return s, true
		}
	}
	return Slot{}, false
}

// IsClosed reports whether no consultations are held on day.
func IsClosed(day time.Time) bool {
	return day.Weekday() == time.Sunday
}

// Calendar evaluates dates against "today" in a fixed location.
type Calendar struct {
	Location    *time.Location
	HorizonDays int
	Now         func() time.Time
}

// NewCalendar loads tz, falling back to a fixed +05:30 zone when the
// tz database is not available.
func NewCalendar(tz string, horizonDays int) *Calendar {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Calendar{Location: loc, HorizonDays: horizonDays, Now: time.Now}
}

// Today is midnight of the current day in the calendar location.
func (c *Calendar) Today() time.Time {
	now := c.now().In(c.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location)
}

// ParseDate parses YYYY-MM-DD as a day in the calendar location.
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, c.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// InHorizon reports whether day lies within [today, today+HorizonDays].
func (c *Calendar) InHorizon(day time.Time) bool {
	today := c.Today()
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.Location)
	last := today.AddDate(0, 0, c.HorizonDays)
	return !d.Before(today) && !d.After(last)
}

// StartOf returns the instant a slot on day begins.
func (c *Calendar) StartOf(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, c.Location), nil
}

// Started reports whether the slot on day has already begun.
func (c *Calendar) Started(day time.Time, hhmm string) bool {
	start, err := c.StartOf(day, hhmm)
	if err != nil {
		return true
	}
	return !c.now().Before(start)
}

// Current is the present instant in the calendar location.
func (c *Calendar) Current() time.Time {
	return c.now().In(c.Location)
}

func (c *Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
