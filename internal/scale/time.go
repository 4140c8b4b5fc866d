package scale

import (
	"math"
	"time"
)

// Time maps a time window linearly onto a pixel range.
type Time struct {
	start, end time.Time
	r0, r1     float64
}

// NewTime creates a time scale mapping [start, end] onto [r0, r1].
func NewTime(start, end time.Time, r0, r1 float64) Time {
	return Time{start: start, end: end, r0: r0, r1: r1}
}

// Domain returns the visible window.
func (s Time) Domain() (time.Time, time.Time) { return s.start, s.end }

// Range returns the pixel range.
func (s Time) Range() (float64, float64) { return s.r0, s.r1 }

// Map converts a time to a pixel position. A zero-length domain maps
// everything to the middle of the range.
func (s Time) Map(t time.Time) float64 {
	span := s.end.Sub(s.start)
	if span <= 0 {
		return (s.r0 + s.r1) / 2
	}
	f := float64(t.Sub(s.start)) / float64(span)
	return s.r0 + f*(s.r1-s.r0)
}

// Invert converts a pixel position back to a time.
func (s Time) Invert(px float64) time.Time {
	if s.r1 == s.r0 {
		return s.start
	}
	f := (px - s.r0) / (s.r1 - s.r0)
	return s.start.Add(time.Duration(math.Round(f * float64(s.end.Sub(s.start)))))
}

// Tick is a labelled axis position.
type Tick struct {
	Pos   float64
	Label string
}

// MonthTicks returns one tick per calendar month start inside the domain,
// labelled "January 2006".
func (s Time) MonthTicks() []Tick {
	var ticks []Tick
	t := time.Date(s.start.Year(), s.start.Month(), 1, 0, 0, 0, 0, s.start.Location())
	if t.Before(s.start) {
		t = t.AddDate(0, 1, 0)
	}
	for ; !t.After(s.end); t = t.AddDate(0, 1, 0) {
		ticks = append(ticks, Tick{Pos: s.Map(t), Label: t.Format("January 2006")})
	}
	return ticks
}

type interval struct {
	approx time.Duration
	months int
	years  int
}

const approxDay = 24 * time.Hour

var intervals = []interval{
	{approx: time.Hour},
	{approx: 3 * time.Hour},
	{approx: 6 * time.Hour},
	{approx: 12 * time.Hour},
	{approx: approxDay},
	{approx: 2 * approxDay},
	{approx: 7 * approxDay},
	{approx: 30 * approxDay, months: 1},
	{approx: 91 * approxDay, months: 3},
	{approx: 365 * approxDay, years: 1},
}

// Ticks returns roughly n ticks at a calendar interval chosen from the span,
// labelled by granularity (year, month, day, or time of day).
func (s Time) Ticks(n int) []Tick {
	span := s.end.Sub(s.start)
	if span <= 0 || n <= 0 {
		return nil
	}
	iv := pickInterval(span / time.Duration(n))

	var ticks []Tick
	for t := floorTo(s.start, iv); !t.After(s.end); t = step(t, iv) {
		if t.Before(s.start) {
			continue
		}
		ticks = append(ticks, Tick{Pos: s.Map(t), Label: multiFormat(t)})
	}
	return ticks
}

func pickInterval(target time.Duration) interval {
	for i, iv := range intervals {
		if iv.approx < target {
			continue
		}
		if i > 0 && float64(target)/float64(intervals[i-1].approx) < float64(iv.approx)/float64(target) {
			return intervals[i-1]
		}
		return iv
	}
	return intervals[len(intervals)-1]
}

func floorTo(t time.Time, iv interval) time.Time {
	switch {
	case iv.years > 0:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case iv.months > 0:
		m := (int(t.Month())-1)/iv.months*iv.months + 1
		return time.Date(t.Year(), time.Month(m), 1, 0, 0, 0, 0, t.Location())
	case iv.approx == 7*approxDay:
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return d.AddDate(0, 0, -int(d.Weekday()))
	case iv.approx >= approxDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	default:
		return t.Truncate(iv.approx)
	}
}

func step(t time.Time, iv interval) time.Time {
	switch {
	case iv.years > 0:
		return t.AddDate(iv.years, 0, 0)
	case iv.months > 0:
		return t.AddDate(0, iv.months, 0)
	case iv.approx >= approxDay:
		return t.AddDate(0, 0, int(iv.approx/approxDay))
	default:
		return t.Add(iv.approx)
	}
}

func multiFormat(t time.Time) string {
	switch {
	case t.Hour() != 0 || t.Minute() != 0:
		return t.Format("15:04")
	case t.Day() != 1:
		return t.Format("Jan 02")
	case t.Month() != time.January:
		return t.Format("January")
	default:
		return t.Format("2006")
	}
}
