package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one CSV row before coercion. All cells are kept as text so that
// empty or malformed values can be mapped to NaN instead of failing the decode.
type RawRow struct {
	Date    string `csv:"date"`
	Actual  string `csv:"actual_precipitation"`
	Average string `csv:"average_precipitation"`
	Record  string `csv:"record_precipitation"`
}

// Observation is one day of precipitation data for a location.
type Observation struct {
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
	Actual   float64   `json:"actual_precipitation"`
	Average  float64   `json:"average_precipitation"`
	Record   float64   `json:"record_precipitation"`
}

// Value returns the observation's value for f. Unknown fields yield NaN.
func (o Observation) Value(f Field) float64 {
	switch f {
	case ActualPrecipitation:
		return o.Actual
	case AveragePrecipitation:
		return o.Average
	case RecordPrecipitation:
		return o.Record
	default:
		return math.NaN()
	}
}

// HasDate reports whether the date cell parsed.
func (o Observation) HasDate() bool {
	return !o.Date.IsZero()
}

// Defined reports whether the observation can be plotted for f.
func (o Observation) Defined(f Field) bool {
	return o.HasDate() && !math.IsNaN(o.Value(f))
}

// dateLayouts are tried in order. "2006-1-2" also accepts zero-padded months and days.
var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	time.RFC3339,
	"2006-1-2 15:04:05",
}

// ParseObservation coerces a raw row for the given location code.
func ParseObservation(location string, row RawRow) Observation {
	return Observation{
		Location: location,
		Date:     ParseDate(row.Date),
		Actual:   ParseNumber(row.Actual),
		Average:  ParseNumber(row.Average),
		Record:   ParseNumber(row.Record),
	}
}

// ParseDate parses a date cell in UTC, returning the zero time when no layout matches.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ParseNumber parses a numeric cell, returning NaN for empty or invalid text.
// Infinities are treated as invalid.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
