package domain

import (
	"math"
	"time"
)

// Dataset is the merged, immutable collection of observations for every location.
type Dataset struct {
	observations []Observation
	LoadedAt     time.Time
}

// NewDataset wraps the merged observations. The slice must not be modified afterwards.
func NewDataset(observations []Observation) *Dataset {
	return &Dataset{
		observations: observations,
		LoadedAt:     clock.Now(),
	}
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.observations) }

// Observations returns the observations in load order.
func (d *Dataset) Observations() []Observation { return d.observations }

// LocationIDs returns the distinct location codes in first-occurrence order.
func (d *Dataset) LocationIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, o := range d.observations {
		if !seen[o.Location] {
			seen[o.Location] = true
			ids = append(ids, o.Location)
		}
	}
	return ids
}

// DateExtent returns the earliest and latest valid dates. ok is false when no
// observation has a valid date.
func (d *Dataset) DateExtent() (start, end time.Time, ok bool) {
	for _, o := range d.observations {
		if !o.HasDate() {
			continue
		}
		if !ok {
			start, end, ok = o.Date, o.Date, true
			continue
		}
		if o.Date.Before(start) {
			start = o.Date
		}
		if o.Date.After(end) {
			end = o.Date
		}
	}
	return start, end, ok
}

// MaxValue returns the maximum of f over the whole dataset, skipping NaN.
// ok is false when every value is NaN.
func (d *Dataset) MaxValue(f Field) (float64, bool) {
	maxVal := math.Inf(-1)
	ok := false
	for _, o := range d.observations {
		v := o.Value(f)
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if v > maxVal {
			maxVal = v
		}
	}
	if !ok {
		return 0, false
	}
	return maxVal, true
}
