package scale

import (
	"errors"
	"time"

	"github.com/couchcryptid/precip-chart/internal/domain"
)

// ErrNoData is returned when the selected field has no numeric value anywhere
// in the dataset, which would otherwise produce a [0, 0] value domain.
var ErrNoData = errors.New("no data for selected field")

// Scales is the pair of mapping functions for one render.
type Scales struct {
	X Time
	Y Linear
}

// Manager derives scales from the view state and the dataset. The value
// domain always spans the full dataset, so a time zoom only rescales X.
type Manager struct {
	width  float64
	height float64
}

// NewManager creates a Manager for a plot area of the given size in pixels.
func NewManager(width, height float64) *Manager {
	return &Manager{width: width, height: height}
}

// PlotSize returns the plot area size.
func (m *Manager) PlotSize() (float64, float64) { return m.width, m.height }

// TimeScale builds the horizontal scale for a window.
func (m *Manager) TimeScale(start, end time.Time) Time {
	return NewTime(start, end, 0, m.width)
}

// ValueScale builds the vertical scale for f over the whole dataset.
func (m *Manager) ValueScale(ds *domain.Dataset, f domain.Field) (Linear, error) {
	maxVal, ok := ds.MaxValue(f)
	if !ok {
		return Linear{}, ErrNoData
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	return NewLinear(0, maxVal, m.height, 0), nil
}

// Compute returns both scales for the view. The X scale is valid even when
// the error is ErrNoData.
func (m *Manager) Compute(ds *domain.Dataset, view domain.ViewState) (Scales, error) {
	x := m.TimeScale(view.Start, view.End)
	y, err := m.ValueScale(ds, view.Variable)
	if err != nil {
		return Scales{X: x}, err
	}
	return Scales{X: x, Y: y}, nil
}
