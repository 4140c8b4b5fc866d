// Package interaction holds the transient hover state of the chart: which
// series is highlighted and where the tooltip sits.
package interaction

import (
	"math"
	"strconv"
	"time"
)

const (
	// DimmedOpacity is applied to every series except the hovered one.
	DimmedOpacity = 0.1
	// TooltipOpacity is the opacity of a visible tooltip.
	TooltipOpacity = 0.9

	TooltipFadeIn  = 200 * time.Millisecond
	TooltipFadeOut = 500 * time.Millisecond

	// tooltip offset from the pointer, in page pixels.
	offsetX = 5
	offsetY = -28
)

// Highlight is the hover state of the series paths. The zero value has no
// active series.
type Highlight struct {
	Active string
}

// Hover highlights the series for location id.
func Hover(id string) Highlight { return Highlight{Active: id} }

// Leave clears the highlight.
func Leave() Highlight { return Highlight{} }

// Opacity returns the opacity of the series for location id.
func (h Highlight) Opacity(id string) float64 {
	if h.Active == "" || h.Active == id {
		return 1
	}
	return DimmedOpacity
}

// Point is a plotted observation in plot-area pixel coordinates.
type Point struct {
	X, Y     float64
	Location string
	Date     time.Time
	Value    float64
}

// Nearest returns the point closest to (x, y) within radius pixels.
func Nearest(points []Point, x, y, radius float64) (Point, bool) {
	best := -1
	bestDist := radius * radius
	for i, p := range points {
		dx, dy := p.X-x, p.Y-y
		if d := dx*dx + dy*dy; d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Point{}, false
	}
	return points[best], true
}

// Tooltip is the positioned overlay for a hovered point.
type Tooltip struct {
	Visible  bool
	Left     float64
	Top      float64
	Opacity  float64
	Fade     time.Duration
	Location string
	Date     time.Time
	Value    float64
}

// Show positions a tooltip for p relative to the pointer's page coordinates.
func Show(p Point, pageX, pageY float64) Tooltip {
	return Tooltip{
		Visible:  true,
		Left:     pageX + offsetX,
		Top:      pageY + offsetY,
		Opacity:  TooltipOpacity,
		Fade:     TooltipFadeIn,
		Location: p.Location,
		Date:     p.Date,
		Value:    p.Value,
	}
}

// Hide fades the tooltip out.
func Hide() Tooltip {
	return Tooltip{Fade: TooltipFadeOut}
}

// Lines returns the tooltip text: location, date, value.
func (t Tooltip) Lines() []string {
	if !t.Visible {
		return nil
	}
	value := "NaN"
	if !math.IsNaN(t.Value) {
		value = strconv.FormatFloat(t.Value, 'f', -1, 64)
	}
	return []string{t.Location, t.Date.Format("Mon Jan 02 2006"), value}
}
