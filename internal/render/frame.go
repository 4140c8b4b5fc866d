// Package render turns series and scales into a drawable chart frame and
// writes it as SVG or PNG.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/interaction"
	"github.com/couchcryptid/precip-chart/internal/scale"
)

const (
	lineWidth = 1.5

	// ValueTicks is the number of ticks requested on the value axis.
	ValueTicks = 5
	// ZoomedTimeTicks is the number of ticks requested on the time axis after a zoom.
	ZoomedTimeTicks = 5

	legendRowHeight = 20
	legendTop       = 30
)

// Margin around the plot area, in pixels.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Layout is the outer chart size and its margins.
type Layout struct {
	Width, Height float64
	Margin        Margin
}

// DefaultLayout is a 1600x600 chart with room for the value axis on the left.
func DefaultLayout() Layout {
	return Layout{
		Width:  1600,
		Height: 600,
		Margin: Margin{Top: 10, Right: 30, Bottom: 30, Left: 60},
	}
}

// PlotWidth is the width of the area inside the margins.
func (l Layout) PlotWidth() float64 { return l.Width - l.Margin.Left - l.Margin.Right }

// PlotHeight is the height of the area inside the margins.
func (l Layout) PlotHeight() float64 { return l.Height - l.Margin.Top - l.Margin.Bottom }

// Path is one location's line. Segments are split wherever a value or date
// is undefined.
type Path struct {
	Location string
	Color    string
	Opacity  float64
	Segments [][]interaction.Point
	// From is the path geometry under the previous time scale while a
	// transition is running, empty otherwise.
	From string
}

// D returns the SVG path data.
func (p Path) D() string {
	return pathData(p.Segments, func(pt interaction.Point) (float64, float64) { return pt.X, pt.Y })
}

// PointCount returns the number of plotted points.
func (p Path) PointCount() int {
	n := 0
	for _, seg := range p.Segments {
		n += len(seg)
	}
	return n
}

// LegendItem is one swatch and label.
type LegendItem struct {
	Location domain.Location
	Color    string
	Y        float64
}

// Label is the legend text.
func (l LegendItem) Label() string { return l.Location.Label() }

// Frame is everything needed to draw the chart once.
type Frame struct {
	Layout     Layout
	Variable   domain.Field
	NoData     bool
	XStart     time.Time
	XEnd       time.Time
	YMax       float64
	Paths      []Path
	XTicks     []scale.Tick
	YTicks     []scale.Tick
	Legend     []LegendItem
	Highlight  string
	Transition time.Duration
}

// Label is the value axis label.
func (f Frame) Label() string { return f.Variable.Label() }

// Points returns every plotted point of every path.
func (f Frame) Points() []interaction.Point {
	var pts []interaction.Point
	for _, p := range f.Paths {
		for _, seg := range p.Segments {
			pts = append(pts, seg...)
		}
	}
	return pts
}

// Input collects what Build needs.
type Input struct {
	Layout    Layout
	Series    []domain.Series
	Locations []domain.Location
	Colors    domain.ColorAssignment
	Variable  domain.Field
	Scales    scale.Scales
	// NoData is set when the value scale could not be built.
	NoData    bool
	Highlight interaction.Highlight
	// Zoomed selects the compact time ticks used after a brush zoom instead
	// of one tick per month.
	Zoomed bool
	// From is the previous time scale when the view is transitioning.
	From       *scale.Time
	Transition time.Duration
}

// Build lays out a frame from series and scales.
func Build(in Input) Frame {
	start, end := in.Scales.X.Domain()
	f := Frame{
		Layout:    in.Layout,
		Variable:  in.Variable,
		NoData:    in.NoData,
		XStart:    start,
		XEnd:      end,
		Highlight: in.Highlight.Active,
	}

	if in.Zoomed {
		f.XTicks = in.Scales.X.Ticks(ZoomedTimeTicks)
	} else {
		f.XTicks = in.Scales.X.MonthTicks()
	}

	for i, loc := range in.Locations {
		f.Legend = append(f.Legend, LegendItem{
			Location: loc,
			Color:    in.Colors.Color(loc.Code),
			Y:        float64(i*legendRowHeight + legendTop),
		})
	}

	if in.NoData {
		return f
	}

	_, f.YMax = in.Scales.Y.Domain()
	f.YTicks = in.Scales.Y.Ticks(ValueTicks)

	for _, s := range in.Series {
		p := Path{
			Location: s.Location,
			Color:    in.Colors.Color(s.Location),
			Opacity:  in.Highlight.Opacity(s.Location),
			Segments: segments(s, in.Variable, in.Scales.X, in.Scales.Y),
		}
		if in.From != nil && in.Transition > 0 {
			prev := *in.From
			p.From = pathData(p.Segments, func(pt interaction.Point) (float64, float64) {
				return prev.Map(pt.Date), pt.Y
			})
			f.Transition = in.Transition
		}
		f.Paths = append(f.Paths, p)
	}
	return f
}

func segments(s domain.Series, field domain.Field, x scale.Time, y scale.Linear) [][]interaction.Point {
	var out [][]interaction.Point
	var cur []interaction.Point
	for _, o := range s.Observations {
		if !o.Defined(field) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		v := o.Value(field)
		cur = append(cur, interaction.Point{
			X:        x.Map(o.Date),
			Y:        y.Map(v),
			Location: s.Location,
			Date:     o.Date,
			Value:    v,
		})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func pathData(segs [][]interaction.Point, xy func(interaction.Point) (float64, float64)) string {
	var b strings.Builder
	for _, seg := range segs {
		for i, pt := range seg {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			x, y := xy(pt)
			b.WriteString(num(x))
			b.WriteByte(',')
			b.WriteString(num(y))
		}
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
