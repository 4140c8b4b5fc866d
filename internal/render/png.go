package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/precip-chart/internal/scale"
)

// WritePNG renders f as a static PNG image. Gaps in a series are bridged
// and transitions are not drawn.
func WritePNG(w io.Writer, f Frame) error {
	if f.NoData {
		return fmt.Errorf("render png %s: %w", f.Variable, scale.ErrNoData)
	}

	var series []chart.Series
	for _, p := range f.Paths {
		ts := chart.TimeSeries{
			Name: legendName(f, p.Location),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(p.Color, "#")).WithAlpha(uint8(p.Opacity * 255)),
				StrokeWidth: lineWidth,
			},
		}
		for _, seg := range p.Segments {
			for _, pt := range seg {
				if pt.Date.Before(f.XStart) || pt.Date.After(f.XEnd) {
					continue
				}
				ts.XValues = append(ts.XValues, pt.Date)
				ts.YValues = append(ts.YValues, pt.Value)
			}
		}
		if len(ts.XValues) < 2 {
			continue
		}
		series = append(series, ts)
	}
	if len(series) == 0 {
		return fmt.Errorf("render png %s: %w", f.Variable, scale.ErrNoData)
	}

	graph := chart.Chart{
		Width:  int(f.Layout.Width),
		Height: int(f.Layout.Height),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    int(f.Layout.Margin.Top),
				Right:  int(f.Layout.Margin.Right),
				Bottom: int(f.Layout.Margin.Bottom),
				Left:   int(f.Layout.Margin.Left),
			},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(pngTimeFormat(f.XEnd.Sub(f.XStart))),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(f.XStart),
				Max: chart.TimeToFloat64(f.XEnd),
			},
		},
		YAxis: chart.YAxis{
			Name: f.Label(),
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: f.YMax,
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

func legendName(f Frame, id string) string {
	for _, item := range f.Legend {
		if item.Location.Code == id {
			return item.Label()
		}
	}
	return id
}

func pngTimeFormat(span time.Duration) string {
	switch {
	case span > 60*24*time.Hour:
		return "Jan 2006"
	case span > 2*24*time.Hour:
		return "Jan 02"
	default:
		return "Jan 02 15:04"
	}
}
