package render

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/precip-chart/internal/interaction"
)

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" class="chart" width="{{num .Layout.Width}}" height="{{num .Layout.Height}}" viewBox="0 0 {{num .Layout.Width}} {{num .Layout.Height}}" font-family="sans-serif" font-size="10">
<style>
.line { fill: none; stroke-width: {{num .StrokeWidth}}px; }
.lines:hover .line { stroke-opacity: 0.1; }
.lines .line:hover { stroke-opacity: 1; }
.axis path, .axis line { fill: none; stroke: #000; shape-rendering: crispEdges; }
.overlay { fill: none; pointer-events: all; cursor: crosshair; }
.dot { fill: transparent; }
</style>
<defs><clipPath id="clip"><rect width="{{num $.Layout.PlotWidth}}" height="{{num $.Layout.PlotHeight}}"></rect></clipPath></defs>
<g transform="translate({{num .Layout.Margin.Left}},{{num .Layout.Margin.Top}})">
<g class="x axis" transform="translate(0,{{num $.Layout.PlotHeight}})">
<path d="M0,6V0H{{num $.Layout.PlotWidth}}V6"></path>
{{- range .XTicks}}
<g class="tick" transform="translate({{num .Pos}},0)"><line y2="6"></line><text y="9" dy=".71em" text-anchor="middle">{{.Label}}</text></g>
{{- end}}
</g>
<g class="y axis">
<path d="M-6,0H0V{{num $.Layout.PlotHeight}}H-6"></path>
{{- range .YTicks}}
<g class="tick" transform="translate(0,{{num .Pos}})"><line x2="-6"></line><text x="-9" dy=".32em" text-anchor="end">{{.Label}}</text></g>
{{- end}}
<text x="4" y="12" text-anchor="start" class="label">{{.Label}}</text>
</g>
<g class="brush"><rect class="overlay" width="{{num $.Layout.PlotWidth}}" height="{{num $.Layout.PlotHeight}}"></rect></g>
{{- if .NoData}}
<text class="no-data" x="{{num (half $.Layout.PlotWidth)}}" y="{{num (half $.Layout.PlotHeight)}}" text-anchor="middle">No data for {{.Label}}</text>
{{- else}}
<g class="lines" clip-path="url(#clip)">
{{- range .Paths}}
<path class="line" data-location="{{.Location}}" d="{{.D}}" stroke="{{.Color}}" stroke-opacity="{{num .Opacity}}">
{{- if .From}}<animate attributeName="d" from="{{.From}}" to="{{.D}}" dur="{{$.TransitionDur}}" fill="freeze"></animate>{{end -}}
</path>
{{- end}}
</g>
<g class="dots" clip-path="url(#clip)">
{{- range $p := .Paths}}{{range $seg := .Segments}}{{range $seg}}
<circle class="dot" cx="{{num .X}}" cy="{{num .Y}}" r="3"><title>{{tooltip .}}</title></circle>
{{- end}}{{end}}{{end}}
</g>
{{- end}}
<g class="legend">
{{- range .Legend}}
<g class="legend-item" data-location="{{.Location.Code}}" transform="translate(0,{{num .Y}})">
<rect x="{{num $.LegendX}}" width="18" height="18" fill="{{.Color}}"></rect>
<text x="{{num $.LegendTextX}}" y="9" dy=".35em" text-anchor="end">{{.Label}}</text>
</g>
{{- end}}
</g>
</g>
</svg>
`

var svg = template.Must(template.New("chart").Funcs(template.FuncMap{
	"num":  num,
	"half": func(v float64) float64 { return v / 2 },
	"tooltip": func(p interaction.Point) string {
		return strings.Join(interaction.Show(p, 0, 0).Lines(), "\n")
	},
}).Parse(svgTemplate))

// WriteSVG renders f as a standalone SVG document.
func WriteSVG(w io.Writer, f Frame) error {
	if err := svg.Execute(w, f); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

// StrokeWidth of the series paths.
func (f Frame) StrokeWidth() float64 { return lineWidth }

// LegendX is the left edge of the legend swatches.
func (f Frame) LegendX() float64 { return f.Layout.PlotWidth() - 100 }

// LegendTextX is the right edge of the legend labels.
func (f Frame) LegendTextX() float64 { return f.LegendX() - 20 }

// TransitionDur is the transition duration in SVG clock syntax.
func (f Frame) TransitionDur() string {
	return strconv.FormatFloat(f.Transition.Seconds(), 'f', -1, 64) + "s"
}
