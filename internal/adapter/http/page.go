package http

import (
	"html/template"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-chart/internal/domain"
)

type pageData struct {
	Fields   []domain.Field
	Selected domain.Field
	Ready    bool
}

var funcs = template.FuncMap{
	"px": func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) + "px" },
	"ms": func(d time.Duration) string { return strconv.FormatInt(d.Milliseconds(), 10) + "ms" },
}

var page = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Daily precipitation</title>
<style>
body { font: 12px sans-serif; }
div.tooltip { position: absolute; padding: 4px 6px; background: lightsteelblue; border-radius: 6px; pointer-events: none; }
</style>
</head>
<body>
<select id="variableSelector">
{{- range .Fields}}
<option value="{{.}}"{{if eq . $.Selected}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>
<div id="my_dataviz">{{if not .Ready}}<p>Loading data...</p>{{end}}</div>
<div id="tooltip" class="tooltip" style="opacity: 0"></div>
<script>
(function () {
  var mount = document.getElementById('my_dataviz');
  var selector = document.getElementById('variableSelector');
  var dragStart = null;
  var pending = false;

  function load() {
    fetch('chart.svg').then(function (r) {
      if (!r.ok) { throw new Error('status ' + r.status); }
      return r.text();
    }).then(function (svg) {
      mount.innerHTML = svg;
      bind();
    }).catch(function () { setTimeout(load, 1000); });
  }

  function plotPoint(ev) {
    var svg = mount.querySelector('svg');
    var plot = svg.querySelector('.brush').getBoundingClientRect();
    return { x: ev.clientX - plot.left, y: ev.clientY - plot.top };
  }

  function waitForReset(version, tries) {
    if (tries === 0) { return; }
    setTimeout(function () {
      fetch('api/view').then(function (r) { return r.json(); }).then(function (res) {
        if (res.version !== version) { load(); } else { waitForReset(version, tries - 1); }
      });
    }, 200);
  }

  function brush(x0, x1) {
    var body = new URLSearchParams();
    if (x0 !== x1) { body.set('x0', x0); body.set('x1', x1); }
    fetch('brush', { method: 'POST', body: body }).then(function (r) { return r.json(); }).then(function (res) {
      if (res.outcome === 'zoomed') { load(); }
      if (res.outcome === 'reset_armed') { waitForReset(res.version, 10); }
    });
  }

  function highlight(code) {
    mount.querySelectorAll('path.line').forEach(function (p) {
      p.setAttribute('stroke-opacity', !code || p.dataset.location === code ? 1 : 0.1);
    });
  }

  function tooltip(ev) {
    if (pending) { return; }
    pending = true;
    var p = plotPoint(ev);
    var q = new URLSearchParams({ x: p.x, y: p.y, pageX: ev.pageX, pageY: ev.pageY });
    fetch('tooltip?' + q).then(function (r) { return r.text(); }).then(function (html) {
      document.getElementById('tooltip').outerHTML = html;
      pending = false;
    }).catch(function () { pending = false; });
  }

  function bind() {
    var svg = mount.querySelector('svg');
    svg.querySelector('.overlay').addEventListener('mousedown', function (ev) {
      dragStart = plotPoint(ev).x;
    });
    svg.addEventListener('mouseup', function (ev) {
      if (dragStart === null) { return; }
      var x0 = dragStart;
      dragStart = null;
      brush(x0, plotPoint(ev).x);
    });
    svg.addEventListener('mousemove', tooltip);
    svg.querySelectorAll('.legend-item').forEach(function (g) {
      g.addEventListener('mouseover', function () { highlight(g.dataset.location); });
      g.addEventListener('mouseleave', function () { highlight(''); });
    });
  }

  selector.addEventListener('change', function () {
    var body = new URLSearchParams({ variable: selector.value });
    fetch('variable', { method: 'POST', body: body }).then(load);
  });

  load();
})();
</script>
</body>
</html>
`))

var tooltip = template.Must(template.New("tooltip").Funcs(funcs).Parse(
	`<div id="tooltip" class="tooltip" style="left: {{px .Left}}; top: {{px .Top}}; opacity: {{.Opacity}}; transition: opacity {{ms .Fade}}">` +
		`{{range $i, $line := .Lines}}{{if $i}}<br/>{{end}}{{$line}}{{end}}</div>`,
))
