package chart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/interaction"
	"github.com/couchcryptid/precip-chart/internal/observability"
	"github.com/couchcryptid/precip-chart/internal/zoom"
)

var (
	d1 = time.Date(2014, time.July, 1, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2014, time.July, 2, 0, 0, 0, 0, time.UTC)
	d3 = time.Date(2014, time.July, 3, 0, 0, 0, 0, time.UTC)
)

var testLocations = []domain.Location{
	{Code: "CLT", Name: "Charlotte, North Carolina", File: "CLT.csv"},
	{Code: "PHX", Name: "Phoenix, Arizona", File: "PHX.csv"},
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ViewEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ViewEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []domain.ViewEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.ViewEventKind
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

func testDataset() *domain.Dataset {
	return domain.NewDataset([]domain.Observation{
		{Location: "CLT", Date: d1, Actual: 0.1, Average: 0.2, Record: 1.0},
		{Location: "CLT", Date: d2, Actual: 0.5, Average: 0.3, Record: 2.0},
		{Location: "CLT", Date: d3, Actual: 0.0, Average: 0.1, Record: 1.5},
		{Location: "PHX", Date: d1, Actual: 0.0, Average: 0.05, Record: 0.5},
		{Location: "PHX", Date: d2, Actual: 0.2, Average: 0.4, Record: 0.7},
		{Location: "PHX", Date: d3, Actual: 0.0, Average: 0.15, Record: 0.9},
	})
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *clockwork.FakeClock, *recordingPublisher) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(clock), WithPublisher(pub)}, opts...)
	c, err := New(testDataset(), testLocations, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting(), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clock, pub
}

func TestNew_InitialViewIsDataExtent(t *testing.T) {
	c, _, _ := newTestController(t)

	v := c.View()
	assert.Equal(t, domain.ActualPrecipitation, v.Variable)
	assert.Equal(t, d1, v.Start)
	assert.Equal(t, d3, v.End)
	assert.Equal(t, uint64(1), c.Version())
	assert.Equal(t, []string{"CLT", "PHX"}, c.Colors().IDs())
}

func TestNew_LiteralWindow(t *testing.T) {
	start := time.Date(2014, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, time.July, 30, 0, 0, 0, 0, time.UTC)
	c, _, _ := newTestController(t, WithWindow(start, end), WithVariable(domain.RecordPrecipitation))

	v := c.View()
	assert.Equal(t, start, v.Start)
	assert.Equal(t, end, v.End)
	assert.Equal(t, domain.RecordPrecipitation, v.Variable)

	es, ee := c.Extent()
	assert.Equal(t, d1, es, "reset still targets the data extent")
	assert.Equal(t, d3, ee)
}

func TestNew_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	_, err := New(domain.NewDataset(nil), testLocations, logger, metrics)
	require.ErrorIs(t, err, ErrNoDates)

	_, err = New(testDataset(), testLocations, logger, metrics, WithVariable("snowfall"))
	require.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestFrame_TwoLocationsThreeDays(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.SelectVariable(context.Background(), domain.AveragePrecipitation))

	f, version := c.Frame("")
	assert.Equal(t, uint64(2), version)
	require.Len(t, f.Paths, 2)
	assert.InDelta(t, 0.4, f.YMax, 1e-9)

	plotHeight := f.Layout.PlotHeight()
	for _, p := range f.Paths {
		require.Len(t, p.Segments, 1)
		pts := p.Segments[0]
		require.Len(t, pts, 3)
		for i := 1; i < len(pts); i++ {
			assert.Greater(t, pts[i].X, pts[i-1].X, "x increases with date")
		}
		for _, pt := range pts {
			want := plotHeight - pt.Value/0.4*plotHeight
			assert.InDelta(t, want, pt.Y, 1e-9, "y follows the shared value scale")
		}
	}
	assert.Equal(t, "#66c2a5", f.Paths[0].Color)
	assert.Equal(t, "#fc8d62", f.Paths[1].Color)
}

func TestSelectVariable_KeepsTimeDomain(t *testing.T) {
	c, _, pub := newTestController(t)
	require.Equal(t, zoom.Zoomed, c.Brush(context.Background(), &zoom.Selection{X0: 100, X1: 900}))
	zoomed := c.View()

	f, _ := c.Frame("")
	assert.InDelta(t, 0.5, f.YMax, 1e-9)

	require.NoError(t, c.SelectVariable(context.Background(), domain.RecordPrecipitation))

	v := c.View()
	assert.Equal(t, zoomed.Start, v.Start)
	assert.Equal(t, zoomed.End, v.End)
	f, _ = c.Frame("")
	assert.InDelta(t, 2.0, f.YMax, 1e-9)
	assert.Zero(t, f.Transition, "variable change redraws without a transition")

	assert.Equal(t, []domain.ViewEventKind{domain.ViewEventZoom, domain.ViewEventVariable}, pub.kinds())
}

func TestSelectVariable_Errors(t *testing.T) {
	c, _, pub := newTestController(t)

	err := c.SelectVariable(context.Background(), "snowfall")
	require.ErrorIs(t, err, domain.ErrUnknownField)

	require.NoError(t, c.SelectVariable(context.Background(), domain.ActualPrecipitation))
	assert.Equal(t, uint64(1), c.Version(), "selecting the current field is a no-op")
	assert.Empty(t, pub.kinds())
}

func TestSelectVariable_PublishErrorIsNotFatal(t *testing.T) {
	c, _, pub := newTestController(t)
	pub.err = errors.New("broker down")

	require.NoError(t, c.SelectVariable(context.Background(), domain.RecordPrecipitation))
	assert.Equal(t, domain.RecordPrecipitation, c.View().Variable)
}

func TestBrush_ZoomThenResetRestoresExtent(t *testing.T) {
	c, clock, pub := newTestController(t)
	pre := c.TimeScale()

	require.Equal(t, zoom.Zoomed, c.Brush(context.Background(), &zoom.Selection{X0: 300, X1: 1200}))
	v := c.View()
	assert.Equal(t, pre.Invert(300), v.Start)
	assert.Equal(t, pre.Invert(1200), v.End)
	assert.Equal(t, zoom.Idle, c.ZoomState())

	require.Equal(t, zoom.ResetArmed, c.Brush(context.Background(), nil))
	assert.Equal(t, zoom.Ignored, c.Brush(context.Background(), nil))
	assert.Equal(t, pre.Invert(300), c.View().Start, "no immediate reset")

	clock.Advance(zoom.DefaultResetDelay)
	require.Eventually(t, func() bool {
		v := c.View()
		return v.Start.Equal(d1) && v.End.Equal(d3)
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(pub.kinds()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.ViewEventKind{domain.ViewEventZoom, domain.ViewEventReset}, pub.kinds())
}

func TestFrame_TransitionAfterZoom(t *testing.T) {
	c, clock, _ := newTestController(t)

	f, _ := c.Frame("")
	require.NotEmpty(t, f.XTicks)
	assert.Equal(t, "July 2014", f.XTicks[0].Label)

	require.Equal(t, zoom.Zoomed, c.Brush(context.Background(), &zoom.Selection{X0: 0, X1: 755}))
	f, _ = c.Frame("")
	assert.Equal(t, DefaultTransition, f.Transition)
	for _, p := range f.Paths {
		assert.NotEmpty(t, p.From)
	}

	clock.Advance(400 * time.Millisecond)
	f, _ = c.Frame("")
	assert.Equal(t, 600*time.Millisecond, f.Transition)

	clock.Advance(time.Second)
	f, _ = c.Frame("")
	assert.Zero(t, f.Transition)
	for _, p := range f.Paths {
		assert.Empty(t, p.From)
	}
}

func TestFrame_NoTransitionWhenDisabled(t *testing.T) {
	c, _, _ := newTestController(t, WithTransition(0))
	require.Equal(t, zoom.Zoomed, c.Brush(context.Background(), &zoom.Selection{X0: 0, X1: 755}))

	f, _ := c.Frame("")
	assert.Zero(t, f.Transition)
}

func TestFrame_Highlight(t *testing.T) {
	c, _, _ := newTestController(t)

	f, _ := c.Frame("PHX")
	got := map[string]float64{}
	for _, p := range f.Paths {
		got[p.Location] = p.Opacity
	}
	want := map[string]float64{"CLT": interaction.DimmedOpacity, "PHX": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("opacity mismatch (-want +got):\n%s", diff)
	}
}

func TestFrame_NoDataForAllNaNField(t *testing.T) {
	ds := domain.NewDataset([]domain.Observation{
		{Location: "CLT", Date: d1, Actual: 0.1, Average: 0.2, Record: math.NaN()},
		{Location: "CLT", Date: d2, Actual: 0.3, Average: 0.2, Record: math.NaN()},
	})
	c, err := New(ds, testLocations[:1], slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting(),
		WithClock(clockwork.NewFakeClock()), WithVariable(domain.RecordPrecipitation))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	f, _ := c.Frame("")
	assert.True(t, f.NoData)
	assert.Empty(t, f.Paths)
}

func TestTooltip(t *testing.T) {
	c, _, _ := newTestController(t)
	f, _ := c.Frame("")
	target := f.Paths[0].Segments[0][1]

	tip := c.Tooltip(target.X+2, target.Y-2, 400, 300)
	require.True(t, tip.Visible)
	assert.Equal(t, []string{"CLT", "Wed Jul 02 2014", "0.5"}, tip.Lines())
	assert.InDelta(t, 405, tip.Left, 1e-9)
	assert.InDelta(t, 272, tip.Top, 1e-9)

	tip = c.Tooltip(-100, -100, 0, 0)
	assert.False(t, tip.Visible)
}

func TestTooltip_IgnoresClippedPoints(t *testing.T) {
	c, _, _ := newTestController(t)
	w := c.layout.PlotWidth()

	// Zoom so the last day lands 3px right of the plot area.
	require.Equal(t, zoom.Zoomed, c.Brush(context.Background(), &zoom.Selection{X0: 0, X1: w * w / (w + 3)}))

	f, _ := c.Frame("")
	last := f.Paths[0].Segments[0][2]
	require.Equal(t, d3, last.Date)
	require.Greater(t, last.X, w)
	require.Less(t, last.X-w, float64(HitRadius))

	tip := c.Tooltip(w, last.Y, 0, 0)
	assert.False(t, tip.Visible)

	mid := f.Paths[0].Segments[0][1]
	tip = c.Tooltip(mid.X, mid.Y, 0, 0)
	require.True(t, tip.Visible)
	assert.Equal(t, "CLT", tip.Location)
}
