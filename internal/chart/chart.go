// Package chart owns the mutable view of the precipitation chart: the
// selected field, the visible time window and the running transition. All
// view changes go through the Controller.
package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/interaction"
	"github.com/couchcryptid/precip-chart/internal/observability"
	"github.com/couchcryptid/precip-chart/internal/render"
	"github.com/couchcryptid/precip-chart/internal/scale"
	"github.com/couchcryptid/precip-chart/internal/zoom"
)

const (
	// DefaultTransition is how long axis and paths animate after a zoom or reset.
	DefaultTransition = time.Second
	// HitRadius is how close, in pixels, a pointer must be to a point to show its tooltip.
	HitRadius = 6

	publishTimeout = 5 * time.Second
)

// ErrNoDates is returned when the dataset has no parseable date and no
// window was configured.
var ErrNoDates = errors.New("dataset has no valid dates")

// Publisher receives view change events.
type Publisher interface {
	Publish(ctx context.Context, event domain.ViewEvent) error
}

type transition struct {
	from    scale.Time
	started time.Time
}

// Controller is the single owner of chart state. Its methods are safe for
// concurrent use. When both are needed the zoom controller's lock is taken
// before this one.
type Controller struct {
	mu sync.Mutex

	dataset   *domain.Dataset
	series    []domain.Series
	locations []domain.Location
	colors    domain.ColorAssignment
	scales    *scale.Manager
	layout    render.Layout

	view        domain.ViewState
	extentStart time.Time
	extentEnd   time.Time
	homeStart   time.Time
	homeEnd     time.Time
	trans       *transition
	version     uint64

	clock      clockwork.Clock
	transDur   time.Duration
	resetDelay time.Duration
	zoom       *zoom.Controller
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics

	window *[2]time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock for transitions, event timestamps and the zoom reset timer.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithLayout sets the chart size and margins.
func WithLayout(l render.Layout) Option {
	return func(ctl *Controller) { ctl.layout = l }
}

// WithVariable sets the initially plotted field.
func WithVariable(f domain.Field) Option {
	return func(ctl *Controller) { ctl.view.Variable = f }
}

// WithWindow sets a literal initial time window instead of the data extent.
func WithWindow(start, end time.Time) Option {
	return func(ctl *Controller) { ctl.window = &[2]time.Time{start, end} }
}

// WithTransition sets the zoom transition duration. Zero disables transitions.
func WithTransition(d time.Duration) Option {
	return func(ctl *Controller) { ctl.transDur = d }
}

// WithResetDelay sets the zoom reset debounce.
func WithResetDelay(d time.Duration) Option {
	return func(ctl *Controller) { ctl.resetDelay = d }
}

// WithPublisher sends every view change to p.
func WithPublisher(p Publisher) Option {
	return func(ctl *Controller) { ctl.publisher = p }
}

// New creates a controller for a loaded dataset. The legend lists locations in
// order; colours follow the order in which locations appear in the dataset.
func New(ds *domain.Dataset, locations []domain.Location, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Controller, error) {
	c := &Controller{
		dataset:    ds,
		locations:  locations,
		layout:     render.DefaultLayout(),
		view:       domain.ViewState{Variable: domain.ActualPrecipitation},
		clock:      clockwork.NewRealClock(),
		transDur:   DefaultTransition,
		resetDelay: zoom.DefaultResetDelay,
		logger:     logger,
		metrics:    metrics,
		version:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := domain.ParseField(string(c.view.Variable)); err != nil {
		return nil, err
	}

	start, end, ok := ds.DateExtent()
	switch {
	case ok:
	case c.window != nil:
		start, end = c.window[0], c.window[1]
	default:
		return nil, ErrNoDates
	}
	c.extentStart, c.extentEnd = start, end
	c.homeStart, c.homeEnd = start, end
	if c.window != nil {
		c.homeStart, c.homeEnd = c.window[0], c.window[1]
	}
	c.view.Start, c.view.End = c.homeStart, c.homeEnd

	c.series = domain.GroupSeries(ds)
	c.colors = domain.NewColorAssignment(ds.LocationIDs())
	c.scales = scale.NewManager(c.layout.PlotWidth(), c.layout.PlotHeight())
	c.zoom = zoom.New(c,
		zoom.WithClock(c.clock),
		zoom.WithResetDelay(c.resetDelay),
		zoom.WithResetHook(c.onReset),
	)
	return c, nil
}

// Close cancels a pending zoom reset.
func (c *Controller) Close() {
	c.zoom.Stop()
}

// View returns the current view state.
func (c *Controller) View() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Version increases with every view change.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Extent returns the full date extent used by a zoom reset.
func (c *Controller) Extent() (time.Time, time.Time) {
	return c.extentStart, c.extentEnd
}

// ZoomState returns the zoom state machine's state.
func (c *Controller) ZoomState() zoom.State {
	return c.zoom.State()
}

// Colors returns the location colour assignment.
func (c *Controller) Colors() domain.ColorAssignment {
	return c.colors
}

// SelectVariable switches the plotted field. The time window is kept and the
// value scale is recomputed for the new field.
func (c *Controller) SelectVariable(ctx context.Context, f domain.Field) error {
	if _, err := domain.ParseField(string(f)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.view.Variable == f {
		c.mu.Unlock()
		return nil
	}
	c.view.Variable = f
	c.trans = nil
	c.version++
	ev := c.eventLocked(domain.ViewEventVariable)
	c.mu.Unlock()

	c.metrics.ViewChanges.WithLabelValues(string(domain.ViewEventVariable)).Inc()
	c.logger.Info("variable selected", "variable", f, "version", ev.Version)
	c.publish(ctx, ev)
	return nil
}

// Brush handles the end of a brush gesture over the plot area. A nil
// selection is a click without drag.
func (c *Controller) Brush(ctx context.Context, sel *zoom.Selection) zoom.Outcome {
	outcome := c.zoom.BrushEnd(sel)
	c.metrics.ZoomOutcomes.WithLabelValues(outcome.String()).Inc()

	if outcome == zoom.Zoomed {
		c.mu.Lock()
		ev := c.eventLocked(domain.ViewEventZoom)
		c.mu.Unlock()

		c.metrics.ViewChanges.WithLabelValues(string(domain.ViewEventZoom)).Inc()
		c.logger.Info("zoomed", "start", ev.View.Start, "end", ev.View.End, "version", ev.Version)
		c.publish(ctx, ev)
	}
	return outcome
}

// Frame lays out the chart for the current view with the given location
// highlighted (empty for none). It also returns the view version the frame
// was built from.
func (c *Controller) Frame(highlight string) (render.Frame, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.scales.Compute(c.dataset, c.view)
	in := render.Input{
		Layout:    c.layout,
		Series:    c.series,
		Locations: c.locations,
		Colors:    c.colors,
		Variable:  c.view.Variable,
		Scales:    sc,
		NoData:    errors.Is(err, scale.ErrNoData),
		Highlight: interaction.Leave(),
		Zoomed:    !c.view.Start.Equal(c.homeStart) || !c.view.End.Equal(c.homeEnd),
	}
	if highlight != "" {
		in.Highlight = interaction.Hover(highlight)
	}
	if c.trans != nil {
		if elapsed := c.clock.Since(c.trans.started); elapsed < c.transDur {
			from := c.trans.from
			in.From = &from
			in.Transition = c.transDur - elapsed
		} else {
			c.trans = nil
		}
	}
	return render.Build(in), c.version
}

// Tooltip returns the tooltip for a pointer at plot coordinates (x, y) and
// page coordinates (pageX, pageY). It is hidden when no point inside the
// plot area is within HitRadius.
func (c *Controller) Tooltip(x, y, pageX, pageY float64) interaction.Tooltip {
	f, _ := c.Frame("")
	width := f.Layout.PlotWidth()
	var visible []interaction.Point
	for _, p := range f.Points() {
		if p.X >= 0 && p.X <= width {
			visible = append(visible, p)
		}
	}
	p, ok := interaction.Nearest(visible, x, y, HitRadius)
	if !ok {
		return interaction.Hide()
	}
	return interaction.Show(p, pageX, pageY)
}

// TimeScale implements zoom.Target.
func (c *Controller) TimeScale() scale.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeScaleLocked()
}

// SetTimeDomain implements zoom.Target.
func (c *Controller) SetTimeDomain(start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setDomainLocked(start, end)
}

// ResetTimeDomain implements zoom.Target.
func (c *Controller) ResetTimeDomain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setDomainLocked(c.extentStart, c.extentEnd)
}

func (c *Controller) timeScaleLocked() scale.Time {
	return c.scales.TimeScale(c.view.Start, c.view.End)
}

func (c *Controller) setDomainLocked(start, end time.Time) {
	if c.transDur > 0 {
		c.trans = &transition{from: c.timeScaleLocked(), started: c.clock.Now()}
	}
	c.view.Start, c.view.End = start, end
	c.version++
}

func (c *Controller) onReset() {
	c.mu.Lock()
	ev := c.eventLocked(domain.ViewEventReset)
	c.mu.Unlock()

	c.metrics.ViewChanges.WithLabelValues(string(domain.ViewEventReset)).Inc()
	c.logger.Info("zoom reset", "start", ev.View.Start, "end", ev.View.End, "version", ev.Version)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	c.publish(ctx, ev)
}

func (c *Controller) eventLocked(kind domain.ViewEventKind) domain.ViewEvent {
	return domain.ViewEvent{
		Kind:    kind,
		View:    c.view,
		Version: c.version,
		At:      c.clock.Now(),
	}
}

func (c *Controller) publish(ctx context.Context, ev domain.ViewEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Warn("publish view event failed", "kind", ev.Kind, "error", fmt.Errorf("version %d: %w", ev.Version, err))
	}
}
